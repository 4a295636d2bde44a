package connectedapp

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// UpdatePatch частичное обновление подключенного приложения.
// nil-поля не изменяются
type UpdatePatch struct {
	Status     *domain.AppStatus
	StatusText *string
	Settings   map[string]string
}

// Repository репозиторий подключенных приложений тенанта
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория приложений
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись установленного приложения
func (r *Repository) Create(ctx context.Context, app *domain.ConnectedApp) (*domain.ConnectedApp, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	settingsJSON, err := marshalSettings(app.Settings)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Insert("connected_apps").
		Columns("tenant_id", "app_type", "name", "status", "status_text", "scopes", "settings").
		Values(
			app.TenantID,
			app.Type,
			app.Name,
			app.Status,
			app.StatusText,
			pq.Array(scopesToStrings(app.Scopes)),
			settingsJSON,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&app.ID, &createdAt, &updatedAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	app.CreatedAt = createdAt.Time
	app.UpdatedAt = updatedAt.Time

	return app, nil
}

// GetByID получает приложение по ID в рамках тенанта
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.ConnectedApp, error) {
	apps, err := r.list(ctx, squirrel.Eq{"id": id, "tenant_id": tenantID})
	if err != nil {
		return nil, err
	}
	if len(apps) == 0 {
		return nil, ErrAppNotFound
	}
	return apps[0], nil
}

// GetByTenant получает все установленные приложения тенанта
func (r *Repository) GetByTenant(ctx context.Context, tenantID int64) ([]*domain.ConnectedApp, error) {
	return r.list(ctx, squirrel.Eq{"tenant_id": tenantID})
}

// GetByTenantAndType получает приложения тенанта заданного типа
func (r *Repository) GetByTenantAndType(ctx context.Context, tenantID int64, appType string) ([]*domain.ConnectedApp, error) {
	return r.list(ctx, squirrel.Eq{"tenant_id": tenantID, "app_type": appType})
}

// Update применяет частичное обновление приложения.
// Приложения не удаляются физически, отключение это смена статуса
func (r *Repository) Update(ctx context.Context, tenantID, id int64, patch UpdatePatch) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update("connected_apps").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID})

	if patch.Status != nil {
		builder = builder.Set("status", *patch.Status)
	}
	if patch.StatusText != nil {
		builder = builder.Set("status_text", *patch.StatusText)
	}
	if patch.Settings != nil {
		settingsJSON, err := marshalSettings(patch.Settings)
		if err != nil {
			return err
		}
		builder = builder.Set("settings", settingsJSON)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Update - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		return ErrAppNotFound
	}

	return nil
}

func (r *Repository) list(ctx context.Context, where squirrel.Eq) ([]*domain.ConnectedApp, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"app_type",
		"name",
		"status",
		"status_text",
		"scopes",
		"settings",
		"created_at",
		"updated_at",
	).
		From("connected_apps").
		Where(where).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: list - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var apps []*domain.ConnectedApp
	for rows.Next() {
		var app domain.ConnectedApp
		var scopes []string
		var settingsJSON []byte
		var createdAt, updatedAt sql.NullTime

		if err := rows.Scan(
			&app.ID,
			&app.TenantID,
			&app.Type,
			&app.Name,
			&app.Status,
			&app.StatusText,
			pq.Array(&scopes),
			&settingsJSON,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: list - scan app: %v", ErrScanRow, err)
		}

		app.Scopes = stringsToScopes(scopes)
		if len(settingsJSON) > 0 {
			if err := json.Unmarshal(settingsJSON, &app.Settings); err != nil {
				return nil, fmt.Errorf("%w: list - unmarshal settings: %v", ErrScanRow, err)
			}
		}
		app.CreatedAt = createdAt.Time
		app.UpdatedAt = updatedAt.Time

		apps = append(apps, &app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list - iterate rows: %v", ErrExecQuery, err)
	}

	return apps, nil
}

func scopesToStrings(scopes []domain.AppScope) []string {
	out := make([]string, len(scopes))
	for i, s := range scopes {
		out[i] = string(s)
	}
	return out
}

func stringsToScopes(values []string) []domain.AppScope {
	out := make([]domain.AppScope, len(values))
	for i, v := range values {
		out[i] = domain.AppScope(v)
	}
	return out
}

func marshalSettings(settings map[string]string) ([]byte, error) {
	if settings == nil {
		settings = map[string]string{}
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal settings: %v", ErrBuildQuery, err)
	}
	return raw, nil
}
