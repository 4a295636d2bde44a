package tenantconfig

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий настроек тенанта (key/value, значения в JSON)
// Настройки read-only с точки зрения ядра: таймзона, политики отмены и
// переноса, флаги платежей
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get получает значение настройки тенанта по ключу
func (r *Repository) Get(ctx context.Context, tenantID int64, key string) (json.RawMessage, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("value").
		From("tenant_configurations").
		Where(squirrel.Eq{"tenant_id": tenantID, "key": key}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var value []byte
	err = executor.QueryRowContext(ctx, query, args...).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tenant=%d, key=%s", ErrConfigNotFound, tenantID, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan value: %v", ErrScanRow, err)
	}

	return value, nil
}

// GetMany получает несколько настроек тенанта за один запрос.
// Отсутствующие ключи в результате не представлены
func (r *Repository) GetMany(ctx context.Context, tenantID int64, keys ...string) (map[string]json.RawMessage, error) {
	if len(keys) == 0 {
		return map[string]json.RawMessage{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("key", "value").
		From("tenant_configurations").
		Where(squirrel.Eq{"tenant_id": tenantID, "key": keys}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetMany - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetMany - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	values := make(map[string]json.RawMessage, len(keys))
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: GetMany - scan row: %v", ErrScanRow, err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetMany - iterate rows: %v", ErrExecQuery, err)
	}

	return values, nil
}
