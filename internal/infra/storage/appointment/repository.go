package appointment

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

var appointmentColumns = []string{
	"id",
	"tenant_id",
	"customer_id",
	"start_at",
	"option_snapshot",
	"addon_snapshots",
	"discount_snapshot",
	"total_duration",
	"total_price",
	"status",
	"customer_name",
	"customer_email",
	"customer_phone",
	"notes",
	"rescheduled_from_id",
	"rescheduled_to_id",
	"cancellation_reason",
	"cancelled_at",
	"version",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями на прием
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новую запись со снапшотами каталога.
// Если в контексте передана активная транзакция, использует её
func (r *Repository) Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	optionJSON, addonsJSON, discountJSON, err := marshalSnapshots(appt)
	if err != nil {
		return nil, err
	}

	query, args, err := psqlbuilder.Insert("appointments").
		Columns(
			"tenant_id",
			"customer_id",
			"start_at",
			"option_snapshot",
			"addon_snapshots",
			"discount_snapshot",
			"total_duration",
			"total_price",
			"status",
			"customer_name",
			"customer_email",
			"customer_phone",
			"notes",
			"rescheduled_from_id",
		).
		Values(
			appt.TenantID,
			appt.CustomerID,
			appt.StartAt,
			optionJSON,
			addonsJSON,
			discountJSON,
			appt.TotalDuration,
			appt.TotalPrice,
			appt.Status,
			appt.CustomerName,
			appt.CustomerEmail,
			appt.CustomerPhone,
			appt.Notes,
			appt.RescheduledFromID,
		).
		Suffix("RETURNING id, version, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&appt.ID,
		&appt.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return appt, nil
}

// GetByID получает запись по ID в рамках тенанта
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	return appt, nil
}

// ListWithFilter получает записи тенанта с фильтрацией по клиенту, периоду и статусу
func (r *Repository) ListWithFilter(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Select(appointmentColumns...).
		From("appointments").
		Where(squirrel.Eq{"tenant_id": filter.TenantID}).
		OrderBy("start_at DESC")

	if filter.CustomerID != nil {
		builder = builder.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.StartDate != nil {
		builder = builder.Where(squirrel.GtOrEq{"start_at": *filter.StartDate})
	}
	if filter.EndDate != nil {
		builder = builder.Where(squirrel.LtOrEq{"start_at": *filter.EndDate})
	}
	if filter.Status != nil {
		builder = builder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeInactive {
		builder = builder.Where(squirrel.Eq{"status": []domain.AppointmentStatus{
			domain.StatusPending,
			domain.StatusConfirmed,
		}})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var appointments []*domain.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: ListWithFilter - scan appointment: %v", ErrScanRow, err)
		}
		appointments = append(appointments, appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - iterate rows: %v", ErrExecQuery, err)
	}

	return appointments, nil
}

// UpdateStatus обновляет статус записи с проверкой версии.
// Возвращает ErrVersionConflict, если запись изменена конкурентно
func (r *Repository) UpdateStatus(ctx context.Context, tenantID, id, expectedVersion int64, status domain.AppointmentStatus) error {
	return r.update(ctx, tenantID, id, expectedVersion, map[string]interface{}{
		"status": status,
	})
}

// Cancel переводит запись в статус cancelled с причиной и временем отмены
func (r *Repository) Cancel(ctx context.Context, tenantID, id, expectedVersion int64, reason *string, cancelledAt time.Time) error {
	return r.update(ctx, tenantID, id, expectedVersion, map[string]interface{}{
		"status":              domain.StatusCancelled,
		"cancellation_reason": reason,
		"cancelled_at":        cancelledAt,
	})
}

// MarkRescheduled закрывает запись со ссылкой на запись-преемника
func (r *Repository) MarkRescheduled(ctx context.Context, tenantID, id, expectedVersion, newAppointmentID int64) error {
	return r.update(ctx, tenantID, id, expectedVersion, map[string]interface{}{
		"status":            domain.StatusRescheduled,
		"rescheduled_to_id": newAppointmentID,
	})
}

func (r *Repository) update(ctx context.Context, tenantID, id, expectedVersion int64, values map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	builder := psqlbuilder.Update("appointments").
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID, "version": expectedVersion})

	for column, value := range values {
		builder = builder.Set(column, value)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: update - build update query: %v", ErrBuildQuery, err)
	}

	res, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: update - execute update: %v", ErrExecQuery, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: update - rows affected: %v", ErrExecQuery, err)
	}
	if affected == 0 {
		// Различаем "не найдено" и "конфликт версий"
		if _, err := r.GetByID(ctx, tenantID, id); err != nil {
			return ErrAppointmentNotFound
		}
		return ErrVersionConflict
	}

	return nil
}

// AppendEvent добавляет событие в append-only историю записи.
// События неизменяемы после записи
func (r *Repository) AppendEvent(ctx context.Context, event *domain.HistoryEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("appointment_events").
		Columns("id", "appointment_id", "event_type", "actor", "payload", "created_at").
		Values(event.ID, event.AppointmentID, event.Type, event.Actor, nullableJSON(event.Payload), event.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: AppendEvent - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: AppendEvent - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ListEvents получает историю записи в порядке добавления
func (r *Repository) ListEvents(ctx context.Context, appointmentID int64) ([]*domain.HistoryEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "appointment_id", "event_type", "actor", "payload", "created_at").
		From("appointment_events").
		Where(squirrel.Eq{"appointment_id": appointmentID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var events []*domain.HistoryEvent
	for rows.Next() {
		var event domain.HistoryEvent
		var payload []byte
		if err := rows.Scan(&event.ID, &event.AppointmentID, &event.Type, &event.Actor, &payload, &event.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListEvents - scan event: %v", ErrScanRow, err)
		}
		event.Payload = payload
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListEvents - iterate rows: %v", ErrExecQuery, err)
	}

	return events, nil
}

// rowScanner объединяет *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var appt domain.Appointment
	var optionJSON, addonsJSON []byte
	var discountJSON []byte
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&appt.ID,
		&appt.TenantID,
		&appt.CustomerID,
		&appt.StartAt,
		&optionJSON,
		&addonsJSON,
		&discountJSON,
		&appt.TotalDuration,
		&appt.TotalPrice,
		&appt.Status,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.Notes,
		&appt.RescheduledFromID,
		&appt.RescheduledToID,
		&appt.CancellationReason,
		&appt.CancelledAt,
		&appt.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(optionJSON, &appt.Option); err != nil {
		return nil, err
	}
	if len(addonsJSON) > 0 {
		if err := json.Unmarshal(addonsJSON, &appt.Addons); err != nil {
			return nil, err
		}
	}
	if len(discountJSON) > 0 {
		var snapshot domain.DiscountSnapshot
		if err := json.Unmarshal(discountJSON, &snapshot); err != nil {
			return nil, err
		}
		appt.Discount = &snapshot
	}

	appt.CreatedAt = createdAt.Time
	appt.UpdatedAt = updatedAt.Time

	return &appt, nil
}

func marshalSnapshots(appt *domain.Appointment) ([]byte, []byte, interface{}, error) {
	optionJSON, err := json.Marshal(appt.Option)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: option snapshot: %v", ErrMarshalSnapshot, err)
	}

	addons := appt.Addons
	if addons == nil {
		addons = []domain.AddonSnapshot{}
	}
	addonsJSON, err := json.Marshal(addons)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: addon snapshots: %v", ErrMarshalSnapshot, err)
	}

	var discountJSON interface{}
	if appt.Discount != nil {
		raw, err := json.Marshal(appt.Discount)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%w: discount snapshot: %v", ErrMarshalSnapshot, err)
		}
		discountJSON = raw
	}

	return optionJSON, addonsJSON, discountJSON, nil
}

func nullableJSON(raw []byte) interface{} {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
