package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий каталога: услуги, аддоны и скидки тенанта
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория каталога
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetOption получает услугу по ID в рамках тенанта
func (r *Repository) GetOption(ctx context.Context, tenantID, id int64) (*domain.ServiceOption, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"name",
		"duration_type",
		"duration_minutes",
		"price",
		"price_per_hour",
		"min_duration_minutes",
		"max_duration_minutes",
		"step_minutes",
		"created_at",
		"updated_at",
	).
		From("service_options").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetOption - build select query: %v", ErrBuildQuery, err)
	}

	var option domain.ServiceOption
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&option.ID,
		&option.TenantID,
		&option.Name,
		&option.DurationType,
		&option.Duration,
		&option.Price,
		&option.PricePerHour,
		&option.MinDuration,
		&option.MaxDuration,
		&option.StepMinutes,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrOptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetOption - scan option: %v", ErrScanRow, err)
	}

	option.CreatedAt = createdAt.Time
	option.UpdatedAt = updatedAt.Time

	return &option, nil
}

// GetAddonsByIDs получает аддоны по списку ID.
// Если хотя бы один ID не найден, возвращает ErrAddonNotFound:
// частичный результат недопустим для расчета цены
func (r *Repository) GetAddonsByIDs(ctx context.Context, tenantID int64, ids []int64) ([]domain.Addon, error) {
	if len(ids) == 0 {
		return []domain.Addon{}, nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"name",
		"duration_minutes",
		"price",
		"created_at",
		"updated_at",
	).
		From("addons").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Expr("id = ANY(?)", pq.Array(ids))).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetAddonsByIDs - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetAddonsByIDs - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	found := make(map[int64]domain.Addon, len(ids))
	for rows.Next() {
		var addon domain.Addon
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(
			&addon.ID,
			&addon.TenantID,
			&addon.Name,
			&addon.Duration,
			&addon.Price,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: GetAddonsByIDs - scan addon: %v", ErrScanRow, err)
		}
		addon.CreatedAt = createdAt.Time
		addon.UpdatedAt = updatedAt.Time
		found[addon.ID] = addon
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetAddonsByIDs - iterate rows: %v", ErrExecQuery, err)
	}

	// Сохраняем порядок запрошенных ID и проверяем полноту
	addons := make([]domain.Addon, 0, len(ids))
	for _, id := range ids {
		addon, ok := found[id]
		if !ok {
			return nil, fmt.Errorf("%w: id=%d", ErrAddonNotFound, id)
		}
		addons = append(addons, addon)
	}

	return addons, nil
}

// GetDiscountByCode получает скидку по коду в рамках тенанта
func (r *Repository) GetDiscountByCode(ctx context.Context, tenantID int64, code string) (*domain.Discount, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"code",
		"name",
		"discount_type",
		"value",
		"starts_at",
		"ends_at",
		"usage_limit",
		"per_customer_limit",
		"usage_count",
		"option_ids",
		"addon_ids",
		"created_at",
		"updated_at",
	).
		From("discounts").
		Where(squirrel.Eq{"code": code, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetDiscountByCode - build select query: %v", ErrBuildQuery, err)
	}

	var discount domain.Discount
	var createdAt, updatedAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&discount.ID,
		&discount.TenantID,
		&discount.Code,
		&discount.Name,
		&discount.Type,
		&discount.Value,
		&discount.StartsAt,
		&discount.EndsAt,
		&discount.UsageLimit,
		&discount.PerCustomerLimit,
		&discount.UsageCount,
		pq.Array(&discount.OptionIDs),
		pq.Array(&discount.AddonIDs),
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrDiscountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetDiscountByCode - scan discount: %v", ErrScanRow, err)
	}

	discount.CreatedAt = createdAt.Time
	discount.UpdatedAt = updatedAt.Time

	return &discount, nil
}

// IncrementDiscountUsage фиксирует использование скидки: добавляет строку
// использования и увеличивает счетчик. Вызывается только внутри транзакции
// бронирования, превью и валидация счетчик не трогают
func (r *Repository) IncrementDiscountUsage(ctx context.Context, discountID, customerID, appointmentID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("discount_usages").
		Columns("discount_id", "customer_id", "appointment_id").
		Values(discountID, customerID, appointmentID).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: IncrementDiscountUsage - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: IncrementDiscountUsage - insert usage: %v", ErrExecQuery, err)
	}

	query, args, err = psqlbuilder.Update("discounts").
		Set("usage_count", squirrel.Expr("usage_count + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": discountID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: IncrementDiscountUsage - build update query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: IncrementDiscountUsage - update counter: %v", ErrExecQuery, err)
	}

	return nil
}

// CountDiscountUsageByCustomer возвращает число использований скидки клиентом
// для проверки per-customer лимита
func (r *Repository) CountDiscountUsageByCustomer(ctx context.Context, discountID, customerID int64) (int, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COUNT(*)").
		From("discount_usages").
		Where(squirrel.Eq{"discount_id": discountID, "customer_id": customerID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: CountDiscountUsageByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	var count int
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: CountDiscountUsageByCustomer - scan count: %v", ErrScanRow, err)
	}

	return count, nil
}
