package payment

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий платежей и возвратов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория платежей
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetByID получает платеж по ID в рамках тенанта
func (r *Repository) GetByID(ctx context.Context, tenantID, id int64) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"tenant_id",
		"appointment_id",
		"method",
		"provider",
		"provider_charge_id",
		"amount",
		"currency",
		"created_at",
	).
		From("payments").
		Where(squirrel.Eq{"id": id, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var p domain.Payment
	var createdAt sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&p.ID,
		&p.TenantID,
		&p.AppointmentID,
		&p.Method,
		&p.Provider,
		&p.ProviderChargeID,
		&p.Amount,
		&p.Currency,
		&createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan payment: %v", ErrScanRow, err)
	}

	p.CreatedAt = createdAt.Time

	return &p, nil
}

// Create создает платеж
func (r *Repository) Create(ctx context.Context, p *domain.Payment) (*domain.Payment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payments").
		Columns("tenant_id", "appointment_id", "method", "provider", "provider_charge_id", "amount", "currency").
		Values(p.TenantID, p.AppointmentID, p.Method, p.Provider, p.ProviderChargeID, p.Amount, p.Currency).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&p.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}
	p.CreatedAt = createdAt.Time

	return p, nil
}

// SumRefunds возвращает сумму всех возвратов по платежу
func (r *Repository) SumRefunds(ctx context.Context, paymentID int64) (float64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(amount), 0)").
		From("payment_refunds").
		Where(squirrel.Eq{"payment_id": paymentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: SumRefunds - build select query: %v", ErrBuildQuery, err)
	}

	var total float64
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("%w: SumRefunds - scan total: %v", ErrScanRow, err)
	}

	return total, nil
}

// CreateRefund создает запись возврата по платежу
func (r *Repository) CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("payment_refunds").
		Columns("payment_id", "amount", "reason", "provider_refund_id").
		Values(refund.PaymentID, refund.Amount, refund.Reason, refund.ProviderRefundID).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&refund.ID, &createdAt); err != nil {
		return nil, fmt.Errorf("%w: CreateRefund - execute insert: %v", ErrExecQuery, err)
	}
	refund.CreatedAt = createdAt.Time

	return refund, nil
}

// ListRefunds получает возвраты по платежу в порядке создания
func (r *Repository) ListRefunds(ctx context.Context, paymentID int64) ([]*domain.Refund, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "payment_id", "amount", "reason", "provider_refund_id", "created_at").
		From("payment_refunds").
		Where(squirrel.Eq{"payment_id": paymentID}).
		OrderBy("created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListRefunds - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListRefunds - execute select: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	var refunds []*domain.Refund
	for rows.Next() {
		var refund domain.Refund
		var createdAt sql.NullTime
		if err := rows.Scan(&refund.ID, &refund.PaymentID, &refund.Amount, &refund.Reason, &refund.ProviderRefundID, &createdAt); err != nil {
			return nil, fmt.Errorf("%w: ListRefunds - scan refund: %v", ErrScanRow, err)
		}
		refund.CreatedAt = createdAt.Time
		refunds = append(refunds, &refund)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListRefunds - iterate rows: %v", ErrExecQuery, err)
	}

	return refunds, nil
}
