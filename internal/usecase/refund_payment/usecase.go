package refund_payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/applock"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	apptRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	paymentRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/payment"
)

// UseCase use case для возврата платежа по записи
type UseCase struct {
	paymentRepo  PaymentRepository
	apptRepo     AppointmentRepository
	provider     PaymentProvider
	locker       Locker
	publisher    EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	paymentRepo PaymentRepository,
	apptRepo AppointmentRepository,
	provider PaymentProvider,
	locker Locker,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		paymentRepo:  paymentRepo,
		apptRepo:     apptRepo,
		provider:     provider,
		locker:       locker,
		publisher:    publisher,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case возврата платежа.
// Операция сериализуется per-appointment через распределенную блокировку:
// проверка остатка и запись возврата должны быть атомарны относительно
// конкурентных возвратов, иначе два запроса прочитают один остаток.
// Сумма сверх остатка отклоняется целиком, никогда не обрезается до остатка
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RefundPayment: tenant=%d, appointment=%d, payment=%d, amount=%.2f",
		req.TenantID, req.AppointmentID, req.PaymentID, req.Amount)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RefundPayment: validation failed: %v", err)
		return nil, err
	}

	var result *Response

	err := uc.locker.WithLock(ctx, req.AppointmentID, func(ctx context.Context) error {
		resp, err := uc.refundLocked(ctx, req)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, applock.ErrLockNotAcquired) {
			uc.logger.Warn("RefundPayment: appointment id=%d is locked", req.AppointmentID)
			return nil, ErrConcurrentOperation
		}
		return nil, err
	}

	return result, nil
}

// refundLocked основной сценарий возврата под блокировкой записи.
// Для карточных платежей возврат сперва проводится у провайдера,
// затем запись возврата и событие журнала коммитятся в одной транзакции
func (uc *UseCase) refundLocked(ctx context.Context, req *Request) (*Response, error) {
	// 1. Получаем запись и платеж, проверяем их связку
	appt, err := uc.apptRepo.GetByID(ctx, req.TenantID, req.AppointmentID)
	if err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("RefundPayment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("RefundPayment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	payment, err := uc.paymentRepo.GetByID(ctx, req.TenantID, req.PaymentID)
	if err != nil {
		if errors.Is(err, paymentRepo.ErrPaymentNotFound) {
			uc.logger.Warn("RefundPayment: payment id=%d not found", req.PaymentID)
			return nil, ErrPaymentNotFound
		}
		uc.logger.Error("RefundPayment: failed to get payment id=%d: %v", req.PaymentID, err)
		return nil, fmt.Errorf("%w: failed to get payment: %v", ErrInternal, err)
	}

	if payment.AppointmentID != appt.ID {
		uc.logger.Warn("RefundPayment: payment id=%d belongs to appointment id=%d, not id=%d",
			payment.ID, payment.AppointmentID, appt.ID)
		return nil, ErrPaymentMismatch
	}

	// 2. Считаем остаток и строго отклоняем превышение
	alreadyRefunded, err := uc.paymentRepo.SumRefunds(ctx, payment.ID)
	if err != nil {
		uc.logger.Error("RefundPayment: failed to sum refunds for payment id=%d: %v", payment.ID, err)
		return nil, fmt.Errorf("%w: failed to sum refunds: %v", ErrInternal, err)
	}

	remaining := payment.Amount - alreadyRefunded
	if req.Amount > remaining {
		uc.logger.Warn("RefundPayment: amount %.2f exceeds remaining balance %.2f for payment id=%d",
			req.Amount, remaining, payment.ID)
		return nil, fmt.Errorf("%w: requested %.2f, remaining %.2f", ErrRefundExceedsBalance, req.Amount, remaining)
	}

	// 3. Карточные платежи возвращаются через провайдера до локальной записи
	var providerRefundID *string
	if payment.Provider != "" && uc.provider.Enabled() {
		reason := ""
		if req.Reason != nil {
			reason = *req.Reason
		}
		refundID, err := uc.provider.CreateRefund(ctx, payment, req.Amount, reason)
		if err != nil {
			uc.logger.Error("RefundPayment: provider refund failed for payment id=%d: %v", payment.ID, err)
			return nil, fmt.Errorf("%w: %v", ErrProviderRefundFailed, err)
		}
		providerRefundID = &refundID
	}

	totalRefunded := alreadyRefunded + req.Amount

	event, err := domain.NewHistoryEvent(appt.ID, domain.EventPaymentRefunded, req.Actor, &domain.RefundBreakdown{
		PaymentID:     payment.ID,
		Method:        payment.Method,
		Provider:      payment.Provider,
		Amount:        req.Amount,
		TotalRefunded: totalRefunded,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build history event: %v", ErrInternal, err)
	}

	// 4. Запись возврата и событие журнала в одной транзакции
	var created *domain.Refund
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		refund, err := uc.paymentRepo.CreateRefund(txCtx, &domain.Refund{
			PaymentID:        payment.ID,
			Amount:           req.Amount,
			Reason:           req.Reason,
			ProviderRefundID: providerRefundID,
		})
		if err != nil {
			uc.logger.Error("RefundPayment: failed to create refund for payment id=%d: %v", payment.ID, err)
			return fmt.Errorf("%w: failed to create refund: %v", ErrInternal, err)
		}
		if err := uc.apptRepo.AppendEvent(txCtx, event); err != nil {
			uc.logger.Error("RefundPayment: failed to append history event: %v", err)
			return fmt.Errorf("%w: failed to append history event: %v", ErrInternal, err)
		}
		created = refund
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("RefundPayment: refunded %.2f of payment id=%d, total refunded %.2f",
		req.Amount, payment.ID, totalRefunded)

	// 5. Пост-коммит: событие жизненного цикла
	uc.publishLifecycle(ctx, appt, payment, req.Amount, totalRefunded)

	return &Response{
		RefundID:         created.ID,
		PaymentID:        payment.ID,
		Amount:           created.Amount,
		TotalRefunded:    totalRefunded,
		ProviderRefundID: created.ProviderRefundID,
		CreatedAt:        created.CreatedAt,
	}, nil
}

// publishLifecycle публикует событие жизненного цикла возврата
func (uc *UseCase) publishLifecycle(ctx context.Context, appt *domain.Appointment, payment *domain.Payment, amount, totalRefunded float64) {
	err := uc.publisher.Publish(ctx, events.LifecycleEvent{
		Type:          "appointment.payment_refunded",
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Status:        string(appt.Status),
		OccurredAt:    uc.timeProvider.Now(),
		Payload: map[string]interface{}{
			"paymentId":     payment.ID,
			"amount":        amount,
			"totalRefunded": totalRefunded,
		},
	})
	if err != nil {
		uc.logger.Error("RefundPayment: failed to publish lifecycle event for id=%d: %v", appt.ID, err)
	}
}

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.TenantID <= 0 {
		return fmt.Errorf("%w: tenantID must be positive", ErrInvalidInput)
	}
	if req.AppointmentID <= 0 {
		return fmt.Errorf("%w: appointmentID must be positive", ErrInvalidInput)
	}
	if req.PaymentID <= 0 {
		return fmt.Errorf("%w: paymentID must be positive", ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	switch req.Actor {
	case domain.ActorCustomer, domain.ActorStaff, domain.ActorSystem:
	default:
		return fmt.Errorf("%w: unknown actor", ErrInvalidInput)
	}
	return nil
}
