package cancel_appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/applock"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	apptRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	configRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/tenantconfig"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	"github.com/m04kA/SMC-AppointmentService/internal/policy"
)

// UseCase use case для отмены записи
type UseCase struct {
	apptRepo     AppointmentRepository
	configRepo   TenantConfigRepository
	locker       Locker
	dispatcher   *hooks.Dispatcher
	notifier     NotifySender
	publisher    EventPublisher
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	apptRepo AppointmentRepository,
	configRepo TenantConfigRepository,
	locker Locker,
	dispatcher *hooks.Dispatcher,
	notifier NotifySender,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		apptRepo:     apptRepo,
		configRepo:   configRepo,
		locker:       locker,
		dispatcher:   dispatcher,
		notifier:     notifier,
		publisher:    publisher,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет use case отмены записи.
// Операция сериализуется per-appointment через распределенную блокировку;
// условия политики фиксируются в журнале и не пересчитываются задним числом
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CancelAppointment: tenant=%d, appointment=%d, actor=%s",
		req.TenantID, req.AppointmentID, req.Actor)

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CancelAppointment: validation failed: %v", err)
		return nil, err
	}

	var result *Response

	err := uc.locker.WithLock(ctx, req.AppointmentID, func(ctx context.Context) error {
		resp, err := uc.cancelLocked(ctx, req)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, applock.ErrLockNotAcquired) {
			uc.logger.Warn("CancelAppointment: appointment id=%d is locked", req.AppointmentID)
			return nil, ErrConcurrentOperation
		}
		return nil, err
	}

	return result, nil
}

func (uc *UseCase) cancelLocked(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now()

	// 1. Получаем запись
	appt, err := uc.apptRepo.GetByID(ctx, req.TenantID, req.AppointmentID)
	if err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("CancelAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	// 2. Проверяем, что запись отменяема
	if !appt.CanBeCancelled() {
		uc.logger.Warn("CancelAppointment: appointment id=%d cannot be cancelled, status=%s", appt.ID, appt.Status)
		return nil, fmt.Errorf("%w: appointment is %s", ErrCannotCancel, appt.Status)
	}

	// 3. Резолвим политику отмены против исходного времени записи
	breakdown, err := uc.resolveBreakdown(ctx, appt, now)
	if err != nil {
		return nil, err
	}

	// 4. Переход и событие журнала в одной транзакции
	event, err := domain.NewHistoryEvent(appt.ID, domain.EventCancelled, req.Actor, breakdown)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build history event: %v", ErrInternal, err)
	}

	err = uc.txManager.Do(ctx, func(ctx context.Context) error {
		if err := uc.apptRepo.Cancel(ctx, req.TenantID, appt.ID, appt.Version, req.Reason, now); err != nil {
			return err
		}
		return uc.apptRepo.AppendEvent(ctx, event)
	})
	if err != nil {
		if errors.Is(err, apptRepo.ErrVersionConflict) {
			uc.logger.Warn("CancelAppointment: version conflict for appointment id=%d", appt.ID)
			return nil, ErrVersionConflict
		}
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("CancelAppointment: transaction failed for appointment id=%d: %v", appt.ID, err)
		return nil, fmt.Errorf("%w: transaction failed: %v", ErrInternal, err)
	}

	appt.Status = domain.StatusCancelled
	appt.CancelledAt = &now

	uc.logger.Info("CancelAppointment: successfully cancelled appointment id=%d, refund=%.2f, fee=%.2f",
		appt.ID, breakdown.RefundAmount, breakdown.FeeAmount)

	// 5. Пост-коммит: уведомления и событие жизненного цикла
	uc.notifyCancelled(ctx, appt)
	uc.publishLifecycle(ctx, appt, breakdown)

	return &Response{
		ID:          appt.ID,
		Status:      string(domain.StatusCancelled),
		CancelledAt: now,
		Breakdown:   *breakdown,
	}, nil
}

// resolveBreakdown применяет политику отмены тенанта к записи.
// Выключенная политика означает отсутствие ограничений: полный возврат без
// комиссии. Отсутствие применимого тира означает запрет
func (uc *UseCase) resolveBreakdown(ctx context.Context, appt *domain.Appointment, now time.Time) (*domain.CancellationBreakdown, error) {
	cfg, err := uc.loadPolicy(ctx, appt.TenantID)
	if err != nil {
		return nil, err
	}

	tier, err := policy.ResolveForRequest(cfg, appt.StartAt, now)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyDisabled) {
			return &domain.CancellationBreakdown{
				PolicyAction:  domain.PolicyAllowed,
				RefundPercent: 100,
				RefundAmount:  appt.TotalPrice,
			}, nil
		}
		return nil, fmt.Errorf("%w: failed to resolve policy: %v", ErrInternal, err)
	}

	if tier == nil || tier.Action == domain.PolicyNotAllowed {
		uc.logger.Warn("CancelAppointment: policy forbids cancelling appointment id=%d", appt.ID)
		return nil, ErrPolicyNotAllowed
	}

	refund := appt.TotalPrice * tier.RefundPercent / 100
	if !tier.FeeRefundable {
		refund -= tier.FeeAmount
	}
	if refund < 0 {
		refund = 0
	}

	return &domain.CancellationBreakdown{
		PolicyAction:  tier.Action,
		RefundPercent: tier.RefundPercent,
		FeeAmount:     tier.FeeAmount,
		FeeRefundable: tier.FeeRefundable,
		RefundAmount:  refund,
	}, nil
}

// loadPolicy читает политику отмены из настроек тенанта.
// Отсутствие настройки трактуется как выключенная политика
func (uc *UseCase) loadPolicy(ctx context.Context, tenantID int64) (domain.PolicyConfig, error) {
	raw, err := uc.configRepo.Get(ctx, tenantID, domain.ConfigKeyCancellationPolicy)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return domain.PolicyConfig{Enabled: false}, nil
		}
		uc.logger.Error("CancelAppointment: failed to read cancellation policy for tenant=%d: %v", tenantID, err)
		return domain.PolicyConfig{}, fmt.Errorf("%w: failed to read policy: %v", ErrInternal, err)
	}

	var cfg domain.PolicyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		uc.logger.Error("CancelAppointment: malformed cancellation policy for tenant=%d: %v", tenantID, err)
		return domain.PolicyConfig{}, fmt.Errorf("%w: malformed policy config: %v", ErrInternal, err)
	}
	return cfg, nil
}

// notifyCancelled рассылает уведомления клиенту и внешние хуки.
// Сбои изолируются: отмена уже закоммичена
func (uc *UseCase) notifyCancelled(ctx context.Context, appt *domain.Appointment) {
	body := fmt.Sprintf("Your appointment %q on %s has been cancelled.",
		appt.Option.Name, appt.StartAt.Format(time.RFC1123))

	targets := []struct {
		scope     domain.AppScope
		channel   string
		recipient string
	}{
		{domain.ScopeMailSend, "email", appt.CustomerEmail},
		{domain.ScopeTextMessageSend, "sms", appt.CustomerPhone},
		{domain.ScopeAppointmentHook, "webhook", ""},
	}

	for _, target := range targets {
		if target.channel != "webhook" && target.recipient == "" {
			continue
		}

		request := &notifysender.SendRequest{
			TenantID:      appt.TenantID,
			AppointmentID: appt.ID,
			Channel:       target.channel,
			Recipient:     target.recipient,
			Subject:       "Appointment cancelled",
			Body:          body,
		}

		worker := hooks.WorkerFunc[*notifysender.SendResult](
			func(ctx context.Context, app *domain.ConnectedApp) (*notifysender.SendResult, error) {
				return uc.notifier.Send(ctx, app, request)
			},
		)

		if _, err := hooks.Execute(ctx, uc.dispatcher, appt.TenantID, target.scope, worker, hooks.Options{
			IgnoreErrors: true,
		}); err != nil {
			uc.logger.Error("CancelAppointment: hook dispatch failed for scope=%s: %v", target.scope, err)
		}
	}
}

// publishLifecycle публикует событие жизненного цикла с условиями отмены
func (uc *UseCase) publishLifecycle(ctx context.Context, appt *domain.Appointment, breakdown *domain.CancellationBreakdown) {
	err := uc.publisher.Publish(ctx, events.LifecycleEvent{
		Type:          "appointment.cancelled",
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Status:        string(appt.Status),
		OccurredAt:    uc.timeProvider.Now(),
		Payload:       breakdown,
	})
	if err != nil {
		uc.logger.Error("CancelAppointment: failed to publish lifecycle event for id=%d: %v", appt.ID, err)
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
	switch req.Actor {
	case domain.ActorCustomer, domain.ActorStaff, domain.ActorSystem:
	default:
		return fmt.Errorf("%w: unknown actor", ErrInvalidInput)
	}
	if req.Reason != nil && len(*req.Reason) > domain.MaxCancellationReasonLength {
		return fmt.Errorf("%w: reason exceeds %d characters", ErrInvalidInput, domain.MaxCancellationReasonLength)
	}
	return nil
}
