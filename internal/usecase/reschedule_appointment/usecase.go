package reschedule_appointment

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

// UseCase use case для переноса записи
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

// Execute выполняет use case переноса записи.
// Политика переноса резолвится против ИСХОДНОГО времени записи: сколько
// уведомления дал клиент, а не куда он переносит. Закрытие исходной записи
// и создание преемника коммитятся в одной сериализуемой транзакции
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("RescheduleAppointment: tenant=%d, appointment=%d, newStartAt=%s",
		req.TenantID, req.AppointmentID, req.NewStartAt.Format(time.RFC3339))

	if err := validateRequest(req); err != nil {
		uc.logger.Warn("RescheduleAppointment: validation failed: %v", err)
		return nil, err
	}

	var result *Response

	err := uc.locker.WithLock(ctx, req.AppointmentID, func(ctx context.Context) error {
		resp, err := uc.rescheduleLocked(ctx, req)
		if err != nil {
			return err
		}
		result = resp
		return nil
	})
	if err != nil {
		if errors.Is(err, applock.ErrLockNotAcquired) {
			uc.logger.Warn("RescheduleAppointment: appointment id=%d is locked", req.AppointmentID)
			return nil, ErrConcurrentOperation
		}
		return nil, err
	}

	return result, nil
}

func (uc *UseCase) rescheduleLocked(ctx context.Context, req *Request) (*Response, error) {
	now := uc.timeProvider.Now()

	if !req.NewStartAt.After(now) {
		uc.logger.Warn("RescheduleAppointment: newStartAt=%s is in the past", req.NewStartAt.Format(time.RFC3339))
		return nil, ErrPastAppointment
	}

	// 1. Получаем исходную запись
	appt, err := uc.apptRepo.GetByID(ctx, req.TenantID, req.AppointmentID)
	if err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			uc.logger.Warn("RescheduleAppointment: appointment id=%d not found", req.AppointmentID)
			return nil, ErrAppointmentNotFound
		}
		uc.logger.Error("RescheduleAppointment: failed to get appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: failed to get appointment: %v", ErrInternal, err)
	}

	// 2. Переносить можно только подтвержденные записи
	if !appt.CanBeRescheduled() {
		uc.logger.Warn("RescheduleAppointment: appointment id=%d cannot be rescheduled, status=%s", appt.ID, appt.Status)
		return nil, fmt.Errorf("%w: appointment is %s", ErrCannotReschedule, appt.Status)
	}

	// 3. Резолвим политику переноса против исходного времени
	tier, err := uc.resolveTier(ctx, appt, now)
	if err != nil {
		return nil, err
	}

	feeAmount := 0.0
	if tier != nil {
		feeAmount = tier.FeeAmount
	}

	var oldAppt, newAppt *domain.Appointment

	// 4. Закрываем исходную запись и создаем преемника атомарно
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		successor := buildSuccessor(appt, req.NewStartAt)

		created, err := uc.apptRepo.Create(txCtx, successor)
		if err != nil {
			uc.logger.Error("RescheduleAppointment: failed to create successor: %v", err)
			return fmt.Errorf("%w: failed to create successor: %v", ErrInternal, err)
		}

		if err := uc.apptRepo.MarkRescheduled(txCtx, req.TenantID, appt.ID, appt.Version, created.ID); err != nil {
			return err
		}

		breakdown := &domain.RescheduleBreakdown{
			PolicyAction:     domain.PolicyAllowed,
			FeeAmount:        feeAmount,
			OldStartAt:       appt.StartAt,
			NewStartAt:       req.NewStartAt,
			NewAppointmentID: created.ID,
		}

		oldEvent, err := domain.NewHistoryEvent(appt.ID, domain.EventRescheduled, req.Actor, breakdown)
		if err != nil {
			return fmt.Errorf("%w: failed to build history event: %v", ErrInternal, err)
		}
		if err := uc.apptRepo.AppendEvent(txCtx, oldEvent); err != nil {
			return fmt.Errorf("%w: failed to append history event: %v", ErrInternal, err)
		}

		newEvent, err := domain.NewHistoryEvent(created.ID, domain.EventCreated, req.Actor, breakdown)
		if err != nil {
			return fmt.Errorf("%w: failed to build history event: %v", ErrInternal, err)
		}
		if err := uc.apptRepo.AppendEvent(txCtx, newEvent); err != nil {
			return fmt.Errorf("%w: failed to append history event: %v", ErrInternal, err)
		}

		oldAppt = appt
		newAppt = created
		return nil
	})
	if err != nil {
		if errors.Is(err, apptRepo.ErrVersionConflict) {
			uc.logger.Warn("RescheduleAppointment: version conflict for appointment id=%d", appt.ID)
			return nil, ErrVersionConflict
		}
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	uc.logger.Info("RescheduleAppointment: appointment id=%d rescheduled to id=%d at %s",
		oldAppt.ID, newAppt.ID, req.NewStartAt.Format(time.RFC3339))

	// 5. Пост-коммит: уведомления и событие жизненного цикла
	uc.notifyRescheduled(ctx, newAppt, oldAppt.StartAt)
	uc.publishLifecycle(ctx, oldAppt, newAppt)

	return &Response{
		OldAppointmentID: oldAppt.ID,
		NewAppointmentID: newAppt.ID,
		NewStartAt:       newAppt.StartAt,
		Status:           string(newAppt.Status),
		Breakdown: domain.RescheduleBreakdown{
			PolicyAction:     domain.PolicyAllowed,
			FeeAmount:        feeAmount,
			OldStartAt:       oldAppt.StartAt,
			NewStartAt:       newAppt.StartAt,
			NewAppointmentID: newAppt.ID,
		},
	}, nil
}

// resolveTier применяет политику переноса тенанта к записи.
// Выключенная политика означает отсутствие ограничений (nil tier, нет комиссии)
func (uc *UseCase) resolveTier(ctx context.Context, appt *domain.Appointment, now time.Time) (*domain.PolicyTier, error) {
	raw, err := uc.configRepo.Get(ctx, appt.TenantID, domain.ConfigKeyReschedulePolicy)
	if err != nil {
		if errors.Is(err, configRepo.ErrConfigNotFound) {
			return nil, nil
		}
		uc.logger.Error("RescheduleAppointment: failed to read reschedule policy for tenant=%d: %v", appt.TenantID, err)
		return nil, fmt.Errorf("%w: failed to read policy: %v", ErrInternal, err)
	}

	var cfg domain.PolicyConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		uc.logger.Error("RescheduleAppointment: malformed reschedule policy for tenant=%d: %v", appt.TenantID, err)
		return nil, fmt.Errorf("%w: malformed policy config: %v", ErrInternal, err)
	}

	tier, err := policy.ResolveForRequest(cfg, appt.StartAt, now)
	if err != nil {
		if errors.Is(err, policy.ErrPolicyDisabled) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to resolve policy: %v", ErrInternal, err)
	}

	if tier == nil || tier.Action == domain.PolicyNotAllowed {
		uc.logger.Warn("RescheduleAppointment: policy forbids rescheduling appointment id=%d", appt.ID)
		return nil, ErrPolicyNotAllowed
	}

	return tier, nil
}

// buildSuccessor создает преемника записи: тот же расчет, те же контактные
// данные, новое время. Снапшоты НЕ пересчитываются по текущему каталогу
func buildSuccessor(appt *domain.Appointment, newStartAt time.Time) *domain.Appointment {
	addons := make([]domain.AddonSnapshot, len(appt.Addons))
	copy(addons, appt.Addons)

	var discount *domain.DiscountSnapshot
	if appt.Discount != nil {
		copied := *appt.Discount
		discount = &copied
	}

	fromID := appt.ID
	return &domain.Appointment{
		TenantID:          appt.TenantID,
		CustomerID:        appt.CustomerID,
		StartAt:           newStartAt,
		Option:            appt.Option,
		Addons:            addons,
		Discount:          discount,
		TotalDuration:     appt.TotalDuration,
		TotalPrice:        appt.TotalPrice,
		Status:            domain.StatusConfirmed,
		CustomerName:      appt.CustomerName,
		CustomerEmail:     appt.CustomerEmail,
		CustomerPhone:     appt.CustomerPhone,
		Notes:             appt.Notes,
		RescheduledFromID: &fromID,
	}
}

// notifyRescheduled рассылает уведомления клиенту и внешние хуки
func (uc *UseCase) notifyRescheduled(ctx context.Context, appt *domain.Appointment, oldStartAt time.Time) {
	body := fmt.Sprintf("Your appointment %q has been moved from %s to %s.",
		appt.Option.Name, oldStartAt.Format(time.RFC1123), appt.StartAt.Format(time.RFC1123))

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
			Subject:       "Appointment rescheduled",
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
			uc.logger.Error("RescheduleAppointment: hook dispatch failed for scope=%s: %v", target.scope, err)
		}
	}
}

// publishLifecycle публикует событие жизненного цикла с аудит-ссылками
func (uc *UseCase) publishLifecycle(ctx context.Context, oldAppt, newAppt *domain.Appointment) {
	err := uc.publisher.Publish(ctx, events.LifecycleEvent{
		Type:          "appointment.rescheduled",
		TenantID:      oldAppt.TenantID,
		AppointmentID: oldAppt.ID,
		Status:        string(domain.StatusRescheduled),
		OccurredAt:    uc.timeProvider.Now(),
		Payload: map[string]interface{}{
			"newAppointmentId": newAppt.ID,
			"newStartAt":       newAppt.StartAt,
		},
	})
	if err != nil {
		uc.logger.Error("RescheduleAppointment: failed to publish lifecycle event for id=%d: %v", oldAppt.ID, err)
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
	if req.NewStartAt.IsZero() {
		return fmt.Errorf("%w: newStartAt is required", ErrInvalidInput)
	}
	switch req.Actor {
	case domain.ActorCustomer, domain.ActorStaff, domain.ActorSystem:
	default:
		return fmt.Errorf("%w: unknown actor", ErrInvalidInput)
	}
	return nil
}
