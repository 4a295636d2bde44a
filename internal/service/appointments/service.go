package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	apptRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// Service сервис для чтения записей и переходов подтверждения/отклонения.
// Отмена, перенос и создание живут в отдельных usecase-пакетах
type Service struct {
	apptRepo   AppointmentRepository
	dispatcher *hooks.Dispatcher
	notifier   NotifySender
	publisher  EventPublisher
	txManager  TransactionManager
	timeNow    TimeProvider
	logger     Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	apptRepo AppointmentRepository,
	dispatcher *hooks.Dispatcher,
	notifier NotifySender,
	publisher EventPublisher,
	txManager TransactionManager,
	timeNow TimeProvider,
	logger Logger,
) *Service {
	return &Service{
		apptRepo:   apptRepo,
		dispatcher: dispatcher,
		notifier:   notifier,
		publisher:  publisher,
		txManager:  txManager,
		timeNow:    timeNow,
		logger:     logger,
	}
}

// GetByID получает запись по ID в рамках тенанта
func (s *Service) GetByID(ctx context.Context, tenantID, id int64) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByID: fetching appointment id=%d for tenant=%d", id, tenantID)

	appt, err := s.apptRepo.GetByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			s.logger.Warn("GetByID: appointment id=%d not found for tenant=%d", id, tenantID)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetByID: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainAppointment(appt), nil
}

// List получает записи тенанта с гибкой фильтрацией.
// По умолчанию возвращаются только активные записи (pending, confirmed);
// IncludeInactive добавляет завершённые
func (s *Service) List(ctx context.Context, req *models.ListAppointmentsRequest) (*models.AppointmentListResponse, error) {
	s.logger.Info("List: fetching appointments for tenant=%d, customer=%v", req.TenantID, req.CustomerID)

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("List: invalid filter for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	appointments, err := s.apptRepo.ListWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("List: repository error for tenant=%d: %v", req.TenantID, err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("List: successfully fetched %d appointments for tenant=%d", len(appointments), req.TenantID)
	return models.FromDomainAppointmentList(appointments), nil
}

// GetHistory получает журнал событий записи
func (s *Service) GetHistory(ctx context.Context, tenantID, id int64) (*models.HistoryResponse, error) {
	s.logger.Info("GetHistory: fetching history for appointment id=%d, tenant=%d", id, tenantID)

	// Проверяем принадлежность записи тенанту до чтения журнала
	if _, err := s.apptRepo.GetByID(ctx, tenantID, id); err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("GetHistory: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	history, err := s.apptRepo.ListEvents(ctx, id)
	if err != nil {
		s.logger.Error("GetHistory: repository error for appointment id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetHistory - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainHistory(history), nil
}

// UpdateStatus подтверждает или отклоняет ожидающую запись.
// Разрешены только переходы pending -> confirmed и pending -> declined;
// переход и событие журнала записываются в одной транзакции.
// Уведомления и событие жизненного цикла отправляются после коммита
func (s *Service) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (*models.AppointmentResponse, error) {
	s.logger.Info("UpdateStatus: updating appointment id=%d to status=%s (tenant=%d)",
		req.AppointmentID, req.Status, req.TenantID)

	newStatus, err := models.ToDomainStatus(req.Status)
	if err != nil || (newStatus != domain.StatusConfirmed && newStatus != domain.StatusDeclined) {
		s.logger.Warn("UpdateStatus: invalid target status=%s for appointment id=%d", req.Status, req.AppointmentID)
		return nil, fmt.Errorf("%w: %s", ErrInvalidStatus, req.Status)
	}

	actor, err := models.ToDomainActor(req.Actor)
	if err != nil {
		s.logger.Warn("UpdateStatus: invalid actor=%s for appointment id=%d", req.Actor, req.AppointmentID)
		return nil, fmt.Errorf("%w: invalid actor", ErrInvalidInput)
	}

	appt, err := s.apptRepo.GetByID(ctx, req.TenantID, req.AppointmentID)
	if err != nil {
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			s.logger.Warn("UpdateStatus: appointment id=%d not found for tenant=%d", req.AppointmentID, req.TenantID)
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("UpdateStatus: repository error for appointment id=%d: %v", req.AppointmentID, err)
		return nil, fmt.Errorf("%w: UpdateStatus - repository error: %v", ErrInternal, err)
	}

	if !appt.CanBeConfirmed() {
		s.logger.Warn("UpdateStatus: appointment id=%d is not pending, status=%s", appt.ID, appt.Status)
		return nil, fmt.Errorf("%w: appointment is %s", ErrInvalidTransition, appt.Status)
	}

	eventType := domain.EventConfirmed
	if newStatus == domain.StatusDeclined {
		eventType = domain.EventDeclined
	}

	event, err := domain.NewHistoryEvent(appt.ID, eventType, actor, nil)
	if err != nil {
		s.logger.Error("UpdateStatus: failed to build history event for appointment id=%d: %v", appt.ID, err)
		return nil, fmt.Errorf("%w: UpdateStatus - build history event: %v", ErrInternal, err)
	}

	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		if err := s.apptRepo.UpdateStatus(ctx, req.TenantID, appt.ID, appt.Version, newStatus); err != nil {
			return err
		}
		return s.apptRepo.AppendEvent(ctx, event)
	})
	if err != nil {
		if errors.Is(err, apptRepo.ErrVersionConflict) {
			s.logger.Warn("UpdateStatus: version conflict for appointment id=%d", appt.ID)
			return nil, ErrVersionConflict
		}
		if errors.Is(err, apptRepo.ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotFound
		}
		s.logger.Error("UpdateStatus: transaction failed for appointment id=%d: %v", appt.ID, err)
		return nil, fmt.Errorf("%w: UpdateStatus - transaction failed: %v", ErrInternal, err)
	}

	appt.Status = newStatus
	appt.Version++

	s.notifyStatusChange(ctx, appt)
	s.publishLifecycle(ctx, appt, "appointment."+string(newStatus))

	s.logger.Info("UpdateStatus: successfully updated appointment id=%d to status=%s", appt.ID, newStatus)
	return models.FromDomainAppointment(appt), nil
}

// notifyStatusChange рассылает уведомление клиенту через все подключенные
// приложения с соответствующим scope. Сбои уведомлений не влияют на переход
func (s *Service) notifyStatusChange(ctx context.Context, appt *domain.Appointment) {
	subject := fmt.Sprintf("Appointment %s", appt.Status)
	body := fmt.Sprintf("Your appointment %q on %s is %s.",
		appt.Option.Name, appt.StartAt.Format(time.RFC1123), appt.Status)

	channels := []struct {
		scope     domain.AppScope
		channel   string
		recipient string
	}{
		{domain.ScopeMailSend, "email", appt.CustomerEmail},
		{domain.ScopeTextMessageSend, "sms", appt.CustomerPhone},
	}

	for _, ch := range channels {
		if ch.recipient == "" {
			continue
		}

		request := &notifysender.SendRequest{
			TenantID:      appt.TenantID,
			AppointmentID: appt.ID,
			Channel:       ch.channel,
			Recipient:     ch.recipient,
			Subject:       subject,
			Body:          body,
		}

		worker := hooks.WorkerFunc[*notifysender.SendResult](
			func(ctx context.Context, app *domain.ConnectedApp) (*notifysender.SendResult, error) {
				return s.notifier.Send(ctx, app, request)
			},
		)

		results, err := hooks.Execute(ctx, s.dispatcher, appt.TenantID, ch.scope, worker, hooks.Options{
			IgnoreErrors: true,
		})
		if err != nil {
			s.logger.Error("notifyStatusChange: dispatch failed for appointment id=%d, scope=%s: %v",
				appt.ID, ch.scope, err)
			continue
		}

		for _, result := range results {
			if result == nil || !result.Success {
				continue
			}
			s.recordNotificationSent(ctx, appt.ID, ch.channel, ch.recipient, result.ProviderMessageID)
		}
	}
}

// recordNotificationSent добавляет событие журнала об отправленном уведомлении
func (s *Service) recordNotificationSent(ctx context.Context, appointmentID int64, channel, recipient string, providerMessageID *string) {
	payload := map[string]interface{}{
		"channel":   channel,
		"recipient": recipient,
	}
	if providerMessageID != nil {
		payload["providerMessageId"] = *providerMessageID
	}

	event, err := domain.NewHistoryEvent(appointmentID, domain.EventNotificationSent, domain.ActorSystem, payload)
	if err != nil {
		s.logger.Error("recordNotificationSent: failed to build event for appointment id=%d: %v", appointmentID, err)
		return
	}

	if err := s.apptRepo.AppendEvent(ctx, event); err != nil {
		s.logger.Error("recordNotificationSent: failed to append event for appointment id=%d: %v", appointmentID, err)
	}
}

// publishLifecycle публикует событие жизненного цикла. Сбой публикации
// логируется и не откатывает переход
func (s *Service) publishLifecycle(ctx context.Context, appt *domain.Appointment, eventType string) {
	err := s.publisher.Publish(ctx, events.LifecycleEvent{
		Type:          eventType,
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Status:        string(appt.Status),
		OccurredAt:    s.timeNow.Now(),
	})
	if err != nil {
		s.logger.Error("publishLifecycle: failed to publish %s for appointment id=%d: %v", eventType, appt.ID, err)
	}
}
