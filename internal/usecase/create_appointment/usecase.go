package create_appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	configRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/tenantconfig"
	customerClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/customerservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	"github.com/m04kA/SMC-AppointmentService/internal/pricing"
)

// UseCase use case для создания записи
type UseCase struct {
	apptRepo       AppointmentRepository
	catalogRepo    CatalogRepository
	configRepo     TenantConfigRepository
	customerClient CustomerServiceClient
	dispatcher     *hooks.Dispatcher
	notifier       NotifySender
	publisher      EventPublisher
	txManager      TransactionManager
	timeProvider   TimeProvider
	logger         Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	apptRepo AppointmentRepository,
	catalogRepo CatalogRepository,
	configRepo TenantConfigRepository,
	customerClient CustomerServiceClient,
	dispatcher *hooks.Dispatcher,
	notifier NotifySender,
	publisher EventPublisher,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		apptRepo:       apptRepo,
		catalogRepo:    catalogRepo,
		configRepo:     configRepo,
		customerClient: customerClient,
		dispatcher:     dispatcher,
		notifier:       notifier,
		publisher:      publisher,
		txManager:      txManager,
		timeProvider:   &RealTimeProvider{},
		logger:         logger,
	}
}

// Execute выполняет use case создания записи.
// Запись, списание промокода и событие журнала коммитятся в одной
// сериализуемой транзакции; уведомления и событие жизненного цикла
// отправляются после коммита
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateAppointment: tenant=%d, customer=%d, option=%d, startAt=%s",
		req.TenantID, req.CustomerID, req.OptionID, req.StartAt.Format(time.RFC3339))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateAppointment: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время и отсекаем прошлое
	now := uc.timeProvider.Now()
	if err := validateStartAt(req.StartAt, now); err != nil {
		uc.logger.Warn("CreateAppointment: startAt=%s is in the past", req.StartAt.Format(time.RFC3339))
		return nil, err
	}

	// 3. Разрешаем клиента через CustomerService
	customerID, name, email, phone, err := uc.resolveCustomer(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := validateContact(name, email, phone); err != nil {
		uc.logger.Warn("CreateAppointment: incomplete contact data for customer=%d", customerID)
		return nil, err
	}

	// 4. Получаем опцию услуги
	option, err := uc.catalogRepo.GetOption(ctx, req.TenantID, req.OptionID)
	if err != nil {
		if errors.Is(err, catalogRepo.ErrOptionNotFound) {
			uc.logger.Warn("CreateAppointment: option id=%d not found", req.OptionID)
			return nil, ErrOptionNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get option id=%d: %v", req.OptionID, err)
		return nil, fmt.Errorf("%w: failed to get option: %v", ErrInternal, err)
	}

	// 5. Получаем аддоны
	var addons []domain.Addon
	if len(req.AddonIDs) > 0 {
		addons, err = uc.catalogRepo.GetAddonsByIDs(ctx, req.TenantID, req.AddonIDs)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrAddonNotFound) {
				uc.logger.Warn("CreateAppointment: some addons not found: %v", req.AddonIDs)
				return nil, ErrAddonNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get addons: %v", err)
			return nil, fmt.Errorf("%w: failed to get addons: %v", ErrInternal, err)
		}
	}

	// 6. Рассчитываем длительность и цену
	quote, err := pricing.Compute(option, addons, req.TotalDuration)
	if err != nil {
		uc.logger.Warn("CreateAppointment: pricing rejected the request: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidDuration, err)
	}

	// 7. Получаем скидку по промокоду (применимость проверяется в транзакции)
	var discount *domain.Discount
	if req.DiscountCode != nil {
		discount, err = uc.catalogRepo.GetDiscountByCode(ctx, req.TenantID, *req.DiscountCode)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrDiscountNotFound) {
				uc.logger.Warn("CreateAppointment: discount code=%s not found", *req.DiscountCode)
				return nil, ErrDiscountNotFound
			}
			uc.logger.Error("CreateAppointment: failed to get discount: %v", err)
			return nil, fmt.Errorf("%w: failed to get discount: %v", ErrInternal, err)
		}
	}

	// 8. Определяем начальный статус
	status := domain.StatusPending
	if req.ForceConfirm || uc.autoConfirmEnabled(ctx, req.TenantID) {
		status = domain.StatusConfirmed
	}

	var result *domain.Appointment

	// 9. Выполняем операции с БД в сериализуемой транзакции
	err = uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		var discountSnapshot *domain.DiscountSnapshot
		totalPrice := quote.TotalPrice

		// 9.1. Проверяем применимость скидки и считаем итоговую цену.
		// Строка промокода перечитывается внутри транзакции: глобальный
		// счетчик из шага 7 мог устареть, а сериализуемая изоляция
		// откатит одну из конкурирующих записей на этом чтении
		if discount != nil {
			fresh, err := uc.catalogRepo.GetDiscountByCode(txCtx, req.TenantID, discount.Code)
			if err != nil {
				if errors.Is(err, catalogRepo.ErrDiscountNotFound) {
					uc.logger.Warn("CreateAppointment: discount code=%s disappeared before commit", discount.Code)
					return ErrDiscountNotFound
				}
				uc.logger.Error("CreateAppointment: failed to reread discount: %v", err)
				return fmt.Errorf("%w: failed to reread discount: %v", ErrInternal, err)
			}
			discount = fresh

			customerUsage, err := uc.catalogRepo.CountDiscountUsageByCustomer(txCtx, discount.ID, customerID)
			if err != nil {
				uc.logger.Error("CreateAppointment: failed to count discount usage: %v", err)
				return fmt.Errorf("%w: failed to count discount usage: %v", ErrInternal, err)
			}

			if err := pricing.ValidateDiscount(discount, option.ID, customerUsage, now); err != nil {
				uc.logger.Warn("CreateAppointment: discount code=%s not applicable: %v", discount.Code, err)
				return fmt.Errorf("%w: %v", ErrDiscountNotApplicable, err)
			}

			amount := pricing.DiscountAmount(quote.TotalPrice, discount)
			if amount > quote.TotalPrice {
				amount = quote.TotalPrice
			}
			totalPrice = quote.TotalPrice - amount

			discountSnapshot = &domain.DiscountSnapshot{
				DiscountID: discount.ID,
				Code:       discount.Code,
				Type:       discount.Type,
				Value:      discount.Value,
				Amount:     amount,
			}
		}

		// 9.2. Создаем запись с денормализованными снапшотами
		appt := &domain.Appointment{
			TenantID:   req.TenantID,
			CustomerID: customerID,
			StartAt:    req.StartAt,
			Option: domain.OptionSnapshot{
				OptionID:     option.ID,
				Name:         option.Name,
				DurationType: option.DurationType,
				Duration:     quote.OptionDuration,
				Price:        quote.OptionPrice,
				PricePerHour: option.PricePerHour,
			},
			Addons:        buildAddonSnapshots(addons),
			Discount:      discountSnapshot,
			TotalDuration: quote.TotalDuration,
			TotalPrice:    totalPrice,
			Status:        status,
			CustomerName:  name,
			CustomerEmail: email,
			CustomerPhone: phone,
			Notes:         req.Notes,
		}

		created, err := uc.apptRepo.Create(txCtx, appt)
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %v", ErrInternal, err)
		}

		// 9.3. Списываем использование промокода
		if discount != nil {
			if err := uc.catalogRepo.IncrementDiscountUsage(txCtx, discount.ID, customerID, created.ID); err != nil {
				uc.logger.Error("CreateAppointment: failed to increment discount usage: %v", err)
				return fmt.Errorf("%w: failed to increment discount usage: %v", ErrInternal, err)
			}
		}

		// 9.4. Журналируем создание
		event, err := domain.NewHistoryEvent(created.ID, domain.EventCreated, req.Actor, nil)
		if err != nil {
			return fmt.Errorf("%w: failed to build history event: %v", ErrInternal, err)
		}
		if err := uc.apptRepo.AppendEvent(txCtx, event); err != nil {
			uc.logger.Error("CreateAppointment: failed to append history event: %v", err)
			return fmt.Errorf("%w: failed to append history event: %v", ErrInternal, err)
		}

		result = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateAppointment: successfully created appointment id=%d, status=%s, total=%.2f",
		result.ID, result.Status, result.TotalPrice)

	// 10. Пост-коммит: уведомления, внешние хуки и событие жизненного цикла
	uc.notifyCreated(ctx, result)
	uc.publishLifecycle(ctx, result)

	return &Response{
		ID:            result.ID,
		TenantID:      result.TenantID,
		CustomerID:    result.CustomerID,
		StartAt:       result.StartAt,
		Status:        string(result.Status),
		Option:        result.Option,
		Addons:        result.Addons,
		Discount:      result.Discount,
		TotalDuration: result.TotalDuration,
		TotalPrice:    result.TotalPrice,
		CustomerName:  result.CustomerName,
		CustomerEmail: result.CustomerEmail,
		CustomerPhone: result.CustomerPhone,
		Notes:         result.Notes,
		CreatedAt:     result.CreatedAt,
		UpdatedAt:     result.UpdatedAt,
	}, nil
}

// resolveCustomer находит или создает клиента и возвращает полные контактные
// данные для денормализации на запись
func (uc *UseCase) resolveCustomer(ctx context.Context, req *Request) (int64, string, string, string, error) {
	if req.CustomerID == 0 {
		created, err := uc.customerClient.CreateCustomer(ctx, &customerClient.CreateCustomerRequest{
			TenantID: req.TenantID,
			Name:     req.CustomerName,
			Email:    req.CustomerEmail,
			Phone:    req.CustomerPhone,
		})
		if err != nil {
			uc.logger.Error("CreateAppointment: failed to create customer: %v", err)
			return 0, "", "", "", fmt.Errorf("%w: failed to create customer: %v", ErrInternal, err)
		}
		uc.logger.Info("CreateAppointment: created customer id=%d for tenant=%d", created.ID, req.TenantID)
		return created.ID, created.Name, created.Email, created.Phone, nil
	}

	customer, err := uc.customerClient.GetCustomer(ctx, req.CustomerID)
	if err != nil {
		if errors.Is(err, customerClient.ErrCustomerNotFound) {
			uc.logger.Warn("CreateAppointment: customer id=%d not found", req.CustomerID)
			return 0, "", "", "", ErrCustomerNotFound
		}
		uc.logger.Error("CreateAppointment: failed to get customer id=%d: %v", req.CustomerID, err)
		return 0, "", "", "", fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
	}

	// Явно переданные контактные данные имеют приоритет над профилем
	name, email, phone := req.CustomerName, req.CustomerEmail, req.CustomerPhone
	if name == "" {
		name = customer.Name
	}
	if email == "" {
		email = customer.Email
	}
	if phone == "" {
		phone = customer.Phone
	}

	return customer.ID, name, email, phone, nil
}

// autoConfirmEnabled читает настройку auto_confirm тенанта.
// Отсутствие настройки трактуется как выключенный автоконфирм
func (uc *UseCase) autoConfirmEnabled(ctx context.Context, tenantID int64) bool {
	raw, err := uc.configRepo.Get(ctx, tenantID, domain.ConfigKeyAutoConfirm)
	if err != nil {
		if !errors.Is(err, configRepo.ErrConfigNotFound) {
			uc.logger.Error("CreateAppointment: failed to read auto_confirm for tenant=%d: %v", tenantID, err)
		}
		return false
	}

	var enabled bool
	if err := json.Unmarshal(raw, &enabled); err != nil {
		uc.logger.Warn("CreateAppointment: malformed auto_confirm value for tenant=%d: %v", tenantID, err)
		return false
	}
	return enabled
}

// notifyCreated рассылает уведомления клиенту и внешние хуки.
// Все сбои изолируются: создание записи уже закоммичено
func (uc *UseCase) notifyCreated(ctx context.Context, appt *domain.Appointment) {
	subject := "Appointment received"
	if appt.Status == domain.StatusConfirmed {
		subject = "Appointment confirmed"
	}
	body := fmt.Sprintf("Your appointment %q on %s is %s.",
		appt.Option.Name, appt.StartAt.Format(time.RFC1123), appt.Status)

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
			Subject:       subject,
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
			uc.logger.Error("CreateAppointment: hook dispatch failed for scope=%s: %v", target.scope, err)
		}
	}
}

// publishLifecycle публикует событие жизненного цикла. Сбой публикации
// логируется и не откатывает создание
func (uc *UseCase) publishLifecycle(ctx context.Context, appt *domain.Appointment) {
	err := uc.publisher.Publish(ctx, events.LifecycleEvent{
		Type:          "appointment.created",
		TenantID:      appt.TenantID,
		AppointmentID: appt.ID,
		Status:        string(appt.Status),
		OccurredAt:    uc.timeProvider.Now(),
	})
	if err != nil {
		uc.logger.Error("CreateAppointment: failed to publish lifecycle event for id=%d: %v", appt.ID, err)
	}
}

// buildAddonSnapshots копирует данные аддонов в снапшоты записи
func buildAddonSnapshots(addons []domain.Addon) []domain.AddonSnapshot {
	if len(addons) == 0 {
		return nil
	}
	snapshots := make([]domain.AddonSnapshot, len(addons))
	for i, addon := range addons {
		snapshots[i] = domain.AddonSnapshot{
			AddonID:  addon.ID,
			Name:     addon.Name,
			Duration: addon.Duration,
			Price:    addon.Price,
		}
	}
	return snapshots
}
