package create_appointment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	catalogRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/catalog"
	configRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/tenantconfig"
	customerClient "github.com/m04kA/SMC-AppointmentService/internal/integrations/customerservice"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

type fakeApptRepo struct {
	created []*domain.Appointment
	events  []*domain.HistoryEvent
	nextID  int64
}

func (f *fakeApptRepo) Create(_ context.Context, appt *domain.Appointment) (*domain.Appointment, error) {
	f.nextID++
	appt.ID = f.nextID
	appt.Version = 1
	appt.CreatedAt = testNow
	appt.UpdatedAt = testNow
	f.created = append(f.created, appt)
	return appt, nil
}

func (f *fakeApptRepo) AppendEvent(_ context.Context, event *domain.HistoryEvent) error {
	f.events = append(f.events, event)
	return nil
}

type fakeCatalogRepo struct {
	options   map[int64]*domain.ServiceOption
	addons    map[int64]domain.Addon
	discounts map[string]*domain.Discount

	customerUsage  int
	usageIncrement []int64 // appointment IDs usage was committed for

	discountFetches  int
	refetchDiscounts map[string]*domain.Discount // served after the first fetch
}

func (f *fakeCatalogRepo) GetOption(_ context.Context, _ int64, id int64) (*domain.ServiceOption, error) {
	option, ok := f.options[id]
	if !ok {
		return nil, catalogRepo.ErrOptionNotFound
	}
	return option, nil
}

func (f *fakeCatalogRepo) GetAddonsByIDs(_ context.Context, _ int64, ids []int64) ([]domain.Addon, error) {
	out := make([]domain.Addon, 0, len(ids))
	for _, id := range ids {
		addon, ok := f.addons[id]
		if !ok {
			return nil, catalogRepo.ErrAddonNotFound
		}
		out = append(out, addon)
	}
	return out, nil
}

func (f *fakeCatalogRepo) GetDiscountByCode(_ context.Context, _ int64, code string) (*domain.Discount, error) {
	f.discountFetches++
	if f.discountFetches > 1 {
		if discount, ok := f.refetchDiscounts[code]; ok {
			return discount, nil
		}
	}
	discount, ok := f.discounts[code]
	if !ok {
		return nil, catalogRepo.ErrDiscountNotFound
	}
	return discount, nil
}

func (f *fakeCatalogRepo) IncrementDiscountUsage(_ context.Context, _, _, appointmentID int64) error {
	f.usageIncrement = append(f.usageIncrement, appointmentID)
	return nil
}

func (f *fakeCatalogRepo) CountDiscountUsageByCustomer(_ context.Context, _, _ int64) (int, error) {
	return f.customerUsage, nil
}

type fakeConfigRepo struct {
	values map[string]json.RawMessage
}

func (f *fakeConfigRepo) Get(_ context.Context, _ int64, key string) (json.RawMessage, error) {
	value, ok := f.values[key]
	if !ok {
		return nil, configRepo.ErrConfigNotFound
	}
	return value, nil
}

type fakeCustomerClient struct {
	customers map[int64]*customerClient.Customer
	created   []*customerClient.CreateCustomerRequest
	nextID    int64
}

func (f *fakeCustomerClient) GetCustomer(_ context.Context, customerID int64) (*customerClient.Customer, error) {
	customer, ok := f.customers[customerID]
	if !ok {
		return nil, customerClient.ErrCustomerNotFound
	}
	return customer, nil
}

func (f *fakeCustomerClient) CreateCustomer(_ context.Context, request *customerClient.CreateCustomerRequest) (*customerClient.Customer, error) {
	f.created = append(f.created, request)
	f.nextID++
	return &customerClient.Customer{
		ID:       1000 + f.nextID,
		TenantID: request.TenantID,
		Name:     request.Name,
		Email:    request.Email,
		Phone:    request.Phone,
	}, nil
}

type fakeNotifier struct {
	sent []notifysender.SendRequest
}

func (f *fakeNotifier) Send(_ context.Context, _ *domain.ConnectedApp, request *notifysender.SendRequest) (*notifysender.SendResult, error) {
	f.sent = append(f.sent, *request)
	return &notifysender.SendResult{Success: true}, nil
}

type fakePublisher struct {
	published []events.LifecycleEvent
}

func (f *fakePublisher) Publish(_ context.Context, event events.LifecycleEvent) error {
	f.published = append(f.published, event)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAppSource struct {
	apps map[domain.AppScope][]*domain.ConnectedApp
}

func (f *fakeAppSource) GetAppsByScope(_ context.Context, _ int64, scope domain.AppScope) ([]*domain.ConnectedApp, error) {
	return f.apps[scope], nil
}

type fixture struct {
	uc        *UseCase
	apptRepo  *fakeApptRepo
	catalog   *fakeCatalogRepo
	config    *fakeConfigRepo
	customers *fakeCustomerClient
	notifier  *fakeNotifier
	publisher *fakePublisher
}

func newFixture(apps map[domain.AppScope][]*domain.ConnectedApp) *fixture {
	f := &fixture{
		apptRepo: &fakeApptRepo{},
		catalog: &fakeCatalogRepo{
			options: map[int64]*domain.ServiceOption{
				1: {
					ID: 1, TenantID: 1, Name: "Deep Tissue Massage",
					DurationType: domain.DurationFixed, Duration: 60, Price: 100,
				},
				2: {
					ID: 2, TenantID: 1, Name: "Studio Rental",
					DurationType: domain.DurationFlexible, PricePerHour: 60,
					MinDuration: 30, MaxDuration: 240, StepMinutes: 30,
				},
			},
			addons: map[int64]domain.Addon{
				10: {ID: 10, TenantID: 1, Name: "Hot Stones", Duration: 15, Price: 20},
				11: {ID: 11, TenantID: 1, Name: "Aromatherapy", Duration: 30, Price: 10},
			},
			discounts: map[string]*domain.Discount{},
		},
		config: &fakeConfigRepo{values: map[string]json.RawMessage{}},
		customers: &fakeCustomerClient{customers: map[int64]*customerClient.Customer{
			10: {ID: 10, TenantID: 1, Name: "Jane Roe", Email: "jane@example.com", Phone: "+15550100"},
		}},
		notifier:  &fakeNotifier{},
		publisher: &fakePublisher{},
	}

	if apps == nil {
		apps = map[domain.AppScope][]*domain.ConnectedApp{}
	}
	dispatcher := hooks.NewDispatcher(&fakeAppSource{apps: apps}, nil, noopLogger{})

	f.uc = NewUseCase(
		f.apptRepo,
		f.catalog,
		f.config,
		f.customers,
		dispatcher,
		f.notifier,
		f.publisher,
		passthroughTxManager{},
		noopLogger{},
	)
	f.uc.timeProvider = fixedTime{now: testNow}

	return f
}

func validRequest() *Request {
	return &Request{
		TenantID:   1,
		CustomerID: 10,
		OptionID:   1,
		StartAt:    testNow.Add(48 * time.Hour),
		Actor:      domain.ActorCustomer,
	}
}

func TestExecute_FixedOptionWithAddon(t *testing.T) {
	f := newFixture(nil)

	req := validRequest()
	req.AddonIDs = []int64{10}

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 75, resp.TotalDuration)
	assert.Equal(t, 120.0, resp.TotalPrice)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, 60, resp.Option.Duration, "fixed option duration is untouched by addons")
	assert.Equal(t, 100.0, resp.Option.Price)
	require.Len(t, resp.Addons, 1)
	assert.Equal(t, "Hot Stones", resp.Addons[0].Name)

	require.Len(t, f.apptRepo.events, 1)
	assert.Equal(t, domain.EventCreated, f.apptRepo.events[0].Type)
	assert.Equal(t, domain.ActorCustomer, f.apptRepo.events[0].Actor)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, "appointment.created", f.publisher.published[0].Type)
	assert.Equal(t, resp.ID, f.publisher.published[0].AppointmentID)
}

func TestExecute_FlexibleOptionProratesAddons(t *testing.T) {
	f := newFixture(nil)

	req := validRequest()
	req.OptionID = 2
	req.AddonIDs = []int64{11}
	req.TotalDuration = ptr.Ptr(90)

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 90, resp.TotalDuration)
	assert.Equal(t, 60, resp.Option.Duration, "addon time is carved out of the envelope")
	assert.Equal(t, 50.0, resp.Option.Price)
	assert.Equal(t, 60.0, resp.TotalPrice)
}

func TestExecute_FlexibleOptionRequiresDuration(t *testing.T) {
	f := newFixture(nil)

	req := validRequest()
	req.OptionID = 2

	_, err := f.uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestExecute_AutoConfirm(t *testing.T) {
	t.Run("tenant setting confirms immediately", func(t *testing.T) {
		f := newFixture(nil)
		f.config.values[domain.ConfigKeyAutoConfirm] = json.RawMessage(`true`)

		resp, err := f.uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	})

	t.Run("force flag bypasses the setting", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.ForceConfirm = true
		req.Actor = domain.ActorStaff

		resp, err := f.uc.Execute(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusConfirmed), resp.Status)
	})

	t.Run("absence of the setting defaults to pending", func(t *testing.T) {
		f := newFixture(nil)

		resp, err := f.uc.Execute(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, string(domain.StatusPending), resp.Status)
	})
}

func TestExecute_DiscountApplied(t *testing.T) {
	f := newFixture(nil)
	f.catalog.discounts["WELCOME10"] = &domain.Discount{
		ID: 7, TenantID: 1, Code: "WELCOME10",
		Type: domain.DiscountPercentage, Value: 10,
	}

	req := validRequest()
	req.DiscountCode = ptr.Ptr("WELCOME10")

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 90.0, resp.TotalPrice)
	require.NotNil(t, resp.Discount)
	assert.Equal(t, 10.0, resp.Discount.Amount)
	assert.Equal(t, "WELCOME10", resp.Discount.Code)

	// usage is committed together with the appointment
	require.Len(t, f.catalog.usageIncrement, 1)
	assert.Equal(t, resp.ID, f.catalog.usageIncrement[0])
}

func TestExecute_AmountDiscountClampedToSubtotal(t *testing.T) {
	f := newFixture(nil)
	f.catalog.discounts["BIG"] = &domain.Discount{
		ID: 8, TenantID: 1, Code: "BIG",
		Type: domain.DiscountAmount, Value: 500,
	}

	req := validRequest()
	req.DiscountCode = ptr.Ptr("BIG")

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 0.0, resp.TotalPrice)
	assert.Equal(t, 100.0, resp.Discount.Amount)
}

func TestExecute_DiscountRejections(t *testing.T) {
	t.Run("unknown code", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.DiscountCode = ptr.Ptr("NOPE")

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrDiscountNotFound)
	})

	t.Run("per-customer limit reached", func(t *testing.T) {
		f := newFixture(nil)
		f.catalog.discounts["ONCE"] = &domain.Discount{
			ID: 9, TenantID: 1, Code: "ONCE",
			Type: domain.DiscountAmount, Value: 5,
			PerCustomerLimit: ptr.Ptr(1),
		}
		f.catalog.customerUsage = 1

		req := validRequest()
		req.DiscountCode = ptr.Ptr("ONCE")

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrDiscountNotApplicable)
		assert.Empty(t, f.catalog.usageIncrement)
		assert.Empty(t, f.apptRepo.created, "rejection must roll the whole request back")
	})

	t.Run("global cap consumed by a concurrent booking", func(t *testing.T) {
		f := newFixture(nil)
		f.catalog.discounts["LAST"] = &domain.Discount{
			ID: 12, TenantID: 1, Code: "LAST",
			Type: domain.DiscountAmount, Value: 5,
			UsageLimit: ptr.Ptr(1),
		}
		// another booking commits between the code lookup and the
		// transaction: the in-transaction reread must see the fresh counter
		f.catalog.refetchDiscounts = map[string]*domain.Discount{
			"LAST": {
				ID: 12, TenantID: 1, Code: "LAST",
				Type: domain.DiscountAmount, Value: 5,
				UsageLimit: ptr.Ptr(1), UsageCount: 1,
			},
		}

		req := validRequest()
		req.DiscountCode = ptr.Ptr("LAST")

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrDiscountNotApplicable)
		assert.Empty(t, f.catalog.usageIncrement)
		assert.Empty(t, f.apptRepo.created, "rejection must roll the whole request back")
	})

	t.Run("expired window", func(t *testing.T) {
		f := newFixture(nil)
		f.catalog.discounts["OLD"] = &domain.Discount{
			ID: 11, TenantID: 1, Code: "OLD",
			Type: domain.DiscountAmount, Value: 5,
			EndsAt: ptr.Ptr(testNow.Add(-time.Hour)),
		}

		req := validRequest()
		req.DiscountCode = ptr.Ptr("OLD")

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrDiscountNotApplicable)
	})
}

func TestExecute_NewCustomerCreated(t *testing.T) {
	f := newFixture(nil)

	req := validRequest()
	req.CustomerID = 0
	req.CustomerName = "John Doe"
	req.CustomerEmail = "john@example.com"
	req.CustomerPhone = "+15550111"

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.customers.created, 1)
	assert.Equal(t, "John Doe", f.customers.created[0].Name)
	assert.Equal(t, resp.CustomerID, int64(1001))
	assert.Equal(t, "john@example.com", resp.CustomerEmail)
}

func TestExecute_ContactBackfilledFromProfile(t *testing.T) {
	f := newFixture(nil)

	req := validRequest()
	req.CustomerName = "J. Roe" // explicit value wins over the profile

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "J. Roe", resp.CustomerName)
	assert.Equal(t, "jane@example.com", resp.CustomerEmail)
	assert.Equal(t, "+15550100", resp.CustomerPhone)
}

func TestExecute_Failures(t *testing.T) {
	t.Run("past start", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.StartAt = testNow.Add(-time.Hour)

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrPastAppointment)
	})

	t.Run("unknown option", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.OptionID = 99

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrOptionNotFound)
	})

	t.Run("unknown addon", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.AddonIDs = []int64{99}

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrAddonNotFound)
	})

	t.Run("unknown customer", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.CustomerID = 99

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrCustomerNotFound)
	})

	t.Run("new customer without contact data", func(t *testing.T) {
		f := newFixture(nil)

		req := validRequest()
		req.CustomerID = 0
		req.CustomerName = "John Doe"

		_, err := f.uc.Execute(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestExecute_NotificationsDispatched(t *testing.T) {
	mailApp := &domain.ConnectedApp{
		ID: 1, TenantID: 1, Type: "smtp-mail", Status: domain.AppStatusConnected,
		Scopes: []domain.AppScope{domain.ScopeMailSend},
	}
	webhookApp := &domain.ConnectedApp{
		ID: 2, TenantID: 1, Type: "webhook", Status: domain.AppStatusConnected,
		Scopes: []domain.AppScope{domain.ScopeAppointmentHook},
	}
	f := newFixture(map[domain.AppScope][]*domain.ConnectedApp{
		domain.ScopeMailSend:        {mailApp},
		domain.ScopeAppointmentHook: {webhookApp},
	})

	_, err := f.uc.Execute(context.Background(), validRequest())
	require.NoError(t, err)

	require.Len(t, f.notifier.sent, 2)
	channels := []string{f.notifier.sent[0].Channel, f.notifier.sent[1].Channel}
	assert.ElementsMatch(t, []string{"email", "webhook"}, channels)
}
