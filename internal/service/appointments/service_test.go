package appointments

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/hooks"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	apptRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/appointment"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

type fakeApptRepo struct {
	appointments map[int64]*domain.Appointment
	events       []*domain.HistoryEvent

	updateStatusErr error
}

func newFakeApptRepo(appointments ...*domain.Appointment) *fakeApptRepo {
	repo := &fakeApptRepo{appointments: map[int64]*domain.Appointment{}}
	for _, appt := range appointments {
		repo.appointments[appt.ID] = appt
	}
	return repo
}

func (f *fakeApptRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.Appointment, error) {
	appt, ok := f.appointments[id]
	if !ok || appt.TenantID != tenantID {
		return nil, apptRepo.ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (f *fakeApptRepo) ListWithFilter(_ context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	var out []*domain.Appointment
	for _, appt := range f.appointments {
		if appt.TenantID != filter.TenantID {
			continue
		}
		if filter.CustomerID != nil && appt.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != nil && appt.Status != *filter.Status {
			continue
		}
		if !filter.IncludeInactive && filter.Status == nil && !appt.IsActive() {
			continue
		}
		out = append(out, appt)
	}
	return out, nil
}

func (f *fakeApptRepo) UpdateStatus(_ context.Context, tenantID, id, expectedVersion int64, status domain.AppointmentStatus) error {
	if f.updateStatusErr != nil {
		return f.updateStatusErr
	}
	appt, ok := f.appointments[id]
	if !ok || appt.TenantID != tenantID {
		return apptRepo.ErrAppointmentNotFound
	}
	if appt.Version != expectedVersion {
		return apptRepo.ErrVersionConflict
	}
	appt.Status = status
	appt.Version++
	return nil
}

func (f *fakeApptRepo) AppendEvent(_ context.Context, event *domain.HistoryEvent) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakeApptRepo) ListEvents(_ context.Context, appointmentID int64) ([]*domain.HistoryEvent, error) {
	var out []*domain.HistoryEvent
	for _, ev := range f.events {
		if ev.AppointmentID == appointmentID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeAppSource struct {
	apps map[domain.AppScope][]*domain.ConnectedApp
}

func (f *fakeAppSource) GetAppsByScope(_ context.Context, _ int64, scope domain.AppScope) ([]*domain.ConnectedApp, error) {
	return f.apps[scope], nil
}

type fakeNotifier struct {
	sent []notifysender.SendRequest
	fail bool
}

func (f *fakeNotifier) Send(_ context.Context, _ *domain.ConnectedApp, request *notifysender.SendRequest) (*notifysender.SendResult, error) {
	f.sent = append(f.sent, *request)
	if f.fail {
		return &notifysender.SendResult{Success: false, Error: ptr.Ptr("boom")}, nil
	}
	return &notifysender.SendResult{Success: true, ProviderMessageID: ptr.Ptr("msg-1")}, nil
}

type fakePublisher struct {
	published []events.LifecycleEvent
}

func (f *fakePublisher) Publish(_ context.Context, event events.LifecycleEvent) error {
	f.published = append(f.published, event)
	return nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (passthroughTxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func pendingAppointment(id int64) *domain.Appointment {
	return &domain.Appointment{
		ID:         id,
		TenantID:   1,
		CustomerID: 10,
		StartAt:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Option: domain.OptionSnapshot{
			OptionID:     5,
			Name:         "Deep Tissue Massage",
			DurationType: domain.DurationFixed,
			Duration:     60,
			Price:        100,
		},
		TotalDuration: 60,
		TotalPrice:    100,
		Status:        domain.StatusPending,
		CustomerName:  "Jane Roe",
		CustomerEmail: "jane@example.com",
		CustomerPhone: "+15550100",
		Version:       1,
	}
}

func newTestService(repo *fakeApptRepo, notifier *fakeNotifier, publisher *fakePublisher, apps map[domain.AppScope][]*domain.ConnectedApp) *Service {
	if apps == nil {
		apps = map[domain.AppScope][]*domain.ConnectedApp{}
	}
	dispatcher := hooks.NewDispatcher(&fakeAppSource{apps: apps}, nil, noopLogger{})
	return NewService(
		repo,
		dispatcher,
		notifier,
		publisher,
		passthroughTxManager{},
		fixedTime{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		noopLogger{},
	)
}

func TestService_UpdateStatus_Confirm(t *testing.T) {
	repo := newFakeApptRepo(pendingAppointment(1))
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}
	mailApp := &domain.ConnectedApp{
		ID: 1, TenantID: 1, Type: "smtp-mail", Status: domain.AppStatusConnected,
		Scopes: []domain.AppScope{domain.ScopeMailSend},
	}
	svc := newTestService(repo, notifier, publisher, map[domain.AppScope][]*domain.ConnectedApp{
		domain.ScopeMailSend: {mailApp},
	})

	resp, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
		TenantID:      1,
		AppointmentID: 1,
		Status:        "confirmed",
		Actor:         "staff",
	})

	require.NoError(t, err)
	assert.Equal(t, "confirmed", resp.Status)
	assert.Equal(t, domain.StatusConfirmed, repo.appointments[1].Status)
	assert.Equal(t, int64(2), repo.appointments[1].Version)

	// confirmation event plus a notification-sent event for the mail channel
	require.Len(t, repo.events, 2)
	assert.Equal(t, domain.EventConfirmed, repo.events[0].Type)
	assert.Equal(t, domain.ActorStaff, repo.events[0].Actor)
	assert.Equal(t, domain.EventNotificationSent, repo.events[1].Type)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "email", notifier.sent[0].Channel)
	assert.Equal(t, "jane@example.com", notifier.sent[0].Recipient)

	require.Len(t, publisher.published, 1)
	assert.Equal(t, "appointment.confirmed", publisher.published[0].Type)
}

func TestService_UpdateStatus_Decline(t *testing.T) {
	repo := newFakeApptRepo(pendingAppointment(1))
	publisher := &fakePublisher{}
	svc := newTestService(repo, &fakeNotifier{}, publisher, nil)

	resp, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
		TenantID:      1,
		AppointmentID: 1,
		Status:        "declined",
		Actor:         "staff",
	})

	require.NoError(t, err)
	assert.Equal(t, "declined", resp.Status)
	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.EventDeclined, repo.events[0].Type)
	require.Len(t, publisher.published, 1)
	assert.Equal(t, "appointment.declined", publisher.published[0].Type)
}

func TestService_UpdateStatus_Guards(t *testing.T) {
	t.Run("only pending appointments can be confirmed", func(t *testing.T) {
		appt := pendingAppointment(1)
		appt.Status = domain.StatusConfirmed
		svc := newTestService(newFakeApptRepo(appt), &fakeNotifier{}, &fakePublisher{}, nil)

		_, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
			TenantID: 1, AppointmentID: 1, Status: "declined", Actor: "staff",
		})

		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("target status limited to confirmed or declined", func(t *testing.T) {
		svc := newTestService(newFakeApptRepo(pendingAppointment(1)), &fakeNotifier{}, &fakePublisher{}, nil)

		_, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
			TenantID: 1, AppointmentID: 1, Status: "cancelled", Actor: "staff",
		})

		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("version conflict surfaces as sentinel", func(t *testing.T) {
		repo := newFakeApptRepo(pendingAppointment(1))
		repo.updateStatusErr = apptRepo.ErrVersionConflict
		svc := newTestService(repo, &fakeNotifier{}, &fakePublisher{}, nil)

		_, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
			TenantID: 1, AppointmentID: 1, Status: "confirmed", Actor: "staff",
		})

		assert.ErrorIs(t, err, ErrVersionConflict)
	})

	t.Run("missing appointment", func(t *testing.T) {
		svc := newTestService(newFakeApptRepo(), &fakeNotifier{}, &fakePublisher{}, nil)

		_, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
			TenantID: 1, AppointmentID: 42, Status: "confirmed", Actor: "staff",
		})

		assert.ErrorIs(t, err, ErrAppointmentNotFound)
	})
}

func TestService_UpdateStatus_FailedNotificationNotRecorded(t *testing.T) {
	repo := newFakeApptRepo(pendingAppointment(1))
	notifier := &fakeNotifier{fail: true}
	mailApp := &domain.ConnectedApp{
		ID: 1, TenantID: 1, Type: "smtp-mail", Status: domain.AppStatusConnected,
		Scopes: []domain.AppScope{domain.ScopeMailSend},
	}
	svc := newTestService(repo, notifier, &fakePublisher{}, map[domain.AppScope][]*domain.ConnectedApp{
		domain.ScopeMailSend: {mailApp},
	})

	_, err := svc.UpdateStatus(context.Background(), &models.UpdateStatusRequest{
		TenantID: 1, AppointmentID: 1, Status: "confirmed", Actor: "staff",
	})

	require.NoError(t, err, "notification failures must not block the transition")
	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.EventConfirmed, repo.events[0].Type)
}

func TestService_List_FiltersInactiveByDefault(t *testing.T) {
	active := pendingAppointment(1)
	cancelled := pendingAppointment(2)
	cancelled.Status = domain.StatusCancelled
	repo := newFakeApptRepo(active, cancelled)
	svc := newTestService(repo, &fakeNotifier{}, &fakePublisher{}, nil)

	resp, err := svc.List(context.Background(), &models.ListAppointmentsRequest{TenantID: 1})
	require.NoError(t, err)
	require.Len(t, resp.Appointments, 1)
	assert.Equal(t, int64(1), resp.Appointments[0].ID)

	resp, err = svc.List(context.Background(), &models.ListAppointmentsRequest{TenantID: 1, IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, resp.Appointments, 2)
}

func TestService_GetHistory(t *testing.T) {
	repo := newFakeApptRepo(pendingAppointment(1))
	svc := newTestService(repo, &fakeNotifier{}, &fakePublisher{}, nil)

	event, err := domain.NewHistoryEvent(1, domain.EventCreated, domain.ActorCustomer, nil)
	require.NoError(t, err)
	require.NoError(t, repo.AppendEvent(context.Background(), event))

	resp, err := svc.GetHistory(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, resp.Events, 1)
	assert.Equal(t, "created", resp.Events[0].Type)

	_, err = svc.GetHistory(context.Background(), 2, 1)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
}
