package apps

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	appRepo "github.com/m04kA/SMC-AppointmentService/internal/infra/storage/connectedapp"
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
	"github.com/m04kA/SMC-AppointmentService/pkg/ptr"
)

type fakeAppRepo struct {
	apps   map[int64]*domain.ConnectedApp
	nextID int64
	err    error
}

func newFakeAppRepo() *fakeAppRepo {
	return &fakeAppRepo{apps: map[int64]*domain.ConnectedApp{}, nextID: 1}
}

func (f *fakeAppRepo) Create(_ context.Context, app *domain.ConnectedApp) (*domain.ConnectedApp, error) {
	if f.err != nil {
		return nil, f.err
	}
	app.ID = f.nextID
	f.nextID++
	app.CreatedAt = time.Now()
	app.UpdatedAt = app.CreatedAt
	f.apps[app.ID] = app
	return app, nil
}

func (f *fakeAppRepo) GetByID(_ context.Context, tenantID, id int64) (*domain.ConnectedApp, error) {
	if f.err != nil {
		return nil, f.err
	}
	app, ok := f.apps[id]
	if !ok || app.TenantID != tenantID {
		return nil, appRepo.ErrAppNotFound
	}
	return app, nil
}

func (f *fakeAppRepo) GetByTenant(_ context.Context, tenantID int64) ([]*domain.ConnectedApp, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.ConnectedApp
	for _, app := range f.apps {
		if app.TenantID == tenantID {
			out = append(out, app)
		}
	}
	return out, nil
}

func (f *fakeAppRepo) GetByTenantAndType(_ context.Context, tenantID int64, appType string) ([]*domain.ConnectedApp, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.ConnectedApp
	for _, app := range f.apps {
		if app.TenantID == tenantID && app.Type == appType {
			out = append(out, app)
		}
	}
	return out, nil
}

func (f *fakeAppRepo) Update(_ context.Context, tenantID, id int64, patch appRepo.UpdatePatch) error {
	if f.err != nil {
		return f.err
	}
	app, ok := f.apps[id]
	if !ok || app.TenantID != tenantID {
		return appRepo.ErrAppNotFound
	}
	if patch.Status != nil {
		app.Status = *patch.Status
	}
	if patch.StatusText != nil {
		app.StatusText = *patch.StatusText
	}
	if patch.Settings != nil {
		app.Settings = patch.Settings
	}
	app.UpdatedAt = time.Now()
	return nil
}

type noopLogger struct{}

func (noopLogger) Info(string, ...interface{})  {}
func (noopLogger) Warn(string, ...interface{})  {}
func (noopLogger) Error(string, ...interface{}) {}

func TestService_Install(t *testing.T) {
	t.Run("known catalog type creates pending app with catalog scopes", func(t *testing.T) {
		repo := newFakeAppRepo()
		svc := NewService(repo, noopLogger{})

		resp, err := svc.Install(context.Background(), &models.InstallAppRequest{
			TenantID: 7,
			AppType:  "google-calendar",
		})

		require.NoError(t, err)
		assert.Equal(t, "google-calendar", resp.Type)
		assert.Equal(t, "Google Calendar", resp.Name)
		assert.Equal(t, string(domain.AppStatusPending), resp.Status)
		assert.Contains(t, resp.Scopes, string(domain.ScopeCalendarWrite))
		assert.Contains(t, resp.Scopes, string(domain.ScopeAppointmentHook))
	})

	t.Run("unknown type rejected", func(t *testing.T) {
		svc := NewService(newFakeAppRepo(), noopLogger{})

		_, err := svc.Install(context.Background(), &models.InstallAppRequest{
			TenantID: 7,
			AppType:  "salesforce",
		})

		assert.ErrorIs(t, err, ErrUnknownAppType)
	})
}

func TestService_GetAppsByScope(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewService(repo, noopLogger{})
	ctx := context.Background()

	seed := func(tenantID int64, status domain.AppStatus, scopes ...domain.AppScope) *domain.ConnectedApp {
		app, err := repo.Create(ctx, &domain.ConnectedApp{
			TenantID: tenantID,
			Type:     "webhook",
			Name:     "Outgoing Webhook",
			Status:   status,
			Scopes:   scopes,
		})
		require.NoError(t, err)
		return app
	}

	connected := seed(1, domain.AppStatusConnected, domain.ScopeMailSend, domain.ScopeAppointmentHook)
	pending := seed(1, domain.AppStatusPending, domain.ScopeMailSend)
	seed(1, domain.AppStatusDisconnected, domain.ScopeMailSend)
	seed(1, domain.AppStatusConnected, domain.ScopeTextMessageSend)
	seed(2, domain.AppStatusConnected, domain.ScopeMailSend)

	apps, err := svc.GetAppsByScope(ctx, 1, domain.ScopeMailSend)
	require.NoError(t, err)

	ids := make([]int64, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.ID)
	}
	assert.ElementsMatch(t, []int64{connected.ID, pending.ID}, ids,
		"disconnected apps and other tenants must be excluded")
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("valid status transition", func(t *testing.T) {
		repo := newFakeAppRepo()
		svc := NewService(repo, noopLogger{})

		installed, err := svc.Install(ctx, &models.InstallAppRequest{TenantID: 1, AppType: "stripe"})
		require.NoError(t, err)

		resp, err := svc.Update(ctx, &models.UpdateAppRequest{
			TenantID:   1,
			AppID:      installed.ID,
			Status:     ptr.Ptr(string(domain.AppStatusConnected)),
			StatusText: ptr.Ptr("API key verified"),
		})

		require.NoError(t, err)
		assert.Equal(t, string(domain.AppStatusConnected), resp.Status)
		assert.Equal(t, "API key verified", resp.StatusText)
	})

	t.Run("unrecognized status rejected", func(t *testing.T) {
		repo := newFakeAppRepo()
		svc := NewService(repo, noopLogger{})

		installed, err := svc.Install(ctx, &models.InstallAppRequest{TenantID: 1, AppType: "stripe"})
		require.NoError(t, err)

		_, err = svc.Update(ctx, &models.UpdateAppRequest{
			TenantID: 1,
			AppID:    installed.ID,
			Status:   ptr.Ptr("archived"),
		})

		assert.ErrorIs(t, err, ErrInvalidStatus)
	})

	t.Run("missing app", func(t *testing.T) {
		svc := NewService(newFakeAppRepo(), noopLogger{})

		_, err := svc.Update(ctx, &models.UpdateAppRequest{
			TenantID: 1,
			AppID:    99,
			Status:   ptr.Ptr(string(domain.AppStatusDisconnected)),
		})

		assert.ErrorIs(t, err, ErrAppNotFound)
	})
}

func TestService_GetByID_WrongTenant(t *testing.T) {
	repo := newFakeAppRepo()
	svc := NewService(repo, noopLogger{})
	ctx := context.Background()

	installed, err := svc.Install(ctx, &models.InstallAppRequest{TenantID: 1, AppType: "smtp-mail"})
	require.NoError(t, err)

	_, err = svc.GetByID(ctx, 2, installed.ID)
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestService_List_RepoFailure(t *testing.T) {
	repo := newFakeAppRepo()
	repo.err = fmt.Errorf("connection refused")
	svc := NewService(repo, noopLogger{})

	_, err := svc.List(context.Background(), 1)
	assert.ErrorIs(t, err, ErrInternal)
}
