package hooks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

type fakeAppSource struct {
	apps []*domain.ConnectedApp
	err  error
}

func (f *fakeAppSource) GetAppsByScope(_ context.Context, _ int64, _ domain.AppScope) ([]*domain.ConnectedApp, error) {
	return f.apps, f.err
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func makeApps(n int) []*domain.ConnectedApp {
	apps := make([]*domain.ConnectedApp, n)
	for i := range apps {
		apps[i] = &domain.ConnectedApp{
			ID:     int64(i + 1),
			Name:   fmt.Sprintf("app-%d", i+1),
			Status: domain.AppStatusConnected,
			Scopes: []domain.AppScope{domain.ScopeAppointmentHook},
		}
	}
	return apps
}

func newTestDispatcher(apps []*domain.ConnectedApp) *Dispatcher {
	return NewDispatcher(&fakeAppSource{apps: apps}, nil, nopLogger{})
}

func TestExecute_NoApps(t *testing.T) {
	d := newTestDispatcher(nil)

	results, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[string](func(context.Context, *domain.ConnectedApp) (string, error) {
			return "unreachable", nil
		}), Options{})

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestExecute_AppSourceError(t *testing.T) {
	d := NewDispatcher(&fakeAppSource{err: errors.New("store down")}, nil, nopLogger{})

	_, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[int](func(context.Context, *domain.ConnectedApp) (int, error) {
			return 0, nil
		}), Options{})

	assert.ErrorIs(t, err, ErrResolveApps)
}

func TestExecute_AllWorkersRun(t *testing.T) {
	d := newTestDispatcher(makeApps(8))

	var mu sync.Mutex
	seen := map[int64]bool{}

	results, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[int64](func(_ context.Context, app *domain.ConnectedApp) (int64, error) {
			mu.Lock()
			seen[app.ID] = true
			mu.Unlock()
			return app.ID, nil
		}), Options{ConcurrencyLimit: 3})

	require.NoError(t, err)
	assert.Len(t, results, 8)
	assert.Len(t, seen, 8)
}

func TestExecute_ConcurrencyLimitRespected(t *testing.T) {
	const limit = 2
	d := newTestDispatcher(makeApps(10))

	var inFlight, peak int64

	_, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[struct{}](func(context.Context, *domain.ConnectedApp) (struct{}, error) {
			current := atomic.AddInt64(&inFlight, 1)
			for {
				observed := atomic.LoadInt64(&peak)
				if current <= observed || atomic.CompareAndSwapInt64(&peak, observed, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}), Options{ConcurrencyLimit: limit})

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt64(&peak), int64(limit))
}

func TestExecute_IgnoreErrorsIsolatesFailures(t *testing.T) {
	// One failing worker among five: four results, no error at the call site
	d := newTestDispatcher(makeApps(5))

	results, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[int64](func(_ context.Context, app *domain.ConnectedApp) (int64, error) {
			if app.ID == 3 {
				return 0, errors.New("integration broken")
			}
			return app.ID, nil
		}), Options{IgnoreErrors: true})

	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.NotContains(t, results, int64(3))
}

func TestExecute_ErrorPropagatesButSiblingsFinish(t *testing.T) {
	d := newTestDispatcher(makeApps(5))

	var completed int64

	_, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[struct{}](func(_ context.Context, app *domain.ConnectedApp) (struct{}, error) {
			defer atomic.AddInt64(&completed, 1)
			if app.ID == 1 {
				return struct{}{}, errors.New("boom")
			}
			time.Sleep(10 * time.Millisecond)
			return struct{}{}, nil
		}), Options{IgnoreErrors: false})

	assert.ErrorIs(t, err, ErrWorkerFailed)
	// No cooperative cancellation: every started worker completes
	assert.Equal(t, int64(5), atomic.LoadInt64(&completed))
}

func TestExecute_TimeoutTreatedAsWorkerFailure(t *testing.T) {
	d := newTestDispatcher(makeApps(3))

	results, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[int64](func(ctx context.Context, app *domain.ConnectedApp) (int64, error) {
			if app.ID == 2 {
				select {
				case <-ctx.Done():
					return 0, ctx.Err()
				case <-time.After(5 * time.Second):
					return app.ID, nil
				}
			}
			return app.ID, nil
		}), Options{IgnoreErrors: true, Timeout: 50 * time.Millisecond})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestExecute_WorkerPanicIsolated(t *testing.T) {
	d := newTestDispatcher(makeApps(3))

	results, err := Execute(context.Background(), d, 1, domain.ScopeAppointmentHook,
		WorkerFunc[int64](func(_ context.Context, app *domain.ConnectedApp) (int64, error) {
			if app.ID == 2 {
				panic("bad integration")
			}
			return app.ID, nil
		}), Options{IgnoreErrors: true})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestExecute_HeterogeneousResultTypes(t *testing.T) {
	// The dispatcher knows nothing about what R means
	d := newTestDispatcher(makeApps(2))

	type notification struct {
		AppID int64
		Text  string
	}

	results, err := Execute(context.Background(), d, 1, domain.ScopeDashboardNotifier,
		WorkerFunc[notification](func(_ context.Context, app *domain.ConnectedApp) (notification, error) {
			return notification{AppID: app.ID, Text: "pending setup"}, nil
		}), Options{})

	require.NoError(t, err)
	assert.Len(t, results, 2)
}
