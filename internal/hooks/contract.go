package hooks

import (
	"context"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// AppSource источник подключенных приложений тенанта по scope
// Реализуется сервисом реестра приложений
type AppSource interface {
	GetAppsByScope(ctx context.Context, tenantID int64, scope domain.AppScope) ([]*domain.ConnectedApp, error)
}

// MetricsRecorder интерфейс записи метрик диспетчеризации хуков
type MetricsRecorder interface {
	ObserveHookInvocation(scope, result string, seconds float64)
	HookWorkerStarted(scope string)
	HookWorkerFinished(scope string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Worker единица работы, выполняемая против одного подключенного приложения.
// Диспетчер ничего не знает о семантике результата R
type Worker[R any] interface {
	Invoke(ctx context.Context, app *domain.ConnectedApp) (R, error)
}

// WorkerFunc адаптер функции к интерфейсу Worker
type WorkerFunc[R any] func(ctx context.Context, app *domain.ConnectedApp) (R, error)

// Invoke вызывает функцию
func (f WorkerFunc[R]) Invoke(ctx context.Context, app *domain.ConnectedApp) (R, error) {
	return f(ctx, app)
}
