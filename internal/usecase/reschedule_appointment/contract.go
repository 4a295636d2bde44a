package reschedule_appointment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notifysender"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) (*domain.Appointment, error)
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error)
	MarkRescheduled(ctx context.Context, tenantID, id, expectedVersion, newAppointmentID int64) error
	AppendEvent(ctx context.Context, event *domain.HistoryEvent) error
}

// TenantConfigRepository интерфейс репозитория настроек тенанта
type TenantConfigRepository interface {
	Get(ctx context.Context, tenantID int64, key string) (json.RawMessage, error)
}

// Locker интерфейс распределенной блокировки записи
type Locker interface {
	WithLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error
}

// NotifySender интерфейс клиента отправки уведомлений через подключенные приложения
type NotifySender interface {
	Send(ctx context.Context, app *domain.ConnectedApp, request *notifysender.SendRequest) (*notifysender.SendResult, error)
}

// EventPublisher интерфейс публикации событий жизненного цикла
type EventPublisher interface {
	Publish(ctx context.Context, event events.LifecycleEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
