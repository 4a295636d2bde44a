package refund_payment

import (
	"context"
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/infra/events"
)

// PaymentRepository интерфейс репозитория платежей
type PaymentRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Payment, error)
	SumRefunds(ctx context.Context, paymentID int64) (float64, error)
	CreateRefund(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
}

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByID(ctx context.Context, tenantID, id int64) (*domain.Appointment, error)
	AppendEvent(ctx context.Context, event *domain.HistoryEvent) error
}

// Locker интерфейс распределенной блокировки per-appointment
type Locker interface {
	WithLock(ctx context.Context, appointmentID int64, fn func(ctx context.Context) error) error
}

// PaymentProvider интерфейс провайдера возвратов.
// Возвращает идентификатор возврата на стороне провайдера
type PaymentProvider interface {
	Enabled() bool
	CreateRefund(ctx context.Context, payment *domain.Payment, amount float64, reason string) (string, error)
}

// EventPublisher интерфейс публикации событий жизненного цикла
type EventPublisher interface {
	Publish(ctx context.Context, event events.LifecycleEvent) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
