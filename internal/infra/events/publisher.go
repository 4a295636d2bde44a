package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// LifecycleEvent событие жизненного цикла записи, публикуемое в kafka.
// Публикация best-effort и выполняется после коммита основного перехода:
// сбой публикации логируется и не откатывает переход
type LifecycleEvent struct {
	Type          string    `json:"type"` // appointment.created, appointment.cancelled, ...
	TenantID      int64     `json:"tenantId"`
	AppointmentID int64     `json:"appointmentId"`
	Status        string    `json:"status"`
	OccurredAt    time.Time `json:"occurredAt"`
	Payload       any       `json:"payload,omitempty"`
}

// Publisher публикует события жизненного цикла записей в kafka
type Publisher struct {
	writer *kafka.Writer
	logger Logger
}

// NewPublisher создает publisher для заданного брокера и топика
func NewPublisher(brokers []string, topic string, logger Logger) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
		logger: logger,
	}
}

// Publish публикует событие. Ключом сообщения служит ID записи, чтобы события
// одной записи попадали в одну партицию и сохраняли порядок
func (p *Publisher) Publish(ctx context.Context, event LifecycleEvent) error {
	if p == nil {
		return nil // публикация выключена конфигурацией
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal event %s: %w", event.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", event.AppointmentID)),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("events: publish %s for appointment=%d: %w", event.Type, event.AppointmentID, err)
	}

	p.logger.Info("Events: published %s for appointment=%d (tenant=%d)",
		event.Type, event.AppointmentID, event.TenantID)
	return nil
}

// Close закрывает соединение с kafka
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
