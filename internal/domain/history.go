package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType identifies a state-changing event in an appointment's history
type EventType string

const (
	EventCreated          EventType = "created"
	EventConfirmed        EventType = "confirmed"
	EventDeclined         EventType = "declined"
	EventCancelled        EventType = "cancelled"
	EventRescheduled      EventType = "rescheduled"
	EventPaymentRefunded  EventType = "paymentRefunded"
	EventNotificationSent EventType = "notificationSent"
)

// HistoryEvent is an append-only audit log entry attached to an appointment.
// Entries are immutable once written.
type HistoryEvent struct {
	ID            uuid.UUID
	AppointmentID int64
	Type          EventType
	Actor         Actor
	Payload       json.RawMessage
	CreatedAt     time.Time
}

// CancellationBreakdown is the fee/refund outcome computed by the policy
// resolver at cancellation time. It is persisted on the history event, never
// recomputed, so later policy edits cannot change a historical cancellation.
type CancellationBreakdown struct {
	PolicyAction  PolicyAction `json:"policyAction"`
	RefundPercent float64      `json:"refundPercent"`
	FeeAmount     float64      `json:"feeAmount"`
	FeeRefundable bool         `json:"feeRefundable"`
	RefundAmount  float64      `json:"refundAmount"`
}

// RescheduleBreakdown captures the policy outcome and linkage of a reschedule
type RescheduleBreakdown struct {
	PolicyAction     PolicyAction `json:"policyAction"`
	FeeAmount        float64      `json:"feeAmount"`
	OldStartAt       time.Time    `json:"oldStartAt"`
	NewStartAt       time.Time    `json:"newStartAt"`
	NewAppointmentID int64        `json:"newAppointmentId"`
}

// RefundBreakdown captures a payment refund applied to an appointment
type RefundBreakdown struct {
	PaymentID     int64   `json:"paymentId"`
	Method        string  `json:"method"`
	Provider      string  `json:"provider"`
	Amount        float64 `json:"amount"`
	TotalRefunded float64 `json:"totalRefunded"`
}

// NewHistoryEvent builds a history event with a marshalled payload.
// A nil payload produces an event without payload.
func NewHistoryEvent(appointmentID int64, eventType EventType, actor Actor, payload interface{}) (*HistoryEvent, error) {
	event := &HistoryEvent{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		Type:          eventType,
		Actor:         actor,
		CreatedAt:     time.Now().UTC(),
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		event.Payload = raw
	}

	return event, nil
}
