package domain

import "time"

// Payment is a recorded charge against an appointment
type Payment struct {
	ID            int64
	TenantID      int64
	AppointmentID int64
	Method        string // "card", "cash", "on-site"
	Provider      string // "stripe" for card payments, empty otherwise

	ProviderChargeID *string
	Amount           float64
	Currency         string

	CreatedAt time.Time
}

// Refund is a partial or full reversal of a payment. The sum of a payment's
// refunds never exceeds the payment amount; requests over the remaining
// balance are rejected, not clamped.
type Refund struct {
	ID               int64
	PaymentID        int64
	Amount           float64
	Reason           *string
	ProviderRefundID *string

	CreatedAt time.Time
}
