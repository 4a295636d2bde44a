package domain

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusDeclined    AppointmentStatus = "declined"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

// Actor identifies who performed a state-changing action on an appointment
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorStaff    Actor = "staff"
	ActorSystem   Actor = "system"
)

// Appointment is the aggregate root of the booking lifecycle.
// Option, add-on and discount data is denormalized onto the appointment at
// booking time so later catalog edits never change historical records.
type Appointment struct {
	ID         int64
	TenantID   int64
	CustomerID int64

	StartAt time.Time

	// Denormalized snapshots taken at booking time
	Option   OptionSnapshot
	Addons   []AddonSnapshot
	Discount *DiscountSnapshot

	TotalDuration int     // minutes, option + add-ons
	TotalPrice    float64 // option + add-ons - discount

	Status AppointmentStatus

	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Notes         *string

	// Audit linkage for reschedules
	RescheduledFromID *int64
	RescheduledToID   *int64

	CancellationReason *string
	CancelledAt        *time.Time

	// Version is bumped on every state-changing write; used for the
	// optimistic-concurrency check at the persistence boundary
	Version int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the appointment is in an active state
func (a *Appointment) IsActive() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// CanBeConfirmed returns true if the appointment can be confirmed or declined
func (a *Appointment) CanBeConfirmed() bool {
	return a.Status == StatusPending
}

// CanBeCancelled returns true if the appointment can be cancelled
func (a *Appointment) CanBeCancelled() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// CanBeRescheduled returns true if the appointment can be rescheduled
func (a *Appointment) CanBeRescheduled() bool {
	return a.Status == StatusConfirmed
}

// IsClosed returns true if the appointment reached a terminal state
func (a *Appointment) IsClosed() bool {
	return a.Status == StatusDeclined || a.Status == StatusCancelled || a.Status == StatusRescheduled
}

// OptionSnapshot is the copy of a service option embedded in an appointment
type OptionSnapshot struct {
	OptionID     int64
	Name         string
	DurationType DurationType
	Duration     int     // effective duration of the option itself, minutes
	Price        float64 // effective price of the option itself
	PricePerHour float64 // hourly rate for flexible options, informational
}

// AddonSnapshot is the copy of an add-on embedded in an appointment
type AddonSnapshot struct {
	AddonID  int64
	Name     string
	Duration int // minutes
	Price    float64
}

// DiscountSnapshot is the copy of an applied discount embedded in an appointment
type DiscountSnapshot struct {
	DiscountID int64
	Code       string
	Type       DiscountType
	Value      float64
	Amount     float64 // the computed reduction actually applied
}

// AppointmentFilter describes filtering options for listing tenant appointments
type AppointmentFilter struct {
	TenantID        int64
	CustomerID      *int64
	StartDate       *time.Time
	EndDate         *time.Time
	Status          *AppointmentStatus
	IncludeInactive bool
}
