package domain

import "time"

// DurationType determines how a service option's duration and price are computed
type DurationType string

const (
	// DurationFixed options carry an explicit duration and price
	DurationFixed DurationType = "fixed"
	// DurationFlexible options are bounded by min/max/step and priced per hour;
	// the customer chooses the total duration at booking time
	DurationFlexible DurationType = "flexible"
)

// ServiceOption is a bookable service in the tenant's catalog
type ServiceOption struct {
	ID       int64
	TenantID int64
	Name     string

	DurationType DurationType

	// Fixed options
	Duration int     // minutes
	Price    float64

	// Flexible options
	PricePerHour float64
	MinDuration  int // minutes
	MaxDuration  int // minutes
	StepMinutes  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsFlexible returns true if the option's duration is chosen by the customer
func (o *ServiceOption) IsFlexible() bool {
	return o.DurationType == DurationFlexible
}

// AllowsTotalDuration validates a requested total duration against the
// option's configured min/max/step bounds. Fixed options accept nothing.
func (o *ServiceOption) AllowsTotalDuration(totalDuration int) bool {
	if !o.IsFlexible() {
		return false
	}
	if totalDuration < o.MinDuration || totalDuration > o.MaxDuration {
		return false
	}
	if o.StepMinutes > 0 && (totalDuration-o.MinDuration)%o.StepMinutes != 0 {
		return false
	}
	return true
}

// Addon is an optional add-on with its own duration and price
type Addon struct {
	ID       int64
	TenantID int64
	Name     string
	Duration int // minutes
	Price    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// DiscountType determines how a discount value is interpreted
type DiscountType string

const (
	DiscountAmount     DiscountType = "amount"
	DiscountPercentage DiscountType = "percentage"
)

// Discount is a coded reduction applied to a booking subtotal.
// Percentage values are validated against MaxDiscountPercent when the
// discount is defined, not when it is applied.
type Discount struct {
	ID       int64
	TenantID int64
	Code     string
	Name     string
	Type     DiscountType
	Value    float64

	StartsAt *time.Time
	EndsAt   *time.Time

	UsageLimit       *int // nil = unlimited
	PerCustomerLimit *int // nil = unlimited
	UsageCount       int

	// Optional scoping; empty slices mean the discount applies to everything
	OptionIDs []int64
	AddonIDs  []int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsWithinWindow returns true if the discount's validity window covers t
func (d *Discount) IsWithinWindow(t time.Time) bool {
	if d.StartsAt != nil && t.Before(*d.StartsAt) {
		return false
	}
	if d.EndsAt != nil && t.After(*d.EndsAt) {
		return false
	}
	return true
}

// IsExhausted returns true if the global usage cap has been reached
func (d *Discount) IsExhausted() bool {
	return d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit
}

// AppliesToOption returns true if the discount is valid for the given option
func (d *Discount) AppliesToOption(optionID int64) bool {
	if len(d.OptionIDs) == 0 {
		return true
	}
	for _, id := range d.OptionIDs {
		if id == optionID {
			return true
		}
	}
	return false
}
