package domain

// PolicyAction is the outcome a policy tier prescribes for a cancellation
// or reschedule request
type PolicyAction string

const (
	// PolicyAllowed permits the action under the tier's refund/fee terms
	PolicyAllowed PolicyAction = "allowed"
	// PolicyNotAllowed rejects the action outright
	PolicyNotAllowed PolicyAction = "not_allowed"
)

// PolicyTier pairs an advance-notice threshold with an action and its
// refund/fee terms. A tier applies when the request arrives with at least
// MinutesToAppointment minutes of notice.
type PolicyTier struct {
	MinutesToAppointment int          `json:"minutesToAppointment"`
	Action               PolicyAction `json:"action"`
	RefundPercent        float64      `json:"refundPercent"`
	FeeAmount            float64      `json:"feeAmount"`
	FeeRefundable        bool         `json:"feeRefundable"`
}

// PolicyConfig is a tenant's cancellation or reschedule policy: an ordered
// tier list plus a default applied when no tier matches. Tiers are logically
// ordered by descending threshold, but consumers must not assume the stored
// list is sorted.
type PolicyConfig struct {
	Enabled     bool        `json:"enabled"`
	Tiers       []PolicyTier `json:"tiers"`
	DefaultTier *PolicyTier  `json:"defaultTier,omitempty"`
}

// ZeroNoticeTier is the synthetic tier applied when the appointment is
// already in the past or starting now; it must never fall through to a
// lenient default.
func ZeroNoticeTier() *PolicyTier {
	return &PolicyTier{
		MinutesToAppointment: 0,
		Action:               PolicyNotAllowed,
		RefundPercent:        0,
		FeeAmount:            0,
		FeeRefundable:        false,
	}
}
