package domain

// Default configuration values
const (
	DefaultHookConcurrencyLimit = 4
	DefaultHookTimeoutSeconds   = 10
	DefaultCurrency             = "RUB"
)

// Business validation constants
const (
	MinutesPerHour              = 60
	MaxDiscountPercent          = 100
	MaxNotesLength              = 500
	MaxCancellationReasonLength = 500
)

// Tenant configuration keys
const (
	ConfigKeyTimezone           = "timezone"
	ConfigKeyAutoConfirm        = "auto_confirm"
	ConfigKeyCancellationPolicy = "cancellation_policy"
	ConfigKeyReschedulePolicy   = "reschedule_policy"
	ConfigKeyPaymentsEnabled    = "payments_enabled"
)

// Time format constants
const (
	DateFormat = "2006-01-02" // YYYY-MM-DD
)
