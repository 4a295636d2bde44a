package domain

import "time"

// AppStatus is the lifecycle status of a connected app installation.
// These four states are the only valid values; handlers receiving anything
// else must reject it as a data error.
type AppStatus string

const (
	AppStatusConnected      AppStatus = "connected"
	AppStatusPending        AppStatus = "pending"
	AppStatusNeedsAttention AppStatus = "needs-attention"
	AppStatusDisconnected   AppStatus = "disconnected"
)

// ValidAppStatus reports whether s is one of the four valid statuses
func ValidAppStatus(s AppStatus) bool {
	switch s {
	case AppStatusConnected, AppStatusPending, AppStatusNeedsAttention, AppStatusDisconnected:
		return true
	}
	return false
}

// AppScope is a named capability category connected apps declare support for
type AppScope string

const (
	ScopeCalendarRead      AppScope = "calendar-read"
	ScopeCalendarWrite     AppScope = "calendar-write"
	ScopeMailSend          AppScope = "mail-send"
	ScopeTextMessageSend   AppScope = "text-message-send"
	ScopePayment           AppScope = "payment"
	ScopeDashboardNotifier AppScope = "dashboard-notifier"
	ScopeUIComponents      AppScope = "ui-components"
	ScopeAppointmentHook   AppScope = "appointment-hook"
)

// ConnectedApp is a tenant-scoped record of an installed third-party
// integration. Apps are never hard-deleted while hooks may reference them;
// removal is a status change to disconnected.
type ConnectedApp struct {
	ID         int64
	TenantID   int64
	Type       string // catalog app type, e.g. "google-calendar"
	Name       string
	Status     AppStatus
	StatusText string
	Scopes     []AppScope
	Settings   map[string]string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasScope returns true if the app declares the given capability scope
func (a *ConnectedApp) HasScope(scope AppScope) bool {
	for _, s := range a.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsDispatchable returns true if hooks may be executed against the app
func (a *ConnectedApp) IsDispatchable() bool {
	return a.Status != AppStatusDisconnected
}

// CatalogApp describes an installable app type and the capability scopes it
// declares. Scopes are fixed at catalog time, not runtime-mutable.
type CatalogApp struct {
	Type   string
	Name   string
	Scopes []AppScope
}

// AppCatalog is the static set of installable app types
var AppCatalog = map[string]CatalogApp{
	"google-calendar": {
		Type:   "google-calendar",
		Name:   "Google Calendar",
		Scopes: []AppScope{ScopeCalendarRead, ScopeCalendarWrite, ScopeAppointmentHook},
	},
	"stripe": {
		Type:   "stripe",
		Name:   "Stripe",
		Scopes: []AppScope{ScopePayment},
	},
	"twilio-sms": {
		Type:   "twilio-sms",
		Name:   "Twilio SMS",
		Scopes: []AppScope{ScopeTextMessageSend},
	},
	"smtp-mail": {
		Type:   "smtp-mail",
		Name:   "SMTP Mail",
		Scopes: []AppScope{ScopeMailSend},
	},
	"dashboard": {
		Type:   "dashboard",
		Name:   "Admin Dashboard",
		Scopes: []AppScope{ScopeDashboardNotifier, ScopeUIComponents},
	},
	"webhook": {
		Type:   "webhook",
		Name:   "Outgoing Webhook",
		Scopes: []AppScope{ScopeAppointmentHook},
	},
}
