package notifysender

// SendRequest единый контракт отправки уведомления.
// Ядро не знает специфики провайдера: канал определяется scope приложения
type SendRequest struct {
	TenantID      int64  `json:"tenant_id"`
	AppointmentID int64  `json:"appointment_id"`
	Channel       string `json:"channel"` // "email" | "sms"
	Recipient     string `json:"recipient"`
	Subject       string `json:"subject,omitempty"`
	Body          string `json:"body"`
}

// SendResult результат отправки уведомления
type SendResult struct {
	Success           bool    `json:"success"`
	ProviderMessageID *string `json:"provider_message_id,omitempty"`
	Error             *string `json:"error,omitempty"`
}
