package refund_payment

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модель запроса на возврат платежа
type Request struct {
	TenantID      int64
	AppointmentID int64
	PaymentID     int64
	Amount        float64
	Reason        *string
	Actor         domain.Actor
}

// Response модель ответа с результатом возврата
type Response struct {
	RefundID         int64
	PaymentID        int64
	Amount           float64
	TotalRefunded    float64 // накопленный возврат по платежу, включая этот
	ProviderRefundID *string // заполняется для карточных платежей

	CreatedAt time.Time
}
