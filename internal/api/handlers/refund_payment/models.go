package refund_payment

import (
	"time"

	apptmodels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	refundPayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/refund_payment"
)

// RefundPaymentRequest HTTP request model
type RefundPaymentRequest struct {
	Amount float64 `json:"amount"`
	Reason *string `json:"reason,omitempty"`
	Actor  string  `json:"actor"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *RefundPaymentRequest) ToUseCaseRequest(tenantID, appointmentID, paymentID int64) (*refundPayment.Request, error) {
	actor, err := apptmodels.ToDomainActor(r.Actor)
	if err != nil {
		return nil, err
	}

	return &refundPayment.Request{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		PaymentID:     paymentID,
		Amount:        r.Amount,
		Reason:        r.Reason,
		Actor:         actor,
	}, nil
}

// RefundPaymentResponse HTTP response model
type RefundPaymentResponse struct {
	RefundID         int64   `json:"refundId"`
	PaymentID        int64   `json:"paymentId"`
	Amount           float64 `json:"amount"`
	TotalRefunded    float64 `json:"totalRefunded"`
	ProviderRefundID *string `json:"providerRefundId,omitempty"`
	CreatedAt        string  `json:"createdAt"` // ISO 8601
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *refundPayment.Response) *RefundPaymentResponse {
	return &RefundPaymentResponse{
		RefundID:         resp.RefundID,
		PaymentID:        resp.PaymentID,
		Amount:           resp.Amount,
		TotalRefunded:    resp.TotalRefunded,
		ProviderRefundID: resp.ProviderRefundID,
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
	}
}
