package cancel_appointment

import (
	"time"

	apptmodels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

// CancelAppointmentRequest HTTP request model
type CancelAppointmentRequest struct {
	Actor  string  `json:"actor"`
	Reason *string `json:"reason,omitempty"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *CancelAppointmentRequest) ToUseCaseRequest(tenantID, appointmentID int64) (*cancelAppointment.Request, error) {
	actor, err := apptmodels.ToDomainActor(r.Actor)
	if err != nil {
		return nil, err
	}

	return &cancelAppointment.Request{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Actor:         actor,
		Reason:        r.Reason,
	}, nil
}

// BreakdownResponse условия отмены, рассчитанные политикой
type BreakdownResponse struct {
	PolicyAction  string  `json:"policyAction"`
	RefundPercent float64 `json:"refundPercent"`
	FeeAmount     float64 `json:"feeAmount"`
	FeeRefundable bool    `json:"feeRefundable"`
	RefundAmount  float64 `json:"refundAmount"`
}

// CancelAppointmentResponse HTTP response model
type CancelAppointmentResponse struct {
	ID          int64             `json:"id"`
	Status      string            `json:"status"`
	CancelledAt string            `json:"cancelledAt"` // ISO 8601
	Breakdown   BreakdownResponse `json:"breakdown"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *cancelAppointment.Response) *CancelAppointmentResponse {
	return &CancelAppointmentResponse{
		ID:          resp.ID,
		Status:      resp.Status,
		CancelledAt: resp.CancelledAt.Format(time.RFC3339),
		Breakdown: BreakdownResponse{
			PolicyAction:  string(resp.Breakdown.PolicyAction),
			RefundPercent: resp.Breakdown.RefundPercent,
			FeeAmount:     resp.Breakdown.FeeAmount,
			FeeRefundable: resp.Breakdown.FeeRefundable,
			RefundAmount:  resp.Breakdown.RefundAmount,
		},
	}
}
