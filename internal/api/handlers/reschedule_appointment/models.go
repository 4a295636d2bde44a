package reschedule_appointment

import (
	"fmt"
	"time"

	apptmodels "github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
	rescheduleAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_appointment"
)

// RescheduleAppointmentRequest HTTP request model
type RescheduleAppointmentRequest struct {
	NewStartAt string `json:"newStartAt"` // ISO 8601
	Actor      string `json:"actor"`
}

// ToUseCaseRequest конвертирует HTTP request в модель use case
func (r *RescheduleAppointmentRequest) ToUseCaseRequest(tenantID, appointmentID int64) (*rescheduleAppointment.Request, error) {
	newStartAt, err := time.Parse(time.RFC3339, r.NewStartAt)
	if err != nil {
		return nil, fmt.Errorf("parse newStartAt: %w", err)
	}

	actor, err := apptmodels.ToDomainActor(r.Actor)
	if err != nil {
		return nil, err
	}

	return &rescheduleAppointment.Request{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		NewStartAt:    newStartAt,
		Actor:         actor,
	}, nil
}

// BreakdownResponse условия переноса, рассчитанные политикой
type BreakdownResponse struct {
	PolicyAction     string  `json:"policyAction"`
	FeeAmount        float64 `json:"feeAmount"`
	OldStartAt       string  `json:"oldStartAt"`
	NewStartAt       string  `json:"newStartAt"`
	NewAppointmentID int64   `json:"newAppointmentId"`
}

// RescheduleAppointmentResponse HTTP response model
type RescheduleAppointmentResponse struct {
	OldAppointmentID int64             `json:"oldAppointmentId"`
	NewAppointmentID int64             `json:"newAppointmentId"`
	NewStartAt       string            `json:"newStartAt"` // ISO 8601
	Status           string            `json:"status"`
	Breakdown        BreakdownResponse `json:"breakdown"`
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *rescheduleAppointment.Response) *RescheduleAppointmentResponse {
	return &RescheduleAppointmentResponse{
		OldAppointmentID: resp.OldAppointmentID,
		NewAppointmentID: resp.NewAppointmentID,
		NewStartAt:       resp.NewStartAt.Format(time.RFC3339),
		Status:           resp.Status,
		Breakdown: BreakdownResponse{
			PolicyAction:     string(resp.Breakdown.PolicyAction),
			FeeAmount:        resp.Breakdown.FeeAmount,
			OldStartAt:       resp.Breakdown.OldStartAt.Format(time.RFC3339),
			NewStartAt:       resp.Breakdown.NewStartAt.Format(time.RFC3339),
			NewAppointmentID: resp.Breakdown.NewAppointmentID,
		},
	}
}
