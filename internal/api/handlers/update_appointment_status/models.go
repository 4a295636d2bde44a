package update_appointment_status

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/appointments/models"
)

// UpdateStatusRequest HTTP request model
type UpdateStatusRequest struct {
	Status string `json:"status"` // "confirmed" | "declined"
	Actor  string `json:"actor"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateStatusRequest) ToServiceRequest(tenantID, appointmentID int64) *models.UpdateStatusRequest {
	return &models.UpdateStatusRequest{
		TenantID:      tenantID,
		AppointmentID: appointmentID,
		Status:        r.Status,
		Actor:         r.Actor,
	}
}
