package update_app

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
)

// UpdateAppRequest HTTP request model.
// nil-поля не изменяются
type UpdateAppRequest struct {
	Status     *string           `json:"status,omitempty"`
	StatusText *string           `json:"statusText,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *UpdateAppRequest) ToServiceRequest(tenantID, appID int64) *models.UpdateAppRequest {
	return &models.UpdateAppRequest{
		TenantID:   tenantID,
		AppID:      appID,
		Status:     r.Status,
		StatusText: r.StatusText,
		Settings:   r.Settings,
	}
}
