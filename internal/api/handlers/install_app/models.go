package install_app

import (
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps/models"
)

// InstallAppRequest HTTP request model
type InstallAppRequest struct {
	AppType  string            `json:"appType"`
	Settings map[string]string `json:"settings,omitempty"`
}

// ToServiceRequest конвертирует HTTP request в модель сервиса
func (r *InstallAppRequest) ToServiceRequest(tenantID int64) *models.InstallAppRequest {
	return &models.InstallAppRequest{
		TenantID: tenantID,
		AppType:  r.AppType,
		Settings: r.Settings,
	}
}
