package models

import (
	"time"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
)

// Request модели

// InstallAppRequest запрос на установку приложения из каталога
type InstallAppRequest struct {
	TenantID int64             `json:"tenantId"`
	AppType  string            `json:"appType"`
	Settings map[string]string `json:"settings,omitempty"`
}

// UpdateAppRequest запрос на частичное обновление приложения.
// nil-поля не изменяются
type UpdateAppRequest struct {
	TenantID   int64             `json:"tenantId"`
	AppID      int64             `json:"appId"`
	Status     *string           `json:"status,omitempty"`
	StatusText *string           `json:"statusText,omitempty"`
	Settings   map[string]string `json:"settings,omitempty"`
}

// Response модели

// AppResponse ответ с данными подключенного приложения
type AppResponse struct {
	ID         int64             `json:"id"`
	TenantID   int64             `json:"tenantId"`
	Type       string            `json:"type"`
	Name       string            `json:"name"`
	Status     string            `json:"status"`
	StatusText string            `json:"statusText,omitempty"`
	Scopes     []string          `json:"scopes"`
	Settings   map[string]string `json:"settings,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AppListResponse ответ со списком приложений
type AppListResponse struct {
	Apps []AppResponse `json:"apps"`
}

// Методы конвертации

// FromDomainApp конвертирует domain модель в DTO
func FromDomainApp(a *domain.ConnectedApp) *AppResponse {
	if a == nil {
		return nil
	}

	scopes := make([]string, len(a.Scopes))
	for i, s := range a.Scopes {
		scopes[i] = string(s)
	}

	return &AppResponse{
		ID:         a.ID,
		TenantID:   a.TenantID,
		Type:       a.Type,
		Name:       a.Name,
		Status:     string(a.Status),
		StatusText: a.StatusText,
		Scopes:     scopes,
		Settings:   a.Settings,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// FromDomainAppList конвертирует список domain моделей в DTO
func FromDomainAppList(apps []*domain.ConnectedApp) *AppListResponse {
	resp := &AppListResponse{
		Apps: make([]AppResponse, 0, len(apps)),
	}

	for _, app := range apps {
		if appResp := FromDomainApp(app); appResp != nil {
			resp.Apps = append(resp.Apps, *appResp)
		}
	}

	return resp
}
