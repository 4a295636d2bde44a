package install_app

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgUnknownAppType     = "неизвестный тип приложения"
	msgInvalidInput       = "некорректные данные запроса"
)

type Handler struct {
	service AppService
	logger  Logger
}

func NewHandler(service AppService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/apps
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	var req InstallAppRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /apps - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Install(r.Context(), req.ToServiceRequest(tenantID))
	if err != nil {
		switch {
		case errors.Is(err, apps.ErrUnknownAppType):
			h.logger.Warn("POST /apps - Unknown app type: tenant_id=%d, app_type=%s", tenantID, req.AppType)
			handlers.RespondBadRequest(w, msgUnknownAppType)

		case errors.Is(err, apps.ErrInvalidInput):
			h.logger.Warn("POST /apps - Invalid input: tenant_id=%d, error=%v", tenantID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /apps - Failed to install app: tenant_id=%d, app_type=%s, error=%v",
				tenantID, req.AppType, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /apps - App installed: tenant_id=%d, app_id=%d, app_type=%s",
		tenantID, result.ID, result.Type)
	handlers.RespondJSON(w, http.StatusCreated, result)
}
