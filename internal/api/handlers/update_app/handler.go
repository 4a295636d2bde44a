package update_app

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	"github.com/m04kA/SMC-AppointmentService/internal/service/apps"
)

const (
	msgInvalidAppID       = "некорректный ID приложения"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgNotFound           = "приложение не найдено"
	msgInvalidStatus      = "некорректный статус приложения"
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

// Handle PATCH /api/v1/apps/{appId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	vars := mux.Vars(r)
	appID, err := strconv.ParseInt(vars["appId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /apps/{id} - Invalid app ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppID)
		return
	}

	var req UpdateAppRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /apps/{id} - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	result, err := h.service.Update(r.Context(), req.ToServiceRequest(tenantID, appID))
	if err != nil {
		switch {
		case errors.Is(err, apps.ErrAppNotFound):
			h.logger.Warn("PATCH /apps/{id} - App not found: tenant_id=%d, app_id=%d", tenantID, appID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, apps.ErrInvalidStatus):
			h.logger.Warn("PATCH /apps/{id} - Invalid status: tenant_id=%d, app_id=%d", tenantID, appID)
			handlers.RespondBadRequest(w, msgInvalidStatus)

		case errors.Is(err, apps.ErrInvalidInput):
			h.logger.Warn("PATCH /apps/{id} - Invalid input: tenant_id=%d, app_id=%d, error=%v", tenantID, appID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /apps/{id} - Failed to update app: tenant_id=%d, app_id=%d, error=%v",
				tenantID, appID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /apps/{id} - App updated: tenant_id=%d, app_id=%d, status=%s",
		tenantID, appID, result.Status)
	handlers.RespondJSON(w, http.StatusOK, result)
}
