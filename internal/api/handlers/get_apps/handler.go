package get_apps

import (
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
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

// Handle GET /api/v1/apps
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	result, err := h.service.List(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("GET /apps - Failed to list apps: tenant_id=%d, error=%v", tenantID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /apps - Apps listed: tenant_id=%d, count=%d", tenantID, len(result.Apps))
	handlers.RespondJSON(w, http.StatusOK, result)
}
