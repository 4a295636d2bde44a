package create_appointment

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	createAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/create_appointment"
)

const (
	msgInvalidRequestBody    = "некорректное тело запроса"
	msgOptionNotFound        = "опция услуги не найдена"
	msgAddonNotFound         = "дополнение не найдено"
	msgCustomerNotFound      = "клиент не найден"
	msgDiscountNotFound      = "промокод не найден"
	msgDiscountNotApplicable = "промокод не может быть применен"
	msgInvalidDuration       = "некорректная длительность записи"
	msgPastAppointment       = "время начала записи уже прошло"
	msgInvalidInput          = "некорректные данные запроса"
)

type Handler struct {
	useCase CreateAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CreateAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	var req CreateAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantID)
	if err != nil {
		h.logger.Warn("POST /appointments - Failed to parse request: tenant_id=%d, error=%v", tenantID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, createAppointment.ErrOptionNotFound):
			h.logger.Warn("POST /appointments - Option not found: tenant_id=%d, option_id=%d", tenantID, req.OptionID)
			handlers.RespondNotFound(w, msgOptionNotFound)

		case errors.Is(err, createAppointment.ErrAddonNotFound):
			h.logger.Warn("POST /appointments - Addon not found: tenant_id=%d, option_id=%d", tenantID, req.OptionID)
			handlers.RespondNotFound(w, msgAddonNotFound)

		case errors.Is(err, createAppointment.ErrCustomerNotFound):
			h.logger.Warn("POST /appointments - Customer not found: tenant_id=%d, customer_id=%d", tenantID, req.CustomerID)
			handlers.RespondNotFound(w, msgCustomerNotFound)

		case errors.Is(err, createAppointment.ErrDiscountNotFound):
			h.logger.Warn("POST /appointments - Discount not found: tenant_id=%d", tenantID)
			handlers.RespondNotFound(w, msgDiscountNotFound)

		case errors.Is(err, createAppointment.ErrDiscountNotApplicable):
			h.logger.Warn("POST /appointments - Discount not applicable: tenant_id=%d", tenantID)
			handlers.RespondUnprocessable(w, msgDiscountNotApplicable)

		case errors.Is(err, createAppointment.ErrInvalidDuration):
			h.logger.Warn("POST /appointments - Invalid duration: tenant_id=%d, option_id=%d", tenantID, req.OptionID)
			handlers.RespondBadRequest(w, msgInvalidDuration)

		case errors.Is(err, createAppointment.ErrPastAppointment):
			h.logger.Warn("POST /appointments - Start time in the past: tenant_id=%d", tenantID)
			handlers.RespondBadRequest(w, msgPastAppointment)

		case errors.Is(err, createAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments - Invalid input: tenant_id=%d, error=%v", tenantID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /appointments - Failed to create appointment: tenant_id=%d, option_id=%d, error=%v",
				tenantID, req.OptionID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /appointments - Appointment created successfully: appointment_id=%d, tenant_id=%d, status=%s",
		result.ID, tenantID, result.Status)
	handlers.RespondJSON(w, http.StatusCreated, response)
}
