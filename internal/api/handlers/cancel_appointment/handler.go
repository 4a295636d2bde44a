package cancel_appointment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	cancelAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/cancel_appointment"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgNotFound             = "запись не найдена"
	msgCannotCancel         = "запись не может быть отменена"
	msgPolicyNotAllowed     = "отмена запрещена политикой тенанта"
	msgConcurrentOperation  = "запись обрабатывается другой операцией, повторите позже"
	msgVersionConflict      = "запись была изменена параллельной операцией"
	msgInvalidInput         = "некорректные данные запроса"
)

type Handler struct {
	useCase CancelAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase CancelAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/appointments/{appointmentId}/cancel
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseInt(vars["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req CancelAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantID, appointmentID)
	if err != nil {
		h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid actor: tenant_id=%d, appointment_id=%d, error=%v",
			tenantID, appointmentID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, cancelAppointment.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Appointment not found: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, cancelAppointment.ErrCannotCancel):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Cannot cancel: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgCannotCancel)

		case errors.Is(err, cancelAppointment.ErrPolicyNotAllowed):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Forbidden by policy: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondUnprocessable(w, msgPolicyNotAllowed)

		case errors.Is(err, cancelAppointment.ErrConcurrentOperation):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Locked by another operation: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgConcurrentOperation)

		case errors.Is(err, cancelAppointment.ErrVersionConflict):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Version conflict: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgVersionConflict)

		case errors.Is(err, cancelAppointment.ErrInvalidInput):
			h.logger.Warn("PATCH /appointments/{id}/cancel - Invalid input: tenant_id=%d, appointment_id=%d, error=%v",
				tenantID, appointmentID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("PATCH /appointments/{id}/cancel - Failed to cancel appointment: tenant_id=%d, appointment_id=%d, error=%v",
				tenantID, appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /appointments/{id}/cancel - Appointment cancelled: tenant_id=%d, appointment_id=%d, refund=%.2f",
		tenantID, appointmentID, result.Breakdown.RefundAmount)
	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(result))
}
