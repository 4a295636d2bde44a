package reschedule_appointment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	rescheduleAppointment "github.com/m04kA/SMC-AppointmentService/internal/usecase/reschedule_appointment"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgNotFound             = "запись не найдена"
	msgCannotReschedule     = "запись не может быть перенесена"
	msgPolicyNotAllowed     = "перенос запрещен политикой тенанта"
	msgPastStartAt          = "новое время начала уже прошло"
	msgConcurrentOperation  = "запись обрабатывается другой операцией, повторите позже"
	msgVersionConflict      = "запись была изменена параллельной операцией"
	msgInvalidInput         = "некорректные данные запроса"
)

type Handler struct {
	useCase RescheduleAppointmentUseCase
	logger  Logger
}

func NewHandler(useCase RescheduleAppointmentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/{appointmentId}/reschedule
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseInt(vars["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/reschedule - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	var req RescheduleAppointmentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments/{id}/reschedule - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantID, appointmentID)
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/reschedule - Failed to parse request: tenant_id=%d, appointment_id=%d, error=%v",
			tenantID, appointmentID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, rescheduleAppointment.ErrAppointmentNotFound):
			h.logger.Warn("POST /appointments/{id}/reschedule - Appointment not found: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, rescheduleAppointment.ErrCannotReschedule):
			h.logger.Warn("POST /appointments/{id}/reschedule - Cannot reschedule: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgCannotReschedule)

		case errors.Is(err, rescheduleAppointment.ErrPolicyNotAllowed):
			h.logger.Warn("POST /appointments/{id}/reschedule - Forbidden by policy: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondUnprocessable(w, msgPolicyNotAllowed)

		case errors.Is(err, rescheduleAppointment.ErrPastAppointment):
			h.logger.Warn("POST /appointments/{id}/reschedule - New start in the past: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondBadRequest(w, msgPastStartAt)

		case errors.Is(err, rescheduleAppointment.ErrConcurrentOperation):
			h.logger.Warn("POST /appointments/{id}/reschedule - Locked by another operation: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgConcurrentOperation)

		case errors.Is(err, rescheduleAppointment.ErrVersionConflict):
			h.logger.Warn("POST /appointments/{id}/reschedule - Version conflict: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgVersionConflict)

		case errors.Is(err, rescheduleAppointment.ErrInvalidInput):
			h.logger.Warn("POST /appointments/{id}/reschedule - Invalid input: tenant_id=%d, appointment_id=%d, error=%v",
				tenantID, appointmentID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /appointments/{id}/reschedule - Failed to reschedule: tenant_id=%d, appointment_id=%d, error=%v",
				tenantID, appointmentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments/{id}/reschedule - Appointment rescheduled: tenant_id=%d, old_id=%d, new_id=%d",
		tenantID, result.OldAppointmentID, result.NewAppointmentID)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
