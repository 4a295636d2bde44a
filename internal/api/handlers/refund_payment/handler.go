package refund_payment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-AppointmentService/internal/api/handlers"
	"github.com/m04kA/SMC-AppointmentService/internal/api/middleware"
	refundPayment "github.com/m04kA/SMC-AppointmentService/internal/usecase/refund_payment"
)

const (
	msgInvalidAppointmentID = "некорректный ID записи"
	msgInvalidPaymentID     = "некорректный ID платежа"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgAppointmentNotFound  = "запись не найдена"
	msgPaymentNotFound      = "платеж не найден"
	msgPaymentMismatch      = "платеж не относится к этой записи"
	msgRefundExceedsBalance = "сумма возврата превышает остаток по платежу"
	msgConcurrentOperation  = "запись обрабатывается другой операцией, повторите позже"
	msgProviderRefundFailed = "платежный провайдер отклонил возврат"
	msgInvalidInput         = "некорректные данные запроса"
)

type Handler struct {
	useCase RefundPaymentUseCase
	logger  Logger
}

func NewHandler(useCase RefundPaymentUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/appointments/{appointmentId}/payments/{paymentId}/refunds
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	tenantID := middleware.TenantID(r.Context())

	vars := mux.Vars(r)
	appointmentID, err := strconv.ParseInt(vars["appointmentId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Invalid appointment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidAppointmentID)
		return
	}

	paymentID, err := strconv.ParseInt(vars["paymentId"], 10, 64)
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Invalid payment ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidPaymentID)
		return
	}

	var req RefundPaymentRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest(tenantID, appointmentID, paymentID)
	if err != nil {
		h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Invalid actor: tenant_id=%d, payment_id=%d, error=%v",
			tenantID, paymentID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, refundPayment.ErrAppointmentNotFound):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Appointment not found: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondNotFound(w, msgAppointmentNotFound)

		case errors.Is(err, refundPayment.ErrPaymentNotFound):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Payment not found: tenant_id=%d, payment_id=%d",
				tenantID, paymentID)
			handlers.RespondNotFound(w, msgPaymentNotFound)

		case errors.Is(err, refundPayment.ErrPaymentMismatch):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Payment mismatch: tenant_id=%d, appointment_id=%d, payment_id=%d",
				tenantID, appointmentID, paymentID)
			handlers.RespondBadRequest(w, msgPaymentMismatch)

		case errors.Is(err, refundPayment.ErrRefundExceedsBalance):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Refund exceeds balance: tenant_id=%d, payment_id=%d, amount=%.2f",
				tenantID, paymentID, req.Amount)
			handlers.RespondUnprocessable(w, msgRefundExceedsBalance)

		case errors.Is(err, refundPayment.ErrConcurrentOperation):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Locked by another operation: tenant_id=%d, appointment_id=%d",
				tenantID, appointmentID)
			handlers.RespondConflict(w, msgConcurrentOperation)

		case errors.Is(err, refundPayment.ErrProviderRefundFailed):
			h.logger.Error("POST /appointments/{id}/payments/{paymentId}/refunds - Provider refund failed: tenant_id=%d, payment_id=%d, error=%v",
				tenantID, paymentID, err)
			handlers.RespondError(w, http.StatusBadGateway, msgProviderRefundFailed)

		case errors.Is(err, refundPayment.ErrInvalidInput):
			h.logger.Warn("POST /appointments/{id}/payments/{paymentId}/refunds - Invalid input: tenant_id=%d, payment_id=%d, error=%v",
				tenantID, paymentID, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("POST /appointments/{id}/payments/{paymentId}/refunds - Failed to refund: tenant_id=%d, payment_id=%d, error=%v",
				tenantID, paymentID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /appointments/{id}/payments/{paymentId}/refunds - Refund created: tenant_id=%d, payment_id=%d, refund_id=%d, amount=%.2f",
		tenantID, paymentID, result.RefundID, result.Amount)
	handlers.RespondJSON(w, http.StatusCreated, FromUseCaseResponse(result))
}
