package refund_payment

import "errors"

var (
	// ErrPaymentNotFound возвращается, когда платеж не найден
	ErrPaymentNotFound = errors.New("refund_payment: payment not found")

	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("refund_payment: appointment not found")

	// ErrPaymentMismatch возвращается, когда платеж не относится к записи
	ErrPaymentMismatch = errors.New("refund_payment: payment does not belong to this appointment")

	// ErrRefundExceedsBalance возвращается, когда сумма превышает остаток платежа.
	// Сумма отклоняется целиком, частичное исполнение не выполняется
	ErrRefundExceedsBalance = errors.New("refund_payment: amount exceeds the remaining balance")

	// ErrProviderRefundFailed возвращается, когда провайдер отклонил возврат
	ErrProviderRefundFailed = errors.New("refund_payment: provider refund failed")

	// ErrConcurrentOperation возвращается, когда запись заблокирована другой операцией
	ErrConcurrentOperation = errors.New("refund_payment: appointment is locked by another operation")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("refund_payment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("refund_payment: internal error")
)
