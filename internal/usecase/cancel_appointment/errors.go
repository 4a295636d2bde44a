package cancel_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("cancel_appointment: appointment not found")

	// ErrCannotCancel возвращается, когда запись не в отменяемом статусе
	ErrCannotCancel = errors.New("cancel_appointment: appointment cannot be cancelled")

	// ErrPolicyNotAllowed возвращается, когда политика отмены запрещает операцию
	ErrPolicyNotAllowed = errors.New("cancel_appointment: cancellation is not allowed by policy")

	// ErrConcurrentOperation возвращается, когда запись заблокирована другой операцией
	ErrConcurrentOperation = errors.New("cancel_appointment: appointment is locked by another operation")

	// ErrVersionConflict возвращается, когда запись была изменена конкурентно
	ErrVersionConflict = errors.New("cancel_appointment: appointment was modified concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("cancel_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("cancel_appointment: internal error")
)
