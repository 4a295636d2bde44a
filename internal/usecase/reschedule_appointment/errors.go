package reschedule_appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("reschedule_appointment: appointment not found")

	// ErrCannotReschedule возвращается, когда запись не в переносимом статусе
	ErrCannotReschedule = errors.New("reschedule_appointment: appointment cannot be rescheduled")

	// ErrPolicyNotAllowed возвращается, когда политика переноса запрещает операцию
	ErrPolicyNotAllowed = errors.New("reschedule_appointment: reschedule is not allowed by policy")

	// ErrPastAppointment возвращается, когда новое время в прошлом
	ErrPastAppointment = errors.New("reschedule_appointment: new start is in the past")

	// ErrConcurrentOperation возвращается, когда запись заблокирована другой операцией
	ErrConcurrentOperation = errors.New("reschedule_appointment: appointment is locked by another operation")

	// ErrVersionConflict возвращается, когда запись была изменена конкурентно
	ErrVersionConflict = errors.New("reschedule_appointment: appointment was modified concurrently")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("reschedule_appointment: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("reschedule_appointment: internal error")
)
