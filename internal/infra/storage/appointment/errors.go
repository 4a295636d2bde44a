package appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrVersionConflict возвращается, когда optimistic-concurrency проверка не прошла:
	// запись была изменена конкурентной операцией
	ErrVersionConflict = errors.New("appointment.repository: version conflict")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")

	// ErrMarshalSnapshot возвращается при ошибке сериализации снапшота
	ErrMarshalSnapshot = errors.New("appointment.repository: failed to marshal snapshot")
)
