package apps

import "errors"

var (
	// ErrAppNotFound возвращается, когда приложение не найдено
	ErrAppNotFound = errors.New("connected app not found")

	// ErrUnknownAppType возвращается при попытке установить неизвестный тип приложения
	ErrUnknownAppType = errors.New("unknown app type")

	// ErrInvalidStatus возвращается при попытке установить недопустимый статус приложения
	ErrInvalidStatus = errors.New("invalid app status")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("apps service: internal error")
)
