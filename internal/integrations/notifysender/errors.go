package notifysender

import "errors"

var (
	// ErrMissingEndpoint возвращается, когда в настройках приложения нет endpoint отправителя
	ErrMissingEndpoint = errors.New("notifysender client: app settings have no endpoint")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("notifysender client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе отправителя
	ErrInvalidResponse = errors.New("notifysender client: invalid response")

	// ErrSendRejected возвращается, когда отправитель отклонил сообщение
	ErrSendRejected = errors.New("notifysender client: send rejected by provider")
)
