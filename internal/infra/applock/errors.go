package applock

import "errors"

var (
	// ErrLockNotAcquired возвращается, когда запись уже заблокирована конкурентной операцией
	ErrLockNotAcquired = errors.New("applock: appointment is locked by another operation")

	// ErrInternal возвращается при ошибках взаимодействия с redis
	ErrInternal = errors.New("applock: internal error")
)
