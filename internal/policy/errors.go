package policy

import "errors"

var (
	// ErrPolicyDisabled возвращается, когда политика выключена в конфигурации тенанта
	// Вызывающая сторона трактует это как "ограничений нет"
	ErrPolicyDisabled = errors.New("policy: feature is disabled")
)
