package hooks

import "errors"

var (
	// ErrResolveApps возвращается, когда не удалось получить список приложений для scope
	ErrResolveApps = errors.New("hooks: failed to resolve connected apps")

	// ErrWorkerFailed возвращается при ignoreErrors=false, когда хотя бы один воркер завершился с ошибкой
	ErrWorkerFailed = errors.New("hooks: worker invocation failed")
)
