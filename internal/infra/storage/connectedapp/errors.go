package connectedapp

import "errors"

var (
	// ErrAppNotFound возвращается, когда подключенное приложение не найдено
	ErrAppNotFound = errors.New("connectedapp.repository: connected app not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("connectedapp.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("connectedapp.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("connectedapp.repository: failed to scan row")
)
