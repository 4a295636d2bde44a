package catalog

import "errors"

var (
	// ErrOptionNotFound возвращается, когда услуга не найдена
	ErrOptionNotFound = errors.New("catalog.repository: service option not found")

	// ErrAddonNotFound возвращается, когда хотя бы один из запрошенных аддонов не найден
	ErrAddonNotFound = errors.New("catalog.repository: addon not found")

	// ErrDiscountNotFound возвращается, когда скидка по коду не найдена
	ErrDiscountNotFound = errors.New("catalog.repository: discount not found")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)
