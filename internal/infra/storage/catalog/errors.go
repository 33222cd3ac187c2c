package catalog

import "errors"

var (
	// ErrInvalidBusinessHours возвращается, когда в таблице business_hours некорректная строка
	ErrInvalidBusinessHours = errors.New("catalog.repository: invalid business hours row")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("catalog.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("catalog.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("catalog.repository: failed to scan row")
)
