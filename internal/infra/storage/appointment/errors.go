package appointment

import "errors"

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointment.repository: appointment not found")

	// ErrDuplicateReference возвращается при коллизии booking_reference
	ErrDuplicateReference = errors.New("appointment.repository: duplicate booking reference")

	// ErrServiceAlreadyAdded возвращается, когда услуга уже есть в записи
	ErrServiceAlreadyAdded = errors.New("appointment.repository: service already added")

	// ErrServiceNotLinked возвращается, когда услуги нет в записи
	ErrServiceNotLinked = errors.New("appointment.repository: service not linked to appointment")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("appointment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("appointment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("appointment.repository: failed to scan row")
)
