package appointments

import (
	"errors"
	"fmt"
)

var (
	// ErrAppointmentNotFound возвращается, когда запись не найдена
	ErrAppointmentNotFound = errors.New("appointments: appointment not found")

	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("appointments: service not found")

	// ErrSlotNotFound возвращается, когда слот не найден
	ErrSlotNotFound = errors.New("appointments: slot not found")

	// ErrInvalidTransition возвращается при недопустимой смене статуса
	ErrInvalidTransition = errors.New("appointments: invalid status transition")

	// ErrAppointmentClosed возвращается при изменении услуг завершенной или отмененной записи
	ErrAppointmentClosed = errors.New("appointments: appointment is completed or cancelled")

	// ErrServiceAlreadyAdded возвращается, когда услуга уже есть в записи
	ErrServiceAlreadyAdded = errors.New("appointments: service already added")

	// ErrServiceNotLinked возвращается, когда услуги нет в записи
	ErrServiceNotLinked = errors.New("appointments: service is not part of the appointment")

	// ErrLastService возвращается при попытке удалить единственную услугу
	ErrLastService = errors.New("appointments: cannot remove the last service")

	// ErrTimeRequired возвращается при подтверждении записи без времени
	ErrTimeRequired = errors.New("appointments: time is required to confirm")

	// ErrSlotNotAvailable возвращается, когда слот занят, закрыт или отсутствует
	ErrSlotNotAvailable = errors.New("appointments: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("appointments: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("appointments: internal error")
)

// ConflictError слот услуги недоступен на выбранные дату и время
type ConflictError struct {
	ServiceID   int64
	ServiceName string
	Date        string
	Time        string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%v: %s (id=%d) at %s %s", ErrSlotNotAvailable, e.ServiceName, e.ServiceID, e.Date, e.Time)
}

func (e *ConflictError) Unwrap() error {
	return ErrSlotNotAvailable
}
