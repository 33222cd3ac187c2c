package create_booking

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceNotFound возвращается, когда услуга не найдена или неактивна
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrSlotNotAvailable возвращается, когда слот услуги занят, закрыт или отсутствует
	ErrSlotNotAvailable = errors.New("create_booking: slot is not available")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
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
