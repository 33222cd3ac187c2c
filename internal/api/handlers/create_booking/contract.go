package create_booking

import (
	"context"

	createBooking "github.com/m04kA/salon-booking/internal/usecase/create_booking"
)

// BookingCreator создает запись клиента и удерживает слоты всех выбранных услуг.
// Ошибки: ErrSlotNotAvailable (в т.ч. *ConflictError), ErrServiceNotFound, ErrInvalidInput, ErrInternal.
type BookingCreator interface {
	Execute(ctx context.Context, req *createBooking.Request) (*createBooking.Response, error)
}

// Logger пишет в лог ход обработки POST /bookings
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
