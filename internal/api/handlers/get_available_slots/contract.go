package get_available_slots

import (
	"context"

	getAvailableSlots "github.com/m04kA/salon-booking/internal/usecase/get_available_slots"
)

// SlotsFinder ищет свободное время на дату для набора услуг салона.
// Неизвестные услуги не считаются ошибкой: для них просто нет времени.
type SlotsFinder interface {
	Execute(ctx context.Context, req *getAvailableSlots.Request) (*getAvailableSlots.Response, error)
}

// Logger пишет в лог ход обработки GET /available-slots
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
