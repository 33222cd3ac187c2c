package get_available_slots

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/service/availability/models"
)

// AvailabilityService интерфейс сервиса доступности
type AvailabilityService interface {
	Today() time.Time
	SlotsForServices(ctx context.Context, serviceIDs []int64, date time.Time) (*models.SlotsResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
