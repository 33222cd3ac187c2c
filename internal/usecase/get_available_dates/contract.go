package get_available_dates

import (
	"context"

	"github.com/m04kA/salon-booking/internal/service/availability/models"
)

// AvailabilityService интерфейс сервиса доступности
type AvailabilityService interface {
	DatesForServices(ctx context.Context, serviceIDs []int64) (*models.DatesResult, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
