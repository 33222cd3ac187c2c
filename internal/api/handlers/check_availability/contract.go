package check_availability

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/service/availability/models"
	"github.com/m04kA/salon-booking/pkg/types"
)

type AvailabilityService interface {
	CheckServicesAvailable(ctx context.Context, serviceIDs []int64, date time.Time, startTime types.TimeString) (*models.AvailabilityResult, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
