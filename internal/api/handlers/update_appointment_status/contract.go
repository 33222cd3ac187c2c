package update_appointment_status

import (
	"context"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/service/appointments/models"
	"github.com/m04kA/salon-booking/pkg/types"
)

type AppointmentService interface {
	ChangeStatus(ctx context.Context, reference string, status domain.AppointmentStatus, at *types.TimeString) (*models.AppointmentResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
