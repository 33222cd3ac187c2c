package add_appointment_service

import (
	"context"

	"github.com/m04kA/salon-booking/internal/service/appointments/models"
)

type AppointmentService interface {
	AddService(ctx context.Context, reference string, serviceID int64) (*models.AppointmentResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
