package update_slot_availability

import (
	"context"

	"github.com/m04kA/salon-booking/internal/service/appointments/models"
)

type SlotService interface {
	SetSlotAvailability(ctx context.Context, slotID int64, available bool) (*models.SlotResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
