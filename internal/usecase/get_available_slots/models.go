package get_available_slots

import (
	"time"

	"github.com/m04kA/salon-booking/internal/service/availability/models"
)

// Request модель запроса на получение свободного времени
type Request struct {
	ServiceIDs []int64   // Выбранные услуги (хотя бы одна)
	Date       time.Time // Дата (без времени)
}

// Response свободное время на дату; Tentative = true, если общего времени для всех услуг нет
type Response = models.SlotsResult
