package get_available_dates

import "github.com/m04kA/salon-booking/internal/service/availability/models"

// Request модель запроса на получение доступных дат
type Request struct {
	ServiceIDs []int64
}

// Response даты горизонта со свободным временем
type Response = models.DatesResult
