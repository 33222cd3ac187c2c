package get_available_slots

import (
	"fmt"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request, today time.Time) error {
	if req == nil || len(req.ServiceIDs) == 0 {
		return fmt.Errorf("%w: at least one service_id is required", ErrInvalidInput)
	}

	for _, id := range req.ServiceIDs {
		if id <= 0 {
			return fmt.Errorf("%w: service_id must be positive", ErrInvalidInput)
		}
	}

	// Проверяем, что дата указана
	if req.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalidInput)
	}

	// Проверяем, что дата не в прошлом
	if domain.DateOf(req.Date).Before(today) {
		return fmt.Errorf("%w: date %s is in the past", ErrInvalidInput, req.Date.Format(domain.DateFormat))
	}

	return nil
}
