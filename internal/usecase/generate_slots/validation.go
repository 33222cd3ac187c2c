package generate_slots

import (
	"fmt"

	"github.com/m04kA/salon-booking/internal/domain"
)

// validateRequest проверяет параметры генерации
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidInput)
	}
	if req.Days < 0 {
		return fmt.Errorf("%w: days must not be negative", ErrInvalidInput)
	}
	if req.Days > domain.MaxHorizonDays {
		return fmt.Errorf("%w: days must not exceed %d", ErrInvalidInput, domain.MaxHorizonDays)
	}
	return nil
}
