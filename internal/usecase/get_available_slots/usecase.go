package get_available_slots

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/service/availability"
)

// UseCase use case для получения свободного времени на дату для набора услуг
type UseCase struct {
	availability AvailabilityService
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(availability AvailabilityService, logger Logger) *UseCase {
	return &UseCase{
		availability: availability,
		logger:       logger,
	}
}

// Execute выполняет use case получения свободного времени
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req, uc.availability.Today()); err != nil {
		uc.logger.Warn("GetAvailableSlots: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("GetAvailableSlots: services=%v, date=%s", req.ServiceIDs, req.Date.Format(domain.DateFormat))

	// 2. Запрашиваем пересечение свободного времени
	result, err := uc.availability.SlotsForServices(ctx, req.ServiceIDs, req.Date)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		default:
			uc.logger.Error("GetAvailableSlots: availability error: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}

	uc.logger.Info("GetAvailableSlots: %d times, tentative=%t", len(result.Slots), result.Tentative)
	return result, nil
}
