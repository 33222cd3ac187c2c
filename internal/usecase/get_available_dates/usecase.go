package get_available_dates

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/salon-booking/internal/service/availability"
)

// UseCase use case для получения дат, на которые можно записаться на набор услуг
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

// Execute выполняет use case получения доступных дат
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || len(req.ServiceIDs) == 0 {
		uc.logger.Warn("GetAvailableDates: no services in request")
		return nil, fmt.Errorf("%w: at least one service_id is required", ErrInvalidInput)
	}
	for _, id := range req.ServiceIDs {
		if id <= 0 {
			return nil, fmt.Errorf("%w: service_id must be positive", ErrInvalidInput)
		}
	}

	result, err := uc.availability.DatesForServices(ctx, req.ServiceIDs)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrInvalidInput):
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		default:
			uc.logger.Error("GetAvailableDates: availability error: %v", err)
			return nil, fmt.Errorf("%w: %w", ErrInternal, err)
		}
	}

	uc.logger.Info("GetAvailableDates: services=%v, %d dates, tentative=%t", req.ServiceIDs, len(result.Dates), result.Tentative)
	return result, nil
}
