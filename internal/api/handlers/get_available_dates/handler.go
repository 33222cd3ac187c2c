package get_available_dates

import (
	"errors"
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	getAvailableDates "github.com/m04kA/salon-booking/internal/usecase/get_available_dates"
)

const msgInvalidServiceID = "некорректный service_id"

type Handler struct {
	useCase GetAvailableDatesUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailableDatesUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/available-dates?service_id=1&service_id=2
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceIDs, err := handlers.QueryInt64s(r, "service_id")
	if err != nil {
		h.logger.Warn("GET /available-dates - Invalid service_id: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableDates.Request{ServiceIDs: serviceIDs})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableDates.ErrInvalidInput):
			h.logger.Warn("GET /available-dates - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidServiceID)

		default:
			h.logger.Error("GET /available-dates - Failed to get dates: service_ids=%v, error=%v", serviceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /available-dates - Dates retrieved: service_ids=%v, count=%d", serviceIDs, len(result.Dates))
	handlers.RespondJSON(w, http.StatusOK, result)
}
