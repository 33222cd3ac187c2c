package get_available_slots

import (
	"errors"
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/domain"
	getAvailableSlots "github.com/m04kA/salon-booking/internal/usecase/get_available_slots"
)

const (
	msgInvalidServiceID = "некорректный service_id"
	msgInvalidDate      = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidInput     = "некорректные параметры запроса"
)

type Handler struct {
	useCase SlotsFinder
	logger  Logger
}

func NewHandler(useCase SlotsFinder, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/available-slots?service_id=1&service_id=2&date=2024-03-05
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	serviceIDs, err := handlers.QueryInt64s(r, "service_id")
	if err != nil {
		h.logger.Warn("GET /available-slots - Invalid service_id: %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	date, err := domain.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		h.logger.Warn("GET /available-slots - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &getAvailableSlots.Request{
		ServiceIDs: serviceIDs,
		Date:       date,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailableSlots.ErrInvalidInput):
			h.logger.Warn("GET /available-slots - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /available-slots - Failed to get slots: service_ids=%v, error=%v", serviceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /available-slots - Slots retrieved: service_ids=%v, date=%s, count=%d",
		serviceIDs, result.Date, len(result.Slots))
	handlers.RespondJSON(w, http.StatusOK, result)
}
