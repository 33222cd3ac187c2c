package check_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/service/availability"
	"github.com/m04kA/salon-booking/pkg/types"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidServiceIDs  = "нужна хотя бы одна услуга с положительным id"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
)

type Handler struct {
	service AvailabilityService
	logger  Logger
}

func NewHandler(service AvailabilityService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle POST /api/v1/availability/check
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CheckAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /availability/check - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if len(req.ServiceIDs) == 0 {
		handlers.RespondBadRequest(w, msgInvalidServiceIDs)
		return
	}
	for _, id := range req.ServiceIDs {
		if id <= 0 {
			handlers.RespondBadRequest(w, msgInvalidServiceIDs)
			return
		}
	}

	date, err := domain.ParseDate(req.Date)
	if err != nil {
		h.logger.Warn("POST /availability/check - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	startTime, err := types.NewTimeStringFromString(req.Time)
	if err != nil {
		h.logger.Warn("POST /availability/check - Invalid time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	result, err := h.service.CheckServicesAvailable(r.Context(), req.ServiceIDs, date, startTime)
	if err != nil {
		switch {
		case errors.Is(err, availability.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidServiceIDs)
		default:
			h.logger.Error("POST /availability/check - Failed to check availability: service_ids=%v, error=%v",
				req.ServiceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /availability/check - service_ids=%v, date=%s, time=%s, available=%t",
		req.ServiceIDs, req.Date, req.Time, result.Available)
	handlers.RespondJSON(w, http.StatusOK, result)
}
