package get_booking

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/service/appointments"
)

const (
	msgInvalidReference = "некорректный код бронирования"
	msgNotFound         = "запись не найдена"
)

type Handler struct {
	service AppointmentService
	logger  Logger
}

func NewHandler(service AppointmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle GET /api/v1/bookings/{reference}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reference, ok := handlers.Reference(mux.Vars(r)["reference"])
	if !ok {
		h.logger.Warn("GET /bookings/{reference} - Invalid reference: %q", mux.Vars(r)["reference"])
		handlers.RespondBadRequest(w, msgInvalidReference)
		return
	}

	appointment, err := h.service.GetByReference(r.Context(), reference)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("GET /bookings/{reference} - Appointment not found: ref=%s", reference)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("GET /bookings/{reference} - Failed to get appointment: ref=%s, error=%v", reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("GET /bookings/{reference} - Appointment retrieved successfully: ref=%s", reference)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
