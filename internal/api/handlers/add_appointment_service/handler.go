package add_appointment_service

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/service/appointments"
)

const (
	msgInvalidReference   = "некорректный код бронирования"
	msgInvalidRequestBody = "некорректное тело запроса, ожидается serviceId"
	msgNotFound           = "запись не найдена"
	msgServiceNotFound    = "услуга не найдена"
	msgClosed             = "запись завершена или отменена"
	msgAlreadyAdded       = "услуга уже есть в записи"
	msgSlotNotAvailable   = "время записи недоступно для этой услуги"
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

// Handle POST /api/v1/admin/appointments/{reference}/services
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reference, ok := handlers.Reference(mux.Vars(r)["reference"])
	if !ok {
		h.logger.Warn("POST /admin/appointments/{reference}/services - Invalid reference")
		handlers.RespondBadRequest(w, msgInvalidReference)
		return
	}

	var req AddServiceRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.ServiceID <= 0 {
		h.logger.Warn("POST /admin/appointments/{reference}/services - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	appointment, err := h.service.AddService(r.Context(), reference, req.ServiceID)
	if err != nil {
		var conflict *appointments.ConflictError
		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("POST /admin/appointments/{reference}/services - Slot not available: ref=%s, service_id=%d",
				reference, conflict.ServiceID)
			handlers.RespondSlotConflict(w, msgSlotNotAvailable,
				conflict.ServiceID, conflict.ServiceName, conflict.Date, conflict.Time)

		case errors.Is(err, appointments.ErrSlotNotAvailable):
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("POST /admin/appointments/{reference}/services - Appointment not found: ref=%s", reference)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrServiceNotFound):
			h.logger.Warn("POST /admin/appointments/{reference}/services - Service not found: service_id=%d", req.ServiceID)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, appointments.ErrAppointmentClosed):
			handlers.RespondConflict(w, msgClosed)

		case errors.Is(err, appointments.ErrServiceAlreadyAdded):
			handlers.RespondConflict(w, msgAlreadyAdded)

		default:
			h.logger.Error("POST /admin/appointments/{reference}/services - Failed to add service: ref=%s, service_id=%d, error=%v",
				reference, req.ServiceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/appointments/{reference}/services - Service added: ref=%s, service_id=%d, total=%s",
		reference, req.ServiceID, appointment.TotalPrice)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
