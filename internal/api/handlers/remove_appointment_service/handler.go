package remove_appointment_service

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/service/appointments"
)

const (
	msgInvalidReference = "некорректный код бронирования"
	msgInvalidServiceID = "некорректный ID услуги"
	msgNotFound         = "запись не найдена"
	msgNotLinked        = "услуги нет в записи"
	msgClosed           = "запись завершена или отменена"
	msgLastService      = "нельзя удалить единственную услугу, отмените запись"
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

// Handle DELETE /api/v1/admin/appointments/{reference}/services/{serviceId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reference, ok := handlers.Reference(mux.Vars(r)["reference"])
	if !ok {
		h.logger.Warn("DELETE /admin/appointments/{reference}/services/{id} - Invalid reference")
		handlers.RespondBadRequest(w, msgInvalidReference)
		return
	}

	serviceID, err := handlers.PathInt64(r, "serviceId")
	if err != nil {
		h.logger.Warn("DELETE /admin/appointments/{reference}/services/{id} - %v", err)
		handlers.RespondBadRequest(w, msgInvalidServiceID)
		return
	}

	appointment, err := h.service.RemoveService(r.Context(), reference, serviceID)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("DELETE /admin/appointments/{reference}/services/{id} - Appointment not found: ref=%s", reference)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrServiceNotLinked):
			handlers.RespondNotFound(w, msgNotLinked)

		case errors.Is(err, appointments.ErrAppointmentClosed):
			handlers.RespondConflict(w, msgClosed)

		case errors.Is(err, appointments.ErrLastService):
			handlers.RespondConflict(w, msgLastService)

		default:
			h.logger.Error("DELETE /admin/appointments/{reference}/services/{id} - Failed to remove service: ref=%s, service_id=%d, error=%v",
				reference, serviceID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("DELETE /admin/appointments/{reference}/services/{id} - Service removed: ref=%s, service_id=%d, total=%s",
		reference, serviceID, appointment.TotalPrice)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
