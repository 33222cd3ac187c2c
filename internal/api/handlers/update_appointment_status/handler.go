package update_appointment_status

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/service/appointments"
)

const (
	msgInvalidReference   = "некорректный код бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
	msgInvalidStatus      = "статус должен быть confirmed, completed или cancelled"
	msgNotFound           = "запись не найдена"
	msgServiceNotFound    = "услуга записи не найдена"
	msgInvalidTransition  = "недопустимая смена статуса"
	msgTimeRequired       = "для подтверждения нужно указать время"
	msgSlotNotAvailable   = "выбранное время недоступно"
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

// Handle PATCH /api/v1/admin/appointments/{reference}/status
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reference, ok := handlers.Reference(mux.Vars(r)["reference"])
	if !ok {
		h.logger.Warn("PATCH /admin/appointments/{reference}/status - Invalid reference")
		handlers.RespondBadRequest(w, msgInvalidReference)
		return
	}

	// Декодируем body
	var req UpdateStatusRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /admin/appointments/{reference}/status - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	status, at, err := req.Parse()
	if err != nil {
		h.logger.Warn("PATCH /admin/appointments/{reference}/status - Invalid time: %v", err)
		handlers.RespondBadRequest(w, msgInvalidTime)
		return
	}

	appointment, err := h.service.ChangeStatus(r.Context(), reference, status, at)
	if err != nil {
		var conflict *appointments.ConflictError
		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("PATCH /admin/appointments/{reference}/status - Slot not available: ref=%s, service_id=%d",
				reference, conflict.ServiceID)
			handlers.RespondSlotConflict(w, msgSlotNotAvailable,
				conflict.ServiceID, conflict.ServiceName, conflict.Date, conflict.Time)

		case errors.Is(err, appointments.ErrSlotNotAvailable):
			h.logger.Warn("PATCH /admin/appointments/{reference}/status - Slot not available: ref=%s", reference)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, appointments.ErrAppointmentNotFound):
			h.logger.Warn("PATCH /admin/appointments/{reference}/status - Appointment not found: ref=%s", reference)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, appointments.ErrServiceNotFound):
			h.logger.Warn("PATCH /admin/appointments/{reference}/status - Service not found: ref=%s", reference)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, appointments.ErrInvalidTransition):
			h.logger.Warn("PATCH /admin/appointments/{reference}/status - Invalid transition: ref=%s, status=%s",
				reference, status)
			handlers.RespondConflict(w, msgInvalidTransition)

		case errors.Is(err, appointments.ErrTimeRequired):
			handlers.RespondBadRequest(w, msgTimeRequired)

		case errors.Is(err, appointments.ErrInvalidInput):
			handlers.RespondBadRequest(w, msgInvalidStatus)

		default:
			h.logger.Error("PATCH /admin/appointments/{reference}/status - Failed to change status: ref=%s, error=%v",
				reference, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /admin/appointments/{reference}/status - Status changed: ref=%s, status=%s",
		reference, appointment.Status)
	handlers.RespondJSON(w, http.StatusOK, appointment)
}
