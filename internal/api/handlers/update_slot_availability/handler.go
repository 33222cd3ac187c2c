package update_slot_availability

import (
	"errors"
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	"github.com/m04kA/salon-booking/internal/service/appointments"
)

const (
	msgInvalidSlotID      = "некорректный ID слота"
	msgInvalidRequestBody = "некорректное тело запроса, ожидается isAvailable"
	msgNotFound           = "слот не найден"
)

type Handler struct {
	service SlotService
	logger  Logger
}

func NewHandler(service SlotService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/admin/slots/{slotId}/availability
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	slotID, err := handlers.PathInt64(r, "slotId")
	if err != nil {
		h.logger.Warn("PATCH /admin/slots/{id}/availability - %v", err)
		handlers.RespondBadRequest(w, msgInvalidSlotID)
		return
	}

	var req UpdateSlotAvailabilityRequest
	if err := handlers.DecodeJSON(r, &req); err != nil || req.IsAvailable == nil {
		h.logger.Warn("PATCH /admin/slots/{id}/availability - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	slot, err := h.service.SetSlotAvailability(r.Context(), slotID, *req.IsAvailable)
	if err != nil {
		switch {
		case errors.Is(err, appointments.ErrSlotNotFound):
			h.logger.Warn("PATCH /admin/slots/{id}/availability - Slot not found: slot_id=%d", slotID)
			handlers.RespondNotFound(w, msgNotFound)

		default:
			h.logger.Error("PATCH /admin/slots/{id}/availability - Failed to update slot: slot_id=%d, error=%v", slotID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /admin/slots/{id}/availability - Slot updated: slot_id=%d, available=%t", slotID, slot.IsAvailable)
	handlers.RespondJSON(w, http.StatusOK, slot)
}
