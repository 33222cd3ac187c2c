package generate_slots

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	generateSlots "github.com/m04kA/salon-booking/internal/usecase/generate_slots"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidDays        = "некорректное количество дней"
	msgNoActiveServices   = "нет активных услуг"
	msgInProgress         = "генерация слотов уже выполняется"
)

type Handler struct {
	useCase GenerateSlotsUseCase
	logger  Logger
}

func NewHandler(useCase GenerateSlotsUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/admin/slots/generate
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	// Пустое тело допустимо: генерация на горизонт по умолчанию
	var req GenerateSlotsRequest
	if err := handlers.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("POST /admin/slots/generate - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /admin/slots/generate - Invalid from date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		switch {
		case errors.Is(err, generateSlots.ErrInvalidInput):
			h.logger.Warn("POST /admin/slots/generate - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidDays)

		case errors.Is(err, generateSlots.ErrNoActiveServices):
			h.logger.Warn("POST /admin/slots/generate - No active services")
			handlers.RespondError(w, http.StatusUnprocessableEntity, msgNoActiveServices)

		case errors.Is(err, generateSlots.ErrGenerationInProgress):
			h.logger.Info("POST /admin/slots/generate - Generation already in progress")
			handlers.RespondConflict(w, msgInProgress)

		default:
			h.logger.Error("POST /admin/slots/generate - Failed to generate slots: %v", err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("POST /admin/slots/generate - Slots generated: created=%d, deleted=%d, regenerate=%t",
		result.Created, result.Deleted, req.Regenerate)
	handlers.RespondJSON(w, http.StatusOK, result)
}
