package create_booking

import (
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/salon-booking/internal/api/handlers"
	createBooking "github.com/m04kA/salon-booking/internal/usecase/create_booking"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
	msgInvalidTime        = "некорректный формат времени, ожидается HH:MM"
	msgInvalidInput       = "некорректные данные записи"
	msgSlotNotAvailable   = "выбранное время недоступно"
	msgServiceNotFound    = "услуга не найдена"
)

var (
	errInvalidDate = errors.New("invalid date")
	errInvalidTime = errors.New("invalid time")
)

type Handler struct {
	useCase BookingCreator
	logger  Logger
}

func NewHandler(useCase BookingCreator, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/bookings
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /bookings - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	// Конвертируем HTTP запрос в модель use case (с парсингом даты и времени)
	useCaseReq, err := req.ToUseCaseRequest()
	if err != nil {
		h.logger.Warn("POST /bookings - Failed to parse request: %v", err)
		if errors.Is(err, errInvalidTime) {
			handlers.RespondBadRequest(w, msgInvalidTime)
		} else {
			handlers.RespondBadRequest(w, msgInvalidDate)
		}
		return
	}

	// Вызываем use case
	result, err := h.useCase.Execute(r.Context(), useCaseReq)
	if err != nil {
		var conflict *createBooking.ConflictError
		switch {
		case errors.As(err, &conflict):
			h.logger.Warn("POST /bookings - Slot not available: service_id=%d, date=%s, time=%s",
				conflict.ServiceID, conflict.Date, conflict.Time)
			handlers.RespondSlotConflict(w, msgSlotNotAvailable,
				conflict.ServiceID, conflict.ServiceName, conflict.Date, conflict.Time)

		case errors.Is(err, createBooking.ErrSlotNotAvailable):
			h.logger.Warn("POST /bookings - Slot not available: %v", err)
			handlers.RespondConflict(w, msgSlotNotAvailable)

		case errors.Is(err, createBooking.ErrServiceNotFound):
			h.logger.Warn("POST /bookings - Service not found: service_ids=%v", req.ServiceIDs)
			handlers.RespondNotFound(w, msgServiceNotFound)

		case errors.Is(err, createBooking.ErrInvalidInput):
			h.logger.Warn("POST /bookings - Invalid input: %v", err)
			handlers.RespondBadRequest(w, msgInvalidInput+": "+validationDetail(err))

		default:
			h.logger.Error("POST /bookings - Failed to create booking: service_ids=%v, error=%v", req.ServiceIDs, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	response := FromUseCaseResponse(result)

	h.logger.Info("POST /bookings - Booking created successfully: ref=%s, services=%d",
		result.BookingReference, len(result.Services))
	handlers.RespondJSON(w, http.StatusCreated, response)
}

// validationDetail отрезает префикс пакета у ошибки валидации
func validationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), createBooking.ErrInvalidInput.Error()+": ")
}
