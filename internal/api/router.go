package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	addAppointmentServiceHandler "github.com/m04kA/salon-booking/internal/api/handlers/add_appointment_service"
	checkAvailabilityHandler "github.com/m04kA/salon-booking/internal/api/handlers/check_availability"
	createBookingHandler "github.com/m04kA/salon-booking/internal/api/handlers/create_booking"
	generateSlotsHandler "github.com/m04kA/salon-booking/internal/api/handlers/generate_slots"
	getAvailableDatesHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_available_dates"
	getAvailableSlotsHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_booking"
	listServicesHandler "github.com/m04kA/salon-booking/internal/api/handlers/list_services"
	removeAppointmentServiceHandler "github.com/m04kA/salon-booking/internal/api/handlers/remove_appointment_service"
	updateAppointmentStatusHandler "github.com/m04kA/salon-booking/internal/api/handlers/update_appointment_status"
	updateSlotAvailabilityHandler "github.com/m04kA/salon-booking/internal/api/handlers/update_slot_availability"
	"github.com/m04kA/salon-booking/internal/api/middleware"
	"github.com/m04kA/salon-booking/pkg/metrics"
)

// Handlers набор HTTP обработчиков сервиса
type Handlers struct {
	ListServices      *listServicesHandler.Handler
	AvailableSlots    *getAvailableSlotsHandler.Handler
	AvailableDates    *getAvailableDatesHandler.Handler
	CheckAvailability *checkAvailabilityHandler.Handler
	CreateBooking     *createBookingHandler.Handler
	GetBooking        *getBookingHandler.Handler

	GenerateSlots            *generateSlotsHandler.Handler
	UpdateSlotAvailability   *updateSlotAvailabilityHandler.Handler
	UpdateAppointmentStatus  *updateAppointmentStatusHandler.Handler
	AddAppointmentService    *addAppointmentServiceHandler.Handler
	RemoveAppointmentService *removeAppointmentServiceHandler.Handler
}

// RouterConfig параметры роутера; Metrics = nil выключает метрики
type RouterConfig struct {
	JWTSecret   string
	Metrics     *metrics.Metrics
	MetricsPath string
	ServiceName string
}

// NewRouter собирает маршруты API
func NewRouter(h Handlers, cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()

	// Metrics middleware и endpoint (публичный, без аутентификации)
	if cfg.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(cfg.Metrics, cfg.ServiceName))
		r.Handle(cfg.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES
	// ============================================================

	api.HandleFunc("/services", h.ListServices.Handle).Methods(http.MethodGet)
	api.HandleFunc("/available-slots", h.AvailableSlots.Handle).Methods(http.MethodGet)
	api.HandleFunc("/available-dates", h.AvailableDates.Handle).Methods(http.MethodGet)
	api.HandleFunc("/availability/check", h.CheckAvailability.Handle).Methods(http.MethodPost)

	// --- Записи ---
	api.HandleFunc("/bookings", h.CreateBooking.Handle).Methods(http.MethodPost)
	api.HandleFunc("/bookings/{reference}", h.GetBooking.Handle).Methods(http.MethodGet)

	// ============================================================
	// ADMIN ROUTES (Bearer JWT, role=admin)
	// ============================================================

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(cfg.JWTSecret))

	// --- Слоты ---
	admin.HandleFunc("/slots/generate", h.GenerateSlots.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/slots/{slotId}/availability", h.UpdateSlotAvailability.Handle).Methods(http.MethodPatch)

	// --- Записи ---
	admin.HandleFunc("/appointments/{reference}/status", h.UpdateAppointmentStatus.Handle).Methods(http.MethodPatch)
	admin.HandleFunc("/appointments/{reference}/services", h.AddAppointmentService.Handle).Methods(http.MethodPost)
	admin.HandleFunc("/appointments/{reference}/services/{serviceId}", h.RemoveAppointmentService.Handle).Methods(http.MethodDelete)

	return r
}
