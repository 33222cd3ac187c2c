package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/api"
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
	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/lock"
	"github.com/m04kA/salon-booking/internal/infra/storage/memory"
	"github.com/m04kA/salon-booking/internal/service/appointments"
	"github.com/m04kA/salon-booking/internal/service/availability"
	createBookingUC "github.com/m04kA/salon-booking/internal/usecase/create_booking"
	generateSlotsUC "github.com/m04kA/salon-booking/internal/usecase/generate_slots"
	getAvailableDatesUC "github.com/m04kA/salon-booking/internal/usecase/get_available_dates"
	getAvailableSlotsUC "github.com/m04kA/salon-booking/internal/usecase/get_available_slots"
	"github.com/m04kA/salon-booking/pkg/logger"
	"github.com/m04kA/salon-booking/pkg/types"
)

const secret = "test-secret"

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

type env struct {
	store  *memory.Store
	router http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := memory.NewStore()
	store.AddService(domain.Service{ID: 1, Name: "Haircut", Price: decimal.RequireFromString("50.00"), DurationMinutes: 60, IsActive: true})
	store.AddService(domain.Service{ID: 2, Name: "Coloring", Price: decimal.RequireFromString("60.00"), DurationMinutes: 90, IsActive: true})
	store.AddService(domain.Service{ID: 3, Name: "Retired", Price: decimal.RequireFromString("10.00"), DurationMinutes: 30, IsActive: false})
	store.SetBusinessHours(domain.DefaultBusinessHours())

	clock := fixedTime{now: day.Add(8 * time.Hour)}
	log := logger.Nop()
	tx := memory.NewTxManager(store)

	availabilitySvc := availability.NewService(store.Slots(), store.Catalog(), 30, time.UTC, log).WithTimeProvider(clock)
	appointmentsSvc := appointments.NewService(store.Appointments(), store.Slots(), store.Catalog(), tx, nil, log)

	createBooking := createBookingUC.NewUseCase(store.Appointments(), store.Slots(), store.Catalog(), tx, nil, time.UTC, log).
		WithTimeProvider(clock)
	generateSlots := generateSlotsUC.NewUseCase(store.Slots(), store.Catalog(), lock.NewLocalLocker(), tx, nil, 30, time.UTC, log).
		WithTimeProvider(clock)

	router := api.NewRouter(api.Handlers{
		ListServices:      listServicesHandler.NewHandler(store.Catalog(), log),
		AvailableSlots:    getAvailableSlotsHandler.NewHandler(getAvailableSlotsUC.NewUseCase(availabilitySvc, log), log),
		AvailableDates:    getAvailableDatesHandler.NewHandler(getAvailableDatesUC.NewUseCase(availabilitySvc, log), log),
		CheckAvailability: checkAvailabilityHandler.NewHandler(availabilitySvc, log),
		CreateBooking:     createBookingHandler.NewHandler(createBooking, log),
		GetBooking:        getBookingHandler.NewHandler(appointmentsSvc, log),

		GenerateSlots:            generateSlotsHandler.NewHandler(generateSlots, log),
		UpdateSlotAvailability:   updateSlotAvailabilityHandler.NewHandler(appointmentsSvc, log),
		UpdateAppointmentStatus:  updateAppointmentStatusHandler.NewHandler(appointmentsSvc, log),
		AddAppointmentService:    addAppointmentServiceHandler.NewHandler(appointmentsSvc, log),
		RemoveAppointmentService: removeAppointmentServiceHandler.NewHandler(appointmentsSvc, log),
	}, api.RouterConfig{JWTSecret: secret})

	return &env{store: store, router: router}
}

func (e *env) seed(serviceID int64, start string) int64 {
	st := types.MustTimeString(start)
	end, _ := st.AddMinutes(domain.SlotDurationMinutes)
	return e.store.Slots().Seed(domain.AppointmentSlot{
		ServiceID: serviceID, Date: day, StartTime: st, EndTime: end, IsAvailable: true,
	})
}

func token(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, middleware.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "owner",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func (e *env) do(t *testing.T, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func bookingBody(ids ...int64) map[string]interface{} {
	return map[string]interface{}{
		"firstName":  "Jane",
		"lastName":   "Doe",
		"email":      "jane@example.com",
		"phone":      "+15550100",
		"serviceIds": ids,
		"date":       "2024-03-05",
		"time":       "14:00",
	}
}

func TestListServices(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/api/v1/services", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var services []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &services))
	require.Len(t, services, 2)
	assert.Equal(t, "Haircut", services[0]["name"])
	assert.Equal(t, "50.00", services[0]["price"])
}

func TestAvailability(t *testing.T) {
	e := newEnv(t)
	e.seed(1, "14:00")
	e.seed(2, "14:00")
	e.seed(1, "15:00")

	rec := e.do(t, http.MethodGet, "/api/v1/available-slots?service_id=1&service_id=2&date=2024-03-05", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["tentative"])
	require.Len(t, body["slots"], 1)

	rec = e.do(t, http.MethodGet, "/api/v1/available-slots?service_id=1&date=05-03-2024", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/available-slots?service_id=9&date=2024-03-05", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["slots"])

	rec = e.do(t, http.MethodGet, "/api/v1/available-dates?service_id=1,2", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dates := decode(t, rec)["dates"].([]interface{})
	require.Len(t, dates, 1)
	assert.Equal(t, "2024-03-05", dates[0].(map[string]interface{})["date"])

	rec = e.do(t, http.MethodGet, "/api/v1/available-dates", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/availability/check", map[string]interface{}{
		"serviceIds": []int64{1, 2}, "date": "2024-03-05", "time": "15:00",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	check := decode(t, rec)
	assert.Equal(t, false, check["isAvailable"])
	assert.EqualValues(t, 2, check["unavailableServiceId"])
}

func TestCreateAndGetBooking(t *testing.T) {
	e := newEnv(t)
	e.seed(1, "14:00")
	e.seed(2, "14:00")

	rec := e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1, 2), "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "110.00", created["totalPrice"])
	assert.EqualValues(t, 150, created["totalDuration"])
	assert.Equal(t, "02:00 PM", created["displayTime"])

	ref := created["bookingReference"].(string)
	rec = e.do(t, http.MethodGet, "/api/v1/bookings/"+ref, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ref, decode(t, rec)["bookingReference"])

	rec = e.do(t, http.MethodGet, "/api/v1/bookings/ABCDEF12", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodGet, "/api/v1/bookings/short", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_Errors(t *testing.T) {
	e := newEnv(t)
	e.seed(1, "14:00")

	t.Run("conflict names the service", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1, 2), "")
		require.Equal(t, http.StatusConflict, rec.Code)
		body := decode(t, rec)
		assert.EqualValues(t, 2, body["serviceId"])
		assert.Equal(t, "Coloring", body["serviceName"])
		assert.Equal(t, "2024-03-05", body["date"])
		assert.Equal(t, "14:00", body["time"])
		assert.Equal(t, 0, e.store.AppointmentCount())
	})

	t.Run("unknown service", func(t *testing.T) {
		rec := e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1, 42), "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("validation", func(t *testing.T) {
		body := bookingBody(1)
		body["email"] = "nope"
		rec := e.do(t, http.MethodPost, "/api/v1/bookings", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad time", func(t *testing.T) {
		body := bookingBody(1)
		body["time"] = "2pm"
		rec := e.do(t, http.MethodPost, "/api/v1/bookings", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field", func(t *testing.T) {
		body := bookingBody(1)
		body["userId"] = 5
		rec := e.do(t, http.MethodPost, "/api/v1/bookings", body, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdmin_RequiresAdminToken(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/api/v1/admin/slots/generate", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/admin/slots/generate", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/admin/slots/generate", nil, token(t, "staff"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdmin_GenerateSlots(t *testing.T) {
	e := newEnv(t)
	e.seed(1, "14:00")
	e.seed(2, "14:00")

	rec := e.do(t, http.MethodPost, "/api/v1/admin/slots/generate", map[string]interface{}{"days": 1}, token(t, "admin"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	// вторник и среда по 9 периодов, две активные услуги, два слота уже были
	assert.EqualValues(t, 36, body["planned"])
	assert.EqualValues(t, 34, body["created"])

	rec = e.do(t, http.MethodPost, "/api/v1/admin/slots/generate", map[string]interface{}{"days": -3}, token(t, "admin"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdmin_AppointmentLifecycle(t *testing.T) {
	e := newEnv(t)
	admin := token(t, "admin")
	e.seed(1, "14:00")
	coloring := e.seed(2, "14:00")

	rec := e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	ref := decode(t, rec)["bookingReference"].(string)
	base := "/api/v1/admin/appointments/" + ref

	rec = e.do(t, http.MethodPost, base+"/services", map[string]interface{}{"serviceId": 2}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "110.00", decode(t, rec)["totalPrice"])

	rec = e.do(t, http.MethodPost, base+"/services", map[string]interface{}{"serviceId": 2}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, base+"/status", map[string]interface{}{"status": "confirmed"}, admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", decode(t, rec)["status"])

	slot, err := e.store.Slots().GetByID(context.Background(), coloring)
	require.NoError(t, err)
	assert.True(t, slot.IsBooked)

	rec = e.do(t, http.MethodDelete, base+"/services/2", nil, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50.00", decode(t, rec)["totalPrice"])

	rec = e.do(t, http.MethodDelete, base+"/services/1", nil, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, base+"/status", map[string]interface{}{"status": "cancelled"}, admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPatch, base+"/status", map[string]interface{}{"status": "confirmed"}, admin)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, base+"/status", map[string]interface{}{"status": "pending"}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/admin/appointments/ZZZZZZZZ/status", map[string]interface{}{"status": "cancelled"}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdmin_ConfirmConflict(t *testing.T) {
	e := newEnv(t)
	admin := token(t, "admin")
	e.seed(1, "14:00")
	other := e.seed(1, "16:00")
	require.NoError(t, e.store.Slots().Claim(context.Background(), other, 99))

	rec := e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1), "")
	require.Equal(t, http.StatusCreated, rec.Code)
	ref := decode(t, rec)["bookingReference"].(string)

	rec = e.do(t, http.MethodPatch, "/api/v1/admin/appointments/"+ref+"/status",
		map[string]interface{}{"status": "confirmed", "time": "16:00"}, admin)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Haircut", body["serviceName"])
	assert.Equal(t, "16:00", body["time"])
}

func TestAdmin_SlotAvailability(t *testing.T) {
	e := newEnv(t)
	admin := token(t, "admin")
	id := e.seed(1, "14:00")

	rec := e.do(t, http.MethodPatch, "/api/v1/admin/slots/"+strconv.FormatInt(id, 10)+"/availability",
		map[string]interface{}{"isAvailable": false}, admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["isAvailable"])

	rec = e.do(t, http.MethodPost, "/api/v1/bookings", bookingBody(1), "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/admin/slots/999/availability",
		map[string]interface{}{"isAvailable": true}, admin)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = e.do(t, http.MethodPatch, "/api/v1/admin/slots/"+strconv.FormatInt(id, 10)+"/availability", map[string]interface{}{}, admin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
