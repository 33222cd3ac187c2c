package appointment

import (
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
)

// Переиспользуем интерфейсы из dbmetrics для работы с БД
type DBExecutor = dbmetrics.DBExecutor

// Имена unique-ограничений из migrations/001_init.sql
const (
	constraintBookingReference   = "appointments_booking_reference_key"
	constraintAppointmentService = "appointment_services_appointment_id_service_id_key"
)
