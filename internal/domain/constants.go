package domain

// Slot generation
const (
	SlotDurationMinutes = 60 // fixed granularity, does not depend on Service.DurationMinutes
	DefaultHorizonDays  = 30
	MaxHorizonDays      = 365
)

// Business validation constants
const (
	MaxNameLength          = 100
	MaxEmailLength         = 254
	MaxPhoneLength         = 20
	MaxMessageLength       = 1000
	MaxServicesPerBooking  = 10
	BookingReferenceLength = 8
)

// Time format constants
const (
	TimeFormat        = "15:04"                    // HH:MM
	DateFormat        = "2006-01-02"               // YYYY-MM-DD
	DisplayTimeFormat = "03:04 PM"                 // 02:00 PM
	DisplayDateFormat = "Monday, January 02, 2006" // Tuesday, March 05, 2024
)

// HoldingStatuses статусы, при которых запись удерживает слоты
var HoldingStatuses = []AppointmentStatus{
	StatusPending,
	StatusConfirmed,
}
