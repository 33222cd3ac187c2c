package domain

import (
	"time"

	"github.com/m04kA/salon-booking/pkg/types"
)

// SlotPeriod is a [Start, End) wall-clock interval within one day
type SlotPeriod struct {
	Start types.TimeString
	End   types.TimeString
}

// AppointmentSlot represents one bookable (service, date, start, end) unit
type AppointmentSlot struct {
	ID            int64
	ServiceID     int64
	Date          time.Time
	StartTime     types.TimeString
	EndTime       types.TimeString
	IsAvailable   bool   // admin switch
	IsBooked      bool   // claimed by a confirmed appointment
	AppointmentID *int64 // holder: pending hold or confirmed claim

	// Denormalized from the catalog for listings
	ServiceName string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOpen returns true if the slot can be held by a new appointment
func (s *AppointmentSlot) IsOpen() bool {
	return s.IsAvailable && !s.IsBooked && s.AppointmentID == nil
}

// IsHeldBy returns true if the slot is held or claimed by the appointment
func (s *AppointmentSlot) IsHeldBy(appointmentID int64) bool {
	return s.AppointmentID != nil && *s.AppointmentID == appointmentID
}

// CanBeClaimedBy returns true if the appointment may mark the slot booked
func (s *AppointmentSlot) CanBeClaimedBy(appointmentID int64) bool {
	if !s.IsAvailable || s.IsBooked {
		return false
	}
	return s.AppointmentID == nil || s.IsHeldBy(appointmentID)
}

// Key returns the unique (date, start_time, service) key of the slot
func (s *AppointmentSlot) Key() SlotKey {
	return SlotKey{Date: s.Date.Format(DateFormat), StartTime: s.StartTime, ServiceID: s.ServiceID}
}

// SlotKey is the natural unique key of a slot
type SlotKey struct {
	Date      string
	StartTime types.TimeString
	ServiceID int64
}

// SlotFilter фильтр выборки слотов
type SlotFilter struct {
	ServiceIDs []int64
	DateFrom   *time.Time
	DateTo     *time.Time
	OnlyOpen   bool // is_available AND NOT is_booked AND appointment_id IS NULL
}

// DateOf truncates t to its calendar date in UTC, matching how DATE columns are scanned
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in the given location
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD date
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}
