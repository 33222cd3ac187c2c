package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/salon-booking/pkg/types"
)

// BusinessHoursRule represents opening hours for one weekday
type BusinessHoursRule struct {
	ID        int64
	DayOfWeek time.Weekday
	IsOpen    bool
	OpenTime  types.TimeString
	CloseTime types.TimeString
	IsActive  bool
}

// IsOpenForBooking returns true if slots may exist on this weekday
func (r *BusinessHoursRule) IsOpenForBooking() bool {
	return r.IsActive && r.IsOpen && !r.OpenTime.IsZero() && !r.CloseTime.IsZero()
}

// Validate checks that an open rule closes after it opens
func (r *BusinessHoursRule) Validate() error {
	if !r.IsOpen {
		return nil
	}
	if err := r.OpenTime.Validate(); err != nil {
		return fmt.Errorf("open time: %w", err)
	}
	if err := r.CloseTime.Validate(); err != nil {
		return fmt.Errorf("close time: %w", err)
	}
	if !r.CloseTime.IsAfter(r.OpenTime) {
		return fmt.Errorf("close time %s must be after open time %s", r.CloseTime, r.OpenTime)
	}
	return nil
}

// SlotPeriods returns consecutive fixed-length periods [t, t+SlotDurationMinutes)
// starting at open time. A period ending after close time is dropped.
func (r *BusinessHoursRule) SlotPeriods() []SlotPeriod {
	if !r.IsOpenForBooking() {
		return nil
	}

	var periods []SlotPeriod
	start := r.OpenTime
	for {
		end, err := start.AddMinutes(SlotDurationMinutes)
		if err != nil || end.IsAfter(r.CloseTime) {
			return periods
		}
		periods = append(periods, SlotPeriod{Start: start, End: end})
		start = end
	}
}

// BusinessHours maps a weekday to its rule. A missing weekday means closed.
type BusinessHours map[time.Weekday]BusinessHoursRule

// RuleFor returns the rule for the weekday of the given date
func (h BusinessHours) RuleFor(date time.Time) (BusinessHoursRule, bool) {
	rule, ok := h[date.Weekday()]
	return rule, ok
}

// IsOpenOn returns true if the salon accepts bookings on the given date
func (h BusinessHours) IsOpenOn(date time.Time) bool {
	rule, ok := h.RuleFor(date)
	return ok && rule.IsOpenForBooking()
}

// DefaultBusinessHours opening hours used to seed an empty database:
// closed on Monday, 10:00-19:00 Tuesday to Saturday, 11:00-17:00 on Sunday.
func DefaultBusinessHours() BusinessHours {
	hours := BusinessHours{
		time.Monday: {DayOfWeek: time.Monday, IsOpen: false, IsActive: true},
		time.Sunday: {
			DayOfWeek: time.Sunday,
			IsOpen:    true,
			OpenTime:  types.MustTimeString("11:00"),
			CloseTime: types.MustTimeString("17:00"),
			IsActive:  true,
		},
	}
	for _, day := range []time.Weekday{time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		hours[day] = BusinessHoursRule{
			DayOfWeek: day,
			IsOpen:    true,
			OpenTime:  types.MustTimeString("10:00"),
			CloseTime: types.MustTimeString("19:00"),
			IsActive:  true,
		}
	}
	return hours
}

// WeekdayName returns the lower-case weekday name stored in business_hours.day_of_week
func WeekdayName(day time.Weekday) string {
	return strings.ToLower(day.String())
}

// ParseWeekday parses a weekday name ("monday", "Tuesday", ...)
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if WeekdayName(day) == name {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("unknown weekday %q", s)
}
