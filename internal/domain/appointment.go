package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m04kA/salon-booking/pkg/types"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "pending"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// allowedTransitions pending -> confirmed -> completed, pending|confirmed -> cancelled
var allowedTransitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// IsValid returns true for a known status
func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal returns true if no transition is allowed out of the status
func (s AppointmentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo returns true if the state machine allows s -> next
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Appointment represents a customer's booking request
type Appointment struct {
	ID               int64
	BookingReference string

	FirstName string
	LastName  string
	Email     string
	Phone     string
	Message   *string

	PreferredDate time.Time
	PreferredTime *types.TimeString // nil = call to confirm
	Status        AppointmentStatus

	// Slot of the first selected service, informational only
	AppointmentSlotID *int64

	// Derived from Services, recomputed after every change of the service set
	TotalDuration int
	TotalPrice    decimal.Decimal

	Services []AppointmentService

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasTime returns true if the customer picked a time
func (a *Appointment) HasTime() bool {
	return a.PreferredTime != nil && !a.PreferredTime.IsZero()
}

// HoldsSlots returns true if the appointment keeps slots out of availability
func (a *Appointment) HoldsSlots() bool {
	return a.HasTime() && (a.Status == StatusPending || a.Status == StatusConfirmed)
}

// CanChangeServices returns true if services may still be added or removed
func (a *Appointment) CanChangeServices() bool {
	return !a.Status.IsTerminal()
}

// FullName returns "First Last"
func (a *Appointment) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ServiceIDs returns ids of the selected services in selection order
func (a *Appointment) ServiceIDs() []int64 {
	ids := make([]int64, 0, len(a.Services))
	for _, s := range a.Services {
		ids = append(ids, s.ServiceID)
	}
	return ids
}

// HasService returns true if the service is part of the appointment
func (a *Appointment) HasService(serviceID int64) bool {
	for _, s := range a.Services {
		if s.ServiceID == serviceID {
			return true
		}
	}
	return false
}

// ApplyTotals sets derived totals
func (a *Appointment) ApplyTotals(t Totals) {
	a.TotalDuration = t.DurationMinutes
	a.TotalPrice = t.Price
}

// AppointmentService is one (appointment, service) row
type AppointmentService struct {
	ID            int64
	AppointmentID int64
	ServiceID     int64

	// Joined from the catalog
	ServiceName     string
	Price           decimal.Decimal
	DurationMinutes int
}

// NewBookingReference returns a short upper-case opaque code
func NewBookingReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:BookingReferenceLength])
}

// TotalsOf sums duration and price over appointment_services rows
func TotalsOf(links []AppointmentService) Totals {
	services := make([]*Service, 0, len(links))
	for _, l := range links {
		services = append(services, &Service{ID: l.ServiceID, Price: l.Price, DurationMinutes: l.DurationMinutes})
	}
	return CalculateTotals(services)
}
