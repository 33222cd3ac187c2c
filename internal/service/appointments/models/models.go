package models

import (
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
)

// ServiceItem услуга в составе записи
type ServiceItem struct {
	ServiceID       int64  `json:"serviceId"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
}

// AppointmentResponse запись клиента
type AppointmentResponse struct {
	BookingReference string        `json:"bookingReference"`
	Status           string        `json:"status"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone"`
	Message          *string       `json:"message,omitempty"`
	Date             string        `json:"date"`
	DisplayDate      string        `json:"displayDate"`
	Time             *string       `json:"time,omitempty"`
	DisplayTime      *string       `json:"displayTime,omitempty"`
	CallToConfirm    bool          `json:"callToConfirm"`
	TotalDuration    int           `json:"totalDuration"`
	TotalPrice       string        `json:"totalPrice"`
	Services         []ServiceItem `json:"services"`
	CreatedAt        time.Time     `json:"createdAt"`
}

// SlotResponse слот для администратора
type SlotResponse struct {
	ID          int64  `json:"id"`
	ServiceID   int64  `json:"serviceId"`
	ServiceName string `json:"serviceName,omitempty"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
	IsBooked    bool   `json:"isBooked"`
}

// FromDomainAppointment конвертирует domain.Appointment в AppointmentResponse
func FromDomainAppointment(a *domain.Appointment) *AppointmentResponse {
	resp := &AppointmentResponse{
		BookingReference: a.BookingReference,
		Status:           string(a.Status),
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Email:            a.Email,
		Phone:            a.Phone,
		Message:          a.Message,
		Date:             a.PreferredDate.Format(domain.DateFormat),
		DisplayDate:      a.PreferredDate.Format(domain.DisplayDateFormat),
		CallToConfirm:    !a.HasTime(),
		TotalDuration:    a.TotalDuration,
		TotalPrice:       a.TotalPrice.StringFixed(2),
		Services:         make([]ServiceItem, 0, len(a.Services)),
		CreatedAt:        a.CreatedAt,
	}

	if a.HasTime() {
		t := a.PreferredTime.String()
		display := a.PreferredTime.Display()
		resp.Time = &t
		resp.DisplayTime = &display
	}

	for _, s := range a.Services {
		resp.Services = append(resp.Services, ServiceItem{
			ServiceID:       s.ServiceID,
			Name:            s.ServiceName,
			Price:           s.Price.StringFixed(2),
			DurationMinutes: s.DurationMinutes,
		})
	}

	return resp
}

// FromDomainSlot конвертирует domain.AppointmentSlot в SlotResponse
func FromDomainSlot(s *domain.AppointmentSlot) *SlotResponse {
	return &SlotResponse{
		ID:          s.ID,
		ServiceID:   s.ServiceID,
		ServiceName: s.ServiceName,
		Date:        s.Date.Format(domain.DateFormat),
		StartTime:   s.StartTime.String(),
		EndTime:     s.EndTime.String(),
		IsAvailable: s.IsAvailable,
		IsBooked:    s.IsBooked,
	}
}
