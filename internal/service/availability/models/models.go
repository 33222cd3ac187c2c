package models

import (
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
)

// SlotOption время, предлагаемое клиенту для набора услуг
type SlotOption struct {
	StartTime   string `json:"startTime"`   // "14:00"
	EndTime     string `json:"endTime"`     // "15:00"
	DisplayTime string `json:"displayTime"` // "02:00 PM"
	ServiceID   int64  `json:"serviceId"`
	ServiceName string `json:"serviceName"`
}

// SlotsResult доступное время на дату.
// Tentative = true, если общего времени для всех услуг нет и показано объединение.
type SlotsResult struct {
	Date        string       `json:"date"`
	DisplayDate string       `json:"displayDate"`
	Tentative   bool         `json:"tentative"`
	Slots       []SlotOption `json:"slots"`
}

// DateOption дата, на которую есть свободное время
type DateOption struct {
	Date        string `json:"date"`        // "2024-03-05"
	DisplayDate string `json:"displayDate"` // "Tuesday, March 05, 2024"
	DayName     string `json:"dayName"`     // "Tuesday"
	DayNumber   int    `json:"dayNumber"`   // 5
	MonthName   string `json:"monthName"`   // "March"
}

// DatesResult доступные даты для набора услуг
type DatesResult struct {
	Tentative bool         `json:"tentative"`
	Dates     []DateOption `json:"dates"`
}

// AvailabilityResult результат проверки времени для набора услуг
type AvailabilityResult struct {
	Available            bool   `json:"isAvailable"`
	UnavailableServiceID *int64 `json:"unavailableServiceId,omitempty"`
}

// FromDate конвертирует дату в DateOption
func FromDate(date time.Time) DateOption {
	return DateOption{
		Date:        date.Format(domain.DateFormat),
		DisplayDate: date.Format(domain.DisplayDateFormat),
		DayName:     date.Weekday().String(),
		DayNumber:   date.Day(),
		MonthName:   date.Month().String(),
	}
}

// FromSlot конвертирует слот в SlotOption
func FromSlot(slot *domain.AppointmentSlot, serviceName string) SlotOption {
	return SlotOption{
		StartTime:   slot.StartTime.String(),
		EndTime:     slot.EndTime.String(),
		DisplayTime: slot.StartTime.Display(),
		ServiceID:   slot.ServiceID,
		ServiceName: serviceName,
	}
}
