package create_booking

import (
	"strings"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	createBooking "github.com/m04kA/salon-booking/internal/usecase/create_booking"
	"github.com/m04kA/salon-booking/pkg/types"
)

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	ServiceIDs []int64 `json:"serviceIds"`
	Date       string  `json:"date"`           // "2024-03-05"
	Time       *string `json:"time,omitempty"` // "14:00", пусто = перезвонить
	Message    *string `json:"message,omitempty"`
}

// ServiceItem услуга в ответе
type ServiceItem struct {
	ServiceID       int64  `json:"serviceId"`
	Name            string `json:"name"`
	Price           string `json:"price"`
	DurationMinutes int    `json:"durationMinutes"`
}

// BookingResponse HTTP response model
type BookingResponse struct {
	BookingReference string        `json:"bookingReference"`
	Status           string        `json:"status"`
	FirstName        string        `json:"firstName"`
	LastName         string        `json:"lastName"`
	Email            string        `json:"email"`
	Phone            string        `json:"phone"`
	Date             string        `json:"date"`
	DisplayDate      string        `json:"displayDate"`
	Time             *string       `json:"time,omitempty"`
	DisplayTime      *string       `json:"displayTime,omitempty"`
	CallToConfirm    bool          `json:"callToConfirm"`
	TotalDuration    int           `json:"totalDuration"`
	TotalPrice       string        `json:"totalPrice"`
	Services         []ServiceItem `json:"services"`
	CreatedAt        string        `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP запрос в модель use case
func (r *CreateBookingRequest) ToUseCaseRequest() (*createBooking.Request, error) {
	// Парсим дату
	date, err := domain.ParseDate(strings.TrimSpace(r.Date))
	if err != nil {
		return nil, errInvalidDate
	}

	req := &createBooking.Request{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Email:      r.Email,
		Phone:      r.Phone,
		ServiceIDs: r.ServiceIDs,
		Date:       date,
		Message:    r.Message,
	}

	// Парсим время (необязательное)
	if r.Time != nil && strings.TrimSpace(*r.Time) != "" {
		t, err := types.NewTimeStringFromString(strings.TrimSpace(*r.Time))
		if err != nil {
			return nil, errInvalidTime
		}
		req.Time = &t
	}

	return req, nil
}

// FromUseCaseResponse конвертирует ответ use case в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *BookingResponse {
	out := &BookingResponse{
		BookingReference: resp.BookingReference,
		Status:           resp.Status,
		FirstName:        resp.FirstName,
		LastName:         resp.LastName,
		Email:            resp.Email,
		Phone:            resp.Phone,
		Date:             resp.Date.Format(domain.DateFormat),
		DisplayDate:      resp.Date.Format(domain.DisplayDateFormat),
		CallToConfirm:    resp.CallToConfirm,
		TotalDuration:    resp.TotalDuration,
		TotalPrice:       resp.TotalPrice.StringFixed(2),
		Services:         make([]ServiceItem, 0, len(resp.Services)),
		CreatedAt:        resp.CreatedAt.Format(time.RFC3339),
	}

	if resp.Time != nil {
		t := resp.Time.String()
		display := resp.Time.Display()
		out.Time = &t
		out.DisplayTime = &display
	}

	for _, s := range resp.Services {
		out.Services = append(out.Services, ServiceItem{
			ServiceID:       s.ServiceID,
			Name:            s.Name,
			Price:           s.Price.StringFixed(2),
			DurationMinutes: s.DurationMinutes,
		})
	}

	return out
}
