package create_booking

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/m04kA/salon-booking/pkg/types"
)

// Request модель запроса на создание записи
type Request struct {
	FirstName  string            `validate:"required,max=100"`
	LastName   string            `validate:"required,max=100"`
	Email      string            `validate:"required,email,max=254"`
	Phone      string            `validate:"required,max=20"`
	ServiceIDs []int64           `validate:"required,min=1,max=10,unique,dive,gt=0"`
	Date       time.Time         // Дата (без времени)
	Time       *types.TimeString // nil = салон перезвонит для согласования времени
	Message    *string           `validate:"omitempty,max=1000"`
}

// ServiceItem услуга в составе созданной записи
type ServiceItem struct {
	ServiceID       int64
	Name            string
	Price           decimal.Decimal
	DurationMinutes int
}

// Response модель ответа с созданной записью
type Response struct {
	BookingReference string
	Status           string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	Date             time.Time
	Time             *types.TimeString
	CallToConfirm    bool
	TotalDuration    int
	TotalPrice       decimal.Decimal
	Services         []ServiceItem
	CreatedAt        time.Time
}
