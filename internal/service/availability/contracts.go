package availability

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/types"
)

// SlotRepository интерфейс репозитория слотов (только чтение)
type SlotRepository interface {
	List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AppointmentSlot, error)
	ListDates(ctx context.Context, filter domain.SlotFilter) ([]time.Time, error)
	GetByKey(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (*domain.AppointmentSlot, error)
}

// CatalogProvider интерфейс каталога услуг и часов работы
type CatalogProvider interface {
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
	GetBusinessHours(ctx context.Context) (domain.BusinessHours, error)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
