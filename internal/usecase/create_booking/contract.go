package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *domain.Appointment) (*domain.Appointment, error)
	AddService(ctx context.Context, appointmentID, serviceID int64) error
	ListServices(ctx context.Context, appointmentID int64) ([]domain.AppointmentService, error)
	UpdateTotals(ctx context.Context, id int64, totals domain.Totals) error
	UpdateSlotLink(ctx context.Context, id int64, slotID *int64) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByKey(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (*domain.AppointmentSlot, error)
	Hold(ctx context.Context, slotID, appointmentID int64) error
}

// CatalogProvider интерфейс каталога услуг
type CatalogProvider interface {
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счетчик попыток бронирования
type MetricsRecorder interface {
	IncBooking(result string)
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
