package generate_slots

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/lock"
)

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	CreateBatch(ctx context.Context, slots []domain.AppointmentSlot) (int, error)
	DeleteAll(ctx context.Context) (int, error)
}

// CatalogProvider интерфейс каталога услуг и часов работы
type CatalogProvider interface {
	ListActiveServices(ctx context.Context) ([]*domain.Service, error)
	GetBusinessHours(ctx context.Context) (domain.BusinessHours, error)
}

// Locker распределенная блокировка генерации
type Locker interface {
	TryAcquire(ctx context.Context, name string) (lock.ReleaseFunc, bool, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счетчик созданных слотов
type MetricsRecorder interface {
	AddSlotsGenerated(n int)
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
