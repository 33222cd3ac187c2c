package appointments

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByReference(ctx context.Context, reference string) (*domain.Appointment, error)
	ListServices(ctx context.Context, appointmentID int64) ([]domain.AppointmentService, error)
	AddService(ctx context.Context, appointmentID, serviceID int64) error
	RemoveService(ctx context.Context, appointmentID, serviceID int64) error
	UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error
	UpdateTotals(ctx context.Context, id int64, totals domain.Totals) error
	UpdateSlotLink(ctx context.Context, id int64, slotID *int64) error
	UpdatePreferredTime(ctx context.Context, id int64, preferredTime types.TimeString) error
}

// SlotRepository интерфейс репозитория слотов
type SlotRepository interface {
	GetByKey(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (*domain.AppointmentSlot, error)
	Hold(ctx context.Context, slotID, appointmentID int64) error
	Claim(ctx context.Context, slotID, appointmentID int64) error
	Release(ctx context.Context, slotID, appointmentID int64) error
	ReleaseByAppointment(ctx context.Context, appointmentID int64) (int, error)
	SetAvailability(ctx context.Context, slotID int64, available bool) (*domain.AppointmentSlot, error)
}

// CatalogProvider интерфейс каталога услуг
type CatalogProvider interface {
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// MetricsRecorder счетчики переходов статусов
type MetricsRecorder interface {
	IncStatusTransition(status string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
