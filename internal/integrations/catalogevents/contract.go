package catalogevents

import (
	"context"

	"github.com/m04kA/salon-booking/internal/usecase/generate_slots"
)

// CacheInvalidator сбрасывает кэш каталога
type CacheInvalidator interface {
	Invalidate()
}

// SlotGenerator запускает генерацию слотов
type SlotGenerator interface {
	Execute(ctx context.Context, req *generate_slots.Request) (*generate_slots.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
