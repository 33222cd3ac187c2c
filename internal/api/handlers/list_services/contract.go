package list_services

import (
	"context"

	"github.com/m04kA/salon-booking/internal/domain"
)

type CatalogProvider interface {
	ListActiveServices(ctx context.Context) ([]*domain.Service, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Error(format string, v ...interface{})
}
