package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/m04kA/salon-booking/internal/domain"
)

const (
	keyActiveServices = "services:active"
	keyBusinessHours  = "business_hours"
)

// CatalogSource источник данных каталога (репозиторий)
type CatalogSource interface {
	ListActiveServices(ctx context.Context) ([]*domain.Service, error)
	GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error)
	GetBusinessHours(ctx context.Context) (domain.BusinessHours, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
}

// Catalog кэш каталога услуг и часов работы поверх репозитория.
// Записи живут ttl, Invalidate сбрасывает все сразу (по событию изменения каталога).
type Catalog struct {
	source CatalogSource
	logger Logger

	services *expirable.LRU[int64, *domain.Service]
	lists    *expirable.LRU[string, []*domain.Service]
	hours    *expirable.LRU[string, domain.BusinessHours]
}

// NewCatalog создает кэш каталога
func NewCatalog(source CatalogSource, size int, ttl time.Duration, logger Logger) *Catalog {
	return &Catalog{
		source:   source,
		logger:   logger,
		services: expirable.NewLRU[int64, *domain.Service](size, nil, ttl),
		lists:    expirable.NewLRU[string, []*domain.Service](1, nil, ttl),
		hours:    expirable.NewLRU[string, domain.BusinessHours](1, nil, ttl),
	}
}

func (c *Catalog) ListActiveServices(ctx context.Context) ([]*domain.Service, error) {
	if services, ok := c.lists.Get(keyActiveServices); ok {
		return services, nil
	}

	services, err := c.source.ListActiveServices(ctx)
	if err != nil {
		return nil, err
	}

	c.lists.Add(keyActiveServices, services)
	for _, s := range services {
		c.services.Add(s.ID, s)
	}

	return services, nil
}

// GetServicesByIDs отдает закэшированные услуги, за остальными идет в источник
func (c *Catalog) GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	result := make([]*domain.Service, 0, len(ids))
	var missing []int64

	for _, id := range ids {
		if s, ok := c.services.Get(id); ok {
			result = append(result, s)
			continue
		}
		missing = append(missing, id)
	}

	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.source.GetServicesByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}

	for _, s := range loaded {
		c.services.Add(s.ID, s)
		result = append(result, s)
	}

	return result, nil
}

func (c *Catalog) GetBusinessHours(ctx context.Context) (domain.BusinessHours, error) {
	if hours, ok := c.hours.Get(keyBusinessHours); ok {
		return hours, nil
	}

	hours, err := c.source.GetBusinessHours(ctx)
	if err != nil {
		return nil, err
	}

	c.hours.Add(keyBusinessHours, hours)
	return hours, nil
}

// Invalidate сбрасывает весь кэш каталога
func (c *Catalog) Invalidate() {
	c.services.Purge()
	c.lists.Purge()
	c.hours.Purge()
	c.logger.Info("Catalog cache invalidated")
}
