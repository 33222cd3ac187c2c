package memory

import (
	"context"
	"sort"

	"github.com/m04kA/salon-booking/internal/domain"
)

// CatalogRepository in-memory аналог catalog.Repository
type CatalogRepository struct {
	store *Store
}

func (r *CatalogRepository) ListActiveServices(ctx context.Context) ([]*domain.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.Service, 0)
	for _, svc := range r.store.services {
		if svc.IsActive {
			c := *svc
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (r *CatalogRepository) GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.Service, 0, len(ids))
	for _, id := range ids {
		if svc, ok := r.store.services[id]; ok {
			c := *svc
			result = append(result, &c)
		}
	}
	return result, nil
}

func (r *CatalogRepository) GetBusinessHours(ctx context.Context) (domain.BusinessHours, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	hours := make(domain.BusinessHours, len(r.store.hours))
	for day, rule := range r.store.hours {
		if rule.IsActive {
			hours[day] = rule
		}
	}
	return hours, nil
}

func (r *CatalogRepository) SeedBusinessHours(ctx context.Context, hours domain.BusinessHours) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	added := 0
	for day, rule := range hours {
		if _, ok := r.store.hours[day]; ok {
			continue
		}
		r.store.hours[day] = rule
		added++
	}
	return added, nil
}
