package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/pkg/logger"
)

type countingSource struct {
	services []*domain.Service
	hours    domain.BusinessHours
	err      error

	listCalls  int
	byIDCalls  [][]int64
	hoursCalls int
}

func (s *countingSource) ListActiveServices(ctx context.Context) ([]*domain.Service, error) {
	s.listCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.services, nil
}

func (s *countingSource) GetServicesByIDs(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	s.byIDCalls = append(s.byIDCalls, ids)
	if s.err != nil {
		return nil, s.err
	}
	byID := domain.ServicesByID(s.services)
	result := make([]*domain.Service, 0, len(ids))
	for _, id := range ids {
		if svc, ok := byID[id]; ok {
			result = append(result, svc)
		}
	}
	return result, nil
}

func (s *countingSource) GetBusinessHours(ctx context.Context) (domain.BusinessHours, error) {
	s.hoursCalls++
	if s.err != nil {
		return nil, s.err
	}
	return s.hours, nil
}

func newSource() *countingSource {
	return &countingSource{
		services: []*domain.Service{
			{ID: 1, Name: "Haircut", Price: decimal.NewFromInt(45), DurationMinutes: 60, IsActive: true},
			{ID: 2, Name: "Coloring", Price: decimal.NewFromInt(65), DurationMinutes: 90, IsActive: true},
		},
		hours: domain.DefaultBusinessHours(),
	}
}

func TestCatalog_CachesReads(t *testing.T) {
	ctx := context.Background()
	source := newSource()
	c := NewCatalog(source, 16, time.Minute, logger.Nop())

	for i := 0; i < 3; i++ {
		services, err := c.ListActiveServices(ctx)
		require.NoError(t, err)
		assert.Len(t, services, 2)

		hours, err := c.GetBusinessHours(ctx)
		require.NoError(t, err)
		assert.Len(t, hours, 7)
	}

	assert.Equal(t, 1, source.listCalls)
	assert.Equal(t, 1, source.hoursCalls)

	// услуги уже в кэше после ListActiveServices
	services, err := c.GetServicesByIDs(ctx, []int64{2, 1})
	require.NoError(t, err)
	assert.Len(t, services, 2)
	assert.Empty(t, source.byIDCalls)
}

func TestCatalog_FetchesOnlyMissingIDs(t *testing.T) {
	ctx := context.Background()
	source := newSource()
	c := NewCatalog(source, 16, time.Minute, logger.Nop())

	_, err := c.GetServicesByIDs(ctx, []int64{1})
	require.NoError(t, err)

	services, err := c.GetServicesByIDs(ctx, []int64{1, 2, 99})
	require.NoError(t, err)

	assert.Len(t, services, 2)
	require.Len(t, source.byIDCalls, 2)
	assert.Equal(t, []int64{2, 99}, source.byIDCalls[1])
}

func TestCatalog_Invalidate(t *testing.T) {
	ctx := context.Background()
	source := newSource()
	c := NewCatalog(source, 16, time.Minute, logger.Nop())

	_, err := c.ListActiveServices(ctx)
	require.NoError(t, err)
	_, err = c.GetBusinessHours(ctx)
	require.NoError(t, err)

	c.Invalidate()

	_, err = c.ListActiveServices(ctx)
	require.NoError(t, err)
	_, err = c.GetBusinessHours(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, source.listCalls)
	assert.Equal(t, 2, source.hoursCalls)
}

func TestCatalog_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	source := newSource()
	source.err = errors.New("db down")
	c := NewCatalog(source, 16, time.Minute, logger.Nop())

	_, err := c.GetBusinessHours(ctx)
	require.Error(t, err)

	source.err = nil
	hours, err := c.GetBusinessHours(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, hours)
	assert.Equal(t, 2, source.hoursCalls)
}
