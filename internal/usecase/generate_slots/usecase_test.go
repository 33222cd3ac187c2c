package generate_slots_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/lock"
	"github.com/m04kA/salon-booking/internal/infra/storage/memory"
	"github.com/m04kA/salon-booking/internal/usecase/generate_slots"
	"github.com/m04kA/salon-booking/pkg/logger"
	"github.com/m04kA/salon-booking/pkg/ptr"
	"github.com/m04kA/salon-booking/pkg/types"
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type slotCounter struct{ total int }

func (c *slotCounter) AddSlotsGenerated(n int) { c.total += n }

// понедельник: по умолчанию салон закрыт
var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func activeServices() []*domain.Service {
	return []*domain.Service{
		{ID: 1, Name: "Haircut", Price: decimal.RequireFromString("50"), DurationMinutes: 60, IsActive: true},
		{ID: 2, Name: "Coloring", Price: decimal.RequireFromString("60"), DurationMinutes: 90, IsActive: true},
	}
}

func TestPlanSlots_Week(t *testing.T) {
	plan := generate_slots.PlanSlots(domain.DefaultBusinessHours(), activeServices(), monday, monday.AddDate(0, 0, 6))

	assert.Equal(t, 7, plan.DatesProcessed)
	assert.Equal(t, 1, plan.ClosedDates)
	// вт-сб по 9 периодов, вс 6 периодов, две услуги
	assert.Len(t, plan.Slots, (5*9+6)*2)

	for _, s := range plan.Slots {
		assert.NotEqual(t, time.Monday, s.Date.Weekday())
		assert.Equal(t, domain.SlotDurationMinutes, s.EndTime.Minutes()-s.StartTime.Minutes())
		rule, ok := domain.DefaultBusinessHours().RuleFor(s.Date)
		require.True(t, ok)
		assert.False(t, s.EndTime.IsAfter(rule.CloseTime))
		assert.True(t, s.IsAvailable)
		assert.False(t, s.IsBooked)
	}
}

func TestPlanSlots_TuesdayNineSlots(t *testing.T) {
	tuesday := monday.AddDate(0, 0, 1)
	plan := generate_slots.PlanSlots(domain.DefaultBusinessHours(), activeServices()[:1], tuesday, tuesday)

	require.Len(t, plan.Slots, 9)
	assert.Equal(t, "10:00", plan.Slots[0].StartTime.String())
	assert.Equal(t, "19:00", plan.Slots[8].EndTime.String())
}

func TestPlanSlots_SkipsInactiveServicesAndMissingRules(t *testing.T) {
	services := append(activeServices(), &domain.Service{ID: 3, Name: "Off", DurationMinutes: 30, IsActive: false})
	hours := domain.BusinessHours{
		time.Tuesday: {DayOfWeek: time.Tuesday, IsOpen: true, IsActive: true,
			OpenTime: types.MustTimeString("09:00"), CloseTime: types.MustTimeString("11:30")},
	}

	plan := generate_slots.PlanSlots(hours, services, monday, monday.AddDate(0, 0, 2))

	assert.Equal(t, 3, plan.DatesProcessed)
	assert.Equal(t, 2, plan.ClosedDates)
	assert.Len(t, plan.Slots, 4)
	for _, s := range plan.Slots {
		assert.NotEqual(t, int64(3), s.ServiceID)
	}
}

type fixture struct {
	store   *memory.Store
	locker  *lock.LocalLocker
	metrics *slotCounter
	uc      *generate_slots.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	for _, s := range activeServices() {
		store.AddService(*s)
	}
	store.SetBusinessHours(domain.DefaultBusinessHours())

	locker := lock.NewLocalLocker()
	counter := &slotCounter{}
	uc := generate_slots.NewUseCase(
		store.Slots(),
		store.Catalog(),
		locker,
		memory.NewTxManager(store),
		counter,
		30,
		time.UTC,
		logger.Nop(),
	).WithTimeProvider(fixedTime{now: monday.Add(12 * time.Hour)})

	return &fixture{store: store, locker: locker, metrics: counter, uc: uc}
}

func TestExecute_DefaultHorizon(t *testing.T) {
	f := newFixture(t)

	resp, err := f.uc.Execute(context.Background(), &generate_slots.Request{})
	require.NoError(t, err)

	// сегодня плюс 30 дней
	assert.Equal(t, 31, resp.DatesProcessed)
	assert.Equal(t, "2024-03-04", resp.From)
	assert.Equal(t, "2024-04-03", resp.To)
	assert.Equal(t, resp.Planned, resp.Created)
	assert.Len(t, f.store.AllSlots(), resp.Created)
	assert.Equal(t, resp.Created, f.metrics.total)
}

func TestExecute_IdempotentKeepsBookedState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := &generate_slots.Request{Days: 7}

	first, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)
	require.Positive(t, first.Created)

	tuesday := monday.AddDate(0, 0, 1)
	booked, err := f.store.Slots().GetByKey(ctx, 1, tuesday, types.MustTimeString("14:00"))
	require.NoError(t, err)
	require.NoError(t, f.store.Slots().Claim(ctx, booked.ID, 77))

	second, err := f.uc.Execute(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, first.Planned, second.Planned)
	assert.Len(t, f.store.AllSlots(), first.Created)

	after, err := f.store.Slots().GetByID(ctx, booked.ID)
	require.NoError(t, err)
	assert.True(t, after.IsBooked)
	assert.True(t, after.IsHeldBy(77))

	// уникальность ключа
	seen := make(map[domain.SlotKey]bool)
	for _, s := range f.store.AllSlots() {
		assert.False(t, seen[s.Key()])
		seen[s.Key()] = true
	}
}

func TestExecute_Regenerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.uc.Execute(ctx, &generate_slots.Request{Days: 2})
	require.NoError(t, err)

	resp, err := f.uc.Execute(ctx, &generate_slots.Request{Days: 2, Regenerate: true})
	require.NoError(t, err)
	assert.Equal(t, first.Created, resp.Deleted)
	assert.Equal(t, first.Created, resp.Created)
}

func TestExecute_ExplicitFrom(t *testing.T) {
	f := newFixture(t)

	sunday := monday.AddDate(0, 0, 6)
	resp, err := f.uc.Execute(context.Background(), &generate_slots.Request{From: ptr.Ptr(sunday), Days: 1})
	require.NoError(t, err)

	// воскресенье 11-17 и закрытый понедельник
	assert.Equal(t, 2, resp.DatesProcessed)
	assert.Equal(t, 1, resp.ClosedDates)
	assert.Equal(t, 6*2, resp.Created)
}

func TestExecute_Errors(t *testing.T) {
	t.Run("invalid days", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.Execute(context.Background(), &generate_slots.Request{Days: -1})
		require.ErrorIs(t, err, generate_slots.ErrInvalidInput)

		_, err = f.uc.Execute(context.Background(), &generate_slots.Request{Days: domain.MaxHorizonDays + 1})
		require.ErrorIs(t, err, generate_slots.ErrInvalidInput)
	})

	t.Run("no active services", func(t *testing.T) {
		store := memory.NewStore()
		store.SetBusinessHours(domain.DefaultBusinessHours())
		uc := generate_slots.NewUseCase(store.Slots(), store.Catalog(), lock.NewLocalLocker(),
			memory.NewTxManager(store), nil, 30, time.UTC, logger.Nop())

		_, err := uc.Execute(context.Background(), &generate_slots.Request{})
		require.ErrorIs(t, err, generate_slots.ErrNoActiveServices)
	})

	t.Run("lock busy", func(t *testing.T) {
		f := newFixture(t)
		release, ok, err := f.locker.TryAcquire(context.Background(), generate_slots.LockName)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = f.uc.Execute(context.Background(), &generate_slots.Request{})
		require.ErrorIs(t, err, generate_slots.ErrGenerationInProgress)
		assert.Empty(t, f.store.AllSlots())

		require.NoError(t, release(context.Background()))
		_, err = f.uc.Execute(context.Background(), &generate_slots.Request{Days: 1})
		require.NoError(t, err)
	})

	t.Run("lock error", func(t *testing.T) {
		store := memory.NewStore()
		uc := generate_slots.NewUseCase(store.Slots(), store.Catalog(), failingLocker{},
			memory.NewTxManager(store), nil, 30, time.UTC, logger.Nop())

		_, err := uc.Execute(context.Background(), &generate_slots.Request{})
		require.ErrorIs(t, err, generate_slots.ErrInternal)
	})
}

type failingLocker struct{}

func (failingLocker) TryAcquire(context.Context, string) (lock.ReleaseFunc, bool, error) {
	return nil, false, errors.New("redis down")
}
