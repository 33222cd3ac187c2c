package create_booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/storage/memory"
	"github.com/m04kA/salon-booking/internal/usecase/create_booking"
	"github.com/m04kA/salon-booking/pkg/logger"
	"github.com/m04kA/salon-booking/pkg/metrics"
	"github.com/m04kA/salon-booking/pkg/ptr"
	"github.com/m04kA/salon-booking/pkg/txmanager"
	"github.com/m04kA/salon-booking/pkg/types"
)

type fixedTime struct{ now time.Time }

func (f fixedTime) Now() time.Time { return f.now }

type bookingCounter struct {
	mu      sync.Mutex
	results []string
}

func (c *bookingCounter) IncBooking(result string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

var day = time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memory.Store
	metrics *bookingCounter
	uc      *create_booking.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddService(domain.Service{ID: 1, Name: "Haircut", Price: decimal.RequireFromString("50.00"), DurationMinutes: 60, IsActive: true})
	store.AddService(domain.Service{ID: 2, Name: "Coloring", Price: decimal.RequireFromString("60.00"), DurationMinutes: 90, IsActive: true})
	store.AddService(domain.Service{ID: 3, Name: "Retired", Price: decimal.RequireFromString("10.00"), DurationMinutes: 30, IsActive: false})

	counter := &bookingCounter{}
	uc := create_booking.NewUseCase(
		store.Appointments(),
		store.Slots(),
		store.Catalog(),
		memory.NewTxManager(store),
		counter,
		time.UTC,
		logger.Nop(),
	).WithTimeProvider(fixedTime{now: day.Add(8 * time.Hour)})

	return &fixture{store: store, metrics: counter, uc: uc}
}

func (f *fixture) seedSlot(serviceID int64, start string) int64 {
	st := types.MustTimeString(start)
	end, _ := st.AddMinutes(domain.SlotDurationMinutes)
	return f.store.Slots().Seed(domain.AppointmentSlot{
		ServiceID:   serviceID,
		Date:        day,
		StartTime:   st,
		EndTime:     end,
		IsAvailable: true,
	})
}

func (f *fixture) slot(t *testing.T, id int64) *domain.AppointmentSlot {
	t.Helper()
	slot, err := f.store.Slots().GetByID(context.Background(), id)
	require.NoError(t, err)
	return slot
}

func validRequest(ids ...int64) *create_booking.Request {
	return &create_booking.Request{
		FirstName:  " Jane ",
		LastName:   "Doe",
		Email:      "jane@example.com",
		Phone:      "+15550100",
		ServiceIDs: ids,
		Date:       day,
		Time:       ptr.Ptr(types.MustTimeString("14:00")),
		Message:    ptr.Ptr("first visit"),
	}
}

func TestExecute_MultiServiceHoldsSlots(t *testing.T) {
	f := newFixture(t)
	s1 := f.seedSlot(1, "14:00")
	s2 := f.seedSlot(2, "14:00")

	resp, err := f.uc.Execute(context.Background(), validRequest(1, 2))
	require.NoError(t, err)

	assert.Regexp(t, `^[0-9A-F]{8}$`, resp.BookingReference)
	assert.Equal(t, "pending", resp.Status)
	assert.Equal(t, "Jane", resp.FirstName)
	assert.False(t, resp.CallToConfirm)
	assert.Equal(t, 150, resp.TotalDuration)
	assert.True(t, decimal.RequireFromString("110.00").Equal(resp.TotalPrice))
	require.Len(t, resp.Services, 2)
	assert.Equal(t, "Haircut", resp.Services[0].Name)
	assert.Equal(t, "Coloring", resp.Services[1].Name)

	for _, id := range []int64{s1, s2} {
		slot := f.slot(t, id)
		require.NotNil(t, slot.AppointmentID)
		assert.False(t, slot.IsBooked)
		assert.False(t, slot.IsOpen())
	}
	assert.Equal(t, 1, f.store.AppointmentCount())
	assert.Equal(t, 2, f.store.LinkCount())
	assert.Equal(t, []string{metrics.BookingResultCreated}, f.metrics.results)
}

func TestExecute_CallToConfirm(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(1, "14:00")

	req := validRequest(1)
	req.Time = nil

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, resp.CallToConfirm)
	assert.Nil(t, resp.Time)
	assert.True(t, f.slot(t, slot).IsOpen())
}

func TestExecute_PartialAvailabilityNamesService(t *testing.T) {
	f := newFixture(t)
	s1 := f.seedSlot(1, "14:00")
	s2 := f.seedSlot(2, "14:00")
	require.NoError(t, f.store.Slots().Claim(context.Background(), s2, 42))

	_, err := f.uc.Execute(context.Background(), validRequest(1, 2))
	require.ErrorIs(t, err, create_booking.ErrSlotNotAvailable)

	var conflict *create_booking.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(2), conflict.ServiceID)
	assert.Equal(t, "Coloring", conflict.ServiceName)
	assert.Equal(t, "2024-03-05", conflict.Date)
	assert.Equal(t, "14:00", conflict.Time)

	// ничего не записано
	assert.Equal(t, 0, f.store.AppointmentCount())
	assert.Equal(t, 0, f.store.LinkCount())
	assert.True(t, f.slot(t, s1).IsOpen())
	assert.Equal(t, []string{metrics.BookingResultConflict}, f.metrics.results)
}

func TestExecute_MissingOrDisabledSlotIsConflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.Execute(context.Background(), validRequest(1))
	require.ErrorIs(t, err, create_booking.ErrSlotNotAvailable)

	id := f.seedSlot(1, "14:00")
	_, err = f.store.Slots().SetAvailability(context.Background(), id, false)
	require.NoError(t, err)

	_, err = f.uc.Execute(context.Background(), validRequest(1))
	require.ErrorIs(t, err, create_booking.ErrSlotNotAvailable)
}

func TestExecute_ConcurrentBookingsSingleWinner(t *testing.T) {
	f := newFixture(t)
	f.seedSlot(1, "14:00")

	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.Execute(context.Background(), validRequest(1))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, create_booking.ErrSlotNotAvailable):
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, f.store.AppointmentCount())
}

func TestExecute_ServiceNotFound(t *testing.T) {
	f := newFixture(t)
	f.seedSlot(1, "14:00")

	_, err := f.uc.Execute(context.Background(), validRequest(1, 99))
	require.ErrorIs(t, err, create_booking.ErrServiceNotFound)
	assert.Contains(t, err.Error(), "id=99")

	_, err = f.uc.Execute(context.Background(), validRequest(3))
	require.ErrorIs(t, err, create_booking.ErrServiceNotFound)
	assert.Equal(t, 0, f.store.AppointmentCount())
}

func TestExecute_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *create_booking.Request)
	}{
		{"missing first name", func(r *create_booking.Request) { r.FirstName = "  " }},
		{"missing phone", func(r *create_booking.Request) { r.Phone = "" }},
		{"bad email", func(r *create_booking.Request) { r.Email = "not-an-email" }},
		{"no services", func(r *create_booking.Request) { r.ServiceIDs = nil }},
		{"non-positive id", func(r *create_booking.Request) { r.ServiceIDs = []int64{0} }},
		{"duplicate ids", func(r *create_booking.Request) { r.ServiceIDs = []int64{1, 1} }},
		{"date in past", func(r *create_booking.Request) { r.Date = day.AddDate(0, 0, -1) }},
		{"missing date", func(r *create_booking.Request) { r.Date = time.Time{} }},
		{"bad time", func(r *create_booking.Request) { r.Time = ptr.Ptr(types.TimeString("25:99")) }},
		{"time already passed today", func(r *create_booking.Request) { r.Time = ptr.Ptr(types.MustTimeString("07:00")) }},
		{"time equal to now", func(r *create_booking.Request) { r.Time = ptr.Ptr(types.MustTimeString("08:00")) }},
		{"long message", func(r *create_booking.Request) {
			long := make([]byte, domain.MaxMessageLength+1)
			for i := range long {
				long[i] = 'a'
			}
			r.Message = ptr.Ptr(string(long))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validRequest(1)
			tt.mutate(req)

			_, err := f.uc.Execute(context.Background(), req)
			require.ErrorIs(t, err, create_booking.ErrInvalidInput)
			assert.Equal(t, 0, f.store.AppointmentCount())
		})
	}
}

func TestExecute_ReferenceCollisionRetriedOnce(t *testing.T) {
	f := newFixture(t)
	f.seedSlot(1, "14:00")
	f.seedSlot(1, "15:00")

	first, err := f.uc.WithReferenceGenerator(func() string { return "TAKEN001" }).
		Execute(context.Background(), validRequest(1))
	require.NoError(t, err)
	require.Equal(t, "TAKEN001", first.BookingReference)

	refs := []string{"TAKEN001", "FRESH002"}
	calls := 0
	f.uc.WithReferenceGenerator(func() string {
		ref := refs[calls]
		calls++
		return ref
	})

	req := validRequest(1)
	req.Time = ptr.Ptr(types.MustTimeString("15:00"))
	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "FRESH002", resp.BookingReference)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, f.store.AppointmentCount())
}

func TestExecute_ReferenceCollisionTwiceIsInternal(t *testing.T) {
	f := newFixture(t)
	f.seedSlot(1, "14:00")
	f.seedSlot(1, "15:00")
	f.uc.WithReferenceGenerator(func() string { return "SAMEREF1" })

	_, err := f.uc.Execute(context.Background(), validRequest(1))
	require.NoError(t, err)

	req := validRequest(1)
	req.Time = ptr.Ptr(types.MustTimeString("15:00"))
	_, err = f.uc.Execute(context.Background(), req)
	require.ErrorIs(t, err, create_booking.ErrInternal)
	assert.Equal(t, 1, f.store.AppointmentCount())
}

func TestExecute_StorageFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(1, "14:00")
	f.store.SetCreateHook(func(*domain.Appointment) error { return errors.New("disk full") })

	_, err := f.uc.Execute(context.Background(), validRequest(1))
	require.ErrorIs(t, err, create_booking.ErrInternal)
	assert.True(t, f.slot(t, slot).IsOpen())
	assert.Equal(t, 0, f.store.AppointmentCount())
	assert.Equal(t, []string{metrics.BookingResultError}, f.metrics.results)
}

func TestExecute_EarlyTimeOnFutureDateAccepted(t *testing.T) {
	f := newFixture(t)
	tomorrow := day.AddDate(0, 0, 1)
	f.store.Slots().Seed(domain.AppointmentSlot{
		ServiceID:   1,
		Date:        tomorrow,
		StartTime:   types.MustTimeString("07:00"),
		EndTime:     types.MustTimeString("08:00"),
		IsAvailable: true,
	})

	req := validRequest(1)
	req.Date = tomorrow
	req.Time = ptr.Ptr(types.MustTimeString("07:00"))

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "07:00", resp.Time.String())
}

func TestExecute_TimeWithSecondsNormalized(t *testing.T) {
	f := newFixture(t)
	f.seedSlot(1, "14:00")

	req := validRequest(1)
	req.Time = ptr.Ptr(types.TimeString("14:00:00"))

	resp, err := f.uc.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.Time)
	assert.Equal(t, "14:00", resp.Time.String())
}

// conflictOnCommit выполняет работу в памяти и отвечает так же,
// как PostgreSQL при конфликте сериализуемых транзакций на фиксации
type conflictOnCommit struct {
	inner *memory.TxManager
}

func (c conflictOnCommit) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.inner.DoSerializable(ctx, func(txCtx context.Context) error {
		if err := fn(txCtx); err != nil {
			return err
		}
		driverErr := &pq.Error{Code: "40001", Message: "could not serialize access due to concurrent update"}
		return fmt.Errorf("%w: %w", txmanager.ErrSerialization,
			fmt.Errorf("%w: %w", txmanager.ErrCommitTx, driverErr))
	})
}

func TestExecute_SerializationFailureIsConflict(t *testing.T) {
	f := newFixture(t)
	slot := f.seedSlot(1, "14:00")

	uc := create_booking.NewUseCase(
		f.store.Appointments(),
		f.store.Slots(),
		f.store.Catalog(),
		conflictOnCommit{inner: memory.NewTxManager(f.store)},
		f.metrics,
		time.UTC,
		logger.Nop(),
	).WithTimeProvider(fixedTime{now: day.Add(8 * time.Hour)})

	_, err := uc.Execute(context.Background(), validRequest(1))
	require.ErrorIs(t, err, create_booking.ErrSlotNotAvailable)
	assert.NotErrorIs(t, err, create_booking.ErrInternal)
	assert.True(t, f.slot(t, slot).IsOpen())
	assert.Equal(t, 0, f.store.AppointmentCount())
	assert.Equal(t, []string{metrics.BookingResultConflict}, f.metrics.results)
}
