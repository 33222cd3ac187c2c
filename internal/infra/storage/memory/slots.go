package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/pkg/types"
)

// SlotRepository in-memory аналог slot.Repository
type SlotRepository struct {
	store *Store
}

// Seed добавляет слот напрямую и возвращает его ID
func (r *SlotRepository) Seed(slot domain.AppointmentSlot) int64 {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	r.store.nextSlotID++
	slot.ID = r.store.nextSlotID
	slot.Date = domain.DateOf(slot.Date)
	r.store.slots[slot.ID] = &slot
	return slot.ID
}

func (r *SlotRepository) CreateBatch(ctx context.Context, slots []domain.AppointmentSlot) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing := make(map[domain.SlotKey]struct{}, len(r.store.slots))
	for _, s := range r.store.slots {
		existing[s.Key()] = struct{}{}
	}

	created := 0
	for _, s := range slots {
		s.Date = domain.DateOf(s.Date)
		if _, ok := existing[s.Key()]; ok {
			continue
		}
		r.store.nextSlotID++
		s.ID = r.store.nextSlotID
		s.IsBooked = false
		s.AppointmentID = nil
		slot := s
		r.store.slots[slot.ID] = &slot
		existing[slot.Key()] = struct{}{}
		created++
	}

	return created, nil
}

func (r *SlotRepository) DeleteAll(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := len(r.store.slots)
	r.store.slots = make(map[int64]*domain.AppointmentSlot)
	for _, a := range r.store.appointments {
		a.AppointmentSlotID = nil
	}
	return n, nil
}

func (r *SlotRepository) List(ctx context.Context, filter domain.SlotFilter) ([]*domain.AppointmentSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.AppointmentSlot, 0)
	for _, s := range r.store.slots {
		if matches(s, filter) {
			c := r.withName(s)
			result = append(result, &c)
		}
	}
	sortSlots(result)
	return result, nil
}

func (r *SlotRepository) ListDates(ctx context.Context, filter domain.SlotFilter) ([]time.Time, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	seen := make(map[time.Time]struct{})
	dates := make([]time.Time, 0)
	for _, s := range r.store.slots {
		if !matches(s, filter) {
			continue
		}
		if _, ok := seen[s.Date]; ok {
			continue
		}
		seen[s.Date] = struct{}{}
		dates = append(dates, s.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

func (r *SlotRepository) GetByKey(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (*domain.AppointmentSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	date = domain.DateOf(date)
	for _, s := range r.store.slots {
		if s.ServiceID == serviceID && s.Date.Equal(date) && s.StartTime.Equal(startTime) {
			c := r.withName(s)
			return &c, nil
		}
	}
	return nil, slotRepo.ErrSlotNotFound
}

func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*domain.AppointmentSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[id]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	c := r.withName(s)
	return &c, nil
}

func (r *SlotRepository) ListByAppointment(ctx context.Context, appointmentID int64) ([]*domain.AppointmentSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	result := make([]*domain.AppointmentSlot, 0)
	for _, s := range r.store.slots {
		if s.IsHeldBy(appointmentID) {
			c := r.withName(s)
			result = append(result, &c)
		}
	}
	sortSlots(result)
	return result, nil
}

func (r *SlotRepository) Hold(ctx context.Context, slotID, appointmentID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[slotID]
	if !ok || !s.IsOpen() {
		return slotRepo.ErrSlotNotAvailable
	}
	id := appointmentID
	s.AppointmentID = &id
	return nil
}

func (r *SlotRepository) Claim(ctx context.Context, slotID, appointmentID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[slotID]
	if !ok || !s.CanBeClaimedBy(appointmentID) {
		return slotRepo.ErrSlotNotAvailable
	}
	id := appointmentID
	s.AppointmentID = &id
	s.IsBooked = true
	return nil
}

func (r *SlotRepository) Release(ctx context.Context, slotID, appointmentID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if s, ok := r.store.slots[slotID]; ok && s.IsHeldBy(appointmentID) {
		s.AppointmentID = nil
		s.IsBooked = false
	}
	return nil
}

func (r *SlotRepository) ReleaseByAppointment(ctx context.Context, appointmentID int64) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	released := 0
	for _, s := range r.store.slots {
		if s.IsHeldBy(appointmentID) {
			s.AppointmentID = nil
			s.IsBooked = false
			released++
		}
	}
	return released, nil
}

func (r *SlotRepository) SetAvailability(ctx context.Context, slotID int64, available bool) (*domain.AppointmentSlot, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	s, ok := r.store.slots[slotID]
	if !ok {
		return nil, slotRepo.ErrSlotNotFound
	}
	s.IsAvailable = available
	c := r.withName(s)
	return &c, nil
}

// withName копирует слот и подставляет название услуги, вызывается под блокировкой
func (r *SlotRepository) withName(s *domain.AppointmentSlot) domain.AppointmentSlot {
	c := copySlot(s)
	if svc, ok := r.store.services[s.ServiceID]; ok {
		c.ServiceName = svc.Name
	}
	return c
}

func matches(s *domain.AppointmentSlot, filter domain.SlotFilter) bool {
	if len(filter.ServiceIDs) > 0 {
		found := false
		for _, id := range filter.ServiceIDs {
			if s.ServiceID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.DateFrom != nil && s.Date.Before(domain.DateOf(*filter.DateFrom)) {
		return false
	}
	if filter.DateTo != nil && s.Date.After(domain.DateOf(*filter.DateTo)) {
		return false
	}
	if filter.OnlyOpen && !s.IsOpen() {
		return false
	}
	return true
}

func sortSlots(slots []*domain.AppointmentSlot) {
	sort.Slice(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.IsBefore(b.StartTime)
		}
		return a.ServiceID < b.ServiceID
	})
}
