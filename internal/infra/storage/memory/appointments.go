package memory

import (
	"context"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	appointmentRepo "github.com/m04kA/salon-booking/internal/infra/storage/appointment"
	"github.com/m04kA/salon-booking/pkg/types"
)

// AppointmentRepository in-memory аналог appointment.Repository
type AppointmentRepository struct {
	store *Store
}

func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.store.createHook != nil {
		if err := r.store.createHook(a); err != nil {
			return nil, err
		}
	}

	for _, existing := range r.store.appointments {
		if existing.BookingReference == a.BookingReference {
			return nil, appointmentRepo.ErrDuplicateReference
		}
	}

	r.store.nextAppointmentID++
	a.ID = r.store.nextAppointmentID
	a.PreferredDate = domain.DateOf(a.PreferredDate)
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	stored := *a
	stored.Services = nil
	r.store.appointments[a.ID] = &stored

	return a, nil
}

func (r *AppointmentRepository) GetByReference(ctx context.Context, reference string) (*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.store.appointments {
		if a.BookingReference == reference {
			return r.load(a), nil
		}
	}
	return nil, appointmentRepo.ErrAppointmentNotFound
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return nil, appointmentRepo.ErrAppointmentNotFound
	}
	return r.load(a), nil
}

func (r *AppointmentRepository) ListServices(ctx context.Context, appointmentID int64) ([]domain.AppointmentService, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.services(appointmentID), nil
}

func (r *AppointmentRepository) AddService(ctx context.Context, appointmentID, serviceID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, l := range r.store.links {
		if l.AppointmentID == appointmentID && l.ServiceID == serviceID {
			return appointmentRepo.ErrServiceAlreadyAdded
		}
	}

	r.store.nextLinkID++
	r.store.links = append(r.store.links, domain.AppointmentService{
		ID:            r.store.nextLinkID,
		AppointmentID: appointmentID,
		ServiceID:     serviceID,
	})
	return nil
}

func (r *AppointmentRepository) RemoveService(ctx context.Context, appointmentID, serviceID int64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i, l := range r.store.links {
		if l.AppointmentID == appointmentID && l.ServiceID == serviceID {
			r.store.links = append(r.store.links[:i:i], r.store.links[i+1:]...)
			return nil
		}
	}
	return appointmentRepo.ErrServiceNotLinked
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	return r.update(id, func(a *domain.Appointment) { a.Status = status })
}

func (r *AppointmentRepository) UpdateTotals(ctx context.Context, id int64, totals domain.Totals) error {
	return r.update(id, func(a *domain.Appointment) { a.ApplyTotals(totals) })
}

func (r *AppointmentRepository) UpdateSlotLink(ctx context.Context, id int64, slotID *int64) error {
	return r.update(id, func(a *domain.Appointment) {
		if slotID == nil {
			a.AppointmentSlotID = nil
			return
		}
		v := *slotID
		a.AppointmentSlotID = &v
	})
}

func (r *AppointmentRepository) UpdatePreferredTime(ctx context.Context, id int64, preferredTime types.TimeString) error {
	return r.update(id, func(a *domain.Appointment) {
		t := preferredTime
		a.PreferredTime = &t
	})
}

func (r *AppointmentRepository) update(id int64, apply func(a *domain.Appointment)) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.appointments[id]
	if !ok {
		return appointmentRepo.ErrAppointmentNotFound
	}
	apply(a)
	a.UpdatedAt = time.Now()
	return nil
}

// load копирует запись и подгружает услуги, вызывается под блокировкой
func (r *AppointmentRepository) load(a *domain.Appointment) *domain.Appointment {
	c := *a
	c.Services = r.services(a.ID)
	return &c
}

func (r *AppointmentRepository) services(appointmentID int64) []domain.AppointmentService {
	result := make([]domain.AppointmentService, 0)
	for _, l := range r.store.links {
		if l.AppointmentID != appointmentID {
			continue
		}
		if svc, ok := r.store.services[l.ServiceID]; ok {
			l.ServiceName = svc.Name
			l.Price = svc.Price
			l.DurationMinutes = svc.DurationMinutes
		}
		result = append(result, l)
	}
	return result
}
