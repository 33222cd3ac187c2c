// Package memory реализует репозитории и менеджер транзакций в памяти процесса.
// Используется в тестах usecase и сервисов вместо PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/m04kA/salon-booking/internal/domain"
)

// Store общее состояние in-memory хранилища
type Store struct {
	mu sync.Mutex

	services map[int64]*domain.Service
	hours    domain.BusinessHours

	slots      map[int64]*domain.AppointmentSlot
	nextSlotID int64

	appointments      map[int64]*domain.Appointment
	nextAppointmentID int64

	links      []domain.AppointmentService
	nextLinkID int64

	// createHook вызывается перед вставкой записи, ошибка прерывает вставку
	createHook func(a *domain.Appointment) error
}

// NewStore создает пустое хранилище
func NewStore() *Store {
	return &Store{
		services:     make(map[int64]*domain.Service),
		hours:        make(domain.BusinessHours),
		slots:        make(map[int64]*domain.AppointmentSlot),
		appointments: make(map[int64]*domain.Appointment),
	}
}

// AddService добавляет услугу в каталог
func (s *Store) AddService(svc domain.Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[svc.ID] = &svc
}

// SetBusinessHours заменяет часы работы
func (s *Store) SetBusinessHours(hours domain.BusinessHours) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hours = hours
}

// SetCreateHook задает функцию, вызываемую перед вставкой каждой записи
func (s *Store) SetCreateHook(hook func(a *domain.Appointment) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createHook = hook
}

// Slots представление хранилища как репозитория слотов
func (s *Store) Slots() *SlotRepository {
	return &SlotRepository{store: s}
}

// Appointments представление хранилища как репозитория записей
func (s *Store) Appointments() *AppointmentRepository {
	return &AppointmentRepository{store: s}
}

// Catalog представление хранилища как каталога
func (s *Store) Catalog() *CatalogRepository {
	return &CatalogRepository{store: s}
}

// AllSlots возвращает копии всех слотов (для проверок в тестах)
func (s *Store) AllSlots() []domain.AppointmentSlot {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]domain.AppointmentSlot, 0, len(s.slots))
	for _, slot := range s.slots {
		result = append(result, copySlot(slot))
	}
	return result
}

// AppointmentCount возвращает количество записей
func (s *Store) AppointmentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appointments)
}

// LinkCount возвращает количество строк appointment_services
func (s *Store) LinkCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.links)
}

type snapshot struct {
	slots             map[int64]*domain.AppointmentSlot
	nextSlotID        int64
	appointments      map[int64]*domain.Appointment
	nextAppointmentID int64
	links             []domain.AppointmentService
	nextLinkID        int64
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		slots:             make(map[int64]*domain.AppointmentSlot, len(s.slots)),
		nextSlotID:        s.nextSlotID,
		appointments:      make(map[int64]*domain.Appointment, len(s.appointments)),
		nextAppointmentID: s.nextAppointmentID,
		links:             append([]domain.AppointmentService(nil), s.links...),
		nextLinkID:        s.nextLinkID,
	}
	for id, slot := range s.slots {
		c := copySlot(slot)
		snap.slots[id] = &c
	}
	for id, a := range s.appointments {
		c := *a
		snap.appointments[id] = &c
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.slots = snap.slots
	s.nextSlotID = snap.nextSlotID
	s.appointments = snap.appointments
	s.nextAppointmentID = snap.nextAppointmentID
	s.links = snap.links
	s.nextLinkID = snap.nextLinkID
}

func copySlot(slot *domain.AppointmentSlot) domain.AppointmentSlot {
	c := *slot
	if slot.AppointmentID != nil {
		id := *slot.AppointmentID
		c.AppointmentID = &id
	}
	return c
}

// TxManager последовательно выполняет транзакции и откатывает состояние при ошибке
type TxManager struct {
	store *Store
	mu    sync.Mutex
}

// NewTxManager создает менеджер транзакций над хранилищем
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

type txKey struct{}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.run(ctx, fn)
}

func (m *TxManager) run(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}
