package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/internal/service/availability/models"
	"github.com/m04kA/salon-booking/pkg/types"
)

// Service отвечает на запросы о свободном времени. Ничего не изменяет.
type Service struct {
	slotRepo     SlotRepository
	catalog      CatalogProvider
	horizonDays  int
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewService создает новый экземпляр сервиса доступности
func NewService(
	slotRepo SlotRepository,
	catalog CatalogProvider,
	horizonDays int,
	location *time.Location,
	logger Logger,
) *Service {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultHorizonDays
	}
	if location == nil {
		location = time.UTC
	}
	return &Service{
		slotRepo:     slotRepo,
		catalog:      catalog,
		horizonDays:  horizonDays,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (s *Service) WithTimeProvider(tp TimeProvider) *Service {
	s.timeProvider = tp
	return s
}

// Today возвращает текущую дату в часовом поясе салона
func (s *Service) Today() time.Time {
	return domain.Today(s.timeProvider.Now(), s.location)
}

// AvailableSlots возвращает свободные слоты услуги в диапазоне дат, упорядоченные по (date, start_time).
// По умолчанию диапазон [сегодня, сегодня + горизонт].
func (s *Service) AvailableSlots(ctx context.Context, serviceID int64, from, to *time.Time) ([]*domain.AppointmentSlot, error) {
	filter, err := s.openFilter([]int64{serviceID}, from, to)
	if err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("AvailableSlots: repository error for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: AvailableSlots - repository error: %w", ErrInternal, err)
	}

	return slots, nil
}

// AvailableDates возвращает даты, на которые у услуги есть хотя бы один свободный слот
func (s *Service) AvailableDates(ctx context.Context, serviceID int64, from, to *time.Time) ([]time.Time, error) {
	filter, err := s.openFilter([]int64{serviceID}, from, to)
	if err != nil {
		return nil, err
	}

	dates, err := s.slotRepo.ListDates(ctx, filter)
	if err != nil {
		s.logger.Error("AvailableDates: repository error for service=%d: %v", serviceID, err)
		return nil, fmt.Errorf("%w: AvailableDates - repository error: %w", ErrInternal, err)
	}

	return dates, nil
}

// IsSlotAvailable проверяет конкретный слот. Отсутствие слота означает "недоступен", а не ошибку.
func (s *Service) IsSlotAvailable(ctx context.Context, serviceID int64, date time.Time, startTime types.TimeString) (bool, error) {
	slot, err := s.slotRepo.GetByKey(ctx, serviceID, domain.DateOf(date), startTime)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return false, nil
		}
		s.logger.Error("IsSlotAvailable: repository error for service=%d, date=%s, time=%s: %v",
			serviceID, date.Format(domain.DateFormat), startTime, err)
		return false, fmt.Errorf("%w: IsSlotAvailable - repository error: %w", ErrInternal, err)
	}

	return slot.IsOpen(), nil
}

// CheckServicesAvailable проверяет, что у каждой услуги свободен слот на дату и время.
// Возвращает первую (в порядке запроса) услугу, у которой слот недоступен.
func (s *Service) CheckServicesAvailable(ctx context.Context, serviceIDs []int64, date time.Time, startTime types.TimeString) (*models.AvailabilityResult, error) {
	ids := uniqueIDs(serviceIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}

	for _, id := range ids {
		available, err := s.IsSlotAvailable(ctx, id, date, startTime)
		if err != nil {
			return nil, err
		}
		if !available {
			unavailable := id
			s.logger.Info("CheckServicesAvailable: service=%d has no free slot at %s %s",
				id, date.Format(domain.DateFormat), startTime)
			return &models.AvailabilityResult{Available: false, UnavailableServiceID: &unavailable}, nil
		}
	}

	return &models.AvailabilityResult{Available: true}, nil
}

// SlotsForServices возвращает время на дату, когда свободны все выбранные услуги.
// Если такого времени нет, возвращает объединение по услугам с Tentative = true.
// Неизвестные и неактивные услуги считаются недоступными.
func (s *Service) SlotsForServices(ctx context.Context, serviceIDs []int64, date time.Time) (*models.SlotsResult, error) {
	date = domain.DateOf(date)

	ids, known, names, err := s.resolveServices(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	result := &models.SlotsResult{
		Date:        date.Format(domain.DateFormat),
		DisplayDate: date.Format(domain.DisplayDateFormat),
		Slots:       make([]models.SlotOption, 0),
	}
	if len(known) == 0 {
		return result, nil
	}

	slots, err := s.slotRepo.List(ctx, domain.SlotFilter{
		ServiceIDs: known,
		DateFrom:   &date,
		DateTo:     &date,
		OnlyOpen:   true,
	})
	if err != nil {
		s.logger.Error("SlotsForServices: repository error for date=%s: %v", date.Format(domain.DateFormat), err)
		return nil, fmt.Errorf("%w: SlotsForServices - repository error: %w", ErrInternal, err)
	}

	byStart := groupByStart(slots)

	starts := sortedStarts(byStart)
	for _, start := range starts {
		perService := byStart[start]
		if len(perService) == len(ids) {
			slot := perService[ids[0]]
			result.Slots = append(result.Slots, models.FromSlot(slot, names[slot.ServiceID]))
		}
	}

	if len(result.Slots) == 0 && len(starts) > 0 {
		result.Tentative = true
		for _, start := range starts {
			slot := firstInOrder(byStart[start], ids)
			result.Slots = append(result.Slots, models.FromSlot(slot, names[slot.ServiceID]))
		}
		s.logger.Info("SlotsForServices: no common time for services=%v on %s, returning %d tentative times",
			ids, date.Format(domain.DateFormat), len(result.Slots))
	}

	return result, nil
}

// DatesForServices возвращает даты горизонта, на которые есть общее свободное время для всех услуг.
// Если таких дат нет, возвращает объединение дат по услугам с Tentative = true.
func (s *Service) DatesForServices(ctx context.Context, serviceIDs []int64) (*models.DatesResult, error) {
	ids, known, _, err := s.resolveServices(ctx, serviceIDs)
	if err != nil {
		return nil, err
	}

	result := &models.DatesResult{Dates: make([]models.DateOption, 0)}
	if len(known) == 0 {
		return result, nil
	}

	filter, err := s.openFilter(known, nil, nil)
	if err != nil {
		return nil, err
	}

	slots, err := s.slotRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error("DatesForServices: repository error for services=%v: %v", ids, err)
		return nil, fmt.Errorf("%w: DatesForServices - repository error: %w", ErrInternal, err)
	}

	// дата -> время -> услуги
	byDate := make(map[time.Time]map[types.TimeString]map[int64]*domain.AppointmentSlot)
	for _, slot := range slots {
		if byDate[slot.Date] == nil {
			byDate[slot.Date] = make(map[types.TimeString]map[int64]*domain.AppointmentSlot)
		}
		day := byDate[slot.Date]
		if day[slot.StartTime] == nil {
			day[slot.StartTime] = make(map[int64]*domain.AppointmentSlot)
		}
		day[slot.StartTime][slot.ServiceID] = slot
	}

	allDates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		allDates = append(allDates, date)
	}
	sort.Slice(allDates, func(i, j int) bool { return allDates[i].Before(allDates[j]) })

	for _, date := range allDates {
		for _, perService := range byDate[date] {
			if len(perService) == len(ids) {
				result.Dates = append(result.Dates, models.FromDate(date))
				break
			}
		}
	}

	if len(result.Dates) == 0 && len(allDates) > 0 {
		result.Tentative = true
		for _, date := range allDates {
			result.Dates = append(result.Dates, models.FromDate(date))
		}
		s.logger.Info("DatesForServices: no common dates for services=%v, returning %d tentative dates", ids, len(allDates))
	}

	return result, nil
}

// IsBusinessDay проверяет, работает ли салон в указанную дату
func (s *Service) IsBusinessDay(ctx context.Context, date time.Time) (bool, error) {
	hours, err := s.catalog.GetBusinessHours(ctx)
	if err != nil {
		s.logger.Error("IsBusinessDay: failed to get business hours: %v", err)
		return false, fmt.Errorf("%w: IsBusinessDay - catalog error: %w", ErrInternal, err)
	}
	return hours.IsOpenOn(date), nil
}

// openFilter собирает фильтр свободных слотов с диапазоном по умолчанию
func (s *Service) openFilter(serviceIDs []int64, from, to *time.Time) (domain.SlotFilter, error) {
	start := s.Today()
	if from != nil {
		start = domain.DateOf(*from)
	}
	end := start.AddDate(0, 0, s.horizonDays)
	if to != nil {
		end = domain.DateOf(*to)
	}
	if end.Before(start) {
		return domain.SlotFilter{}, fmt.Errorf("%w: date range end %s is before start %s",
			ErrInvalidInput, end.Format(domain.DateFormat), start.Format(domain.DateFormat))
	}

	return domain.SlotFilter{
		ServiceIDs: serviceIDs,
		DateFrom:   &start,
		DateTo:     &end,
		OnlyOpen:   true,
	}, nil
}

// resolveServices возвращает запрошенные id без повторов (в порядке запроса),
// из них существующие и активные услуги, и названия этих услуг.
func (s *Service) resolveServices(ctx context.Context, serviceIDs []int64) (ids, known []int64, names map[int64]string, err error) {
	ids = uniqueIDs(serviceIDs)
	if len(ids) == 0 {
		return nil, nil, nil, fmt.Errorf("%w: at least one service is required", ErrInvalidInput)
	}

	services, err := s.catalog.GetServicesByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("resolveServices: catalog error for services=%v: %v", ids, err)
		return nil, nil, nil, fmt.Errorf("%w: resolveServices - catalog error: %w", ErrInternal, err)
	}

	byID := domain.ServicesByID(services)
	known = make([]int64, 0, len(ids))
	names = make(map[int64]string, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok || !svc.IsActive {
			s.logger.Warn("resolveServices: service id=%d not found or inactive, treated as unavailable", id)
			continue
		}
		known = append(known, id)
		names[id] = svc.Name
	}

	return ids, known, names, nil
}

func groupByStart(slots []*domain.AppointmentSlot) map[types.TimeString]map[int64]*domain.AppointmentSlot {
	byStart := make(map[types.TimeString]map[int64]*domain.AppointmentSlot)
	for _, slot := range slots {
		if byStart[slot.StartTime] == nil {
			byStart[slot.StartTime] = make(map[int64]*domain.AppointmentSlot)
		}
		byStart[slot.StartTime][slot.ServiceID] = slot
	}
	return byStart
}

func sortedStarts(byStart map[types.TimeString]map[int64]*domain.AppointmentSlot) []types.TimeString {
	starts := make([]types.TimeString, 0, len(byStart))
	for start := range byStart {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].IsBefore(starts[j]) })
	return starts
}

// firstInOrder возвращает слот первой услуги из ids, у которой он есть
func firstInOrder(perService map[int64]*domain.AppointmentSlot, ids []int64) *domain.AppointmentSlot {
	for _, id := range ids {
		if slot, ok := perService[id]; ok {
			return slot
		}
	}
	return nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	result := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
