package create_booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
	appointmentRepo "github.com/m04kA/salon-booking/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/pkg/metrics"
	"github.com/m04kA/salon-booking/pkg/txmanager"
)

// maxAttempts одна повторная попытка при коллизии booking_reference
const maxAttempts = 2

// UseCase use case для создания записи на одну или несколько услуг
type UseCase struct {
	appointmentRepo AppointmentRepository
	slotRepo        SlotRepository
	catalog         CatalogProvider
	txManager       TransactionManager
	metrics         MetricsRecorder
	location        *time.Location
	timeProvider    TimeProvider
	newReference    func() string
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	slotRepo SlotRepository,
	catalog CatalogProvider,
	txManager TransactionManager,
	metrics MetricsRecorder,
	location *time.Location,
	logger Logger,
) *UseCase {
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		catalog:         catalog,
		txManager:       txManager,
		metrics:         metrics,
		location:        location,
		timeProvider:    &RealTimeProvider{},
		newReference:    domain.NewBookingReference,
		logger:          logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// WithReferenceGenerator подменяет генератор кодов бронирования (для тестов)
func (uc *UseCase) WithReferenceGenerator(gen func() string) *UseCase {
	uc.newReference = gen
	return uc
}

// Execute выполняет use case создания записи.
// Все изменения выполняются в одной сериализуемой транзакции: либо запись создана целиком
// и слоты удерживаются, либо не изменено ничего.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if req != nil {
		normalizeRequest(req)
	}
	now := uc.timeProvider.Now().In(uc.location)
	if err := validateRequest(req, now); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		uc.record(metrics.BookingResultInvalid)
		return nil, err
	}

	date := domain.DateOf(req.Date)
	uc.logger.Info("CreateBooking: services=%v, date=%s, time=%s, email=%s",
		req.ServiceIDs, date.Format(domain.DateFormat), timeOrCall(req), req.Email)

	// 2. Создаем запись, при коллизии кода бронирования повторяем один раз
	var (
		result *domain.Appointment
		err    error
	)
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err = uc.create(ctx, req, date)
		if !errors.Is(err, appointmentRepo.ErrDuplicateReference) {
			break
		}
		uc.logger.Warn("CreateBooking: booking reference collision, attempt %d/%d", attempt, maxAttempts)
	}

	if err != nil {
		return nil, uc.fail(err)
	}

	uc.record(metrics.BookingResultCreated)
	uc.logger.Info("CreateBooking: created appointment ref=%s, services=%d, total=%s",
		result.BookingReference, len(result.Services), result.TotalPrice.StringFixed(2))

	return toResponse(result), nil
}

// create одна попытка создания записи в транзакции
func (uc *UseCase) create(ctx context.Context, req *Request, date time.Time) (*domain.Appointment, error) {
	var result *domain.Appointment

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 2.1. Загружаем услуги, все должны существовать и быть активными
		services, err := uc.loadServices(txCtx, req.ServiceIDs)
		if err != nil {
			return err
		}

		// 2.2. Блокируем слот каждой услуги в порядке запроса и проверяем, что он свободен
		var slots []*domain.AppointmentSlot
		if req.Time != nil {
			slots = make([]*domain.AppointmentSlot, 0, len(services))
			for _, svc := range services {
				slot, err := uc.lockSlot(txCtx, svc, date, req)
				if err != nil {
					return err
				}
				slots = append(slots, slot)
			}
		}

		// 2.3. Создаем запись
		appointment := &domain.Appointment{
			BookingReference: uc.newReference(),
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			Email:            req.Email,
			Phone:            req.Phone,
			Message:          req.Message,
			PreferredDate:    date,
			PreferredTime:    req.Time,
			Status:           domain.StatusPending,
		}
		appointment.ApplyTotals(domain.CalculateTotals(services))

		created, err := uc.appointmentRepo.Create(txCtx, appointment)
		if err != nil {
			if errors.Is(err, appointmentRepo.ErrDuplicateReference) {
				return err
			}
			uc.logger.Error("CreateBooking: failed to create appointment: %v", err)
			return fmt.Errorf("%w: failed to create appointment: %w", ErrInternal, err)
		}

		// 2.4. Строки appointment_services
		for _, svc := range services {
			if err := uc.appointmentRepo.AddService(txCtx, created.ID, svc.ID); err != nil {
				uc.logger.Error("CreateBooking: failed to add service=%d: %v", svc.ID, err)
				return fmt.Errorf("%w: failed to add service: %w", ErrInternal, err)
			}
		}

		// 2.5. Удерживаем слоты и связываем запись со слотом первой услуги
		for i, slot := range slots {
			if err := uc.slotRepo.Hold(txCtx, slot.ID, created.ID); err != nil {
				if errors.Is(err, slotRepo.ErrSlotNotAvailable) {
					uc.logger.Warn("CreateBooking: slot id=%d was taken concurrently", slot.ID)
					return conflictFor(services[i], date, req)
				}
				uc.logger.Error("CreateBooking: failed to hold slot id=%d: %v", slot.ID, err)
				return fmt.Errorf("%w: failed to hold slot: %w", ErrInternal, err)
			}
		}
		if len(slots) > 0 {
			if err := uc.appointmentRepo.UpdateSlotLink(txCtx, created.ID, &slots[0].ID); err != nil {
				uc.logger.Error("CreateBooking: failed to link slot: %v", err)
				return fmt.Errorf("%w: failed to link slot: %w", ErrInternal, err)
			}
			created.AppointmentSlotID = &slots[0].ID
		}

		// 2.6. Пересчитываем итоги по сохраненным строкам
		links, err := uc.appointmentRepo.ListServices(txCtx, created.ID)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to list services: %v", err)
			return fmt.Errorf("%w: failed to list services: %w", ErrInternal, err)
		}
		totals := domain.TotalsOf(links)
		if err := uc.appointmentRepo.UpdateTotals(txCtx, created.ID, totals); err != nil {
			uc.logger.Error("CreateBooking: failed to update totals: %v", err)
			return fmt.Errorf("%w: failed to update totals: %w", ErrInternal, err)
		}
		created.ApplyTotals(totals)
		created.Services = links

		result = created
		return nil
	})

	return result, err
}

// loadServices возвращает услуги в порядке запроса
func (uc *UseCase) loadServices(ctx context.Context, ids []int64) ([]*domain.Service, error) {
	found, err := uc.catalog.GetServicesByIDs(ctx, ids)
	if err != nil {
		uc.logger.Error("CreateBooking: failed to get services: %v", err)
		return nil, fmt.Errorf("%w: failed to get services: %w", ErrInternal, err)
	}

	byID := domain.ServicesByID(found)
	services := make([]*domain.Service, 0, len(ids))
	for _, id := range ids {
		svc, ok := byID[id]
		if !ok || !svc.IsActive {
			uc.logger.Warn("CreateBooking: service id=%d not found or inactive", id)
			return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
		}
		services = append(services, svc)
	}
	return services, nil
}

// lockSlot читает слот услуги с блокировкой и проверяет, что он свободен
func (uc *UseCase) lockSlot(ctx context.Context, svc *domain.Service, date time.Time, req *Request) (*domain.AppointmentSlot, error) {
	slot, err := uc.slotRepo.GetByKey(ctx, svc.ID, date, *req.Time)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			uc.logger.Warn("CreateBooking: no slot for service=%d at %s %s", svc.ID, date.Format(domain.DateFormat), *req.Time)
			return nil, conflictFor(svc, date, req)
		}
		uc.logger.Error("CreateBooking: failed to get slot for service=%d: %v", svc.ID, err)
		return nil, fmt.Errorf("%w: failed to get slot: %w", ErrInternal, err)
	}

	if !slot.IsOpen() {
		uc.logger.Warn("CreateBooking: slot id=%d for service=%d is not open (available=%t, booked=%t, held=%t)",
			slot.ID, svc.ID, slot.IsAvailable, slot.IsBooked, slot.AppointmentID != nil)
		return nil, conflictFor(svc, date, req)
	}

	return slot, nil
}

// fail переводит ошибку попытки в ошибку use case и учитывает ее в метриках
func (uc *UseCase) fail(err error) error {
	switch {
	case errors.Is(err, ErrSlotNotAvailable):
		uc.record(metrics.BookingResultConflict)
		return err
	case errors.Is(err, txmanager.ErrSerialization):
		uc.record(metrics.BookingResultConflict)
		uc.logger.Warn("CreateBooking: concurrent booking detected: %v", err)
		return fmt.Errorf("%w: concurrent booking, try another time", ErrSlotNotAvailable)
	case errors.Is(err, ErrServiceNotFound), errors.Is(err, ErrInvalidInput):
		uc.record(metrics.BookingResultInvalid)
		return err
	case errors.Is(err, appointmentRepo.ErrDuplicateReference):
		uc.record(metrics.BookingResultError)
		uc.logger.Error("CreateBooking: booking reference collided %d times", maxAttempts)
		return fmt.Errorf("%w: could not allocate booking reference", ErrInternal)
	case errors.Is(err, ErrInternal):
		uc.record(metrics.BookingResultError)
		return err
	default:
		uc.record(metrics.BookingResultError)
		uc.logger.Error("CreateBooking: transaction error: %v", err)
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
}

func (uc *UseCase) record(result string) {
	if uc.metrics != nil {
		uc.metrics.IncBooking(result)
	}
}

func conflictFor(svc *domain.Service, date time.Time, req *Request) *ConflictError {
	return &ConflictError{
		ServiceID:   svc.ID,
		ServiceName: svc.Name,
		Date:        date.Format(domain.DateFormat),
		Time:        req.Time.String(),
	}
}

func timeOrCall(req *Request) string {
	if req.Time == nil {
		return "call-to-confirm"
	}
	return req.Time.String()
}

func toResponse(a *domain.Appointment) *Response {
	resp := &Response{
		BookingReference: a.BookingReference,
		Status:           string(a.Status),
		FirstName:        a.FirstName,
		LastName:         a.LastName,
		Email:            a.Email,
		Phone:            a.Phone,
		Date:             a.PreferredDate,
		Time:             a.PreferredTime,
		CallToConfirm:    !a.HasTime(),
		TotalDuration:    a.TotalDuration,
		TotalPrice:       a.TotalPrice,
		Services:         make([]ServiceItem, 0, len(a.Services)),
		CreatedAt:        a.CreatedAt,
	}
	for _, s := range a.Services {
		resp.Services = append(resp.Services, ServiceItem{
			ServiceID:       s.ServiceID,
			Name:            s.ServiceName,
			Price:           s.Price,
			DurationMinutes: s.DurationMinutes,
		})
	}
	return resp
}
