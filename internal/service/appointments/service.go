package appointments

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/salon-booking/internal/domain"
	appointmentRepo "github.com/m04kA/salon-booking/internal/infra/storage/appointment"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/internal/service/appointments/models"
	"github.com/m04kA/salon-booking/pkg/ptr"
	"github.com/m04kA/salon-booking/pkg/txmanager"
	"github.com/m04kA/salon-booking/pkg/types"
)

// Service сервис жизненного цикла записи: статусы, состав услуг, удержание слотов
type Service struct {
	appointmentRepo AppointmentRepository
	slotRepo        SlotRepository
	catalog         CatalogProvider
	txManager       TransactionManager
	metrics         MetricsRecorder
	logger          Logger
}

// NewService создает новый экземпляр сервиса записей
func NewService(
	appointmentRepo AppointmentRepository,
	slotRepo SlotRepository,
	catalog CatalogProvider,
	txManager TransactionManager,
	metrics MetricsRecorder,
	logger Logger,
) *Service {
	return &Service{
		appointmentRepo: appointmentRepo,
		slotRepo:        slotRepo,
		catalog:         catalog,
		txManager:       txManager,
		metrics:         metrics,
		logger:          logger,
	}
}

// GetByReference получает запись по коду бронирования
func (s *Service) GetByReference(ctx context.Context, reference string) (*models.AppointmentResponse, error) {
	s.logger.Info("GetByReference: fetching appointment ref=%s", reference)

	appointment, err := s.appointmentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, s.notFoundOrInternal("GetByReference", reference, err)
	}

	return models.FromDomainAppointment(appointment), nil
}

// ChangeStatus переводит запись в указанный статус (confirmed, completed, cancelled)
func (s *Service) ChangeStatus(ctx context.Context, reference string, status domain.AppointmentStatus, at *types.TimeString) (*models.AppointmentResponse, error) {
	switch status {
	case domain.StatusConfirmed:
		return s.Confirm(ctx, reference, at)
	case domain.StatusCompleted:
		return s.Complete(ctx, reference)
	case domain.StatusCancelled:
		return s.Cancel(ctx, reference)
	default:
		s.logger.Warn("ChangeStatus: unsupported target status=%s for ref=%s", status, reference)
		return nil, fmt.Errorf("%w: unsupported target status %q", ErrInvalidInput, status)
	}
}

// Confirm подтверждает запись: pending -> confirmed.
// Если передано время, оно заменяет выбранное клиентом, старые удержания снимаются.
// На каждую услугу забирается слот (is_booked = true), при конфликте ничего не меняется.
func (s *Service) Confirm(ctx context.Context, reference string, at *types.TimeString) (*models.AppointmentResponse, error) {
	s.logger.Info("Confirm: ref=%s, time=%q", reference, ptr.Value(at))

	if at != nil {
		if err := at.Validate(); err != nil {
			s.logger.Warn("Confirm: invalid time for ref=%s: %v", reference, err)
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		normalized := at.Normalize()
		at = &normalized
	}

	var result *domain.Appointment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Загружаем запись с блокировкой
		appointment, err := s.load(txCtx, "Confirm", reference)
		if err != nil {
			return err
		}

		// 2. Проверяем переход статуса
		if !appointment.Status.CanTransitionTo(domain.StatusConfirmed) {
			s.logger.Warn("Confirm: ref=%s cannot go from %s to confirmed", reference, appointment.Status)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, domain.StatusConfirmed)
		}

		// 3. Определяем время
		target := appointment.PreferredTime
		if at != nil {
			target = at
		}
		if target == nil || target.IsZero() {
			s.logger.Warn("Confirm: ref=%s has no time", reference)
			return ErrTimeRequired
		}

		// 4. Время изменилось - снимаем старые удержания
		if appointment.HasTime() && !appointment.PreferredTime.Equal(*target) {
			released, err := s.slotRepo.ReleaseByAppointment(txCtx, appointment.ID)
			if err != nil {
				return s.internal("Confirm", err)
			}
			s.logger.Info("Confirm: ref=%s time changed %s -> %s, released %d slots",
				reference, *appointment.PreferredTime, *target, released)
		}
		if !appointment.HasTime() || !appointment.PreferredTime.Equal(*target) {
			if err := s.appointmentRepo.UpdatePreferredTime(txCtx, appointment.ID, *target); err != nil {
				return s.internal("Confirm", err)
			}
		}

		// 5. Забираем слот каждой услуги
		var firstSlotID *int64
		for _, svc := range appointment.Services {
			slotID, err := s.takeSlot(txCtx, appointment, svc.ServiceID, svc.ServiceName, *target, true)
			if err != nil {
				return err
			}
			if firstSlotID == nil {
				firstSlotID = &slotID
			}
		}

		// 6. Связь со слотом первой услуги и новый статус
		if err := s.appointmentRepo.UpdateSlotLink(txCtx, appointment.ID, firstSlotID); err != nil {
			return s.internal("Confirm", err)
		}
		if err := s.appointmentRepo.UpdateStatus(txCtx, appointment.ID, domain.StatusConfirmed); err != nil {
			return s.internal("Confirm", err)
		}

		result, err = s.load(txCtx, "Confirm", reference)
		return err
	})
	if err != nil {
		return nil, s.txError("Confirm", err)
	}

	s.recordTransition(domain.StatusConfirmed)
	s.logger.Info("Confirm: ref=%s confirmed at %s %s", reference,
		result.PreferredDate.Format(domain.DateFormat), *result.PreferredTime)
	return models.FromDomainAppointment(result), nil
}

// Complete завершает запись: confirmed -> completed. Слоты остаются занятыми.
func (s *Service) Complete(ctx context.Context, reference string) (*models.AppointmentResponse, error) {
	s.logger.Info("Complete: ref=%s", reference)

	var result *domain.Appointment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		appointment, err := s.load(txCtx, "Complete", reference)
		if err != nil {
			return err
		}

		if !appointment.Status.CanTransitionTo(domain.StatusCompleted) {
			s.logger.Warn("Complete: ref=%s cannot go from %s to completed", reference, appointment.Status)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, domain.StatusCompleted)
		}

		if err := s.appointmentRepo.UpdateStatus(txCtx, appointment.ID, domain.StatusCompleted); err != nil {
			return s.internal("Complete", err)
		}

		result, err = s.load(txCtx, "Complete", reference)
		return err
	})
	if err != nil {
		return nil, s.txError("Complete", err)
	}

	s.recordTransition(domain.StatusCompleted)
	return models.FromDomainAppointment(result), nil
}

// Cancel отменяет запись: pending|confirmed -> cancelled.
// Все удерживаемые слоты освобождаются, но не удаляются.
func (s *Service) Cancel(ctx context.Context, reference string) (*models.AppointmentResponse, error) {
	s.logger.Info("Cancel: ref=%s", reference)

	var result *domain.Appointment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		appointment, err := s.load(txCtx, "Cancel", reference)
		if err != nil {
			return err
		}

		if !appointment.Status.CanTransitionTo(domain.StatusCancelled) {
			s.logger.Warn("Cancel: ref=%s cannot go from %s to cancelled", reference, appointment.Status)
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, appointment.Status, domain.StatusCancelled)
		}

		released, err := s.slotRepo.ReleaseByAppointment(txCtx, appointment.ID)
		if err != nil {
			return s.internal("Cancel", err)
		}
		if err := s.appointmentRepo.UpdateSlotLink(txCtx, appointment.ID, nil); err != nil {
			return s.internal("Cancel", err)
		}
		if err := s.appointmentRepo.UpdateStatus(txCtx, appointment.ID, domain.StatusCancelled); err != nil {
			return s.internal("Cancel", err)
		}

		s.logger.Info("Cancel: ref=%s released %d slots", reference, released)

		result, err = s.load(txCtx, "Cancel", reference)
		return err
	})
	if err != nil {
		return nil, s.txError("Cancel", err)
	}

	s.recordTransition(domain.StatusCancelled)
	return models.FromDomainAppointment(result), nil
}

// AddService добавляет услугу в запись и пересчитывает итоги.
// Если запись удерживает время, на новую услугу сразу берется слот.
func (s *Service) AddService(ctx context.Context, reference string, serviceID int64) (*models.AppointmentResponse, error) {
	s.logger.Info("AddService: ref=%s, service=%d", reference, serviceID)

	if serviceID <= 0 {
		return nil, fmt.Errorf("%w: service id must be positive", ErrInvalidInput)
	}

	var result *domain.Appointment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		appointment, err := s.load(txCtx, "AddService", reference)
		if err != nil {
			return err
		}

		if !appointment.CanChangeServices() {
			s.logger.Warn("AddService: ref=%s is %s", reference, appointment.Status)
			return ErrAppointmentClosed
		}
		if appointment.HasService(serviceID) {
			return fmt.Errorf("%w: id=%d", ErrServiceAlreadyAdded, serviceID)
		}

		service, err := s.activeService(txCtx, serviceID)
		if err != nil {
			return err
		}

		if err := s.appointmentRepo.AddService(txCtx, appointment.ID, serviceID); err != nil {
			if errors.Is(err, appointmentRepo.ErrServiceAlreadyAdded) {
				return fmt.Errorf("%w: id=%d", ErrServiceAlreadyAdded, serviceID)
			}
			return s.internal("AddService", err)
		}

		if appointment.HoldsSlots() {
			claim := appointment.Status == domain.StatusConfirmed
			if _, err := s.takeSlot(txCtx, appointment, service.ID, service.Name, *appointment.PreferredTime, claim); err != nil {
				return err
			}
		}

		if err := s.recomputeTotals(txCtx, "AddService", appointment.ID); err != nil {
			return err
		}

		result, err = s.load(txCtx, "AddService", reference)
		return err
	})
	if err != nil {
		return nil, s.txError("AddService", err)
	}

	s.logger.Info("AddService: ref=%s now has %d services, total=%s", reference, len(result.Services), result.TotalPrice.StringFixed(2))
	return models.FromDomainAppointment(result), nil
}

// RemoveService убирает услугу из записи, освобождает ее слот и пересчитывает итоги.
// Последнюю услугу удалить нельзя.
func (s *Service) RemoveService(ctx context.Context, reference string, serviceID int64) (*models.AppointmentResponse, error) {
	s.logger.Info("RemoveService: ref=%s, service=%d", reference, serviceID)

	var result *domain.Appointment

	err := s.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		appointment, err := s.load(txCtx, "RemoveService", reference)
		if err != nil {
			return err
		}

		if !appointment.CanChangeServices() {
			s.logger.Warn("RemoveService: ref=%s is %s", reference, appointment.Status)
			return ErrAppointmentClosed
		}
		if !appointment.HasService(serviceID) {
			return fmt.Errorf("%w: id=%d", ErrServiceNotLinked, serviceID)
		}
		if len(appointment.Services) == 1 {
			return ErrLastService
		}

		if appointment.HoldsSlots() {
			if err := s.releaseSlot(txCtx, appointment, serviceID); err != nil {
				return err
			}
		}

		if err := s.appointmentRepo.RemoveService(txCtx, appointment.ID, serviceID); err != nil {
			if errors.Is(err, appointmentRepo.ErrServiceNotLinked) {
				return fmt.Errorf("%w: id=%d", ErrServiceNotLinked, serviceID)
			}
			return s.internal("RemoveService", err)
		}

		if appointment.HoldsSlots() {
			if err := s.relink(txCtx, appointment, serviceID); err != nil {
				return err
			}
		}

		if err := s.recomputeTotals(txCtx, "RemoveService", appointment.ID); err != nil {
			return err
		}

		result, err = s.load(txCtx, "RemoveService", reference)
		return err
	})
	if err != nil {
		return nil, s.txError("RemoveService", err)
	}

	return models.FromDomainAppointment(result), nil
}

// SetSlotAvailability включает или выключает слот. is_booked не изменяется.
func (s *Service) SetSlotAvailability(ctx context.Context, slotID int64, available bool) (*models.SlotResponse, error) {
	s.logger.Info("SetSlotAvailability: slot=%d, available=%t", slotID, available)

	slot, err := s.slotRepo.SetAvailability(ctx, slotID, available)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("SetSlotAvailability: slot id=%d not found", slotID)
			return nil, fmt.Errorf("%w: id=%d", ErrSlotNotFound, slotID)
		}
		return nil, s.internal("SetSlotAvailability", err)
	}

	return models.FromDomainSlot(slot), nil
}

// takeSlot удерживает (claim = false) или забирает (claim = true) слот услуги.
// Отсутствующий, закрытый или чужой слот превращается в ConflictError.
func (s *Service) takeSlot(
	ctx context.Context,
	appointment *domain.Appointment,
	serviceID int64,
	serviceName string,
	at types.TimeString,
	claim bool,
) (int64, error) {
	conflict := &ConflictError{
		ServiceID:   serviceID,
		ServiceName: serviceName,
		Date:        appointment.PreferredDate.Format(domain.DateFormat),
		Time:        at.String(),
	}

	slot, err := s.slotRepo.GetByKey(ctx, serviceID, appointment.PreferredDate, at)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			s.logger.Warn("takeSlot: no slot for service=%d at %s %s", serviceID, conflict.Date, conflict.Time)
			return 0, conflict
		}
		return 0, s.internal("takeSlot", err)
	}

	// Проверка до записи, guarded UPDATE в репозитории повторяет ее атомарно
	allowed := slot.IsOpen()
	if claim {
		allowed = slot.CanBeClaimedBy(appointment.ID)
	}
	if !allowed {
		s.logger.Warn("takeSlot: slot id=%d for service=%d is taken", slot.ID, serviceID)
		return 0, conflict
	}

	if claim {
		err = s.slotRepo.Claim(ctx, slot.ID, appointment.ID)
	} else {
		err = s.slotRepo.Hold(ctx, slot.ID, appointment.ID)
	}
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotAvailable) {
			return 0, conflict
		}
		return 0, s.internal("takeSlot", err)
	}

	return slot.ID, nil
}

// releaseSlot освобождает слот услуги, если его держит эта запись
func (s *Service) releaseSlot(ctx context.Context, appointment *domain.Appointment, serviceID int64) error {
	slot, err := s.slotRepo.GetByKey(ctx, serviceID, appointment.PreferredDate, *appointment.PreferredTime)
	if err != nil {
		if errors.Is(err, slotRepo.ErrSlotNotFound) {
			return nil
		}
		return s.internal("releaseSlot", err)
	}

	if !slot.IsHeldBy(appointment.ID) {
		return nil
	}
	if err := s.slotRepo.Release(ctx, slot.ID, appointment.ID); err != nil {
		return s.internal("releaseSlot", err)
	}
	return nil
}

// relink переносит ссылку на слот первой оставшейся услуги
func (s *Service) relink(ctx context.Context, appointment *domain.Appointment, removedID int64) error {
	var slotID *int64
	for _, svc := range appointment.Services {
		if svc.ServiceID == removedID {
			continue
		}
		slot, err := s.slotRepo.GetByKey(ctx, svc.ServiceID, appointment.PreferredDate, *appointment.PreferredTime)
		if err != nil {
			if errors.Is(err, slotRepo.ErrSlotNotFound) {
				break
			}
			return s.internal("relink", err)
		}
		if slot.IsHeldBy(appointment.ID) {
			slotID = &slot.ID
		}
		break
	}

	if err := s.appointmentRepo.UpdateSlotLink(ctx, appointment.ID, slotID); err != nil {
		return s.internal("relink", err)
	}
	return nil
}

// recomputeTotals пересчитывает длительность и стоимость по строкам appointment_services
func (s *Service) recomputeTotals(ctx context.Context, op string, appointmentID int64) error {
	links, err := s.appointmentRepo.ListServices(ctx, appointmentID)
	if err != nil {
		return s.internal(op, err)
	}

	if err := s.appointmentRepo.UpdateTotals(ctx, appointmentID, domain.TotalsOf(links)); err != nil {
		return s.internal(op, err)
	}
	return nil
}

func (s *Service) activeService(ctx context.Context, serviceID int64) (*domain.Service, error) {
	services, err := s.catalog.GetServicesByIDs(ctx, []int64{serviceID})
	if err != nil {
		return nil, s.internal("activeService", err)
	}

	service, ok := domain.ServicesByID(services)[serviceID]
	if !ok || !service.IsActive {
		s.logger.Warn("activeService: service id=%d not found or inactive", serviceID)
		return nil, fmt.Errorf("%w: id=%d", ErrServiceNotFound, serviceID)
	}
	return service, nil
}

func (s *Service) load(ctx context.Context, op, reference string) (*domain.Appointment, error) {
	appointment, err := s.appointmentRepo.GetByReference(ctx, reference)
	if err != nil {
		return nil, s.notFoundOrInternal(op, reference, err)
	}
	return appointment, nil
}

func (s *Service) notFoundOrInternal(op, reference string, err error) error {
	if errors.Is(err, appointmentRepo.ErrAppointmentNotFound) {
		s.logger.Warn("%s: appointment ref=%s not found", op, reference)
		return fmt.Errorf("%w: ref=%s", ErrAppointmentNotFound, reference)
	}
	return s.internal(op, err)
}

func (s *Service) internal(op string, err error) error {
	s.logger.Error("%s: repository error: %v", op, err)
	return fmt.Errorf("%w: %s - repository error: %w", ErrInternal, op, err)
}

// txError переводит ошибки менеджера транзакций в ошибки сервиса
func (s *Service) txError(op string, err error) error {
	switch {
	case errors.Is(err, txmanager.ErrSerialization):
		s.logger.Warn("%s: concurrent update: %v", op, err)
		return fmt.Errorf("%w: %s - concurrent update, try again", ErrSlotNotAvailable, op)
	case errors.Is(err, txmanager.ErrBeginTx), errors.Is(err, txmanager.ErrCommitTx):
		s.logger.Error("%s: transaction error: %v", op, err)
		return fmt.Errorf("%w: %s - transaction error: %w", ErrInternal, op, err)
	}
	return err
}

func (s *Service) recordTransition(status domain.AppointmentStatus) {
	if s.metrics != nil {
		s.metrics.IncStatusTransition(string(status))
	}
}
