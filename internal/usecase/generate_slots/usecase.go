package generate_slots

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/salon-booking/internal/domain"
)

// LockName имя распределенной блокировки генерации
const LockName = "slot-generation"

// UseCase use case для генерации слотов на горизонт вперед
type UseCase struct {
	slotRepo     SlotRepository
	catalog      CatalogProvider
	locker       Locker
	txManager    TransactionManager
	metrics      MetricsRecorder
	horizonDays  int
	location     *time.Location
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	slotRepo SlotRepository,
	catalog CatalogProvider,
	locker Locker,
	txManager TransactionManager,
	metrics MetricsRecorder,
	horizonDays int,
	location *time.Location,
	logger Logger,
) *UseCase {
	if horizonDays <= 0 {
		horizonDays = domain.DefaultHorizonDays
	}
	if location == nil {
		location = time.UTC
	}
	return &UseCase{
		slotRepo:     slotRepo,
		catalog:      catalog,
		locker:       locker,
		txManager:    txManager,
		metrics:      metrics,
		horizonDays:  horizonDays,
		location:     location,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// WithTimeProvider подменяет источник времени (для тестов)
func (uc *UseCase) WithTimeProvider(tp TimeProvider) *UseCase {
	uc.timeProvider = tp
	return uc
}

// Execute генерирует слоты на [from, from + days].
// Существующие слоты не изменяются, Regenerate сначала удаляет все слоты.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("GenerateSlots: validation failed: %v", err)
		return nil, err
	}

	days := req.Days
	if days == 0 {
		days = uc.horizonDays
	}
	from := domain.Today(uc.timeProvider.Now(), uc.location)
	if req.From != nil {
		from = domain.DateOf(*req.From)
	}
	to := from.AddDate(0, 0, days)

	uc.logger.Info("GenerateSlots: from=%s, to=%s, regenerate=%t",
		from.Format(domain.DateFormat), to.Format(domain.DateFormat), req.Regenerate)

	// 2. Берем блокировку, чтобы cron, CLI и админ не генерировали одновременно
	release, acquired, err := uc.locker.TryAcquire(ctx, LockName)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to acquire lock: %v", err)
		return nil, fmt.Errorf("%w: failed to acquire lock: %w", ErrInternal, err)
	}
	if !acquired {
		uc.logger.Info("GenerateSlots: another generation is running, skipping")
		return nil, ErrGenerationInProgress
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			uc.logger.Warn("GenerateSlots: failed to release lock: %v", err)
		}
	}()

	// 3. Читаем каталог
	services, err := uc.catalog.ListActiveServices(ctx)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to list services: %v", err)
		return nil, fmt.Errorf("%w: failed to list services: %w", ErrInternal, err)
	}
	if len(services) == 0 {
		uc.logger.Warn("GenerateSlots: no active services")
		return nil, ErrNoActiveServices
	}

	hours, err := uc.catalog.GetBusinessHours(ctx)
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to get business hours: %v", err)
		return nil, fmt.Errorf("%w: failed to get business hours: %w", ErrInternal, err)
	}

	// 4. Строим план
	plan := PlanSlots(hours, services, from, to)

	resp := &Response{
		From:           from.Format(domain.DateFormat),
		To:             to.Format(domain.DateFormat),
		DatesProcessed: plan.DatesProcessed,
		ClosedDates:    plan.ClosedDates,
		Planned:        len(plan.Slots),
	}

	// 5. Сохраняем в одной транзакции
	err = uc.txManager.Do(ctx, func(txCtx context.Context) error {
		if req.Regenerate {
			deleted, err := uc.slotRepo.DeleteAll(txCtx)
			if err != nil {
				return err
			}
			resp.Deleted = deleted
			uc.logger.Warn("GenerateSlots: regenerate requested, deleted %d slots", deleted)
		}

		created, err := uc.slotRepo.CreateBatch(txCtx, plan.Slots)
		if err != nil {
			return err
		}
		resp.Created = created
		return nil
	})
	if err != nil {
		uc.logger.Error("GenerateSlots: failed to persist slots: %v", err)
		return nil, fmt.Errorf("%w: failed to persist slots: %w", ErrInternal, err)
	}

	if uc.metrics != nil {
		uc.metrics.AddSlotsGenerated(resp.Created)
	}

	uc.logger.Info("GenerateSlots: dates=%d, closed=%d, planned=%d, created=%d, deleted=%d",
		resp.DatesProcessed, resp.ClosedDates, resp.Planned, resp.Created, resp.Deleted)

	return resp, nil
}
