package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/m04kA/salon-booking/internal/usecase/generate_slots"
)

// runTimeout ограничивает один запуск генерации
const runTimeout = 5 * time.Minute

// ErrInvalidSchedule возвращается для некорректного cron-выражения
var ErrInvalidSchedule = errors.New("scheduler: invalid schedule")

// SlotGenerator запускает генерацию слотов
type SlotGenerator interface {
	Execute(ctx context.Context, req *generate_slots.Request) (*generate_slots.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Scheduler периодически продлевает горизонт слотов
type Scheduler struct {
	cron      *cron.Cron
	generator SlotGenerator
	logger    Logger
}

// New регистрирует задачу генерации по cron-выражению (стандартные 5 полей)
func New(spec string, generator SlotGenerator, location *time.Location, logger Logger) (*Scheduler, error) {
	if location == nil {
		location = time.UTC
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithLocation(location)),
		generator: generator,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(spec, func() { s.Run(context.Background()) }); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	return s, nil
}

// Start запускает планировщик в фоне
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started, next run at %s", s.next())
}

// Stop останавливает планировщик и ждет текущий запуск не дольше ctx
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("Scheduler: running job did not finish before shutdown")
	}
}

// Run выполняет одну неразрушающую генерацию
func (s *Scheduler) Run(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	resp, err := s.generator.Execute(ctx, &generate_slots.Request{})
	if err != nil {
		switch {
		case errors.Is(err, generate_slots.ErrGenerationInProgress):
			s.logger.Info("Scheduler: generation already running elsewhere, skipping")
		case errors.Is(err, generate_slots.ErrNoActiveServices):
			s.logger.Warn("Scheduler: no active services, nothing to generate")
		default:
			s.logger.Error("Scheduler: slot generation failed: %v", err)
		}
		return
	}

	s.logger.Info("Scheduler: horizon extended to %s, created %d slots", resp.To, resp.Created)
}

func (s *Scheduler) next() string {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return "never"
	}
	return entries[0].Next.Format(time.RFC3339)
}
