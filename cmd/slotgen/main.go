package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/salon-booking/internal/config"
	"github.com/m04kA/salon-booking/internal/domain"
	"github.com/m04kA/salon-booking/internal/infra/lock"
	catalogRepo "github.com/m04kA/salon-booking/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	generateSlotsUC "github.com/m04kA/salon-booking/internal/usecase/generate_slots"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/logger"
	"github.com/m04kA/salon-booking/pkg/txmanager"
)

func main() {
	var (
		configPath = flag.String("config", "config.toml", "path to config file")
		days       = flag.Int("days", 0, "number of days after the start date to generate (0 = salon.horizon_days)")
		from       = flag.String("from", "", "start date YYYY-MM-DD (default: today in the salon time zone)")
		regenerate = flag.Bool("regenerate", false, "DELETE all existing slots before generating")
		seedHours  = flag.Bool("seed-hours", false, "insert default business hours for weekdays without a rule")
	)
	flag.Parse()

	if err := run(*configPath, *days, *from, *regenerate, *seedHours); err != nil {
		fmt.Fprintf(os.Stderr, "slotgen: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, days int, from string, regenerate, seedHours bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	location, err := cfg.Salon.Location()
	if err != nil {
		return fmt.Errorf("salon timezone %q: %w", cfg.Salon.Timezone, err)
	}

	req := &generateSlotsUC.Request{Days: days, Regenerate: regenerate}
	if from != "" {
		start, err := domain.ParseDate(from)
		if err != nil {
			return fmt.Errorf("invalid -from %q: %w", from, err)
		}
		req.From = &start
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	wrappedDB := dbmetrics.Wrap(db, nil, "")
	catalogRepository := catalogRepo.NewRepository(wrappedDB)

	// Часы работы по умолчанию: вт-сб 10-19, вс 11-17, пн выходной
	if seedHours {
		inserted, err := catalogRepository.SeedBusinessHours(ctx, domain.DefaultBusinessHours())
		if err != nil {
			return fmt.Errorf("seed business hours: %w", err)
		}
		log.Info("Seeded %d business hours rules", inserted)
	}

	var locker generateSlotsUC.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		client, err := lock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		defer client.Close()
		locker = lock.NewRedisLocker(client, time.Duration(cfg.Redis.LockTTL)*time.Second)
	}

	useCase := generateSlotsUC.NewUseCase(
		slotRepo.NewRepository(wrappedDB),
		catalogRepository,
		locker,
		txmanager.NewTransactionManager(wrappedDB),
		nil,
		cfg.Salon.HorizonDays,
		location,
		log,
	)

	if regenerate {
		log.Warn("Regenerate requested: all existing slots will be deleted")
	}

	resp, err := useCase.Execute(ctx, req)
	if err != nil {
		if errors.Is(err, generateSlotsUC.ErrGenerationInProgress) {
			return errors.New("another slot generation is running, try again later")
		}
		return err
	}

	fmt.Printf("slots %s..%s: dates=%d closed=%d planned=%d created=%d deleted=%d\n",
		resp.From, resp.To, resp.DatesProcessed, resp.ClosedDates, resp.Planned, resp.Created, resp.Deleted)
	return nil
}
