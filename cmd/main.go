package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/m04kA/salon-booking/internal/api"
	addAppointmentServiceHandler "github.com/m04kA/salon-booking/internal/api/handlers/add_appointment_service"
	checkAvailabilityHandler "github.com/m04kA/salon-booking/internal/api/handlers/check_availability"
	createBookingHandler "github.com/m04kA/salon-booking/internal/api/handlers/create_booking"
	generateSlotsHandler "github.com/m04kA/salon-booking/internal/api/handlers/generate_slots"
	getAvailableDatesHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_available_dates"
	getAvailableSlotsHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/salon-booking/internal/api/handlers/get_booking"
	listServicesHandler "github.com/m04kA/salon-booking/internal/api/handlers/list_services"
	removeAppointmentServiceHandler "github.com/m04kA/salon-booking/internal/api/handlers/remove_appointment_service"
	updateAppointmentStatusHandler "github.com/m04kA/salon-booking/internal/api/handlers/update_appointment_status"
	updateSlotAvailabilityHandler "github.com/m04kA/salon-booking/internal/api/handlers/update_slot_availability"
	"github.com/m04kA/salon-booking/internal/config"
	"github.com/m04kA/salon-booking/internal/infra/cache"
	"github.com/m04kA/salon-booking/internal/infra/lock"
	appointmentRepo "github.com/m04kA/salon-booking/internal/infra/storage/appointment"
	catalogRepo "github.com/m04kA/salon-booking/internal/infra/storage/catalog"
	slotRepo "github.com/m04kA/salon-booking/internal/infra/storage/slot"
	"github.com/m04kA/salon-booking/internal/integrations/catalogevents"
	"github.com/m04kA/salon-booking/internal/scheduler"
	appointmentsService "github.com/m04kA/salon-booking/internal/service/appointments"
	availabilityService "github.com/m04kA/salon-booking/internal/service/availability"
	createBookingUC "github.com/m04kA/salon-booking/internal/usecase/create_booking"
	generateSlotsUC "github.com/m04kA/salon-booking/internal/usecase/generate_slots"
	getAvailableDatesUC "github.com/m04kA/salon-booking/internal/usecase/get_available_dates"
	getAvailableSlotsUC "github.com/m04kA/salon-booking/internal/usecase/get_available_slots"
	"github.com/m04kA/salon-booking/pkg/dbmetrics"
	"github.com/m04kA/salon-booking/pkg/logger"
	"github.com/m04kA/salon-booking/pkg/metrics"
	"github.com/m04kA/salon-booking/pkg/txmanager"
)

// nopInvalidator используется, когда кэш каталога выключен
type nopInvalidator struct{}

func (nopInvalidator) Invalidate() {}

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	// Загружаем конфигурацию
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting salon-booking...")
	log.Info("Configuration loaded from %s", *configPath)

	location, err := cfg.Salon.Location()
	if err != nil {
		log.Fatal("Invalid salon timezone %q: %v", cfg.Salon.Timezone, err)
	}

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// С выключенными метриками обёртка работает как обычный *sql.DB
	wrappedDB := dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
	txMgr := txmanager.NewTransactionManager(wrappedDB)

	// Инициализируем репозитории
	slotRepository := slotRepo.NewRepository(wrappedDB)
	appointmentRepository := appointmentRepo.NewRepository(wrappedDB)
	catalogRepository := catalogRepo.NewRepository(wrappedDB)

	// Каталог: через кэш или напрямую из базы
	var (
		catalog     cache.CatalogSource            = catalogRepository
		invalidator catalogevents.CacheInvalidator = nopInvalidator{}
	)
	if cfg.Cache.Enabled {
		cachedCatalog := cache.NewCatalog(catalogRepository, cfg.Cache.Size, time.Duration(cfg.Cache.TTL)*time.Second, log)
		catalog = cachedCatalog
		invalidator = cachedCatalog
		log.Info("Catalog cache enabled (size=%d, ttl=%ds)", cfg.Cache.Size, cfg.Cache.TTL)
	}

	// Блокировка генерации: Redis для нескольких реплик, иначе в памяти процесса
	var locker generateSlotsUC.Locker = lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient, err := lock.NewClient(context.Background(), cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal("Failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient, time.Duration(cfg.Redis.LockTTL)*time.Second)
		log.Info("Redis generation lock enabled (addr=%s, ttl=%ds)", cfg.Redis.Addr, cfg.Redis.LockTTL)
	}

	// Инициализируем сервисы
	availabilitySvc := availabilityService.NewService(
		slotRepository,
		catalog,
		cfg.Salon.HorizonDays,
		location,
		log,
	)
	appointmentsSvc := appointmentsService.NewService(
		appointmentRepository,
		slotRepository,
		catalog,
		txMgr,
		metricsCollector,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		appointmentRepository,
		slotRepository,
		catalog,
		txMgr,
		metricsCollector,
		location,
		log,
	)
	generateSlotsUseCase := generateSlotsUC.NewUseCase(
		slotRepository,
		catalog,
		locker,
		txMgr,
		metricsCollector,
		cfg.Salon.HorizonDays,
		location,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(availabilitySvc, log)
	getAvailableDatesUseCase := getAvailableDatesUC.NewUseCase(availabilitySvc, log)

	// Настраиваем роутер
	routerCfg := api.RouterConfig{
		JWTSecret:   cfg.Auth.JWTSecret,
		MetricsPath: cfg.Metrics.Path,
		ServiceName: cfg.Metrics.ServiceName,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = metricsCollector
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	r := api.NewRouter(api.Handlers{
		ListServices:      listServicesHandler.NewHandler(catalog, log),
		AvailableSlots:    getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log),
		AvailableDates:    getAvailableDatesHandler.NewHandler(getAvailableDatesUseCase, log),
		CheckAvailability: checkAvailabilityHandler.NewHandler(availabilitySvc, log),
		CreateBooking:     createBookingHandler.NewHandler(createBookingUseCase, log),
		GetBooking:        getBookingHandler.NewHandler(appointmentsSvc, log),

		GenerateSlots:            generateSlotsHandler.NewHandler(generateSlotsUseCase, log),
		UpdateSlotAvailability:   updateSlotAvailabilityHandler.NewHandler(appointmentsSvc, log),
		UpdateAppointmentStatus:  updateAppointmentStatusHandler.NewHandler(appointmentsSvc, log),
		AddAppointmentService:    addAppointmentServiceHandler.NewHandler(appointmentsSvc, log),
		RemoveAppointmentService: removeAppointmentServiceHandler.NewHandler(appointmentsSvc, log),
	}, routerCfg)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	// Планировщик продления горизонта
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched, err = scheduler.New(cfg.Scheduler.Cron, generateSlotsUseCase, location, log)
		if err != nil {
			log.Fatal("Failed to create scheduler: %v", err)
		}
		sched.Start()

		// Досоздаем слоты сразу, не дожидаясь первого запуска по расписанию
		go sched.Run(bgCtx)
	}

	// Слушатель изменений каталога
	var listener *catalogevents.Listener
	if cfg.RabbitMQ.Enabled {
		listener, err = catalogevents.NewListener(cfg.RabbitMQ, invalidator, generateSlotsUseCase, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		if err := listener.Start(bgCtx); err != nil {
			log.Fatal("Failed to start catalog listener: %v", err)
		}
	}

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	stopBackground()
	if listener != nil {
		listener.Stop()
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	log.Info("Server stopped gracefully")
}
