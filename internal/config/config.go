package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/m04kA/salon-booking/internal/domain"
)

// Config конфигурация сервиса.
// Порядок: значения по умолчанию -> config.toml -> .env -> переменные окружения.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Database  DatabaseConfig  `toml:"database"`
	Logs      LogsConfig      `toml:"logs"`
	Metrics   MetricsConfig   `toml:"metrics"`
	Salon     SalonConfig     `toml:"salon"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Redis     RedisConfig     `toml:"redis"`
	RabbitMQ  RabbitMQConfig  `toml:"rabbitmq"`
	Cache     CacheConfig     `toml:"cache"`
	Auth      AuthConfig      `toml:"auth"`
}

type ServerConfig struct {
	HTTPPort        int `toml:"http_port" env:"HTTP_PORT"`
	ReadTimeout     int `toml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    int `toml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout     int `toml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout int `toml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
}

type DatabaseConfig struct {
	Host            string `toml:"host" env:"DB_HOST"`
	Port            int    `toml:"port" env:"DB_PORT"`
	User            string `toml:"user" env:"DB_USER"`
	Password        string `toml:"password" env:"DB_PASSWORD"`
	DBName          string `toml:"dbname" env:"DB_NAME"`
	SSLMode         string `toml:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns    int    `toml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `toml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `toml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
}

// DSN строка подключения для lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type LogsConfig struct {
	Level string `toml:"level" env:"LOG_LEVEL"`
	File  string `toml:"file" env:"LOG_FILE"`
}

type MetricsConfig struct {
	Enabled     bool   `toml:"enabled" env:"METRICS_ENABLED"`
	Path        string `toml:"path" env:"METRICS_PATH"`
	ServiceName string `toml:"service_name" env:"METRICS_SERVICE_NAME"`
}

type SalonConfig struct {
	Timezone    string `toml:"timezone" env:"SALON_TIMEZONE"`
	HorizonDays int    `toml:"horizon_days" env:"SALON_HORIZON_DAYS"`
}

// Location часовой пояс салона, по которому считается "сегодня"
func (s SalonConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

type SchedulerConfig struct {
	Enabled bool   `toml:"enabled" env:"SCHEDULER_ENABLED"`
	Cron    string `toml:"cron" env:"SCHEDULER_CRON"`
}

type RedisConfig struct {
	Enabled  bool   `toml:"enabled" env:"REDIS_ENABLED"`
	Addr     string `toml:"addr" env:"REDIS_ADDR"`
	Password string `toml:"password" env:"REDIS_PASSWORD"`
	DB       int    `toml:"db" env:"REDIS_DB"`
	LockTTL  int    `toml:"lock_ttl" env:"REDIS_LOCK_TTL"` // секунды
}

type RabbitMQConfig struct {
	Enabled    bool   `toml:"enabled" env:"RABBITMQ_ENABLED"`
	URL        string `toml:"url" env:"RABBITMQ_URL"`
	Exchange   string `toml:"exchange" env:"RABBITMQ_EXCHANGE"`
	Queue      string `toml:"queue" env:"RABBITMQ_QUEUE"`
	BindingKey string `toml:"binding_key" env:"RABBITMQ_BINDING_KEY"`
}

type CacheConfig struct {
	Enabled bool `toml:"enabled" env:"CACHE_ENABLED"`
	Size    int  `toml:"size" env:"CACHE_SIZE"`
	TTL     int  `toml:"ttl" env:"CACHE_TTL"` // секунды
}

type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret" env:"JWT_SECRET"`
}

// Default конфигурация по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort:        8080,
			ReadTimeout:     10,
			WriteTimeout:    10,
			IdleTimeout:     60,
			ShutdownTimeout: 15,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			DBName:          "salon",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 300,
		},
		Logs: LogsConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Path:        "/metrics",
			ServiceName: "salon-booking",
		},
		Salon: SalonConfig{
			Timezone:    "UTC",
			HorizonDays: domain.DefaultHorizonDays,
		},
		Scheduler: SchedulerConfig{
			Cron: "0 3 * * *",
		},
		Redis: RedisConfig{
			Addr:    "localhost:6379",
			LockTTL: 300,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange:   "catalog",
			Queue:      "salon-booking.catalog",
			BindingKey: "*.salon-booking.*.changed",
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    128,
			TTL:     300,
		},
	}
}

// Load читает конфигурацию из TOML-файла и применяет переменные окружения.
// Отсутствующий файл не является ошибкой.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	// .env не обязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate проверяет согласованность значений
func (c *Config) Validate() error {
	var problems []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		problems = append(problems, "server.http_port must be in 1..65535")
	}
	if c.Salon.HorizonDays < 1 || c.Salon.HorizonDays > domain.MaxHorizonDays {
		problems = append(problems, fmt.Sprintf("salon.horizon_days must be in 1..%d", domain.MaxHorizonDays))
	}
	if _, err := c.Salon.Location(); err != nil {
		problems = append(problems, fmt.Sprintf("salon.timezone: %v", err))
	}
	if c.Scheduler.Enabled && c.Scheduler.Cron == "" {
		problems = append(problems, "scheduler.cron is required when scheduler is enabled")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		problems = append(problems, "redis.addr is required when redis is enabled")
	}
	if c.RabbitMQ.Enabled && (c.RabbitMQ.URL == "" || c.RabbitMQ.Queue == "") {
		problems = append(problems, "rabbitmq.url and rabbitmq.queue are required when rabbitmq is enabled")
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		problems = append(problems, "cache.size must be positive")
	}
	if c.Auth.JWTSecret == "" {
		problems = append(problems, "auth.jwt_secret is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}
