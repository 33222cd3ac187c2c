package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Результаты попытки бронирования
const (
	BookingResultCreated  = "created"
	BookingResultConflict = "conflict"
	BookingResultInvalid  = "invalid"
	BookingResultError    = "error"
)

// Metrics набор Prometheus-метрик сервиса.
// Все методы записи безопасны для nil-получателя (метрики выключены).
type Metrics struct {
	serviceName string

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	DBQueryDuration    *prometheus.HistogramVec
	DBQueryErrorsTotal *prometheus.CounterVec
	DBOpenConnections  *prometheus.GaugeVec
	DBInUseConnections *prometheus.GaugeVec
	DBIdleConnections  *prometheus.GaugeVec
	DBWaitCount        *prometheus.GaugeVec

	BookingsTotal          *prometheus.CounterVec
	SlotsGeneratedTotal    *prometheus.CounterVec
	StatusTransitionsTotal *prometheus.CounterVec
}

// New создает метрики и регистрирует их в стандартном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer, serviceName)
}

// NewWithRegistry создает метрики и регистрирует их в указанном реестре
func NewWithRegistry(reg prometheus.Registerer, serviceName string) *Metrics {
	m := &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"service", "operation"}),

		DBQueryErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of failed database queries",
		}, []string{"service", "operation"}),

		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_open_connections",
			Help: "Number of established connections",
		}, []string{"service"}),

		DBInUseConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_in_use_connections",
			Help: "Number of connections currently in use",
		}, []string{"service"}),

		DBIdleConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_idle_connections",
			Help: "Number of idle connections",
		}, []string{"service"}),

		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_wait_count",
			Help: "Total number of connections waited for",
		}, []string{"service"}),

		BookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_bookings_total",
			Help: "Booking attempts by result",
		}, []string{"service", "result"}),

		SlotsGeneratedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_slots_generated_total",
			Help: "Appointment slots created by the generator",
		}, []string{"service"}),

		StatusTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "salon_appointment_status_transitions_total",
			Help: "Appointment status transitions by target status",
		}, []string{"service", "status"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBQueryErrorsTotal,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.BookingsTotal,
		m.SlotsGeneratedTotal,
		m.StatusTransitionsTotal,
	)

	return m
}

// ServiceName возвращает имя сервиса, используемое в лейблах
func (m *Metrics) ServiceName() string {
	if m == nil {
		return ""
	}
	return m.serviceName
}

// IncBooking учитывает попытку бронирования
func (m *Metrics) IncBooking(result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(m.serviceName, result).Inc()
}

// AddSlotsGenerated учитывает созданные слоты
func (m *Metrics) AddSlotsGenerated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SlotsGeneratedTotal.WithLabelValues(m.serviceName).Add(float64(n))
}

// IncStatusTransition учитывает смену статуса записи
func (m *Metrics) IncStatusTransition(status string) {
	if m == nil {
		return
	}
	m.StatusTransitionsTotal.WithLabelValues(m.serviceName, status).Inc()
}
