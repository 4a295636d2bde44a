package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics набор prometheus-коллекторов сервиса
type Metrics struct {
	serviceName string

	// HTTP метрики
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Метрики работы с БД
	DBQueryDuration   *prometheus.HistogramVec
	DBConnectionsOpen *prometheus.GaugeVec
	DBConnectionsIdle *prometheus.GaugeVec

	// Метрики диспетчеризации хуков по подключенным приложениям
	HookInvocationsTotal   *prometheus.CounterVec
	HookInvocationDuration *prometheus.HistogramVec
	HookWorkersInFlight    *prometheus.GaugeVec
}

// New создает и регистрирует коллекторы в default registry
func New(serviceName string) *Metrics {
	return &Metrics{
		serviceName: serviceName,

		HTTPRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"service", "method", "path", "status"}),

		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "method", "path"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),

		DBConnectionsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		}, []string{"service"}),

		DBConnectionsIdle: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		}, []string{"service"}),

		HookInvocationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "hook_invocations_total",
			Help: "Total number of connected app hook invocations",
		}, []string{"service", "scope", "result"}),

		HookInvocationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hook_invocation_duration_seconds",
			Help:    "Connected app hook invocation duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "scope"}),

		HookWorkersInFlight: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hook_workers_in_flight",
			Help: "Number of hook workers currently executing",
		}, []string{"service", "scope"}),
	}
}

// ObserveHTTPRequest записывает метрики завершенного HTTP запроса
func (m *Metrics) ObserveHTTPRequest(method, path, status string, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(seconds)
}

// ObserveDBQuery записывает длительность выполнения запроса к БД
func (m *Metrics) ObserveDBQuery(operation string, seconds float64) {
	m.DBQueryDuration.WithLabelValues(m.serviceName, operation).Observe(seconds)
}

// SetDBConnections обновляет gauge-метрики пула соединений
func (m *Metrics) SetDBConnections(open, idle int) {
	m.DBConnectionsOpen.WithLabelValues(m.serviceName).Set(float64(open))
	m.DBConnectionsIdle.WithLabelValues(m.serviceName).Set(float64(idle))
}

// ObserveHookInvocation записывает результат вызова хука подключенного приложения
// result: success | failure | timeout
func (m *Metrics) ObserveHookInvocation(scope, result string, seconds float64) {
	m.HookInvocationsTotal.WithLabelValues(m.serviceName, scope, result).Inc()
	m.HookInvocationDuration.WithLabelValues(m.serviceName, scope).Observe(seconds)
}

// HookWorkerStarted инкрементирует счетчик выполняющихся воркеров
func (m *Metrics) HookWorkerStarted(scope string) {
	m.HookWorkersInFlight.WithLabelValues(m.serviceName, scope).Inc()
}

// HookWorkerFinished декрементирует счетчик выполняющихся воркеров
func (m *Metrics) HookWorkerFinished(scope string) {
	m.HookWorkersInFlight.WithLabelValues(m.serviceName, scope).Dec()
}
