package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all sales-service metrics
type Metrics struct {
	serviceName string
	registry    *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Kafka metrics
	KafkaEventsPublished *prometheus.CounterVec
	KafkaPublishDuration *prometheus.HistogramVec

	// MongoDB metrics
	MongoDBOperations        *prometheus.CounterVec
	MongoDBOperationDuration *prometheus.HistogramVec
	MongoDBConnectionsOpen   prometheus.Gauge

	// Business metrics
	SalesCreated   *prometheus.CounterVec
	SalesUpdated   *prometheus.CounterVec
	SalesCancelled *prometheus.CounterVec

	// Circuit breaker metrics
	CircuitBreakerState *prometheus.GaugeVec
	CircuitBreakerTrips *prometheus.CounterVec
}

// Config holds metrics configuration
type Config struct {
	ServiceName string
	Namespace   string
}

// DefaultConfig returns default metrics configuration
func DefaultConfig(serviceName string) *Config {
	return &Config{
		ServiceName: serviceName,
		Namespace:   "sales",
	}
}

// New creates a new Metrics instance
func New(config *Config) *Metrics {
	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Metrics{
		serviceName: config.ServiceName,
		registry:    registry,
	}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "http_requests_in_flight",
			Help:        "Number of HTTP requests currently being processed",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.KafkaEventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "kafka_events_published_total",
			Help:      "Total number of Kafka events published",
		},
		[]string{"service", "topic", "event_kind", "status"},
	)

	m.KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "kafka_publish_duration_seconds",
			Help:      "Kafka publish duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"service", "topic"},
	)

	m.MongoDBOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operations_total",
			Help:      "Total number of MongoDB operations",
		},
		[]string{"service", "collection", "operation", "status"},
	)

	m.MongoDBOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "mongodb_operation_duration_seconds",
			Help:      "MongoDB operation duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"service", "collection", "operation"},
	)

	m.MongoDBConnectionsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "mongodb_connections_open",
			Help:        "Number of open MongoDB connections",
			ConstLabels: prometheus.Labels{"service": config.ServiceName},
		},
	)

	m.SalesCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sales_created_total",
			Help:      "Total number of sales created",
		},
		[]string{"service", "branch"},
	)

	m.SalesUpdated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sales_updated_total",
			Help:      "Total number of sales updated",
		},
		[]string{"service", "change"},
	)

	m.SalesCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "sales_cancelled_total",
			Help:      "Total number of sales cancelled",
		},
		[]string{"service"},
	)

	m.CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"service", "name"},
	)

	m.CircuitBreakerTrips = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "circuit_breaker_trips_total",
			Help:      "Total number of circuit breaker trips",
		},
		[]string{"service", "name"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.KafkaEventsPublished,
		m.KafkaPublishDuration,
		m.MongoDBOperations,
		m.MongoDBOperationDuration,
		m.MongoDBConnectionsOpen,
		m.SalesCreated,
		m.SalesUpdated,
		m.SalesCancelled,
		m.CircuitBreakerState,
		m.CircuitBreakerTrips,
	)

	return m
}

// Handler returns an HTTP handler for metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records HTTP request metrics
func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(m.serviceName, method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(m.serviceName, method, path).Observe(duration.Seconds())
}

// RecordKafkaPublish records Kafka publish metrics
func (m *Metrics) RecordKafkaPublish(topic, eventKind string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.KafkaEventsPublished.WithLabelValues(m.serviceName, topic, eventKind, status).Inc()
	m.KafkaPublishDuration.WithLabelValues(m.serviceName, topic).Observe(duration.Seconds())
}

// RecordMongoDBOperation records MongoDB operation metrics
func (m *Metrics) RecordMongoDBOperation(collection, operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.MongoDBOperations.WithLabelValues(m.serviceName, collection, operation, status).Inc()
	m.MongoDBOperationDuration.WithLabelValues(m.serviceName, collection, operation).Observe(duration.Seconds())
}

// SetMongoDBConnections sets the open connection gauge
func (m *Metrics) SetMongoDBConnections(count int) {
	m.MongoDBConnectionsOpen.Set(float64(count))
}

// RecordSaleCreated records a sale creation event
func (m *Metrics) RecordSaleCreated(branch string) {
	m.SalesCreated.WithLabelValues(m.serviceName, branch).Inc()
}

// RecordSaleUpdated records a sale update event; change distinguishes
// item-set changes from field-only modifications.
func (m *Metrics) RecordSaleUpdated(change string) {
	m.SalesUpdated.WithLabelValues(m.serviceName, change).Inc()
}

// RecordSaleCancelled records a sale cancellation event
func (m *Metrics) RecordSaleCancelled() {
	m.SalesCancelled.WithLabelValues(m.serviceName).Inc()
}

// SetCircuitBreakerState sets the circuit breaker state gauge
func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.CircuitBreakerState.WithLabelValues(m.serviceName, name).Set(float64(state))
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (m *Metrics) RecordCircuitBreakerTrip(name string) {
	m.CircuitBreakerTrips.WithLabelValues(m.serviceName, name).Inc()
}

// IncrementHTTPRequestsInFlight increments the in-flight gauge
func (m *Metrics) IncrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecrementHTTPRequestsInFlight decrements the in-flight gauge
func (m *Metrics) DecrementHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}
