package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/retail-platform/sales-service/pkg/metrics"
)

// MetricsMiddleware creates middleware that records HTTP metrics
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid recursion
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		m.IncrementHTTPRequestsInFlight()
		defer m.DecrementHTTPRequestsInFlight()

		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		method := c.Request.Method
		path := c.FullPath() // Use route pattern, not actual path

		if path == "" {
			path = c.Request.URL.Path
		}

		m.RecordHTTPRequest(method, path, status, duration)
	}
}

// MetricsEndpoint returns a handler for the /metrics endpoint
func MetricsEndpoint(m *metrics.Metrics) gin.HandlerFunc {
	handler := m.Handler()
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}

// BusinessMetrics provides helpers for recording sale lifecycle metrics
type BusinessMetrics struct {
	metrics *metrics.Metrics
}

// NewBusinessMetrics creates a new BusinessMetrics helper
func NewBusinessMetrics(m *metrics.Metrics) *BusinessMetrics {
	return &BusinessMetrics{metrics: m}
}

// RecordSaleCreated records a sale creation event
func (b *BusinessMetrics) RecordSaleCreated(branch string) {
	b.metrics.RecordSaleCreated(branch)
}

// RecordSaleUpdated records a sale update event
func (b *BusinessMetrics) RecordSaleUpdated(change string) {
	b.metrics.RecordSaleUpdated(change)
}

// RecordSaleCancelled records a sale cancellation event
func (b *BusinessMetrics) RecordSaleCancelled() {
	b.metrics.RecordSaleCancelled()
}

// RecordCircuitBreakerState records circuit breaker state
func (b *BusinessMetrics) RecordCircuitBreakerState(name string, state int) {
	b.metrics.SetCircuitBreakerState(name, state)
}

// RecordCircuitBreakerTrip records a circuit breaker trip
func (b *BusinessMetrics) RecordCircuitBreakerTrip(name string) {
	b.metrics.RecordCircuitBreakerTrip(name)
}
