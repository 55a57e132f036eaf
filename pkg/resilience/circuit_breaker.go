package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Common errors
var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// CircuitBreakerConfig holds configuration for a circuit breaker
type CircuitBreakerConfig struct {
	Name                  string
	MaxRequests           uint32        // Maximum number of requests allowed in half-open state
	Interval              time.Duration // Time interval to clear failure count (0 = never clear)
	Timeout               time.Duration // How long to wait before transitioning from open to half-open
	FailureThreshold      uint32        // Number of consecutive failures to trip the circuit
	FailureRatioThreshold float64       // Failure ratio to trip (0.5 = 50%)
	MinRequestsToTrip     uint32        // Minimum requests before evaluating ratio
}

// DefaultCircuitBreakerConfig returns sensible defaults
func DefaultCircuitBreakerConfig(name string) *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:                  name,
		MaxRequests:           DefaultMaxRequests,
		Interval:              DefaultInterval,
		Timeout:               DefaultTimeout,
		FailureThreshold:      DefaultFailureThreshold,
		FailureRatioThreshold: DefaultFailureRatioThreshold,
		MinRequestsToTrip:     DefaultMinRequestsToTrip,
	}
}

// CircuitBreaker wraps gobreaker with logging
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	name   string
	logger *slog.Logger
}

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(config *CircuitBreakerConfig, logger *slog.Logger) *CircuitBreaker {
	settings := gobreaker.Settings{
		Name:        config.Name,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= config.FailureThreshold {
				return true
			}

			if counts.Requests >= config.MinRequestsToTrip {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= config.FailureRatioThreshold
			}

			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		name:   config.Name,
		logger: logger,
	}
}

// Execute runs a function through the circuit breaker
func (c *CircuitBreaker) Execute(ctx context.Context, fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return fn()
	})

	if err == gobreaker.ErrOpenState {
		c.logger.Warn("Circuit breaker is open", "name", c.name)
		return nil, fmt.Errorf("service unavailable: circuit breaker open for %s", c.name)
	}

	if err == gobreaker.ErrTooManyRequests {
		c.logger.Warn("Circuit breaker: too many requests", "name", c.name)
		return nil, fmt.Errorf("service unavailable: too many requests for %s", c.name)
	}

	return result, err
}

// State returns the current state of the circuit breaker
func (c *CircuitBreaker) State() gobreaker.State {
	return c.cb.State()
}

// Name returns the circuit breaker name
func (c *CircuitBreaker) Name() string {
	return c.name
}

// Counts returns the current counts
func (c *CircuitBreaker) Counts() gobreaker.Counts {
	return c.cb.Counts()
}

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors func(error) bool
}

// DefaultRetryConfig returns sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   DefaultRetryMaxAttempts,
		InitialDelay:  DefaultRetryInitialDelay,
		MaxDelay:      DefaultRetryMaxDelay,
		BackoffFactor: DefaultRetryBackoffFactor,
		RetryableErrors: func(err error) bool {
			return false
		},
	}
}

// Retry executes a function with retry logic
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	var lastErr error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = err

		if config.RetryableErrors != nil && !config.RetryableErrors(err) {
			return err
		}

		// Don't sleep after last attempt
		if attempt < config.MaxAttempts-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}

			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", config.MaxAttempts, lastErr)
}
