package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryConfig(maxAttempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     maxAttempts,
		InitialDelay:    time.Millisecond,
		MaxDelay:        5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: func(error) bool { return true },
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	attempts := 0
	sentinel := errors.New("still down")
	err := Retry(context.Background(), fastRetryConfig(3), func() error {
		attempts++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	config := fastRetryConfig(5)
	config.RetryableErrors = func(error) bool { return false }

	attempts := 0
	sentinel := errors.New("fatal")
	err := Retry(context.Background(), config, func() error {
		attempts++
		return sentinel
	})

	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 1, attempts)
}

func TestRetryHonoursContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	err := Retry(ctx, fastRetryConfig(10), func() error {
		attempts++
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}
