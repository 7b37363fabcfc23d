// Package retry implements bounded retry with exponential backoff for operations
// that can fail with a transient, retryable error — primarily order-number
// uniqueness collisions during order placement.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	defaultMaxAttempts  = 3
	defaultBaseDelay    = 5 * time.Millisecond
	defaultJitterFactor = 0.3
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrNilRetryablePredicate is returned when a nil predicate is provided to WithRetryableFunc.
	ErrNilRetryablePredicate = errors.New("retryable predicate must not be nil")
)

// Func represents an operation that can be retried.
// Each invocation must produce fresh inputs (e.g. regenerate an order number).
type Func func(ctx context.Context) error

type config struct {
	maxAttempts  int
	baseDelay    time.Duration
	jitterFactor float64
	retryable    func(error) bool
}

// Option configures retry behavior using the functional options pattern.
type Option func(*config) error

// WithMaxAttempts sets the maximum number of attempts (first call included).
func WithMaxAttempts(attempts int) Option {
	return func(c *config) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		c.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
// Actual delays: baseDelay, baseDelay*2, baseDelay*4, etc., plus jitter.
func WithBaseDelay(delay time.Duration) Option {
	return func(c *config) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		c.baseDelay = delay

		return nil
	}
}

// WithRetryableFunc sets the predicate deciding which errors are retried.
// All other errors fail fast.
func WithRetryableFunc(predicate func(error) bool) Option {
	return func(c *config) error {
		if predicate == nil {
			return ErrNilRetryablePredicate
		}

		c.retryable = predicate

		return nil
	}
}

// Do executes fn up to maxAttempts times, backing off between attempts.
// Only errors accepted by the retryable predicate are retried; without a predicate
// nothing is retried. The last error is returned when attempts are exhausted.
func Do(ctx context.Context, fn Func, options ...Option) error {
	cfg := &config{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	for _, option := range options {
		if err := option(cfg); err != nil {
			return err
		}
	}

	var lastErr error

	for attempt := 0; attempt < cfg.maxAttempts; attempt++ {
		if attempt > 0 && cfg.baseDelay > 0 {
			delay := cfg.baseDelay * time.Duration(1<<(attempt-1))
			jitter := rand.Float64() * float64(delay) * cfg.jitterFactor //nolint:gosec // math/rand is sufficient for jitter

			select {
			case <-time.After(delay + time.Duration(jitter)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if cfg.retryable == nil || !cfg.retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
