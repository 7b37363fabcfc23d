package postgresengine

import (
	"errors"

	"github.com/velora-labs/storefront-engine-go/listing"
)

var (
	// ErrEmptyTableName is returned when an empty records table name is supplied.
	ErrEmptyTableName = errors.New("empty records table name supplied")

	// ErrInvalidMaxPageSize is returned when a non-positive max page size is supplied.
	ErrInvalidMaxPageSize = errors.New("max page size must be positive")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine) error

// WithTableName sets the records table name for the Engine.
func WithTableName(tableName string) Option {
	return func(e *Engine) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		e.tableName = tableName

		return nil
	}
}

// WithMaxPageSize sets the clamp ceiling for listing page sizes.
// Requested limits above the ceiling are silently capped, never rejected.
func WithMaxPageSize(maxPageSize int) Option {
	return func(e *Engine) error {
		if maxPageSize <= 0 {
			return ErrInvalidMaxPageSize
		}

		e.maxPageSize = maxPageSize

		return nil
	}
}

// WithLogger sets the logger for the Engine.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: page sizes and durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: failures that cause operation errors.
func WithLogger(logger listing.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for the Engine. When both a
// plain and a contextual logger are configured, the contextual one wins.
func WithContextualLogger(logger listing.ContextualLogger) Option {
	return func(e *Engine) error {
		e.contextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Engine. The collector receives
// query durations and per-operation counters.
func WithMetrics(collector listing.MetricsCollector) Option {
	return func(e *Engine) error {
		e.metrics = collector
		return nil
	}
}
