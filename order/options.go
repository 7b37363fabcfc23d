package order

import (
	"errors"

	"github.com/velora-labs/storefront-engine-go/events"
)

var (
	// ErrNilStore is returned when the engine is built without a store.
	ErrNilStore = errors.New("order store must not be nil")

	// ErrNilEntityLookup is returned when the engine is built without an entity lookup.
	ErrNilEntityLookup = errors.New("entity lookup must not be nil")

	// ErrNilPublisher is returned when a nil publisher is supplied explicitly.
	ErrNilPublisher = errors.New("event publisher must not be nil")

	// ErrInvalidMaxPageSize is returned when a non-positive max page size is supplied.
	ErrInvalidMaxPageSize = errors.New("max page size must be positive")
)

// Option defines a functional option for configuring the LifecycleEngine.
type Option func(*LifecycleEngine) error

// WithPublisher sets the event publisher. Without this option events are discarded.
func WithPublisher(publisher events.Publisher) Option {
	return func(e *LifecycleEngine) error {
		if publisher == nil {
			return ErrNilPublisher
		}

		e.publisher = publisher

		return nil
	}
}

// WithMaxPageSize sets the clamp ceiling for order listing page sizes.
func WithMaxPageSize(maxPageSize int) Option {
	return func(e *LifecycleEngine) error {
		if maxPageSize <= 0 {
			return ErrInvalidMaxPageSize
		}

		e.maxPageSize = maxPageSize

		return nil
	}
}

// WithLogger sets the logger for the LifecycleEngine.
func WithLogger(logger Logger) Option {
	return func(e *LifecycleEngine) error {
		e.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger. When both a plain and a
// contextual logger are configured, the contextual one wins.
func WithContextualLogger(logger ContextualLogger) Option {
	return func(e *LifecycleEngine) error {
		e.contextualLogger = logger
		return nil
	}
}
