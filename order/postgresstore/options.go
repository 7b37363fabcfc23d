package postgresstore

import (
	"errors"

	"github.com/velora-labs/storefront-engine-go/order"
)

var (
	// ErrEmptyTableName is returned when an empty orders table name is supplied.
	ErrEmptyTableName = errors.New("empty orders table name supplied")

	// ErrNilDatabaseConnection is returned when a nil database connection is supplied.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")
)

// Option defines a functional option for configuring the Store.
type Option func(*Store) error

// WithTableName sets the orders table name for the Store.
func WithTableName(tableName string) Option {
	return func(s *Store) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		s.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Store.
func WithLogger(logger order.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithContextualLogger sets a context-aware logger for the Store. When both a
// plain and a contextual logger are configured, the contextual one wins.
func WithContextualLogger(logger order.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}
