package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/velora-labs/storefront-engine-go/entity"
	"github.com/velora-labs/storefront-engine-go/listing"
)

// Store persists order aggregates. Implementations fold the customer id into
// every read predicate so a foreign order and a missing order are
// indistinguishable to the caller.
type Store interface {
	// Insert writes a new aggregate. A duplicate order number fails with a
	// Conflict error so the caller can regenerate and retry.
	Insert(ctx context.Context, o Order) error

	// GetForCustomer loads one aggregate scoped to its owning customer.
	// Absent and foreign orders both fail with the identical NotFound error.
	GetForCustomer(ctx context.Context, orderID, customerID uuid.UUID) (Order, error)

	// UpdateAggregate writes status, items and the update timestamp as one
	// atomic write, so a cancel-plus-cascade can never be observed half-applied.
	UpdateAggregate(ctx context.Context, o Order) error

	// ListForCustomer returns up to limit aggregates of one customer in
	// reverse creation order, resuming after the cursor boundary when given.
	// Callers fetch limit+1 to detect further pages.
	ListForCustomer(ctx context.Context, customerID uuid.UUID, statusFilter *OrderStatus, cursor *listing.Cursor, limit int) ([]Order, error)
}

// EntityLookup resolves the live entities an order snapshots at placement.
// Soft-deleted sources are reported the same as absent ones.
type EntityLookup interface {
	UserByID(ctx context.Context, id uuid.UUID) (entity.User, error)
	ProductByID(ctx context.Context, id uuid.UUID) (entity.Product, error)
}
