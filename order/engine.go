package order

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/storefront-engine-go/events"
	"github.com/velora-labs/storefront-engine-go/listing"
	"github.com/velora-labs/storefront-engine-go/shared/errs"
	"github.com/velora-labs/storefront-engine-go/shared/retry"
)

const orderNumberAttempts = 3

// LifecycleEngine exposes the guarded mutation and listing operations on
// order aggregates. All reads and writes are scoped to the calling customer.
type LifecycleEngine struct {
	store            Store
	lookup           EntityLookup
	publisher        events.Publisher
	maxPageSize      int
	logger           Logger
	contextualLogger ContextualLogger
}

// NewLifecycleEngine creates a LifecycleEngine backed by the given store and
// entity lookup, applying options. Events are discarded unless WithPublisher
// is supplied.
func NewLifecycleEngine(store Store, lookup EntityLookup, options ...Option) (LifecycleEngine, error) {
	if store == nil {
		return LifecycleEngine{}, ErrNilStore
	}

	if lookup == nil {
		return LifecycleEngine{}, ErrNilEntityLookup
	}

	engine := LifecycleEngine{
		store:       store,
		lookup:      lookup,
		publisher:   events.NoopPublisher{},
		maxPageSize: listing.DefaultMaxPageSize,
	}

	for _, option := range options {
		if err := option(&engine); err != nil {
			return LifecycleEngine{}, err
		}
	}

	return engine, nil
}

// PlaceOrderItemInput is one requested line item.
type PlaceOrderItemInput struct {
	ProductID   uuid.UUID
	VariantName string
	Quantity    int
}

// PlaceOrderInput is the request to create an order.
type PlaceOrderInput struct {
	ShippingAddress ShippingAddress
	Items           []PlaceOrderItemInput
}

// PlaceOrder validates the input, freezes customer and product snapshots and
// pricing, and persists a new Pending order. Order-number collisions are
// retried a bounded number of times before surfacing Conflict. An
// "order.created" event is published fire-and-forget on success.
func (e LifecycleEngine) PlaceOrder(ctx context.Context, customerID uuid.UUID, input PlaceOrderInput) (Order, error) {
	if len(input.Items) == 0 {
		return Order{}, errs.Validation("order must contain at least one item")
	}

	for i, item := range input.Items {
		if item.Quantity < 1 {
			return Order{}, errs.Newf(errs.KindValidation, "item %d: quantity must be at least 1", i)
		}
	}

	customer, err := e.lookup.UserByID(ctx, customerID)
	if err != nil {
		if errs.IsNotFound(err) {
			return Order{}, errs.Validation("unknown customer")
		}

		return Order{}, err
	}

	items, total, err := e.buildItems(ctx, input.Items)
	if err != nil {
		return Order{}, err
	}

	orderID, err := uuid.NewV7()
	if err != nil {
		return Order{}, errs.Internal("generating order id failed", err)
	}

	now := time.Now().UTC()

	placed := Order{
		ID:              orderID,
		Customer:        BuildCustomerSnapshot(customer),
		ShippingAddress: input.ShippingAddress,
		Items:           items,
		Status:          StatusPending,
		TotalCents:      total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	insertErr := retry.Do(
		ctx,
		func(ctx context.Context) error {
			placed.Number = GenerateOrderNumber(time.Now())
			return e.store.Insert(ctx, placed)
		},
		retry.WithMaxAttempts(orderNumberAttempts),
		retry.WithRetryableFunc(errs.IsConflict),
	)
	if insertErr != nil {
		return Order{}, insertErr
	}

	e.publishEvent(ctx, placed.ID, "created")

	return placed, nil
}

func (e LifecycleEngine) buildItems(ctx context.Context, inputs []PlaceOrderItemInput) ([]OrderItem, int64, error) {
	items := make([]OrderItem, 0, len(inputs))

	var total int64

	for _, input := range inputs {
		product, err := e.lookup.ProductByID(ctx, input.ProductID)
		if err != nil {
			if errs.IsNotFound(err) {
				return nil, 0, errs.Newf(errs.KindValidation, "unknown product %s", input.ProductID)
			}

			return nil, 0, err
		}

		if input.VariantName != "" && !product.HasVariant(input.VariantName) {
			return nil, 0, errs.Newf(errs.KindValidation, "unknown variant %q of product %s", input.VariantName, input.ProductID)
		}

		itemID, err := uuid.NewV7()
		if err != nil {
			return nil, 0, errs.Internal("generating order item id failed", err)
		}

		unitPrice := product.VariantPriceCents(input.VariantName)
		subtotal := unitPrice * int64(input.Quantity)
		total += subtotal

		items = append(items, OrderItem{
			ID:             itemID,
			Product:        BuildProductSnapshot(product, input.VariantName),
			Quantity:       input.Quantity,
			UnitPriceCents: unitPrice,
			SubtotalCents:  subtotal,
			Fulfillment:    FulfillmentPending,
		})
	}

	return items, total, nil
}

// Transition moves the order to newStatus if the transition table allows it.
// A disallowed transition fails with StateConflict naming both statuses and
// leaves order and items unchanged. Transitioning to Cancelled cascades to
// items exactly like Cancel.
func (e LifecycleEngine) Transition(ctx context.Context, orderID, callerID uuid.UUID, newStatus OrderStatus) (Order, error) {
	return e.transition(ctx, orderID, callerID, newStatus, nil)
}

// Cancel cancels the order, recording the reason and cascading to line items:
// items not yet Shipped or Delivered are forced to Cancelled, shipped and
// delivered items are left untouched. The order and its items are written as
// one aggregate update.
func (e LifecycleEngine) Cancel(ctx context.Context, orderID, callerID uuid.UUID, reason string) (Order, error) {
	var cancelReason *string
	if reason != "" {
		cancelReason = &reason
	}

	return e.transition(ctx, orderID, callerID, StatusCancelled, cancelReason)
}

func (e LifecycleEngine) transition(ctx context.Context, orderID, callerID uuid.UUID, newStatus OrderStatus, cancelReason *string) (Order, error) {
	if !newStatus.IsValid() {
		return Order{}, errs.Newf(errs.KindValidation, "unknown order status %q", newStatus)
	}

	current, err := e.store.GetForCustomer(ctx, orderID, callerID)
	if err != nil {
		return Order{}, err
	}

	if !current.Status.CanTransitionTo(newStatus) {
		return Order{}, errs.Newf(errs.KindStateConflict,
			"cannot transition order from %s to %s", current.Status, newStatus)
	}

	current.Status = newStatus

	if cancelReason != nil {
		current.CancelReason = cancelReason
	}

	if newStatus == StatusCancelled {
		cascadeCancellation(&current)
	}

	current.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateAggregate(ctx, current); err != nil {
		return Order{}, err
	}

	e.publishEvent(ctx, current.ID, string(newStatus))

	return current, nil
}

// cascadeCancellation forces every item that has not physically left the
// warehouse to Cancelled. A shipment cannot be un-shipped by a status flag.
func cascadeCancellation(o *Order) {
	for i := range o.Items {
		status := o.Items[i].Fulfillment
		if status != FulfillmentShipped && status != FulfillmentDelivered {
			o.Items[i].Fulfillment = FulfillmentCancelled
		}
	}
}

// UpdateItemFulfillment sets one item's fulfillment status and optional
// tracking metadata, then recomputes the order status from all items. A
// fulfillment-derived status the transition table does not allow is skipped
// and logged, never forced.
func (e LifecycleEngine) UpdateItemFulfillment(
	ctx context.Context,
	orderID, callerID, itemID uuid.UUID,
	newStatus FulfillmentStatus,
	tracking *TrackingInfo,
) (Order, error) {
	if !newStatus.IsValid() {
		return Order{}, errs.Newf(errs.KindValidation, "unknown fulfillment status %q", newStatus)
	}

	current, err := e.store.GetForCustomer(ctx, orderID, callerID)
	if err != nil {
		return Order{}, err
	}

	idx, found := current.ItemIndex(itemID)
	if !found {
		return Order{}, errs.NotFound("order item not found")
	}

	current.Items[idx].Fulfillment = newStatus

	if tracking != nil {
		attached := *tracking
		if attached.ShippedAt == nil && newStatus == FulfillmentShipped {
			shippedAt := time.Now().UTC()
			attached.ShippedAt = &shippedAt
		}

		current.Items[idx].Tracking = &attached
	}

	derived, discrepancy := DeriveOrderStatus(current.Status, current.Items)
	if discrepancy != nil {
		e.logWarn(ctx, "fulfillment-derived status skipped, transition not allowed",
			"order_id", current.ID.String(),
			"current_status", string(discrepancy.Current),
			"derived_status", string(discrepancy.Derived))
	}

	current.Status = derived
	current.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateAggregate(ctx, current); err != nil {
		return Order{}, err
	}

	e.publishEvent(ctx, current.ID, "fulfillment_updated")

	return current, nil
}

// GetOrder loads one order scoped to the caller. A foreign order and a missing
// order fail with the identical NotFound error.
func (e LifecycleEngine) GetOrder(ctx context.Context, orderID, callerID uuid.UUID) (Order, error) {
	return e.store.GetForCustomer(ctx, orderID, callerID)
}

// ListOrders returns one page of the caller's orders in reverse creation order,
// optionally filtered to a single status. The compound (created_at, id) cursor
// keeps pages stable when many orders share a creation timestamp.
func (e LifecycleEngine) ListOrders(
	ctx context.Context,
	callerID uuid.UUID,
	statusFilter *OrderStatus,
	page listing.PageRequest,
) (listing.Page[Order], error) {
	if statusFilter != nil && !statusFilter.IsValid() {
		return listing.Page[Order]{}, errs.Newf(errs.KindValidation, "unknown order status %q", *statusFilter)
	}

	page = page.Normalize(e.maxPageSize)

	rows, err := e.store.ListForCustomer(ctx, callerID, statusFilter, page.Cursor, page.Limit+1)
	if err != nil {
		return listing.Page[Order]{}, err
	}

	return listing.ResolvePage(rows, page.Limit, Order.Boundary), nil
}

// publishEvent publishes an order event fire-and-forget. Publish failures are
// logged and swallowed: the primary mutation has already succeeded.
func (e LifecycleEngine) publishEvent(ctx context.Context, orderID uuid.UUID, action string) {
	if err := e.publisher.Publish(ctx, events.TopicOrder, action, orderID, nil); err != nil {
		e.logWarn(ctx, "publishing order event failed",
			"action", action,
			"order_id", orderID.String(),
			"error", err.Error())
	}
}

func (e LifecycleEngine) logWarn(ctx context.Context, msg string, args ...any) {
	if e.contextualLogger != nil {
		e.contextualLogger.WarnContext(ctx, msg, args...)
		return
	}

	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
