package order

// FulfillmentStatus is the per-item status of a line item.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentProcessing FulfillmentStatus = "processing"
	FulfillmentShipped    FulfillmentStatus = "shipped"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
	FulfillmentCancelled  FulfillmentStatus = "cancelled"
	FulfillmentReturned   FulfillmentStatus = "returned"
)

var validFulfillmentStatuses = map[FulfillmentStatus]struct{}{
	FulfillmentPending:    {},
	FulfillmentProcessing: {},
	FulfillmentShipped:    {},
	FulfillmentDelivered:  {},
	FulfillmentCancelled:  {},
	FulfillmentReturned:   {},
}

// IsValid reports whether s is a known fulfillment status.
func (s FulfillmentStatus) IsValid() bool {
	_, ok := validFulfillmentStatuses[s]
	return ok
}

// FulfillmentSummary is the aggregate view over all items of an order.
// Mixed is an explicit case, not a fallthrough: a partially fulfilled order
// carries no aggregate label of its own.
type FulfillmentSummary int

const (
	SummaryMixed FulfillmentSummary = iota
	SummaryAllShippedOrDelivered
	SummaryAllDelivered
)

// SummarizeFulfillment reduces the item statuses to a single summary.
// An order without items summarizes as mixed so no derivation applies.
func SummarizeFulfillment(items []OrderItem) FulfillmentSummary {
	if len(items) == 0 {
		return SummaryMixed
	}

	allDelivered := true
	allShippedOrDelivered := true

	for _, item := range items {
		if item.Fulfillment != FulfillmentDelivered {
			allDelivered = false
		}

		if item.Fulfillment != FulfillmentShipped && item.Fulfillment != FulfillmentDelivered {
			allShippedOrDelivered = false
		}
	}

	switch {
	case allDelivered:
		return SummaryAllDelivered
	case allShippedOrDelivered:
		return SummaryAllShippedOrDelivered
	default:
		return SummaryMixed
	}
}

// StatusDiscrepancy reports a fulfillment-derived status that could not be
// applied because the transition table does not allow the jump. It is surfaced
// for operational review, never forced onto the order.
type StatusDiscrepancy struct {
	Current OrderStatus
	Derived OrderStatus
}

// DeriveOrderStatus computes the order status implied by the item fulfillment
// states. Mixed states leave the status unchanged. A derived status equal to
// the current one is a no-op. A derived status the transition table does not
// allow from the current one is skipped and returned as a discrepancy.
func DeriveOrderStatus(current OrderStatus, items []OrderItem) (OrderStatus, *StatusDiscrepancy) {
	var derived OrderStatus

	switch SummarizeFulfillment(items) {
	case SummaryAllDelivered:
		derived = StatusDelivered
	case SummaryAllShippedOrDelivered:
		derived = StatusShipped
	case SummaryMixed:
		return current, nil
	default:
		return current, nil
	}

	if derived == current {
		return current, nil
	}

	if !current.CanTransitionTo(derived) {
		return current, &StatusDiscrepancy{Current: current, Derived: derived}
	}

	return derived, nil
}
