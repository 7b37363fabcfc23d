package order

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/velora-labs/storefront-engine-go/listing"
)

// ShippingAddress is the destination an order ships to, captured at placement.
type ShippingAddress struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Line1         string `json:"line1"`
	Line2         string `json:"line2,omitempty"`
	City          string `json:"city"`
	State         string `json:"state,omitempty"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
}

// TrackingInfo is optional shipment metadata attached to a line item.
type TrackingInfo struct {
	Carrier        string     `json:"carrier"`
	TrackingNumber string     `json:"tracking_number"`
	ShippedAt      *time.Time `json:"shipped_at,omitempty"`
}

// CustomerSnapshot is the frozen copy of the ordering customer.
type CustomerSnapshot struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	Phone       *string   `json:"phone,omitempty"`
}

// ProductSnapshot is the frozen copy of a catalog item at order time. It never
// updates when the source product changes afterwards.
type ProductSnapshot struct {
	ProductID    uuid.UUID         `json:"product_id"`
	SupplierID   uuid.UUID         `json:"supplier_id"`
	SupplierName string            `json:"supplier_name"`
	Name         string            `json:"name"`
	VariantName  string            `json:"variant_name,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	ImageURL     string            `json:"image_url"`
}

// AttributeNames returns the variant attribute names in a stable sorted order.
// The map itself stays keyed for O(1) lookup; iterate through this accessor
// whenever enumeration order matters, e.g. for display.
func (s ProductSnapshot) AttributeNames() []string {
	names := make([]string, 0, len(s.Attributes))
	for name := range s.Attributes {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// OrderItem is a line item, exclusively owned by its Order. It is never
// referenced or mutated outside the order's lifecycle operations.
type OrderItem struct {
	ID             uuid.UUID         `json:"id"`
	Product        ProductSnapshot   `json:"product"`
	Quantity       int               `json:"quantity"`
	UnitPriceCents int64             `json:"unit_price_cents"`
	SubtotalCents  int64             `json:"subtotal_cents"`
	Fulfillment    FulfillmentStatus `json:"fulfillment"`
	Tracking       *TrackingInfo     `json:"tracking,omitempty"`
}

// Order is the aggregate. Number is the human-readable order number; it is
// generated, not guaranteed unique, and collisions surface as Conflict on insert.
type Order struct {
	ID              uuid.UUID        `json:"id"`
	Number          string           `json:"number"`
	Customer        CustomerSnapshot `json:"customer"`
	ShippingAddress ShippingAddress  `json:"shipping_address"`
	Items           []OrderItem      `json:"items"`
	Status          OrderStatus      `json:"status"`
	CancelReason    *string          `json:"cancel_reason,omitempty"`
	TotalCents      int64            `json:"total_cents"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ItemIndex returns the index of the item with the given id, or false when the
// order holds no such item.
func (o Order) ItemIndex(itemID uuid.UUID) (int, bool) {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return i, true
		}
	}

	return 0, false
}

// Boundary returns the compound pagination cursor for this order, pairing the
// creation timestamp with the id as tiebreak. Order ids are UUIDv7, so the
// tiebreak ordering is consistent with creation order.
func (o Order) Boundary() listing.Cursor {
	return listing.Cursor{SortValue: o.CreatedAt, TiebreakID: o.ID}
}
