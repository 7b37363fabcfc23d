// Package entity holds the live source entities referenced by records and orders.
// The storefront engines never own these — they are fetched through a lookup
// collaborator and copied into immutable snapshots at the moment of reference.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a platform account (consumer or leader). Only the fields the engines
// snapshot are modeled here.
type User struct {
	ID           uuid.UUID
	DisplayName  string
	Avatar       string
	PrimaryEmail string
	Phone        *string
	DeletedAt    *time.Time
}

// VariantAttribute is a single attribute of a product variant, e.g. Color: Red.
type VariantAttribute struct {
	Name  string
	Value string
}

// Variant is a purchasable variation of a product with its own price and image.
type Variant struct {
	Name       string
	Attributes []VariantAttribute
	PriceCents int64
	ImageURL   string
}

// Product is a supplier-owned catalog item. Variants are keyed by variant name
// for O(1) lookup at order time.
type Product struct {
	ID             uuid.UUID
	SupplierID     uuid.UUID
	SupplierName   string
	Name           string
	BasePriceCents int64
	ImageURL       string
	Variants       map[string]Variant
	DeletedAt      *time.Time
}

// VariantPriceCents returns the price for the named variant, falling back to the
// base price when no variant name is given or the name is unknown.
func (p Product) VariantPriceCents(variantName string) int64 {
	if variantName == "" {
		return p.BasePriceCents
	}

	if variant, ok := p.Variants[variantName]; ok {
		return variant.PriceCents
	}

	return p.BasePriceCents
}

// HasVariant reports whether the named variant exists on this product.
func (p Product) HasVariant(variantName string) bool {
	_, ok := p.Variants[variantName]
	return ok
}
