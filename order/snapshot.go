package order

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/velora-labs/storefront-engine-go/entity"
)

// DefaultProductImageURL is used when neither the variant nor the product
// carries an image.
const DefaultProductImageURL = "https://placeholder.com/default.jpg"

// BuildCustomerSnapshot copies the fixed customer field set. The source user is
// never re-read afterwards.
func BuildCustomerSnapshot(user entity.User) CustomerSnapshot {
	return CustomerSnapshot{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Email:       user.PrimaryEmail,
		Phone:       user.Phone,
	}
}

// BuildProductSnapshot copies the fixed product field set, resolving the named
// variant's attributes and image. An empty variant name snapshots the base
// product. The source product is never re-read afterwards.
func BuildProductSnapshot(product entity.Product, variantName string) ProductSnapshot {
	snapshot := ProductSnapshot{
		ProductID:    product.ID,
		SupplierID:   product.SupplierID,
		SupplierName: product.SupplierName,
		Name:         product.Name,
		VariantName:  variantName,
		ImageURL:     product.ImageURL,
	}

	if variant, ok := product.Variants[variantName]; ok {
		if len(variant.Attributes) > 0 {
			snapshot.Attributes = make(map[string]string, len(variant.Attributes))
			for _, attribute := range variant.Attributes {
				snapshot.Attributes[attribute.Name] = attribute.Value
			}
		}

		if variant.ImageURL != "" {
			snapshot.ImageURL = variant.ImageURL
		}
	}

	if snapshot.ImageURL == "" {
		snapshot.ImageURL = DefaultProductImageURL
	}

	return snapshot
}

// GenerateOrderNumber builds a human-readable order number from the date and a
// short random suffix, e.g. ORD-20260830-3F2A. The suffix is NOT globally
// unique; insertion must treat a collision as a retryable Conflict.
func GenerateOrderNumber(now time.Time) string {
	var buf [2]byte
	_, _ = rand.Read(buf[:])

	suffix := binary.BigEndian.Uint16(buf[:])

	return fmt.Sprintf("ORD-%s-%04X", now.UTC().Format("20060102"), suffix)
}
