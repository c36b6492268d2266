package stock

import (
	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
)

// ItemRef identifies a stock-tracked entity: either a base product or a
// specific variant of a product. Exactly one of the two granularities applies
// to any movement or level row - a variant-level record never coexists with a
// product-level record for the same physical stock.
type ItemRef struct {
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `gorm:"type:uuid;index"`
}

// NewProductRef creates an item reference for a base product
func NewProductRef(productID uuid.UUID) ItemRef {
	return ItemRef{ProductID: productID}
}

// NewVariantRef creates an item reference for a product variant
func NewVariantRef(productID, variantID uuid.UUID) ItemRef {
	return ItemRef{ProductID: productID, VariantID: &variantID}
}

// Validate checks that the reference resolves to exactly one entity
func (r ItemRef) Validate() error {
	if r.ProductID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM", "Product ID cannot be empty")
	}
	if r.VariantID != nil && *r.VariantID == uuid.Nil {
		return shared.NewDomainError("INVALID_ITEM", "Variant ID cannot be empty when set")
	}
	return nil
}

// IsVariant returns true if the reference points at a product variant
func (r ItemRef) IsVariant() bool {
	return r.VariantID != nil
}

// Equal returns true if both references identify the same entity
func (r ItemRef) Equal(other ItemRef) bool {
	if r.ProductID != other.ProductID {
		return false
	}
	if (r.VariantID == nil) != (other.VariantID == nil) {
		return false
	}
	if r.VariantID != nil && *r.VariantID != *other.VariantID {
		return false
	}
	return true
}

// String returns a stable textual form, used in logs and map keys
func (r ItemRef) String() string {
	if r.VariantID != nil {
		return r.ProductID.String() + "/" + r.VariantID.String()
	}
	return r.ProductID.String()
}
