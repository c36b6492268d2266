package stock

import (
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecipeItem is one component line of a bill of materials
type RecipeItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RecipeID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	Component        ItemRef         `gorm:"embedded"`
	QuantityPerBatch decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit             string          `gorm:"type:varchar(30)"`
	SortOrder        int             `gorm:"not null;default:0"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName returns the table name for GORM
func (RecipeItem) TableName() string {
	return "recipe_items"
}

// Contribution returns how many batches the given component stock supports:
// floor(stock / quantityPerBatch). A non-positive requirement contributes
// nothing rather than dividing by zero.
func (i *RecipeItem) Contribution(componentStock decimal.Decimal) decimal.Decimal {
	if i.QuantityPerBatch.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	batches := componentStock.Div(i.QuantityPerBatch).Floor()
	if batches.IsNegative() {
		return decimal.Zero
	}
	return batches
}

// Recipe is the bill of materials for a composite product. A product has at
// most one active recipe; composite stock is never stored, it is derived on
// read from the component levels.
type Recipe struct {
	shared.TenantAggregateRoot
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Yield     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:1"`
	Active    bool            `gorm:"not null;default:true"`
	Items     []RecipeItem    `gorm:"foreignKey:RecipeID;references:ID"`
}

// TableName returns the table name for GORM
func (Recipe) TableName() string {
	return "recipes"
}

// NewRecipe creates a recipe for a composite product
func NewRecipe(tenantID, productID uuid.UUID, yield decimal.Decimal) (*Recipe, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if yield.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_YIELD", "Recipe yield must be positive")
	}

	return &Recipe{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		Yield:               yield,
		Active:              true,
		Items:               make([]RecipeItem, 0),
	}, nil
}

// AddItem appends a component line to the recipe
func (r *Recipe) AddItem(component ItemRef, quantityPerBatch decimal.Decimal, unit string) error {
	if err := component.Validate(); err != nil {
		return err
	}
	for _, item := range r.Items {
		if item.Component.Equal(component) {
			return shared.NewDomainError("DUPLICATE_COMPONENT", "Component already exists in recipe")
		}
	}

	now := time.Now()
	r.Items = append(r.Items, RecipeItem{
		ID:               uuid.New(),
		RecipeID:         r.ID,
		Component:        component,
		QuantityPerBatch: quantityPerBatch,
		Unit:             unit,
		SortOrder:        len(r.Items),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	r.UpdatedAt = now
	r.IncrementVersion()
	return nil
}

// AvailableBatches computes the sellable quantity as the minimum, over all
// components, of each component's contribution. An empty recipe yields zero,
// never "infinite". One batch is one sellable unit: Yield stays informational
// and is not multiplied in, so a batch consuming 2kg of a component with 4kg
// on hand contributes 2 batches regardless of yield.
func (r *Recipe) AvailableBatches(componentStock func(ItemRef) decimal.Decimal) decimal.Decimal {
	if len(r.Items) == 0 {
		return decimal.Zero
	}

	var minBatches decimal.Decimal
	for i := range r.Items {
		contribution := r.Items[i].Contribution(componentStock(r.Items[i].Component))
		if i == 0 || contribution.LessThan(minBatches) {
			minBatches = contribution
		}
	}
	return minBatches
}
