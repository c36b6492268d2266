package stock

import (
	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevel is the mutable projection of the movement ledger: one row per
// tenant x item x warehouse x zone holding the current on-hand quantity and
// the reorder thresholds. Quantity is always the ledger-derived value; the
// only code path allowed to change it is ApplyMovement, called from inside the
// ledger-writing transaction (and the physical-inventory reversal it powers).
// Negative quantities are permitted at this layer - they signal oversell or
// mis-sequenced transfers and are prevented by callers that need the
// guarantee, not here.
type StockLevel struct {
	shared.TenantAggregateRoot
	// Tuple uniqueness (tenant, warehouse, zone, item) lives in the schema as
	// a NULLS NOT DISTINCT unique index; gorm tags cannot express it across
	// the embedded item columns.
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ZoneID      *uuid.UUID      `gorm:"type:uuid;index"`
	Item        ItemRef         `gorm:"embedded"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MinStock    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	MaxStock    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates an empty level for a tuple. Levels are created lazily
// on first movement into the tuple, or explicitly when thresholds are
// configured (quantity starts at zero in both cases).
func NewStockLevel(tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item ItemRef) (*StockLevel, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}

	return &StockLevel{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		WarehouseID:         warehouseID,
		ZoneID:              zoneID,
		Item:                item,
		Quantity:            decimal.Zero,
		MinStock:            decimal.Zero,
		MaxStock:            decimal.Zero,
	}, nil
}

// ApplyMovement adds the movement's signed quantity to the projection. It is
// the single writer path for Quantity; every other method on this aggregate
// only reads it.
func (l *StockLevel) ApplyMovement(m *StockMovement) error {
	if !l.Item.Equal(m.Item) || l.WarehouseID != m.WarehouseID || !sameZone(l.ZoneID, m.ZoneID) {
		return shared.NewDomainError("TUPLE_MISMATCH", "Movement does not target this stock level")
	}
	return l.ApplyDelta(m.SignedQuantity())
}

func sameZone(a, b *uuid.UUID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}

// ApplyDelta adds a signed delta to the quantity. Exposed for the
// physical-inventory reversal tool, which reapplies movement inverses; all
// other callers go through ApplyMovement.
func (l *StockLevel) ApplyDelta(delta decimal.Decimal) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_QUANTITY", "Delta cannot be zero")
	}

	l.Quantity = l.Quantity.Add(delta)
	l.Touch()
	l.IncrementVersion()

	if l.IsBelowMinimum() {
		l.AddDomainEvent(NewStockBelowThresholdEvent(l))
	}
	return nil
}

// SetMinStock sets the minimum threshold (0 means unset)
func (l *StockLevel) SetMinStock(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}
	l.MinStock = quantity
	l.Touch()
	l.IncrementVersion()
	return nil
}

// SetMaxStock sets the maximum threshold (0 means unset)
func (l *StockLevel) SetMaxStock(quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Maximum stock cannot be negative")
	}
	l.MaxStock = quantity
	l.Touch()
	l.IncrementVersion()
	return nil
}

// SetThresholds updates both thresholds as a single mutation (nil leaves a
// threshold unchanged, 0 unsets it). The version advances exactly once no
// matter how many fields change, so one SaveWithLock matches one stored
// version behind.
func (l *StockLevel) SetThresholds(minStock, maxStock *decimal.Decimal) error {
	if minStock != nil && minStock.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Minimum stock cannot be negative")
	}
	if maxStock != nil && maxStock.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Maximum stock cannot be negative")
	}
	if minStock == nil && maxStock == nil {
		return nil
	}

	if minStock != nil {
		l.MinStock = *minStock
	}
	if maxStock != nil {
		l.MaxStock = *maxStock
	}
	l.Touch()
	l.IncrementVersion()
	return nil
}

// CanFulfill returns true if the on-hand quantity covers the requested amount
func (l *StockLevel) CanFulfill(quantity decimal.Decimal) bool {
	return l.Quantity.GreaterThanOrEqual(quantity)
}

// IsBelowMinimum returns true if on-hand is at or below the minimum threshold.
// The boundary is inclusive: onHand == minStock already needs reorder.
func (l *StockLevel) IsBelowMinimum() bool {
	return l.MinStock.GreaterThan(decimal.Zero) && l.Quantity.LessThanOrEqual(l.MinStock)
}

// HasThresholds returns true if a min or max threshold is configured
func (l *StockLevel) HasThresholds() bool {
	return l.MinStock.GreaterThan(decimal.Zero) || l.MaxStock.GreaterThan(decimal.Zero)
}

// ReorderTarget returns the quantity to replenish towards: max if set, else min
func (l *StockLevel) ReorderTarget() decimal.Decimal {
	if l.MaxStock.GreaterThan(decimal.Zero) {
		return l.MaxStock
	}
	return l.MinStock
}

// SuggestedReorderQuantity returns max(0, target - onHand)
func (l *StockLevel) SuggestedReorderQuantity() decimal.Decimal {
	suggested := l.ReorderTarget().Sub(l.Quantity)
	if suggested.IsNegative() {
		return decimal.Zero
	}
	return suggested
}

// NeedsReorder reports whether the level should appear in reorder suggestions
func (l *StockLevel) NeedsReorder() bool {
	if !l.HasThresholds() {
		return false
	}
	if l.MinStock.GreaterThan(decimal.Zero) {
		return l.Quantity.LessThanOrEqual(l.MinStock)
	}
	return l.SuggestedReorderQuantity().GreaterThan(decimal.Zero)
}
