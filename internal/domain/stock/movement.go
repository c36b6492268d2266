package stock

import (
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType represents the signed-direction type of a stock movement
type MovementType string

const (
	// MovementTypeIn represents stock entering a warehouse (receiving, transfer-in)
	MovementTypeIn MovementType = "IN"
	// MovementTypeOut represents stock leaving a warehouse (sale, transfer-out)
	MovementTypeOut MovementType = "OUT"
	// MovementTypeAdjustment represents a signed correction (count variance, damage)
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// String returns the string representation of MovementType
func (t MovementType) String() string {
	return string(t)
}

// IsValid returns true if the movement type is valid
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable record of a single stock change.
// Quantity is always stored positive; Direction carries the sign (+1/-1).
// IN movements are always +1 and OUT movements always -1; ADJUSTMENT movements
// carry whichever sign the correction had. Once created, movements are never
// mutated - corrections are made with compensating movements. The single
// sanctioned exception is the physical-inventory reversal tool, which deletes
// the movements tagged with a cancelled inventory's reference.
type StockMovement struct {
	shared.BaseEntity
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_movement_tenant_time,priority:1"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;index"`
	ZoneID      *uuid.UUID      `gorm:"type:uuid;index"`
	Item        ItemRef         `gorm:"embedded"`
	Type        MovementType    `gorm:"type:varchar(20);not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Direction   int             `gorm:"not null"`
	UnitCost    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	ReasonCode  string          `gorm:"type:varchar(50)"`
	ReasonNote  string          `gorm:"type:varchar(255)"`
	Reference   string          `gorm:"type:varchar(100);index"`
	ActorID     *uuid.UUID      `gorm:"type:uuid"`
	OccurredAt  time.Time       `gorm:"type:timestamptz;not null;index:idx_movement_tenant_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a movement from a signed quantity. The sign of
// signedQuantity determines Direction; Quantity stores the absolute value.
func NewStockMovement(
	tenantID, warehouseID uuid.UUID,
	item ItemRef,
	movementType MovementType,
	signedQuantity decimal.Decimal,
) (*StockMovement, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if !movementType.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_TYPE", "Invalid movement type")
	}
	if signedQuantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}

	direction := 1
	if signedQuantity.IsNegative() {
		direction = -1
	}
	switch movementType {
	case MovementTypeIn:
		if direction < 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "IN movements must have a positive quantity")
		}
	case MovementTypeOut:
		if direction > 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "OUT movements must have a negative quantity")
		}
	}

	return &StockMovement{
		BaseEntity:  shared.NewBaseEntity(),
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Item:        item,
		Type:        movementType,
		Quantity:    signedQuantity.Abs(),
		Direction:   direction,
		OccurredAt:  time.Now(),
	}, nil
}

// WithZone sets the zone within the warehouse
func (m *StockMovement) WithZone(zoneID uuid.UUID) *StockMovement {
	m.ZoneID = &zoneID
	return m
}

// WithUnitCost sets the unit cost at movement time
func (m *StockMovement) WithUnitCost(cost decimal.Decimal) *StockMovement {
	m.UnitCost = &cost
	return m
}

// WithReason sets the reason code and free-text note
func (m *StockMovement) WithReason(code, note string) *StockMovement {
	m.ReasonCode = code
	m.ReasonNote = note
	return m
}

// WithReference sets the correlation reference (transfer pair, source document,
// physical inventory number)
func (m *StockMovement) WithReference(reference string) *StockMovement {
	m.Reference = reference
	return m
}

// WithActor sets the user who recorded the movement
func (m *StockMovement) WithActor(actorID uuid.UUID) *StockMovement {
	m.ActorID = &actorID
	return m
}

// SignedQuantity returns the quantity with its direction applied
func (m *StockMovement) SignedQuantity() decimal.Decimal {
	if m.Direction < 0 {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// Inverse returns the signed quantity a compensating movement would carry
func (m *StockMovement) Inverse() decimal.Decimal {
	return m.SignedQuantity().Neg()
}
