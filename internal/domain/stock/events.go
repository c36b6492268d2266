package stock

import (
	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the stock ledger
const (
	EventTypeStockMovementRecorded      = "stock.movement_recorded"
	EventTypeStockTransferred           = "stock.transferred"
	EventTypeStockBelowThreshold        = "stock.below_threshold"
	EventTypePhysicalInventoryStarted   = "stock.physical_inventory_started"
	EventTypePhysicalInventoryApproved  = "stock.physical_inventory_approved"
	EventTypePhysicalInventoryCancelled = "stock.physical_inventory_cancelled"
)

// StockMovementRecordedEvent is published after a movement and its projection
// update commit together
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID  uuid.UUID       `json:"movement_id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Type        MovementType    `json:"movement_type"`
	Quantity    decimal.Decimal `json:"quantity"`
	Direction   int             `json:"direction"`
	Reference   string          `json:"reference,omitempty"`
}

// NewStockMovementRecordedEvent creates a movement recorded event
func NewStockMovementRecordedEvent(m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementRecorded, "StockMovement", m.ID, m.TenantID),
		MovementID:      m.ID,
		WarehouseID:     m.WarehouseID,
		ProductID:       m.Item.ProductID,
		VariantID:       m.Item.VariantID,
		Type:            m.Type,
		Quantity:        m.Quantity,
		Direction:       m.Direction,
		Reference:       m.Reference,
	}
}

// StockTransferredEvent is published once per transfer after both movements
// of the pair have committed
type StockTransferredEvent struct {
	shared.BaseDomainEvent
	Reference         string          `json:"reference"`
	SourceWarehouseID uuid.UUID       `json:"source_warehouse_id"`
	TargetWarehouseID uuid.UUID       `json:"target_warehouse_id"`
	ProductID         uuid.UUID       `json:"product_id"`
	VariantID         *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity          decimal.Decimal `json:"quantity"`
}

// NewStockTransferredEvent creates a transfer event from the OUT/IN pair
func NewStockTransferredEvent(out, in *StockMovement) *StockTransferredEvent {
	return &StockTransferredEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeStockTransferred, "StockMovement", out.ID, out.TenantID),
		Reference:         out.Reference,
		SourceWarehouseID: out.WarehouseID,
		TargetWarehouseID: in.WarehouseID,
		ProductID:         out.Item.ProductID,
		VariantID:         out.Item.VariantID,
		Quantity:          in.Quantity,
	}
}

// StockBelowThresholdEvent is published when a projection update leaves the
// on-hand quantity at or below the configured minimum
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

// NewStockBelowThresholdEvent creates a below-threshold event from a level
func NewStockBelowThresholdEvent(l *StockLevel) *StockBelowThresholdEvent {
	return &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, "StockLevel", l.ID, l.TenantID),
		WarehouseID:     l.WarehouseID,
		ProductID:       l.Item.ProductID,
		VariantID:       l.Item.VariantID,
		Quantity:        l.Quantity,
		MinStock:        l.MinStock,
	}
}

// PhysicalInventoryStartedEvent is published when the first count moves a
// physical inventory into COUNTING
type PhysicalInventoryStartedEvent struct {
	shared.BaseDomainEvent
	Number      string    `json:"number"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
}

// NewPhysicalInventoryStartedEvent creates a physical inventory started event
func NewPhysicalInventoryStartedEvent(pi *PhysicalInventory) *PhysicalInventoryStartedEvent {
	return &PhysicalInventoryStartedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePhysicalInventoryStarted, "PhysicalInventory", pi.ID, pi.TenantID),
		Number:          pi.Number,
		WarehouseID:     pi.WarehouseID,
	}
}

// PhysicalInventoryApprovedEvent is published after the approval transaction
// commits, once the variance adjustments are in the ledger
type PhysicalInventoryApprovedEvent struct {
	shared.BaseDomainEvent
	Number          string    `json:"number"`
	WarehouseID     uuid.UUID `json:"warehouse_id"`
	DifferenceLines int       `json:"difference_lines"`
}

// NewPhysicalInventoryApprovedEvent creates a physical inventory approved event
func NewPhysicalInventoryApprovedEvent(pi *PhysicalInventory) *PhysicalInventoryApprovedEvent {
	return &PhysicalInventoryApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePhysicalInventoryApproved, "PhysicalInventory", pi.ID, pi.TenantID),
		Number:          pi.Number,
		WarehouseID:     pi.WarehouseID,
		DifferenceLines: len(pi.DifferenceItems()),
	}
}

// PhysicalInventoryCancelledEvent is published after the reversal tool has
// deleted the approval's movements and restored the projection
type PhysicalInventoryCancelledEvent struct {
	shared.BaseDomainEvent
	Number      string    `json:"number"`
	WarehouseID uuid.UUID `json:"warehouse_id"`
	Reason      string    `json:"reason"`
}

// NewPhysicalInventoryCancelledEvent creates a physical inventory cancelled event
func NewPhysicalInventoryCancelledEvent(pi *PhysicalInventory) *PhysicalInventoryCancelledEvent {
	return &PhysicalInventoryCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePhysicalInventoryCancelled, "PhysicalInventory", pi.ID, pi.TenantID),
		Number:          pi.Number,
		WarehouseID:     pi.WarehouseID,
		Reason:          pi.Remark,
	}
}
