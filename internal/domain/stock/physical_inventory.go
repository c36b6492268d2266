package stock

import (
	"fmt"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PhysicalInventoryStatus represents the status of a physical count document
type PhysicalInventoryStatus string

const (
	PhysicalInventoryStatusPending   PhysicalInventoryStatus = "PENDING"
	PhysicalInventoryStatusCounting  PhysicalInventoryStatus = "COUNTING"
	PhysicalInventoryStatusCompleted PhysicalInventoryStatus = "COMPLETED"
	PhysicalInventoryStatusApproved  PhysicalInventoryStatus = "APPROVED"
	PhysicalInventoryStatusCancelled PhysicalInventoryStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PhysicalInventoryStatus
func (s PhysicalInventoryStatus) IsValid() bool {
	switch s {
	case PhysicalInventoryStatusPending, PhysicalInventoryStatusCounting,
		PhysicalInventoryStatusCompleted, PhysicalInventoryStatusApproved,
		PhysicalInventoryStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PhysicalInventoryStatus
func (s PhysicalInventoryStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status.
// CANCELLED is reachable only from APPROVED, via the audited reversal tool.
func (s PhysicalInventoryStatus) CanTransitionTo(target PhysicalInventoryStatus) bool {
	switch s {
	case PhysicalInventoryStatusPending:
		return target == PhysicalInventoryStatusCounting
	case PhysicalInventoryStatusCounting:
		return target == PhysicalInventoryStatusCompleted
	case PhysicalInventoryStatusCompleted:
		return target == PhysicalInventoryStatusApproved
	case PhysicalInventoryStatusApproved:
		return target == PhysicalInventoryStatusCancelled
	case PhysicalInventoryStatusCancelled:
		return false
	}
	return false
}

// PhysicalInventoryItem is one snapshot line of a physical inventory: the
// system quantity captured at creation time and, once counted, the counted
// quantity and the difference (counted - system).
type PhysicalInventoryItem struct {
	ID                  uuid.UUID        `gorm:"type:uuid;primaryKey"`
	PhysicalInventoryID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Item                ItemRef          `gorm:"embedded"`
	ZoneID              *uuid.UUID       `gorm:"type:uuid"`
	SystemQuantity      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	CountedQuantity     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Difference          *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Notes               string           `gorm:"type:varchar(255)"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName returns the table name for GORM
func (PhysicalInventoryItem) TableName() string {
	return "physical_inventory_items"
}

// Counted returns true if a count has been recorded for this line
func (i *PhysicalInventoryItem) Counted() bool {
	return i.CountedQuantity != nil
}

// HasDifference returns true if the line was counted and differs from the system
func (i *PhysicalInventoryItem) HasDifference() bool {
	return i.Difference != nil && !i.Difference.IsZero()
}

// recordCount stores the counted quantity and recomputes the difference.
// Recording the same count twice yields the same difference.
func (i *PhysicalInventoryItem) recordCount(counted decimal.Decimal, notes string) error {
	if counted.IsNegative() {
		return shared.NewDomainError("INVALID_QUANTITY", "Counted quantity cannot be negative")
	}
	diff := counted.Sub(i.SystemQuantity)
	i.CountedQuantity = &counted
	i.Difference = &diff
	i.Notes = notes
	i.UpdatedAt = time.Now()
	return nil
}

// PhysicalInventory is a stock count exercise scoped to one warehouse. It
// snapshots the projection at creation, accepts counts over time, and on
// approval reconciles non-zero differences back into the ledger through
// adjustments tagged with its number.
type PhysicalInventory struct {
	shared.TenantAggregateRoot
	Number      string                  `gorm:"type:varchar(50);not null;uniqueIndex:idx_physical_inventory_number"`
	WarehouseID uuid.UUID               `gorm:"type:uuid;not null;index"`
	Status      PhysicalInventoryStatus `gorm:"type:varchar(20);not null;index"`
	StartedAt   *time.Time
	CompletedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *uuid.UUID `gorm:"type:uuid"`
	Remark      string     `gorm:"type:varchar(255)"`
	Items       []PhysicalInventoryItem `gorm:"foreignKey:PhysicalInventoryID;references:ID"`
}

// TableName returns the table name for GORM
func (PhysicalInventory) TableName() string {
	return "physical_inventories"
}

// NewPhysicalInventory creates a count document in PENDING status
func NewPhysicalInventory(tenantID, warehouseID uuid.UUID, number string) (*PhysicalInventory, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Inventory number cannot be empty")
	}

	pi := &PhysicalInventory{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		WarehouseID:         warehouseID,
		Status:              PhysicalInventoryStatusPending,
		Items:               make([]PhysicalInventoryItem, 0),
	}
	return pi, nil
}

// Snapshot captures a level into the count document. Only valid while PENDING.
func (pi *PhysicalInventory) Snapshot(level *StockLevel) error {
	if pi.Status != PhysicalInventoryStatusPending {
		return shared.NewDomainError("INVALID_STATE_TRANSITION", "Can only snapshot levels while PENDING")
	}
	if level.WarehouseID != pi.WarehouseID {
		return shared.NewDomainError("INVALID_WAREHOUSE", "Level belongs to a different warehouse")
	}

	now := time.Now()
	pi.Items = append(pi.Items, PhysicalInventoryItem{
		ID:                  uuid.New(),
		PhysicalInventoryID: pi.ID,
		Item:                level.Item,
		ZoneID:              level.ZoneID,
		SystemQuantity:      level.Quantity,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	pi.UpdatedAt = now
	return nil
}

// RecordCount records a counted quantity against a snapshot line. The first
// count moves the document PENDING -> COUNTING and stamps the start time;
// recording further counts while already COUNTING leaves the state untouched.
func (pi *PhysicalInventory) RecordCount(itemID uuid.UUID, counted decimal.Decimal, notes string) error {
	if pi.Status != PhysicalInventoryStatusPending && pi.Status != PhysicalInventoryStatusCounting {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot record counts in %s status", pi.Status))
	}

	for i := range pi.Items {
		if pi.Items[i].ID != itemID {
			continue
		}
		if err := pi.Items[i].recordCount(counted, notes); err != nil {
			return err
		}
		if pi.Status == PhysicalInventoryStatusPending {
			now := time.Now()
			pi.Status = PhysicalInventoryStatusCounting
			pi.StartedAt = &now
			pi.AddDomainEvent(NewPhysicalInventoryStartedEvent(pi))
		}
		pi.Touch()
		pi.IncrementVersion()
		return nil
	}
	return shared.NewDomainError("ITEM_NOT_FOUND", "Snapshot line not found in physical inventory")
}

// Complete marks the counting session over. Whether "all relevant items are
// counted" is the caller's decision, not enforced here.
func (pi *PhysicalInventory) Complete() error {
	if !pi.Status.CanTransitionTo(PhysicalInventoryStatusCompleted) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to COMPLETED", pi.Status))
	}
	now := time.Now()
	pi.Status = PhysicalInventoryStatusCompleted
	pi.CompletedAt = &now
	pi.UpdatedAt = now
	pi.IncrementVersion()
	return nil
}

// Approve transitions COMPLETED -> APPROVED. The caller runs the resulting
// adjustments and this transition inside one transaction. Approving with zero
// differences is a valid no-op approval.
func (pi *PhysicalInventory) Approve(approverID uuid.UUID) error {
	if !pi.Status.CanTransitionTo(PhysicalInventoryStatusApproved) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to APPROVED", pi.Status))
	}
	if approverID == uuid.Nil {
		return shared.NewDomainError("INVALID_APPROVER", "Approver ID cannot be empty")
	}

	now := time.Now()
	pi.Status = PhysicalInventoryStatusApproved
	pi.ApprovedAt = &now
	pi.ApprovedBy = &approverID
	pi.UpdatedAt = now
	pi.IncrementVersion()

	pi.AddDomainEvent(NewPhysicalInventoryApprovedEvent(pi))
	return nil
}

// MarkCancelled flips an APPROVED inventory to CANCELLED. Only the reversal
// tool calls this, after deleting the approval's movements and restoring the
// levels.
func (pi *PhysicalInventory) MarkCancelled(reason string) error {
	if !pi.Status.CanTransitionTo(PhysicalInventoryStatusCancelled) {
		return shared.NewDomainError("INVALID_STATE_TRANSITION",
			fmt.Sprintf("Cannot transition from %s to CANCELLED", pi.Status))
	}
	pi.Status = PhysicalInventoryStatusCancelled
	pi.Remark = reason
	pi.Touch()
	pi.IncrementVersion()

	pi.AddDomainEvent(NewPhysicalInventoryCancelledEvent(pi))
	return nil
}

// CountedItems returns how many lines have been counted
func (pi *PhysicalInventory) CountedItems() int {
	count := 0
	for i := range pi.Items {
		if pi.Items[i].Counted() {
			count++
		}
	}
	return count
}

// DifferenceItems returns the lines with a non-null, non-zero difference
func (pi *PhysicalInventory) DifferenceItems() []PhysicalInventoryItem {
	result := make([]PhysicalInventoryItem, 0)
	for _, item := range pi.Items {
		if item.HasDifference() {
			result = append(result, item)
		}
	}
	return result
}
