package stock

import (
	"time"

	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordMovementRequest represents a request to append a movement to the ledger
type RecordMovementRequest struct {
	WarehouseID uuid.UUID        `json:"warehouse_id" binding:"required"`
	ZoneID      *uuid.UUID       `json:"zone_id"`
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID       `json:"variant_id"`
	Type        string           `json:"type" binding:"required,oneof=IN OUT ADJUSTMENT"`
	Quantity    decimal.Decimal  `json:"quantity" binding:"required"`
	UnitCost    *decimal.Decimal `json:"unit_cost"`
	ReasonCode  string           `json:"reason_code"`
	ReasonNote  string           `json:"reason_note"`
	Reference   string           `json:"reference"`
	ActorID     *uuid.UUID       `json:"actor_id"`
}

// ItemRef builds the domain item reference from the request
func (r *RecordMovementRequest) ItemRef() stock.ItemRef {
	if r.VariantID != nil {
		return stock.NewVariantRef(r.ProductID, *r.VariantID)
	}
	return stock.NewProductRef(r.ProductID)
}

// MovementResponse represents a movement in API responses
type MovementResponse struct {
	ID          uuid.UUID        `json:"id"`
	WarehouseID uuid.UUID        `json:"warehouse_id"`
	ZoneID      *uuid.UUID       `json:"zone_id,omitempty"`
	ProductID   uuid.UUID        `json:"product_id"`
	VariantID   *uuid.UUID       `json:"variant_id,omitempty"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Direction   int              `json:"direction"`
	UnitCost    *decimal.Decimal `json:"unit_cost,omitempty"`
	ReasonCode  string           `json:"reason_code,omitempty"`
	ReasonNote  string           `json:"reason_note,omitempty"`
	Reference   string           `json:"reference,omitempty"`
	ActorID     *uuid.UUID       `json:"actor_id,omitempty"`
	OccurredAt  time.Time        `json:"occurred_at"`
}

// ToMovementResponse converts a domain movement to a response DTO
func ToMovementResponse(m *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:          m.ID,
		WarehouseID: m.WarehouseID,
		ZoneID:      m.ZoneID,
		ProductID:   m.Item.ProductID,
		VariantID:   m.Item.VariantID,
		Type:        m.Type.String(),
		Quantity:    m.Quantity,
		Direction:   m.Direction,
		UnitCost:    m.UnitCost,
		ReasonCode:  m.ReasonCode,
		ReasonNote:  m.ReasonNote,
		Reference:   m.Reference,
		ActorID:     m.ActorID,
		OccurredAt:  m.OccurredAt,
	}
}

// ToMovementResponses converts a slice of domain movements
func ToMovementResponses(movements []*stock.StockMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i, m := range movements {
		responses[i] = ToMovementResponse(m)
	}
	return responses
}

// MovementListFilter represents filter options for ledger queries
type MovementListFilter struct {
	WarehouseID *uuid.UUID `form:"warehouse_id"`
	ProductID   *uuid.UUID `form:"product_id"`
	VariantID   *uuid.UUID `form:"variant_id"`
	Type        *string    `form:"type" binding:"omitempty,oneof=IN OUT ADJUSTMENT"`
	Reference   string     `form:"reference"`
	From        *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To          *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Page        int        `form:"page" binding:"omitempty,min=1"`
	PageSize    int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// StockLevelResponse represents a projection row in API responses
type StockLevelResponse struct {
	ID          uuid.UUID       `json:"id"`
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ZoneID      *uuid.UUID      `json:"zone_id,omitempty"`
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
	MaxStock    decimal.Decimal `json:"max_stock"`
	BelowMin    bool            `json:"below_minimum"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Version     int             `json:"version"`
}

// ToStockLevelResponse converts a domain level to a response DTO
func ToStockLevelResponse(l *stock.StockLevel) StockLevelResponse {
	return StockLevelResponse{
		ID:          l.ID,
		WarehouseID: l.WarehouseID,
		ZoneID:      l.ZoneID,
		ProductID:   l.Item.ProductID,
		VariantID:   l.Item.VariantID,
		Quantity:    l.Quantity,
		MinStock:    l.MinStock,
		MaxStock:    l.MaxStock,
		BelowMin:    l.IsBelowMinimum(),
		UpdatedAt:   l.UpdatedAt,
		Version:     l.Version,
	}
}

// ToStockLevelResponses converts a slice of domain levels
func ToStockLevelResponses(levels []*stock.StockLevel) []StockLevelResponse {
	responses := make([]StockLevelResponse, len(levels))
	for i, l := range levels {
		responses[i] = ToStockLevelResponse(l)
	}
	return responses
}

// SetThresholdsRequest represents a request to configure reorder thresholds
type SetThresholdsRequest struct {
	WarehouseID uuid.UUID        `json:"warehouse_id" binding:"required"`
	ZoneID      *uuid.UUID       `json:"zone_id"`
	ProductID   uuid.UUID        `json:"product_id" binding:"required"`
	VariantID   *uuid.UUID       `json:"variant_id"`
	MinStock    *decimal.Decimal `json:"min_stock"`
	MaxStock    *decimal.Decimal `json:"max_stock"`
}

// TransferRequest represents a request to move stock between warehouses
type TransferRequest struct {
	SourceWarehouseID uuid.UUID       `json:"source_warehouse_id" binding:"required"`
	SourceZoneID      *uuid.UUID      `json:"source_zone_id"`
	TargetWarehouseID uuid.UUID       `json:"target_warehouse_id" binding:"required"`
	TargetZoneID      *uuid.UUID      `json:"target_zone_id"`
	ProductID         uuid.UUID       `json:"product_id" binding:"required"`
	VariantID         *uuid.UUID      `json:"variant_id"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Reference         string          `json:"reference"`
	Note              string          `json:"note"`
	ActorID           *uuid.UUID      `json:"actor_id"`
}

// ItemRef builds the domain item reference from the request
func (r *TransferRequest) ItemRef() stock.ItemRef {
	if r.VariantID != nil {
		return stock.NewVariantRef(r.ProductID, *r.VariantID)
	}
	return stock.NewProductRef(r.ProductID)
}

// TransferResponse represents the movement pair written by a transfer
type TransferResponse struct {
	Reference   string           `json:"reference"`
	OutMovement MovementResponse `json:"out_movement"`
	InMovement  MovementResponse `json:"in_movement"`
}

// AdjustStockRequest represents a request to correct a level to an observed
// actual quantity. Reason is mandatory: unexplained corrections are not
// accepted into the ledger.
type AdjustStockRequest struct {
	WarehouseID    uuid.UUID       `json:"warehouse_id" binding:"required"`
	ZoneID         *uuid.UUID      `json:"zone_id"`
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	VariantID      *uuid.UUID      `json:"variant_id"`
	ActualQuantity decimal.Decimal `json:"actual_quantity" binding:"required"`
	ReasonCode     string          `json:"reason_code" binding:"required,min=1,max=50"`
	ReasonNote     string          `json:"reason_note" binding:"max=255"`
	Reference      string          `json:"reference"`
	ActorID        *uuid.UUID      `json:"actor_id"`
}

// ItemRef builds the domain item reference from the request
func (r *AdjustStockRequest) ItemRef() stock.ItemRef {
	if r.VariantID != nil {
		return stock.NewVariantRef(r.ProductID, *r.VariantID)
	}
	return stock.NewProductRef(r.ProductID)
}

// AdjustByRequest represents a request to apply a signed correction to a
// level. Reason is mandatory, same as for set-to-actual adjustments.
type AdjustByRequest struct {
	WarehouseID    uuid.UUID       `json:"warehouse_id" binding:"required"`
	ZoneID         *uuid.UUID      `json:"zone_id"`
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	VariantID      *uuid.UUID      `json:"variant_id"`
	SignedQuantity decimal.Decimal `json:"signed_quantity" binding:"required"`
	ReasonCode     string          `json:"reason_code" binding:"required,min=1,max=50"`
	ReasonNote     string          `json:"reason_note" binding:"max=255"`
	Reference      string          `json:"reference"`
	ActorID        *uuid.UUID      `json:"actor_id"`
}

// ItemRef builds the domain item reference from the request
func (r *AdjustByRequest) ItemRef() stock.ItemRef {
	if r.VariantID != nil {
		return stock.NewVariantRef(r.ProductID, *r.VariantID)
	}
	return stock.NewProductRef(r.ProductID)
}

// AdjustStockResponse represents the outcome of an adjustment
type AdjustStockResponse struct {
	Movement    *MovementResponse  `json:"movement,omitempty"`
	Level       StockLevelResponse `json:"level"`
	WasRequired bool               `json:"was_required"`
}

// AvailableToSellResponse represents derived availability for a product
type AvailableToSellResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	VariantID   *uuid.UUID      `json:"variant_id,omitempty"`
	WarehouseID *uuid.UUID      `json:"warehouse_id,omitempty"`
	Composite   bool            `json:"composite"`
	Available   decimal.Decimal `json:"available"`
	Components  []ComponentAvailability `json:"components,omitempty"`
}

// ComponentAvailability explains one component's contribution to a composite
type ComponentAvailability struct {
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	OnHand           decimal.Decimal `json:"on_hand"`
	QuantityPerBatch decimal.Decimal `json:"quantity_per_batch"`
	Batches          decimal.Decimal `json:"batches"`
}

// CreatePhysicalInventoryRequest starts a count for one warehouse
type CreatePhysicalInventoryRequest struct {
	WarehouseID uuid.UUID   `json:"warehouse_id" binding:"required"`
	ProductIDs  []uuid.UUID `json:"product_ids"` // empty means the whole warehouse
	Remark      string      `json:"remark" binding:"max=255"`
}

// RecordCountRequest records one counted line
type RecordCountRequest struct {
	ItemID          uuid.UUID       `json:"item_id" binding:"required"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
	Notes           string          `json:"notes" binding:"max=255"`
}

// CancelPhysicalInventoryRequest reverses an approved count
type CancelPhysicalInventoryRequest struct {
	Reason  string     `json:"reason" binding:"required,min=1,max=255"`
	ActorID *uuid.UUID `json:"actor_id"`
}

// PhysicalInventoryItemResponse represents one snapshot line
type PhysicalInventoryItemResponse struct {
	ID              uuid.UUID        `json:"id"`
	ProductID       uuid.UUID        `json:"product_id"`
	VariantID       *uuid.UUID       `json:"variant_id,omitempty"`
	ZoneID          *uuid.UUID       `json:"zone_id,omitempty"`
	SystemQuantity  decimal.Decimal  `json:"system_quantity"`
	CountedQuantity *decimal.Decimal `json:"counted_quantity,omitempty"`
	Difference      *decimal.Decimal `json:"difference,omitempty"`
	Notes           string           `json:"notes,omitempty"`
}

// PhysicalInventoryResponse represents a count document
type PhysicalInventoryResponse struct {
	ID          uuid.UUID                       `json:"id"`
	Number      string                          `json:"number"`
	WarehouseID uuid.UUID                       `json:"warehouse_id"`
	Status      string                          `json:"status"`
	StartedAt   *time.Time                      `json:"started_at,omitempty"`
	CompletedAt *time.Time                      `json:"completed_at,omitempty"`
	ApprovedAt  *time.Time                      `json:"approved_at,omitempty"`
	ApprovedBy  *uuid.UUID                      `json:"approved_by,omitempty"`
	Remark      string                          `json:"remark,omitempty"`
	TotalItems  int                             `json:"total_items"`
	CountedItems int                            `json:"counted_items"`
	Items       []PhysicalInventoryItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time                       `json:"created_at"`
}

// ToPhysicalInventoryResponse converts a domain document to a response DTO
func ToPhysicalInventoryResponse(pi *stock.PhysicalInventory, includeItems bool) PhysicalInventoryResponse {
	resp := PhysicalInventoryResponse{
		ID:           pi.ID,
		Number:       pi.Number,
		WarehouseID:  pi.WarehouseID,
		Status:       pi.Status.String(),
		StartedAt:    pi.StartedAt,
		CompletedAt:  pi.CompletedAt,
		ApprovedAt:   pi.ApprovedAt,
		ApprovedBy:   pi.ApprovedBy,
		Remark:       pi.Remark,
		TotalItems:   len(pi.Items),
		CountedItems: pi.CountedItems(),
		CreatedAt:    pi.CreatedAt,
	}
	if includeItems {
		resp.Items = make([]PhysicalInventoryItemResponse, len(pi.Items))
		for i, item := range pi.Items {
			resp.Items[i] = PhysicalInventoryItemResponse{
				ID:              item.ID,
				ProductID:       item.Item.ProductID,
				VariantID:       item.Item.VariantID,
				ZoneID:          item.ZoneID,
				SystemQuantity:  item.SystemQuantity,
				CountedQuantity: item.CountedQuantity,
				Difference:      item.Difference,
				Notes:           item.Notes,
			}
		}
	}
	return resp
}

// ReorderSuggestion represents one line of the reorder report
type ReorderSuggestion struct {
	WarehouseID       uuid.UUID       `json:"warehouse_id"`
	ZoneID            *uuid.UUID      `json:"zone_id,omitempty"`
	ProductID         uuid.UUID       `json:"product_id"`
	VariantID         *uuid.UUID      `json:"variant_id,omitempty"`
	OnHand            decimal.Decimal `json:"on_hand"`
	MinStock          decimal.Decimal `json:"min_stock"`
	MaxStock          decimal.Decimal `json:"max_stock"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
}

// ReconciliationResult reports one tuple where ledger replay and projection disagree
type ReconciliationResult struct {
	WarehouseID     uuid.UUID       `json:"warehouse_id"`
	ZoneID          *uuid.UUID      `json:"zone_id,omitempty"`
	ProductID       uuid.UUID       `json:"product_id"`
	VariantID       *uuid.UUID      `json:"variant_id,omitempty"`
	ProjectedOnHand decimal.Decimal `json:"projected_on_hand"`
	LedgerOnHand    decimal.Decimal `json:"ledger_on_hand"`
	Drift           decimal.Decimal `json:"drift"`
}
