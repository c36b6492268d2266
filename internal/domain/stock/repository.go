package stock

import (
	"context"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockLevelRepository persists the stock level projection
type StockLevelRepository interface {
	// FindByID retrieves a level by its ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockLevel, error)

	// FindByTuple retrieves the level for a tenant x item x warehouse x zone
	// tuple, or shared.ErrNotFound
	FindByTuple(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item ItemRef) (*StockLevel, error)

	// FindForUpdate retrieves the tuple's level under a row lock (SELECT FOR
	// UPDATE). Only meaningful inside a transaction scope.
	FindForUpdate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item ItemRef) (*StockLevel, error)

	// GetOrCreate retrieves the tuple's level, creating a zero-quantity row if
	// none exists yet
	GetOrCreate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item ItemRef) (*StockLevel, error)

	// FindByItem retrieves all levels for an item across warehouses and zones
	FindByItem(ctx context.Context, tenantID uuid.UUID, item ItemRef) ([]*StockLevel, error)

	// FindByWarehouse retrieves the levels of a warehouse with pagination
	FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) (shared.Paginated[*StockLevel], error)

	// FindBelowMinimum retrieves the levels whose on-hand quantity is at or
	// below their configured minimum; warehouseID narrows the scan when set
	FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]*StockLevel, error)

	// Save persists a level
	Save(ctx context.Context, level *StockLevel) error

	// SaveWithLock persists a level with optimistic lock checking; returns
	// shared.ErrConcurrencyConflict if the stored version moved on
	SaveWithLock(ctx context.Context, level *StockLevel) error
}

// MovementQuery narrows ledger reads
type MovementQuery struct {
	WarehouseID *uuid.UUID
	Item        *ItemRef
	Type        *MovementType
	Reference   string
	From        *time.Time
	To          *time.Time
}

// StockMovementRepository persists the append-only movement ledger
type StockMovementRepository interface {
	// FindByID retrieves a movement by its ID within a tenant
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockMovement, error)

	// Append writes movements to the ledger. Movements are never updated.
	Append(ctx context.Context, movements ...*StockMovement) error

	// Search retrieves movements matching the query, newest first
	Search(ctx context.Context, tenantID uuid.UUID, query MovementQuery, filter shared.Filter) (shared.Paginated[*StockMovement], error)

	// FindByReference retrieves all movements sharing a correlation reference
	FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]*StockMovement, error)

	// DeleteByReference removes the movements sharing a reference. This exists
	// solely for the physical-inventory reversal tool; nothing else may delete
	// ledger rows.
	DeleteByReference(ctx context.Context, tenantID uuid.UUID, reference string) (int64, error)

	// SumSignedByTuple replays the ledger for one tuple and returns the signed
	// quantity total, used by the reconciliation check
	SumSignedByTuple(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item ItemRef) (decimal.Decimal, error)
}

// RecipeRepository persists bills of materials
type RecipeRepository interface {
	// FindByID retrieves a recipe with its items
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Recipe, error)

	// FindActiveByProduct retrieves the single active recipe for a composite
	// product, or shared.ErrNotFound for simple products
	FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*Recipe, error)

	// FindByTenant retrieves recipes with pagination
	FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*Recipe], error)

	// Save persists a recipe and its items
	Save(ctx context.Context, recipe *Recipe) error

	// Delete removes a recipe
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// PhysicalInventoryRepository persists physical count documents
type PhysicalInventoryRepository interface {
	// FindByID retrieves a document with its snapshot lines
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PhysicalInventory, error)

	// FindByNumber retrieves a document by its human-readable number
	FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*PhysicalInventory, error)

	// FindByTenant retrieves documents with pagination, optionally narrowed to
	// one status
	FindByTenant(ctx context.Context, tenantID uuid.UUID, status *PhysicalInventoryStatus, filter shared.Filter) (shared.Paginated[*PhysicalInventory], error)

	// NextSequence returns the next per-tenant document sequence number, used
	// to build inventory numbers like PI-20260828-0001
	NextSequence(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error)

	// Save persists the document header with optimistic lock checking
	Save(ctx context.Context, pi *PhysicalInventory) error

	// SaveWithItems persists the document header and its snapshot lines
	SaveWithItems(ctx context.Context, pi *PhysicalInventory) error
}
