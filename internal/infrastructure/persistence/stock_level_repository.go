package persistence

import (
	"context"
	"errors"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockLevelRepository implements StockLevelRepository using GORM
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// tupleWhere narrows a query to one tenant x item x warehouse x zone tuple.
// NULL zone and NULL variant are distinct tuples, so nil pointers become
// IS NULL predicates rather than equality against nil.
func tupleWhere(query *gorm.DB, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) *gorm.DB {
	query = query.Where("tenant_id = ? AND warehouse_id = ? AND product_id = ?", tenantID, warehouseID, item.ProductID)
	if zoneID != nil {
		query = query.Where("zone_id = ?", *zoneID)
	} else {
		query = query.Where("zone_id IS NULL")
	}
	if item.VariantID != nil {
		query = query.Where("variant_id = ?", *item.VariantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}
	return query
}

// FindByID finds a stock level by ID within a tenant
func (r *GormStockLevelRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockLevel, error) {
	var level stock.StockLevel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindByTuple finds the level for a tuple
func (r *GormStockLevelRepository) FindByTuple(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	var level stock.StockLevel
	query := tupleWhere(r.db.WithContext(ctx), tenantID, warehouseID, zoneID, item)
	if err := query.First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// FindForUpdate finds the tuple's level under a row lock. Only meaningful
// inside a transaction.
func (r *GormStockLevelRepository) FindForUpdate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	var level stock.StockLevel
	query := tupleWhere(
		r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}),
		tenantID, warehouseID, zoneID, item,
	)
	if err := query.First(&level).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &level, nil
}

// GetOrCreate finds the tuple's level, creating a zero-quantity row if absent
func (r *GormStockLevelRepository) GetOrCreate(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*stock.StockLevel, error) {
	level, err := r.FindForUpdate(ctx, tenantID, warehouseID, zoneID, item)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	created, err := stock.NewStockLevel(tenantID, warehouseID, zoneID, item)
	if err != nil {
		return nil, err
	}
	// Two concurrent first movements can both miss the read; the unique index
	// breaks the tie and the loser re-reads the winner's row.
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(created).Error; err != nil {
		return nil, err
	}
	return r.FindForUpdate(ctx, tenantID, warehouseID, zoneID, item)
}

// FindByItem finds all levels for an item across warehouses and zones
func (r *GormStockLevelRepository) FindByItem(ctx context.Context, tenantID uuid.UUID, item stock.ItemRef) ([]*stock.StockLevel, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND product_id = ?", tenantID, item.ProductID)
	if item.VariantID != nil {
		query = query.Where("variant_id = ?", *item.VariantID)
	} else {
		query = query.Where("variant_id IS NULL")
	}

	var levels []*stock.StockLevel
	if err := query.Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// FindByWarehouse finds the levels of a warehouse with pagination
func (r *GormStockLevelRepository) FindByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.StockLevel], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&stock.StockLevel{}).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID).
		Count(&total).Error; err != nil {
		return shared.Paginated[*stock.StockLevel]{}, err
	}

	var levels []*stock.StockLevel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ?", tenantID, warehouseID).
		Order("product_id, variant_id, zone_id").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&levels).Error; err != nil {
		return shared.Paginated[*stock.StockLevel]{}, err
	}
	return shared.NewPaginated(levels, total, filter.Page, filter.PageSize), nil
}

// FindBelowMinimum finds the levels at or below their minimum threshold
func (r *GormStockLevelRepository) FindBelowMinimum(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]*stock.StockLevel, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ? AND ((min_stock > 0 AND quantity <= min_stock) OR (min_stock = 0 AND max_stock > 0 AND quantity < max_stock))", tenantID)
	if warehouseID != nil {
		query = query.Where("warehouse_id = ?", *warehouseID)
	}

	var levels []*stock.StockLevel
	if err := query.Order("warehouse_id, product_id").Find(&levels).Error; err != nil {
		return nil, err
	}
	return levels, nil
}

// Save creates or updates a level
func (r *GormStockLevelRepository) Save(ctx context.Context, level *stock.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormStockLevelRepository) SaveWithLock(ctx context.Context, level *stock.StockLevel) error {
	result := r.db.WithContext(ctx).
		Model(level).
		Where("id = ? AND version = ?", level.ID, level.Version-1).
		Updates(map[string]interface{}{
			"quantity":   level.Quantity,
			"min_stock":  level.MinStock,
			"max_stock":  level.MaxStock,
			"version":    level.Version,
			"updated_at": level.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormStockLevelRepository implements StockLevelRepository
var _ stock.StockLevelRepository = (*GormStockLevelRepository)(nil)
