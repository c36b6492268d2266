package persistence

import (
	"context"
	"errors"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The ledger is append-only: there is no update path, and the only delete is
// DeleteByReference for the physical-inventory reversal tool.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// FindByID finds a movement by ID within a tenant
func (r *GormStockMovementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.StockMovement, error) {
	var movement stock.StockMovement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&movement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &movement, nil
}

// Append writes movements to the ledger
func (r *GormStockMovementRepository) Append(ctx context.Context, movements ...*stock.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(movements).Error
}

// applyQuery narrows a query to the movement search criteria
func (r *GormStockMovementRepository) applyQuery(query *gorm.DB, tenantID uuid.UUID, q stock.MovementQuery) *gorm.DB {
	query = query.Where("tenant_id = ?", tenantID)
	if q.WarehouseID != nil {
		query = query.Where("warehouse_id = ?", *q.WarehouseID)
	}
	if q.Item != nil {
		query = query.Where("product_id = ?", q.Item.ProductID)
		if q.Item.VariantID != nil {
			query = query.Where("variant_id = ?", *q.Item.VariantID)
		} else {
			query = query.Where("variant_id IS NULL")
		}
	}
	if q.Type != nil {
		query = query.Where("type = ?", q.Type.String())
	}
	if q.Reference != "" {
		query = query.Where("reference = ?", q.Reference)
	}
	if q.From != nil {
		query = query.Where("occurred_at >= ?", *q.From)
	}
	if q.To != nil {
		query = query.Where("occurred_at < ?", *q.To)
	}
	return query
}

// Search finds movements matching the query, newest first
func (r *GormStockMovementRepository) Search(ctx context.Context, tenantID uuid.UUID, query stock.MovementQuery, filter shared.Filter) (shared.Paginated[*stock.StockMovement], error) {
	var total int64
	if err := r.applyQuery(r.db.WithContext(ctx).Model(&stock.StockMovement{}), tenantID, query).
		Count(&total).Error; err != nil {
		return shared.Paginated[*stock.StockMovement]{}, err
	}

	var movements []*stock.StockMovement
	if err := r.applyQuery(r.db.WithContext(ctx), tenantID, query).
		Order("occurred_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&movements).Error; err != nil {
		return shared.Paginated[*stock.StockMovement]{}, err
	}
	return shared.NewPaginated(movements, total, filter.Page, filter.PageSize), nil
}

// FindByReference finds all movements sharing a correlation reference
func (r *GormStockMovementRepository) FindByReference(ctx context.Context, tenantID uuid.UUID, reference string) ([]*stock.StockMovement, error) {
	var movements []*stock.StockMovement
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Order("occurred_at, id").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// DeleteByReference removes the movements sharing a reference. Reserved for
// the physical-inventory reversal tool.
func (r *GormStockMovementRepository) DeleteByReference(ctx context.Context, tenantID uuid.UUID, reference string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference = ?", tenantID, reference).
		Delete(&stock.StockMovement{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// SumSignedByTuple replays the ledger for one tuple
func (r *GormStockMovementRepository) SumSignedByTuple(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	query := tupleWhere(
		r.db.WithContext(ctx).Model(&stock.StockMovement{}),
		tenantID, warehouseID, zoneID, item,
	)
	if err := query.
		Select("COALESCE(SUM(quantity * direction), 0) as total").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ stock.StockMovementRepository = (*GormStockMovementRepository)(nil)
