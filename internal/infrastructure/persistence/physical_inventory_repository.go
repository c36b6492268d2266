package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPhysicalInventoryRepository implements PhysicalInventoryRepository using GORM
type GormPhysicalInventoryRepository struct {
	db *gorm.DB
}

// NewGormPhysicalInventoryRepository creates a new GormPhysicalInventoryRepository
func NewGormPhysicalInventoryRepository(db *gorm.DB) *GormPhysicalInventoryRepository {
	return &GormPhysicalInventoryRepository{db: db}
}

// FindByID finds a document with its snapshot lines
func (r *GormPhysicalInventoryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.PhysicalInventory, error) {
	var pi stock.PhysicalInventory
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&pi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pi, nil
}

// FindByNumber finds a document by its human-readable number
func (r *GormPhysicalInventoryRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, number string) (*stock.PhysicalInventory, error) {
	var pi stock.PhysicalInventory
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Where("tenant_id = ? AND number = ?", tenantID, number).
		First(&pi).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &pi, nil
}

// FindByTenant finds documents with pagination, optionally narrowed to one status
func (r *GormPhysicalInventoryRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, status *stock.PhysicalInventoryStatus, filter shared.Filter) (shared.Paginated[*stock.PhysicalInventory], error) {
	where := func(query *gorm.DB) *gorm.DB {
		query = query.Where("tenant_id = ?", tenantID)
		if status != nil {
			query = query.Where("status = ?", status.String())
		}
		return query
	}

	var total int64
	if err := where(r.db.WithContext(ctx).Model(&stock.PhysicalInventory{})).
		Count(&total).Error; err != nil {
		return shared.Paginated[*stock.PhysicalInventory]{}, err
	}

	var documents []*stock.PhysicalInventory
	if err := where(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&documents).Error; err != nil {
		return shared.Paginated[*stock.PhysicalInventory]{}, err
	}
	return shared.NewPaginated(documents, total, filter.Page, filter.PageSize), nil
}

// NextSequence returns the next per-tenant sequence for the given day
func (r *GormPhysicalInventoryRepository) NextSequence(ctx context.Context, tenantID uuid.UUID, date time.Time) (int, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&stock.PhysicalInventory{}).
		Where("tenant_id = ? AND created_at >= ? AND created_at < ?", tenantID, dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

// Save persists the document header with optimistic lock checking. A freshly
// created document (version 1) is inserted instead.
func (r *GormPhysicalInventoryRepository) Save(ctx context.Context, pi *stock.PhysicalInventory) error {
	if pi.Version <= 1 {
		return r.db.WithContext(ctx).Omit("Items").Create(pi).Error
	}

	result := r.db.WithContext(ctx).
		Model(pi).
		Where("id = ? AND version = ?", pi.ID, pi.Version-1).
		Updates(map[string]interface{}{
			"status":       pi.Status,
			"started_at":   pi.StartedAt,
			"completed_at": pi.CompletedAt,
			"approved_at":  pi.ApprovedAt,
			"approved_by":  pi.ApprovedBy,
			"remark":       pi.Remark,
			"version":      pi.Version,
			"updated_at":   pi.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// SaveWithItems persists the document header and upserts its snapshot lines
func (r *GormPhysicalInventoryRepository) SaveWithItems(ctx context.Context, pi *stock.PhysicalInventory) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if pi.Version <= 1 {
			var count int64
			if err := tx.Model(&stock.PhysicalInventory{}).Where("id = ?", pi.ID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				for i := range pi.Items {
					pi.Items[i].PhysicalInventoryID = pi.ID
				}
				return tx.Create(pi).Error
			}
		}

		scoped := NewGormPhysicalInventoryRepository(tx)
		if err := scoped.Save(ctx, pi); err != nil {
			return err
		}
		for i := range pi.Items {
			pi.Items[i].PhysicalInventoryID = pi.ID
			if err := tx.Save(&pi.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormPhysicalInventoryRepository implements PhysicalInventoryRepository
var _ stock.PhysicalInventoryRepository = (*GormPhysicalInventoryRepository)(nil)
