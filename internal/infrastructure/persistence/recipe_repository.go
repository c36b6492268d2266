package persistence

import (
	"context"
	"errors"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormRecipeRepository implements RecipeRepository using GORM
type GormRecipeRepository struct {
	db *gorm.DB
}

// NewGormRecipeRepository creates a new GormRecipeRepository
func NewGormRecipeRepository(db *gorm.DB) *GormRecipeRepository {
	return &GormRecipeRepository{db: db}
}

// FindByID finds a recipe with its items
func (r *GormRecipeRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*stock.Recipe, error) {
	var recipe stock.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// FindActiveByProduct finds the single active recipe for a product
func (r *GormRecipeRepository) FindActiveByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*stock.Recipe, error) {
	var recipe stock.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Where("tenant_id = ? AND product_id = ? AND active = ?", tenantID, productID, true).
		First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// FindByTenant finds recipes with pagination
func (r *GormRecipeRepository) FindByTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[*stock.Recipe], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&stock.Recipe{}).
		Where("tenant_id = ?", tenantID).
		Count(&total).Error; err != nil {
		return shared.Paginated[*stock.Recipe]{}, err
	}

	var recipes []*stock.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order")
		}).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&recipes).Error; err != nil {
		return shared.Paginated[*stock.Recipe]{}, err
	}
	return shared.NewPaginated(recipes, total, filter.Page, filter.PageSize), nil
}

// Save creates or updates a recipe and its items
func (r *GormRecipeRepository) Save(ctx context.Context, recipe *stock.Recipe) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(recipe).Error
}

// Delete removes a recipe and its items
func (r *GormRecipeRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&stock.Recipe{}, "tenant_id = ? AND id = ?", tenantID, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return tx.Delete(&stock.RecipeItem{}, "recipe_id = ?", id).Error
	})
}

// Ensure GormRecipeRepository implements RecipeRepository
var _ stock.RecipeRepository = (*GormRecipeRepository)(nil)
