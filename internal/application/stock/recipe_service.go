package stock

import (
	"context"
	"errors"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRecipeRequest defines a bill of materials for a composite product
type CreateRecipeRequest struct {
	ProductID uuid.UUID           `json:"product_id" binding:"required"`
	Yield     decimal.Decimal     `json:"yield"`
	Items     []RecipeItemRequest `json:"items" binding:"required,min=1,dive"`
}

// RecipeItemRequest is one component line of a recipe request
type RecipeItemRequest struct {
	ProductID        uuid.UUID       `json:"product_id" binding:"required"`
	VariantID        *uuid.UUID      `json:"variant_id"`
	QuantityPerBatch decimal.Decimal `json:"quantity_per_batch" binding:"required"`
	Unit             string          `json:"unit" binding:"max=30"`
}

// RecipeResponse represents a recipe in API responses
type RecipeResponse struct {
	ID        uuid.UUID            `json:"id"`
	ProductID uuid.UUID            `json:"product_id"`
	Yield     decimal.Decimal      `json:"yield"`
	Active    bool                 `json:"active"`
	Items     []RecipeItemResponse `json:"items"`
	CreatedAt time.Time            `json:"created_at"`
	Version   int                  `json:"version"`
}

// RecipeItemResponse is one component line in API responses
type RecipeItemResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	VariantID        *uuid.UUID      `json:"variant_id,omitempty"`
	QuantityPerBatch decimal.Decimal `json:"quantity_per_batch"`
	Unit             string          `json:"unit,omitempty"`
	SortOrder        int             `json:"sort_order"`
}

// ToRecipeResponse converts a domain recipe to a response DTO
func ToRecipeResponse(r *stock.Recipe) RecipeResponse {
	items := make([]RecipeItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = RecipeItemResponse{
			ID:               item.ID,
			ProductID:        item.Component.ProductID,
			VariantID:        item.Component.VariantID,
			QuantityPerBatch: item.QuantityPerBatch,
			Unit:             item.Unit,
			SortOrder:        item.SortOrder,
		}
	}
	return RecipeResponse{
		ID:        r.ID,
		ProductID: r.ProductID,
		Yield:     r.Yield,
		Active:    r.Active,
		Items:     items,
		CreatedAt: r.CreatedAt,
		Version:   r.Version,
	}
}

// RecipeService manages bills of materials for composite products
type RecipeService struct {
	recipeRepo stock.RecipeRepository
}

// NewRecipeService creates a new RecipeService
func NewRecipeService(recipeRepo stock.RecipeRepository) *RecipeService {
	return &RecipeService{recipeRepo: recipeRepo}
}

// Create defines a recipe for a product. A product carries at most one active
// recipe; defining a second one is rejected rather than silently replacing it.
func (s *RecipeService) Create(ctx context.Context, tenantID uuid.UUID, req CreateRecipeRequest) (*RecipeResponse, error) {
	existing, err := s.recipeRepo.FindActiveByProduct(ctx, tenantID, req.ProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("RECIPE_EXISTS", "Product already has an active recipe")
	}
	if req.ProductID != uuid.Nil {
		for _, item := range req.Items {
			if item.ProductID == req.ProductID && item.VariantID == nil {
				return nil, shared.NewDomainError("INVALID_RECIPE", "A recipe cannot contain its own product")
			}
		}
	}

	yield := req.Yield
	if yield.IsZero() {
		yield = decimal.NewFromInt(1)
	}
	recipe, err := stock.NewRecipe(tenantID, req.ProductID, yield)
	if err != nil {
		return nil, err
	}
	for _, item := range req.Items {
		component := stock.NewProductRef(item.ProductID)
		if item.VariantID != nil {
			component = stock.NewVariantRef(item.ProductID, *item.VariantID)
		}
		if item.QuantityPerBatch.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity per batch must be positive")
		}
		if err := recipe.AddItem(component, item.QuantityPerBatch, item.Unit); err != nil {
			return nil, err
		}
	}

	if err := s.recipeRepo.Save(ctx, recipe); err != nil {
		return nil, err
	}

	response := ToRecipeResponse(recipe)
	return &response, nil
}

// Get retrieves a recipe by ID
func (s *RecipeService) Get(ctx context.Context, tenantID, id uuid.UUID) (*RecipeResponse, error) {
	recipe, err := s.recipeRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToRecipeResponse(recipe)
	return &response, nil
}

// GetByProduct retrieves the active recipe of a product
func (s *RecipeService) GetByProduct(ctx context.Context, tenantID, productID uuid.UUID) (*RecipeResponse, error) {
	recipe, err := s.recipeRepo.FindActiveByProduct(ctx, tenantID, productID)
	if err != nil {
		return nil, err
	}
	response := ToRecipeResponse(recipe)
	return &response, nil
}

// List retrieves recipes with pagination
func (s *RecipeService) List(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[RecipeResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	page, err := s.recipeRepo.FindByTenant(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[RecipeResponse]{}, err
	}

	responses := make([]RecipeResponse, len(page.Items))
	for i, recipe := range page.Items {
		responses[i] = ToRecipeResponse(recipe)
	}
	return shared.NewPaginated(responses, page.Total, page.Page, page.PageSize), nil
}

// Delete removes a recipe, turning its product back into a simple one
func (s *RecipeService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.recipeRepo.Delete(ctx, tenantID, id)
}
