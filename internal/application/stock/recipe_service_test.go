package stock

import (
	"context"
	"testing"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecipeServiceCreate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates a recipe with its component lines", func(t *testing.T) {
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)

		resp, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: uuid.New(),
			Items: []RecipeItemRequest{
				{ProductID: uuid.New(), QuantityPerBatch: decimal.NewFromInt(2), Unit: "kg"},
				{ProductID: uuid.New(), QuantityPerBatch: decimal.NewFromFloat(0.5), Unit: "l"},
			},
		})
		require.NoError(t, err)
		assert.True(t, resp.Active)
		assert.True(t, resp.Yield.Equal(decimal.NewFromInt(1)), "yield defaults to one")
		require.Len(t, resp.Items, 2)
		assert.Equal(t, 0, resp.Items[0].SortOrder)
	})

	t.Run("a product carries at most one active recipe", func(t *testing.T) {
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)
		productID := uuid.New()
		req := CreateRecipeRequest{
			ProductID: productID,
			Items:     []RecipeItemRequest{{ProductID: uuid.New(), QuantityPerBatch: decimal.NewFromInt(1)}},
		}

		_, err := service.Create(ctx, tenantID, req)
		require.NoError(t, err)

		_, err = service.Create(ctx, tenantID, req)
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "RECIPE_EXISTS", domainErr.Code)
	})

	t.Run("a recipe cannot contain its own product", func(t *testing.T) {
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)
		productID := uuid.New()

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: productID,
			Items:     []RecipeItemRequest{{ProductID: productID, QuantityPerBatch: decimal.NewFromInt(1)}},
		})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "INVALID_RECIPE", domainErr.Code)
	})

	t.Run("rejects non-positive component quantities", func(t *testing.T) {
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: uuid.New(),
			Items:     []RecipeItemRequest{{ProductID: uuid.New(), QuantityPerBatch: decimal.Zero}},
		})
		assert.Error(t, err)
	})

	t.Run("rejects duplicate components", func(t *testing.T) {
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)
		componentID := uuid.New()

		_, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: uuid.New(),
			Items: []RecipeItemRequest{
				{ProductID: componentID, QuantityPerBatch: decimal.NewFromInt(1)},
				{ProductID: componentID, QuantityPerBatch: decimal.NewFromInt(2)},
			},
		})
		assert.Error(t, err)
	})
}

func TestRecipeServiceQueries(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	setup := func(t *testing.T) (*stockFixture, *RecipeService, *RecipeResponse) {
		t.Helper()
		f := newStockFixture()
		service := NewRecipeService(f.recipeRepo)
		resp, err := service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: uuid.New(),
			Items:     []RecipeItemRequest{{ProductID: uuid.New(), QuantityPerBatch: decimal.NewFromInt(1)}},
		})
		require.NoError(t, err)
		return f, service, resp
	}

	t.Run("Get and GetByProduct resolve the recipe", func(t *testing.T) {
		_, service, created := setup(t)

		byID, err := service.Get(ctx, tenantID, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byID.ID)

		byProduct, err := service.GetByProduct(ctx, tenantID, created.ProductID)
		require.NoError(t, err)
		assert.Equal(t, created.ID, byProduct.ID)
	})

	t.Run("GetByProduct reports simple products as not found", func(t *testing.T) {
		_, service, _ := setup(t)
		_, err := service.GetByProduct(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("List pages the tenant's recipes", func(t *testing.T) {
		_, service, _ := setup(t)
		page, err := service.List(ctx, tenantID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, int64(1), page.Total)
	})

	t.Run("Delete turns the product simple again", func(t *testing.T) {
		_, service, created := setup(t)
		require.NoError(t, service.Delete(ctx, tenantID, created.ID))

		_, err := service.GetByProduct(ctx, tenantID, created.ProductID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		// And a new recipe may now be defined.
		_, err = service.Create(ctx, tenantID, CreateRecipeRequest{
			ProductID: created.ProductID,
			Items:     []RecipeItemRequest{{ProductID: uuid.New(), QuantityPerBatch: decimal.NewFromInt(1)}},
		})
		assert.NoError(t, err)
	})

	t.Run("recipes are tenant scoped", func(t *testing.T) {
		_, service, created := setup(t)
		_, err := service.Get(ctx, uuid.New(), created.ID)
		assert.Error(t, err)
	})
}
