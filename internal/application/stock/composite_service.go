package stock

import (
	"context"
	"errors"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CompositeService derives sellable quantities for recipe-built products.
// Composite stock is never stored: it is computed on read as the floor of
// what the component levels support, so component movements are reflected
// immediately without any propagation machinery.
type CompositeService struct {
	recipeRepo stock.RecipeRepository
	levelRepo  stock.StockLevelRepository
}

// NewCompositeService creates a new CompositeService
func NewCompositeService(recipeRepo stock.RecipeRepository, levelRepo stock.StockLevelRepository) *CompositeService {
	return &CompositeService{
		recipeRepo: recipeRepo,
		levelRepo:  levelRepo,
	}
}

// AvailableToSell returns the sellable quantity of a product. Simple products
// report their own projection; composite products report the minimum batches
// their components support. warehouseID narrows the computation to one
// warehouse when set, otherwise component stock is summed across all of them.
func (s *CompositeService) AvailableToSell(ctx context.Context, tenantID, productID uuid.UUID, variantID, warehouseID *uuid.UUID) (*AvailableToSellResponse, error) {
	item := stock.NewProductRef(productID)
	if variantID != nil {
		item = stock.NewVariantRef(productID, *variantID)
	}

	recipe, err := s.recipeRepo.FindActiveByProduct(ctx, tenantID, productID)
	if err != nil {
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		// Simple product: availability is the projection itself.
		onHand, err := s.onHand(ctx, tenantID, item, warehouseID)
		if err != nil {
			return nil, err
		}
		return &AvailableToSellResponse{
			ProductID:   productID,
			VariantID:   variantID,
			WarehouseID: warehouseID,
			Composite:   false,
			Available:   onHand,
		}, nil
	}

	components := make([]ComponentAvailability, 0, len(recipe.Items))
	stockByComponent := make(map[string]decimal.Decimal, len(recipe.Items))
	for _, line := range recipe.Items {
		onHand, err := s.onHand(ctx, tenantID, line.Component, warehouseID)
		if err != nil {
			return nil, err
		}
		stockByComponent[line.Component.String()] = onHand
		components = append(components, ComponentAvailability{
			ProductID:        line.Component.ProductID,
			VariantID:        line.Component.VariantID,
			OnHand:           onHand,
			QuantityPerBatch: line.QuantityPerBatch,
			Batches:          line.Contribution(onHand),
		})
	}

	available := recipe.AvailableBatches(func(ref stock.ItemRef) decimal.Decimal {
		return stockByComponent[ref.String()]
	})

	return &AvailableToSellResponse{
		ProductID:   productID,
		VariantID:   variantID,
		WarehouseID: warehouseID,
		Composite:   true,
		Available:   available,
		Components:  components,
	}, nil
}

// onHand sums an item's projection, optionally narrowed to one warehouse.
// A tuple that never moved reads as zero, not as an error.
func (s *CompositeService) onHand(ctx context.Context, tenantID uuid.UUID, item stock.ItemRef, warehouseID *uuid.UUID) (decimal.Decimal, error) {
	levels, err := s.levelRepo.FindByItem(ctx, tenantID, item)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, level := range levels {
		if warehouseID != nil && level.WarehouseID != *warehouseID {
			continue
		}
		total = total.Add(level.Quantity)
	}
	return total, nil
}
