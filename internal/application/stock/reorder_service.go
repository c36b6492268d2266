package stock

import (
	"context"
	"sort"

	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
)

// ReorderService produces purchasing suggestions from the projection and its
// thresholds. Suggestions are advisory - nothing here writes to the ledger.
type ReorderService struct {
	levelRepo stock.StockLevelRepository
}

// NewReorderService creates a new ReorderService
func NewReorderService(levelRepo stock.StockLevelRepository) *ReorderService {
	return &ReorderService{levelRepo: levelRepo}
}

// Suggestions returns one line per tuple at or below its minimum threshold,
// with the quantity needed to replenish to the maximum (or the minimum when no
// maximum is configured). Tuples without thresholds never appear, whatever
// their on-hand quantity. warehouseID narrows the report when set.
func (s *ReorderService) Suggestions(ctx context.Context, tenantID uuid.UUID, warehouseID *uuid.UUID) ([]ReorderSuggestion, error) {
	levels, err := s.levelRepo.FindBelowMinimum(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, err
	}

	suggestions := make([]ReorderSuggestion, 0, len(levels))
	for _, level := range levels {
		if !level.NeedsReorder() {
			continue
		}
		suggestions = append(suggestions, ReorderSuggestion{
			WarehouseID:       level.WarehouseID,
			ZoneID:            level.ZoneID,
			ProductID:         level.Item.ProductID,
			VariantID:         level.Item.VariantID,
			OnHand:            level.Quantity,
			MinStock:          level.MinStock,
			MaxStock:          level.MaxStock,
			SuggestedQuantity: level.SuggestedReorderQuantity(),
		})
	}
	// Most urgent first
	sort.Slice(suggestions, func(i, j int) bool {
		return suggestions[i].SuggestedQuantity.GreaterThan(suggestions[j].SuggestedQuantity)
	})
	return suggestions, nil
}
