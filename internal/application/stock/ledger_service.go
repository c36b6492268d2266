package stock

import (
	"context"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
)

// LedgerService owns the movement ledger and its projection. RecordMovement is
// the single write path: every stock change in the system, whatever service
// initiates it, becomes a movement row and a projection update committed in
// one transaction.
type LedgerService struct {
	levelRepo      stock.StockLevelRepository
	movementRepo   stock.StockMovementRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	levelRepo stock.StockLevelRepository,
	movementRepo stock.StockMovementRepository,
	txScope TransactionScope,
) *LedgerService {
	return &LedgerService{
		levelRepo:    levelRepo,
		movementRepo: movementRepo,
		txScope:      txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishDomainEvents publishes pending events from a level after commit
func (s *LedgerService) publishDomainEvents(ctx context.Context, level *stock.StockLevel) {
	if s.eventPublisher == nil {
		return
	}
	events := level.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	level.ClearDomainEvents()
}

// RecordMovement appends a movement to the ledger and applies it to the
// projection inside one transaction. The level row is created lazily on first
// movement into a tuple.
func (s *LedgerService) RecordMovement(ctx context.Context, tenantID uuid.UUID, req RecordMovementRequest) (*MovementResponse, error) {
	item := req.ItemRef()

	signed := req.Quantity
	movementType := stock.MovementType(req.Type)
	// IN/OUT requests carry a positive magnitude; the type supplies the sign.
	// ADJUSTMENT requests carry the signed delta directly.
	switch movementType {
	case stock.MovementTypeIn:
		if signed.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "IN quantity must be positive")
		}
	case stock.MovementTypeOut:
		if signed.IsNegative() {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "OUT quantity must be positive")
		}
		signed = signed.Neg()
	}

	movement, err := stock.NewStockMovement(tenantID, req.WarehouseID, item, movementType, signed)
	if err != nil {
		return nil, err
	}
	if req.ZoneID != nil {
		movement.WithZone(*req.ZoneID)
	}
	if req.UnitCost != nil {
		movement.WithUnitCost(*req.UnitCost)
	}
	if req.ActorID != nil {
		movement.WithActor(*req.ActorID)
	}
	movement.WithReason(req.ReasonCode, req.ReasonNote).WithReference(req.Reference)

	var level *stock.StockLevel
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		level, txErr = repos.LevelRepo().GetOrCreate(ctx, tenantID, req.WarehouseID, req.ZoneID, item)
		if txErr != nil {
			return txErr
		}
		if txErr = level.ApplyMovement(movement); txErr != nil {
			return txErr
		}
		if txErr = repos.MovementRepo().Append(ctx, movement); txErr != nil {
			return txErr
		}
		return repos.LevelRepo().SaveWithLock(ctx, level)
	})
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, stock.NewStockMovementRecordedEvent(movement))
	}
	s.publishDomainEvents(ctx, level)

	response := ToMovementResponse(movement)
	return &response, nil
}

// GetMovement retrieves a ledger entry by ID
func (s *LedgerService) GetMovement(ctx context.Context, tenantID, movementID uuid.UUID) (*MovementResponse, error) {
	movement, err := s.movementRepo.FindByID(ctx, tenantID, movementID)
	if err != nil {
		return nil, err
	}
	response := ToMovementResponse(movement)
	return &response, nil
}

// ListMovements retrieves ledger entries matching the filter, newest first
func (s *LedgerService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter MovementListFilter) (shared.Paginated[MovementResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	query := stock.MovementQuery{
		WarehouseID: filter.WarehouseID,
		Reference:   filter.Reference,
		From:        filter.From,
		To:          filter.To,
	}
	if filter.ProductID != nil {
		var item stock.ItemRef
		if filter.VariantID != nil {
			item = stock.NewVariantRef(*filter.ProductID, *filter.VariantID)
		} else {
			item = stock.NewProductRef(*filter.ProductID)
		}
		query.Item = &item
	}
	if filter.Type != nil {
		t := stock.MovementType(*filter.Type)
		query.Type = &t
	}

	domainFilter := shared.DefaultFilter()
	domainFilter.Page = filter.Page
	domainFilter.PageSize = filter.PageSize
	domainFilter.OrderBy = "occurred_at"

	page, err := s.movementRepo.Search(ctx, tenantID, query, domainFilter)
	if err != nil {
		return shared.Paginated[MovementResponse]{}, err
	}
	return shared.NewPaginated(ToMovementResponses(page.Items), page.Total, page.Page, page.PageSize), nil
}

// GetLevel retrieves the projection row for a tuple
func (s *LedgerService) GetLevel(ctx context.Context, tenantID, warehouseID uuid.UUID, zoneID *uuid.UUID, item stock.ItemRef) (*StockLevelResponse, error) {
	level, err := s.levelRepo.FindByTuple(ctx, tenantID, warehouseID, zoneID, item)
	if err != nil {
		return nil, err
	}
	response := ToStockLevelResponse(level)
	return &response, nil
}

// GetLevelsByItem retrieves an item's projection rows across all warehouses
func (s *LedgerService) GetLevelsByItem(ctx context.Context, tenantID uuid.UUID, item stock.ItemRef) ([]StockLevelResponse, error) {
	levels, err := s.levelRepo.FindByItem(ctx, tenantID, item)
	if err != nil {
		return nil, err
	}
	return ToStockLevelResponses(levels), nil
}

// ListLevelsByWarehouse retrieves a warehouse's projection rows with pagination
func (s *LedgerService) ListLevelsByWarehouse(ctx context.Context, tenantID, warehouseID uuid.UUID, filter shared.Filter) (shared.Paginated[StockLevelResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	page, err := s.levelRepo.FindByWarehouse(ctx, tenantID, warehouseID, filter)
	if err != nil {
		return shared.Paginated[StockLevelResponse]{}, err
	}
	return shared.NewPaginated(ToStockLevelResponses(page.Items), page.Total, page.Page, page.PageSize), nil
}

// SetThresholds configures the reorder thresholds on a tuple, creating the
// level row if the tuple has never moved
func (s *LedgerService) SetThresholds(ctx context.Context, tenantID uuid.UUID, req SetThresholdsRequest) (*StockLevelResponse, error) {
	if req.MinStock == nil && req.MaxStock == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "At least one threshold must be provided")
	}

	item := stock.NewProductRef(req.ProductID)
	if req.VariantID != nil {
		item = stock.NewVariantRef(req.ProductID, *req.VariantID)
	}

	var level *stock.StockLevel
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		level, txErr = repos.LevelRepo().GetOrCreate(ctx, tenantID, req.WarehouseID, req.ZoneID, item)
		if txErr != nil {
			return txErr
		}
		if txErr = level.SetThresholds(req.MinStock, req.MaxStock); txErr != nil {
			return txErr
		}
		return repos.LevelRepo().SaveWithLock(ctx, level)
	})
	if err != nil {
		return nil, err
	}

	response := ToStockLevelResponse(level)
	return &response, nil
}

// Reconcile replays the ledger for every level of a warehouse and reports the
// tuples whose projected quantity has drifted from the ledger total. A healthy
// system returns an empty slice; any drift means a write bypassed the
// transaction rule.
func (s *LedgerService) Reconcile(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]ReconciliationResult, error) {
	filter := shared.DefaultFilter()
	filter.PageSize = 500

	drifts := make([]ReconciliationResult, 0)
	for {
		page, err := s.levelRepo.FindByWarehouse(ctx, tenantID, warehouseID, filter)
		if err != nil {
			return nil, err
		}
		for _, level := range page.Items {
			ledgerSum, err := s.movementRepo.SumSignedByTuple(ctx, tenantID, level.WarehouseID, level.ZoneID, level.Item)
			if err != nil {
				return nil, err
			}
			if !ledgerSum.Equal(level.Quantity) {
				drifts = append(drifts, ReconciliationResult{
					WarehouseID:     level.WarehouseID,
					ZoneID:          level.ZoneID,
					ProductID:       level.Item.ProductID,
					VariantID:       level.Item.VariantID,
					ProjectedOnHand: level.Quantity,
					LedgerOnHand:    ledgerSum,
					Drift:           level.Quantity.Sub(ledgerSum),
				})
			}
		}
		if filter.Page >= page.TotalPages {
			break
		}
		filter.Page++
	}
	return drifts, nil
}
