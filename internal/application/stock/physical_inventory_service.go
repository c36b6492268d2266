package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
)

// PhysicalInventoryService runs the stock count workflow: snapshot, count,
// complete, approve. Approval writes the variance adjustments and the status
// change in one transaction. Cancelling an approved count is the one sanctioned
// breach of ledger immutability: it deletes the approval's movements, restores
// the levels, and leaves an audit trail.
type PhysicalInventoryService struct {
	physicalRepo   stock.PhysicalInventoryRepository
	levelRepo      stock.StockLevelRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	auditRecorder  AuditRecorder
}

// NewPhysicalInventoryService creates a new PhysicalInventoryService
func NewPhysicalInventoryService(
	physicalRepo stock.PhysicalInventoryRepository,
	levelRepo stock.StockLevelRepository,
	txScope TransactionScope,
) *PhysicalInventoryService {
	return &PhysicalInventoryService{
		physicalRepo: physicalRepo,
		levelRepo:    levelRepo,
		txScope:      txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PhysicalInventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAuditRecorder sets the activity feed recorder
func (s *PhysicalInventoryService) SetAuditRecorder(recorder AuditRecorder) {
	s.auditRecorder = recorder
}

func (s *PhysicalInventoryService) publishDomainEvents(ctx context.Context, pi *stock.PhysicalInventory) {
	if s.eventPublisher == nil {
		return
	}
	events := pi.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	pi.ClearDomainEvents()
}

// Create opens a PENDING count for a warehouse, snapshotting the current
// projection rows. An empty ProductIDs list snapshots the whole warehouse.
func (s *PhysicalInventoryService) Create(ctx context.Context, tenantID uuid.UUID, req CreatePhysicalInventoryRequest) (*PhysicalInventoryResponse, error) {
	now := time.Now()
	sequence, err := s.physicalRepo.NextSequence(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	number := fmt.Sprintf("PI-%s-%04d", now.Format("20060102"), sequence)

	pi, err := stock.NewPhysicalInventory(tenantID, req.WarehouseID, number)
	if err != nil {
		return nil, err
	}
	pi.Remark = req.Remark

	wanted := make(map[uuid.UUID]bool, len(req.ProductIDs))
	for _, id := range req.ProductIDs {
		wanted[id] = true
	}

	filter := shared.DefaultFilter()
	filter.PageSize = 500
	for {
		page, err := s.levelRepo.FindByWarehouse(ctx, tenantID, req.WarehouseID, filter)
		if err != nil {
			return nil, err
		}
		for _, level := range page.Items {
			if len(wanted) > 0 && !wanted[level.Item.ProductID] {
				continue
			}
			if err := pi.Snapshot(level); err != nil {
				return nil, err
			}
		}
		if filter.Page >= page.TotalPages {
			break
		}
		filter.Page++
	}

	if len(pi.Items) == 0 {
		return nil, shared.NewDomainError("EMPTY_INVENTORY", "No stock levels to count in this warehouse")
	}

	if err := s.physicalRepo.SaveWithItems(ctx, pi); err != nil {
		return nil, err
	}

	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}

// Get retrieves a count document with its lines
func (s *PhysicalInventoryService) Get(ctx context.Context, tenantID, id uuid.UUID) (*PhysicalInventoryResponse, error) {
	pi, err := s.physicalRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}

// List retrieves count documents, optionally narrowed to one status
func (s *PhysicalInventoryService) List(ctx context.Context, tenantID uuid.UUID, status *string, filter shared.Filter) (shared.Paginated[PhysicalInventoryResponse], error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	var statusFilter *stock.PhysicalInventoryStatus
	if status != nil {
		parsed := stock.PhysicalInventoryStatus(*status)
		if !parsed.IsValid() {
			return shared.Paginated[PhysicalInventoryResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown physical inventory status")
		}
		statusFilter = &parsed
	}

	page, err := s.physicalRepo.FindByTenant(ctx, tenantID, statusFilter, filter)
	if err != nil {
		return shared.Paginated[PhysicalInventoryResponse]{}, err
	}

	responses := make([]PhysicalInventoryResponse, len(page.Items))
	for i, pi := range page.Items {
		responses[i] = ToPhysicalInventoryResponse(pi, false)
	}
	return shared.NewPaginated(responses, page.Total, page.Page, page.PageSize), nil
}

// RecordCount records one counted line. The first count moves the document
// into COUNTING. Lines may be re-counted while the document stays open.
func (s *PhysicalInventoryService) RecordCount(ctx context.Context, tenantID, id uuid.UUID, req RecordCountRequest) (*PhysicalInventoryResponse, error) {
	pi, err := s.physicalRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := pi.RecordCount(req.ItemID, req.CountedQuantity, req.Notes); err != nil {
		return nil, err
	}
	if err := s.physicalRepo.SaveWithItems(ctx, pi); err != nil {
		return nil, err
	}
	s.publishDomainEvents(ctx, pi)

	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}

// Complete closes the counting session
func (s *PhysicalInventoryService) Complete(ctx context.Context, tenantID, id uuid.UUID) (*PhysicalInventoryResponse, error) {
	pi, err := s.physicalRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := pi.Complete(); err != nil {
		return nil, err
	}
	if err := s.physicalRepo.Save(ctx, pi); err != nil {
		return nil, err
	}

	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}

// Approve reconciles the count into the ledger. Every non-zero difference
// becomes an ADJUSTMENT movement tagged with the inventory number, applied to
// its level inside the same transaction as the APPROVED transition. A count
// with no differences approves without writing anything.
func (s *PhysicalInventoryService) Approve(ctx context.Context, tenantID, id, approverID uuid.UUID) (*PhysicalInventoryResponse, error) {
	var pi *stock.PhysicalInventory
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		pi, txErr = repos.PhysicalInventoryRepo().FindByID(ctx, tenantID, id)
		if txErr != nil {
			return txErr
		}

		for _, line := range pi.DifferenceItems() {
			movement, txErr := stock.NewStockMovement(tenantID, pi.WarehouseID, line.Item, stock.MovementTypeAdjustment, *line.Difference)
			if txErr != nil {
				return txErr
			}
			if line.ZoneID != nil {
				movement.WithZone(*line.ZoneID)
			}
			movement.WithReason("PHYSICAL_INVENTORY", line.Notes).
				WithReference(pi.Number).
				WithActor(approverID)

			level, txErr := repos.LevelRepo().FindForUpdate(ctx, tenantID, pi.WarehouseID, line.ZoneID, line.Item)
			if txErr != nil {
				return txErr
			}
			if txErr = level.ApplyMovement(movement); txErr != nil {
				return txErr
			}
			if txErr = repos.MovementRepo().Append(ctx, movement); txErr != nil {
				return txErr
			}
			if txErr = repos.LevelRepo().SaveWithLock(ctx, level); txErr != nil {
				return txErr
			}
		}

		if txErr = pi.Approve(approverID); txErr != nil {
			return txErr
		}
		return repos.PhysicalInventoryRepo().Save(ctx, pi)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, pi)
	if s.auditRecorder != nil {
		s.auditRecorder.Record(ctx, tenantID, "physical_inventory.approved", "PhysicalInventory", pi.ID, &approverID,
			"number="+pi.Number)
	}

	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}

// CancelApproved reverses an approved count: the movements tagged with the
// inventory number are deleted, the affected levels get the inverse deltas
// back, and the document moves to CANCELLED - all in one transaction. This is
// an administrative correction tool, not a routine operation, and every use
// lands in the activity feed.
func (s *PhysicalInventoryService) CancelApproved(ctx context.Context, tenantID, id uuid.UUID, req CancelPhysicalInventoryRequest) (*PhysicalInventoryResponse, error) {
	if req.Reason == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "Cancelling an approved inventory requires a reason")
	}

	var pi *stock.PhysicalInventory
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		pi, txErr = repos.PhysicalInventoryRepo().FindByID(ctx, tenantID, id)
		if txErr != nil {
			return txErr
		}
		if pi.Status != stock.PhysicalInventoryStatusApproved {
			return shared.NewDomainError("INVALID_STATE_TRANSITION", "Only APPROVED inventories can be cancelled")
		}

		movements, txErr := repos.MovementRepo().FindByReference(ctx, tenantID, pi.Number)
		if txErr != nil {
			return txErr
		}
		for _, movement := range movements {
			level, txErr := repos.LevelRepo().FindForUpdate(ctx, tenantID, movement.WarehouseID, movement.ZoneID, movement.Item)
			if txErr != nil {
				return txErr
			}
			if txErr = level.ApplyDelta(movement.Inverse()); txErr != nil {
				return txErr
			}
			if txErr = repos.LevelRepo().SaveWithLock(ctx, level); txErr != nil {
				return txErr
			}
		}
		if _, txErr = repos.MovementRepo().DeleteByReference(ctx, tenantID, pi.Number); txErr != nil {
			return txErr
		}

		if txErr = pi.MarkCancelled(req.Reason); txErr != nil {
			return txErr
		}
		return repos.PhysicalInventoryRepo().Save(ctx, pi)
	})
	if err != nil {
		return nil, err
	}

	s.publishDomainEvents(ctx, pi)
	if s.auditRecorder != nil {
		s.auditRecorder.Record(ctx, tenantID, "physical_inventory.cancelled", "PhysicalInventory", pi.ID, req.ActorID,
			"number="+pi.Number+" reason="+req.Reason)
	}

	response := ToPhysicalInventoryResponse(pi, true)
	return &response, nil
}
