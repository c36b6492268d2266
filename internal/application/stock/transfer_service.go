package stock

import (
	"context"
	"fmt"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransferService moves stock between warehouses. A transfer is exactly one
// OUT movement at the source and one IN movement at the target, sharing a
// reference and committed in one transaction - partial transfers cannot exist.
type TransferService struct {
	movementRepo   stock.StockMovementRepository
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
}

// NewTransferService creates a new TransferService
func NewTransferService(movementRepo stock.StockMovementRepository, txScope TransactionScope) *TransferService {
	return &TransferService{
		movementRepo: movementRepo,
		txScope:      txScope,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *TransferService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Transfer moves quantity from the source tuple to the target tuple. The
// source level is read under a row lock and its balance re-checked inside the
// transaction, so two concurrent transfers cannot both spend the same stock.
func (s *TransferService) Transfer(ctx context.Context, tenantID uuid.UUID, req TransferRequest) (*TransferResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Transfer quantity must be positive")
	}
	item := req.ItemRef()
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if req.SourceWarehouseID == req.TargetWarehouseID && zoneEqual(req.SourceZoneID, req.TargetZoneID) {
		return nil, shared.NewDomainError("INVALID_TRANSFER", "Source and target tuples must differ")
	}

	reference := req.Reference
	if reference == "" {
		reference = fmt.Sprintf("TRF-%s", uuid.New().String()[:8])
	}

	outMovement, err := stock.NewStockMovement(tenantID, req.SourceWarehouseID, item, stock.MovementTypeOut, req.Quantity.Neg())
	if err != nil {
		return nil, err
	}
	inMovement, err := stock.NewStockMovement(tenantID, req.TargetWarehouseID, item, stock.MovementTypeIn, req.Quantity)
	if err != nil {
		return nil, err
	}
	if req.SourceZoneID != nil {
		outMovement.WithZone(*req.SourceZoneID)
	}
	if req.TargetZoneID != nil {
		inMovement.WithZone(*req.TargetZoneID)
	}
	outMovement.WithReason("TRANSFER_OUT", req.Note).WithReference(reference)
	inMovement.WithReason("TRANSFER_IN", req.Note).WithReference(reference)
	if req.ActorID != nil {
		outMovement.WithActor(*req.ActorID)
		inMovement.WithActor(*req.ActorID)
	}

	var sourceLevel, targetLevel *stock.StockLevel
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		// Lock the source row first, then re-validate the balance. A check
		// done before the lock would race with concurrent transfers.
		sourceLevel, txErr = repos.LevelRepo().FindForUpdate(ctx, tenantID, req.SourceWarehouseID, req.SourceZoneID, item)
		if txErr != nil {
			return txErr
		}
		if !sourceLevel.CanFulfill(req.Quantity) {
			return shared.ErrInsufficientStock
		}

		targetLevel, txErr = repos.LevelRepo().GetOrCreate(ctx, tenantID, req.TargetWarehouseID, req.TargetZoneID, item)
		if txErr != nil {
			return txErr
		}

		if txErr = sourceLevel.ApplyMovement(outMovement); txErr != nil {
			return txErr
		}
		if txErr = targetLevel.ApplyMovement(inMovement); txErr != nil {
			return txErr
		}
		if txErr = repos.MovementRepo().Append(ctx, outMovement, inMovement); txErr != nil {
			return txErr
		}
		if txErr = repos.LevelRepo().SaveWithLock(ctx, sourceLevel); txErr != nil {
			return txErr
		}
		return repos.LevelRepo().SaveWithLock(ctx, targetLevel)
	})
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx,
			stock.NewStockMovementRecordedEvent(outMovement),
			stock.NewStockMovementRecordedEvent(inMovement),
			stock.NewStockTransferredEvent(outMovement, inMovement))
		for _, level := range []*stock.StockLevel{sourceLevel, targetLevel} {
			if events := level.GetDomainEvents(); len(events) > 0 {
				_ = s.eventPublisher.Publish(ctx, events...)
				level.ClearDomainEvents()
			}
		}
	}

	return &TransferResponse{
		Reference:   reference,
		OutMovement: ToMovementResponse(outMovement),
		InMovement:  ToMovementResponse(inMovement),
	}, nil
}

// GetTransfer retrieves the movement pair recorded under a transfer reference
func (s *TransferService) GetTransfer(ctx context.Context, tenantID uuid.UUID, reference string) ([]MovementResponse, error) {
	movements, err := s.movementRepo.FindByReference(ctx, tenantID, reference)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		return nil, shared.ErrNotFound
	}
	return ToMovementResponses(movements), nil
}

func zoneEqual(a, b *uuid.UUID) bool {
	if (a == nil) != (b == nil) {
		return false
	}
	return a == nil || *a == *b
}
