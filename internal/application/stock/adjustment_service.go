package stock

import (
	"context"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
)

// AdjustmentService corrects a projection row to an observed actual quantity.
// The correction is recorded as an ADJUSTMENT movement carrying the signed
// difference, so the ledger explains the change like any other. A reason code
// is mandatory on every adjustment.
type AdjustmentService struct {
	txScope        TransactionScope
	eventPublisher shared.EventPublisher
	auditRecorder  AuditRecorder
}

// AuditRecorder appends entries to the tenant activity feed. Recording is
// best-effort: a feed failure never rolls back the adjustment itself.
type AuditRecorder interface {
	Record(ctx context.Context, tenantID uuid.UUID, action, entityType string, entityID uuid.UUID, actorID *uuid.UUID, detail string)
}

// NewAdjustmentService creates a new AdjustmentService
func NewAdjustmentService(txScope TransactionScope) *AdjustmentService {
	return &AdjustmentService{txScope: txScope}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AdjustmentService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetAuditRecorder sets the activity feed recorder
func (s *AdjustmentService) SetAuditRecorder(recorder AuditRecorder) {
	s.auditRecorder = recorder
}

// AdjustBy applies a signed correction to the tuple's on-hand quantity. The
// resulting quantity may go negative; callers correcting to a known physical
// count should use Adjust instead.
func (s *AdjustmentService) AdjustBy(ctx context.Context, tenantID uuid.UUID, req AdjustByRequest) (*AdjustStockResponse, error) {
	if req.ReasonCode == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "Adjustments require a reason code")
	}
	if req.SignedQuantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Adjustment quantity cannot be zero")
	}
	item := req.ItemRef()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	var level *stock.StockLevel
	var movement *stock.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		level, txErr = repos.LevelRepo().GetOrCreate(ctx, tenantID, req.WarehouseID, req.ZoneID, item)
		if txErr != nil {
			return txErr
		}

		movement, txErr = stock.NewStockMovement(tenantID, req.WarehouseID, item, stock.MovementTypeAdjustment, req.SignedQuantity)
		if txErr != nil {
			return txErr
		}
		if req.ZoneID != nil {
			movement.WithZone(*req.ZoneID)
		}
		if req.ActorID != nil {
			movement.WithActor(*req.ActorID)
		}
		movement.WithReason(req.ReasonCode, req.ReasonNote).WithReference(req.Reference)

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

	movementResponse := ToMovementResponse(movement)
	response := &AdjustStockResponse{
		Movement:    &movementResponse,
		Level:       ToStockLevelResponse(level),
		WasRequired: true,
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, stock.NewStockMovementRecordedEvent(movement))
		if events := level.GetDomainEvents(); len(events) > 0 {
			_ = s.eventPublisher.Publish(ctx, events...)
			level.ClearDomainEvents()
		}
	}
	if s.auditRecorder != nil {
		s.auditRecorder.Record(ctx, tenantID, "stock.adjusted", "StockLevel", level.ID, req.ActorID,
			"reason="+req.ReasonCode)
	}

	return response, nil
}

// Adjust sets the tuple's on-hand quantity to the observed actual. When the
// actual already matches the projection, no movement is written and the call
// reports WasRequired=false.
func (s *AdjustmentService) Adjust(ctx context.Context, tenantID uuid.UUID, req AdjustStockRequest) (*AdjustStockResponse, error) {
	if req.ReasonCode == "" {
		return nil, shared.NewDomainError("REASON_REQUIRED", "Adjustments require a reason code")
	}
	if req.ActualQuantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Actual quantity cannot be negative")
	}
	item := req.ItemRef()
	if err := item.Validate(); err != nil {
		return nil, err
	}

	var level *stock.StockLevel
	var movement *stock.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var txErr error
		level, txErr = repos.LevelRepo().FindForUpdate(ctx, tenantID, req.WarehouseID, req.ZoneID, item)
		if txErr != nil {
			return txErr
		}

		difference := req.ActualQuantity.Sub(level.Quantity)
		if difference.IsZero() {
			return nil
		}

		movement, txErr = stock.NewStockMovement(tenantID, req.WarehouseID, item, stock.MovementTypeAdjustment, difference)
		if txErr != nil {
			return txErr
		}
		if req.ZoneID != nil {
			movement.WithZone(*req.ZoneID)
		}
		if req.ActorID != nil {
			movement.WithActor(*req.ActorID)
		}
		movement.WithReason(req.ReasonCode, req.ReasonNote).WithReference(req.Reference)

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

	response := &AdjustStockResponse{
		Level:       ToStockLevelResponse(level),
		WasRequired: movement != nil,
	}
	if movement == nil {
		return response, nil
	}

	movementResponse := ToMovementResponse(movement)
	response.Movement = &movementResponse

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, stock.NewStockMovementRecordedEvent(movement))
		if events := level.GetDomainEvents(); len(events) > 0 {
			_ = s.eventPublisher.Publish(ctx, events...)
			level.ClearDomainEvents()
		}
	}
	if s.auditRecorder != nil {
		s.auditRecorder.Record(ctx, tenantID, "stock.adjusted", "StockLevel", level.ID, req.ActorID,
			"reason="+req.ReasonCode)
	}

	return response, nil
}
