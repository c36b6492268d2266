package stock

import (
	"context"
	"testing"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPhysicalInventoryService(f *stockFixture) (*PhysicalInventoryService, *MockAuditRecorder) {
	service := NewPhysicalInventoryService(f.physicalRepo, f.levelRepo, f.txScope)
	service.SetEventPublisher(f.publisher)
	audit := NewMockAuditRecorder()
	service.SetAuditRecorder(audit)
	return service, audit
}

func TestPhysicalInventoryServiceCreate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	warehouseID := uuid.New()

	t.Run("snapshots the whole warehouse", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(10))
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(5))
		f.seedLevel(tenantID, uuid.New(), nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(99))

		resp, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.Equal(t, 2, resp.TotalItems, "other warehouses are out of scope")
		assert.Regexp(t, `^PI-\d{8}-\d{4}$`, resp.Number)
	})

	t.Run("narrows the snapshot to requested products", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		wantedID := uuid.New()
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(wantedID), decimal.NewFromInt(10))
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(5))

		resp, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{
			WarehouseID: warehouseID,
			ProductIDs:  []uuid.UUID{wantedID},
		})
		require.NoError(t, err)
		require.Equal(t, 1, resp.TotalItems)
		assert.Equal(t, wantedID, resp.Items[0].ProductID)
	})

	t.Run("fails when the warehouse has nothing to count", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)

		_, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMPTY_INVENTORY", domainErr.Code)
	})

	t.Run("numbers increment per document", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(1))

		first, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		second, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		assert.NotEqual(t, first.Number, second.Number)
	})
}

func TestPhysicalInventoryServiceCounting(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	warehouseID := uuid.New()

	setup := func(t *testing.T, onHand int64) (*stockFixture, *PhysicalInventoryService, *PhysicalInventoryResponse) {
		t.Helper()
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(onHand))
		resp, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		return f, service, resp
	}

	t.Run("first count opens the session", func(t *testing.T) {
		f, service, doc := setup(t, 10)

		resp, err := service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          doc.Items[0].ID,
			CountedQuantity: decimal.NewFromInt(8),
			Notes:           "two missing",
		})
		require.NoError(t, err)
		assert.Equal(t, "COUNTING", resp.Status)
		assert.Equal(t, 1, resp.CountedItems)
		assert.Len(t, f.publisher.EventsByType(stock.EventTypePhysicalInventoryStarted), 1)
	})

	t.Run("unknown line is rejected", func(t *testing.T) {
		_, service, doc := setup(t, 10)
		_, err := service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          uuid.New(),
			CountedQuantity: decimal.NewFromInt(8),
		})
		assert.Error(t, err)
	})

	t.Run("complete closes the session", func(t *testing.T) {
		_, service, doc := setup(t, 10)
		_, err := service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          doc.Items[0].ID,
			CountedQuantity: decimal.NewFromInt(10),
		})
		require.NoError(t, err)

		resp, err := service.Complete(ctx, tenantID, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, "COMPLETED", resp.Status)
	})

	t.Run("list narrows by status", func(t *testing.T) {
		_, service, _ := setup(t, 10)

		pending := "PENDING"
		page, err := service.List(ctx, tenantID, &pending, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)

		approved := "APPROVED"
		page, err = service.List(ctx, tenantID, &approved, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Empty(t, page.Items)

		bogus := "OPEN"
		_, err = service.List(ctx, tenantID, &bogus, shared.DefaultFilter())
		assert.Error(t, err)
	})
}

func TestPhysicalInventoryServiceApprove(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	warehouseID := uuid.New()
	approverID := uuid.New()

	t.Run("approval writes variance adjustments tagged with the number", func(t *testing.T) {
		f := newStockFixture()
		service, audit := newPhysicalInventoryService(f)
		productID := uuid.New()
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(productID), decimal.NewFromInt(10))

		doc, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		_, err = service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          doc.Items[0].ID,
			CountedQuantity: decimal.NewFromInt(7),
		})
		require.NoError(t, err)
		_, err = service.Complete(ctx, tenantID, doc.ID)
		require.NoError(t, err)

		resp, err := service.Approve(ctx, tenantID, doc.ID, approverID)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		require.NotNil(t, resp.ApprovedBy)
		assert.Equal(t, approverID, *resp.ApprovedBy)

		movements, err := f.movementRepo.FindByReference(ctx, tenantID, doc.Number)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, stock.MovementTypeAdjustment, movements[0].Type)
		assert.True(t, movements[0].SignedQuantity().Equal(decimal.NewFromInt(-3)))
		assert.Equal(t, "PHYSICAL_INVENTORY", movements[0].ReasonCode)

		level, err := f.levelRepo.FindByTuple(ctx, tenantID, warehouseID, nil, stock.NewProductRef(productID))
		require.NoError(t, err)
		assert.True(t, level.Quantity.Equal(decimal.NewFromInt(7)))

		assert.Len(t, f.publisher.EventsByType(stock.EventTypePhysicalInventoryApproved), 1)
		entries := audit.Entries()
		require.Len(t, entries, 1)
		assert.Equal(t, "physical_inventory.approved", entries[0].Action)
	})

	t.Run("approval with no differences writes nothing", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(10))

		doc, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		_, err = service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          doc.Items[0].ID,
			CountedQuantity: decimal.NewFromInt(10),
		})
		require.NoError(t, err)
		_, err = service.Complete(ctx, tenantID, doc.ID)
		require.NoError(t, err)

		resp, err := service.Approve(ctx, tenantID, doc.ID, approverID)
		require.NoError(t, err)
		assert.Equal(t, "APPROVED", resp.Status)
		assert.Equal(t, 0, f.movementRepo.count())
	})

	t.Run("cannot approve before completion", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(10))

		doc, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)

		_, err = service.Approve(ctx, tenantID, doc.ID, approverID)
		assert.Error(t, err)
	})
}

func TestPhysicalInventoryServiceCancelApproved(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	warehouseID := uuid.New()
	approverID := uuid.New()

	approvedInventory := func(t *testing.T) (*stockFixture, *PhysicalInventoryService, *MockAuditRecorder, *PhysicalInventoryResponse, uuid.UUID) {
		t.Helper()
		f := newStockFixture()
		service, audit := newPhysicalInventoryService(f)
		productID := uuid.New()
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(productID), decimal.NewFromInt(10))

		doc, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)
		_, err = service.RecordCount(ctx, tenantID, doc.ID, RecordCountRequest{
			ItemID:          doc.Items[0].ID,
			CountedQuantity: decimal.NewFromInt(7),
		})
		require.NoError(t, err)
		_, err = service.Complete(ctx, tenantID, doc.ID)
		require.NoError(t, err)
		approved, err := service.Approve(ctx, tenantID, doc.ID, approverID)
		require.NoError(t, err)
		return f, service, audit, approved, productID
	}

	t.Run("reversal deletes the movements and restores the levels", func(t *testing.T) {
		f, service, audit, doc, productID := approvedInventory(t)

		resp, err := service.CancelApproved(ctx, tenantID, doc.ID, CancelPhysicalInventoryRequest{
			Reason: "count sheet was for the wrong aisle",
		})
		require.NoError(t, err)
		assert.Equal(t, "CANCELLED", resp.Status)
		assert.Equal(t, "count sheet was for the wrong aisle", resp.Remark)

		movements, err := f.movementRepo.FindByReference(ctx, tenantID, doc.Number)
		require.NoError(t, err)
		assert.Empty(t, movements, "the approval's movements are gone")

		level, err := f.levelRepo.FindByTuple(ctx, tenantID, warehouseID, nil, stock.NewProductRef(productID))
		require.NoError(t, err)
		assert.True(t, level.Quantity.Equal(decimal.NewFromInt(10)), "projection restored to pre-approval state")

		assert.Len(t, f.publisher.EventsByType(stock.EventTypePhysicalInventoryCancelled), 1)

		entries := audit.Entries()
		require.Len(t, entries, 2, "approval and cancellation both audited")
		assert.Equal(t, "physical_inventory.cancelled", entries[1].Action)
		assert.Contains(t, entries[1].Detail, doc.Number)
	})

	t.Run("reversal requires a reason", func(t *testing.T) {
		_, service, _, doc, _ := approvedInventory(t)
		_, err := service.CancelApproved(ctx, tenantID, doc.ID, CancelPhysicalInventoryRequest{})
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "REASON_REQUIRED", domainErr.Code)
	})

	t.Run("only APPROVED documents can be reversed", func(t *testing.T) {
		f := newStockFixture()
		service, _ := newPhysicalInventoryService(f)
		f.seedLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()), decimal.NewFromInt(10))

		doc, err := service.Create(ctx, tenantID, CreatePhysicalInventoryRequest{WarehouseID: warehouseID})
		require.NoError(t, err)

		_, err = service.CancelApproved(ctx, tenantID, doc.ID, CancelPhysicalInventoryRequest{Reason: "nope"})
		assert.Error(t, err)
	})

	t.Run("a cancelled document cannot be cancelled again", func(t *testing.T) {
		_, service, _, doc, _ := approvedInventory(t)
		_, err := service.CancelApproved(ctx, tenantID, doc.ID, CancelPhysicalInventoryRequest{Reason: "first"})
		require.NoError(t, err)
		_, err = service.CancelApproved(ctx, tenantID, doc.ID, CancelPhysicalInventoryRequest{Reason: "second"})
		assert.Error(t, err)
	})
}
