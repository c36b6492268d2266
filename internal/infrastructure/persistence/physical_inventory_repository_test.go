package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bizsuite/stockledger/internal/domain/shared"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupPhysicalInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&stock.PhysicalInventory{}, &stock.PhysicalInventoryItem{}))
	return db
}

func createTestInventory(t *testing.T, tenantID uuid.UUID, number string) *stock.PhysicalInventory {
	t.Helper()
	warehouseID := uuid.New()
	pi, err := stock.NewPhysicalInventory(tenantID, warehouseID, number)
	require.NoError(t, err)

	level, err := stock.NewStockLevel(tenantID, warehouseID, nil, stock.NewProductRef(uuid.New()))
	require.NoError(t, err)
	require.NoError(t, level.ApplyDelta(decimal.NewFromInt(10)))
	level.ClearDomainEvents()
	require.NoError(t, pi.Snapshot(level))
	return pi
}

func TestGormPhysicalInventoryRepository(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("creates and reloads a document with its lines", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		pi := createTestInventory(t, tenantID, "PI-20260828-0001")
		require.NoError(t, repo.SaveWithItems(ctx, pi))

		found, err := repo.FindByID(ctx, tenantID, pi.ID)
		require.NoError(t, err)
		assert.Equal(t, "PI-20260828-0001", found.Number)
		assert.Equal(t, stock.PhysicalInventoryStatusPending, found.Status)
		require.Len(t, found.Items, 1)
		assert.True(t, found.Items[0].SystemQuantity.Equal(decimal.NewFromInt(10)))
	})

	t.Run("finds a document by number", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		pi := createTestInventory(t, tenantID, "PI-20260828-0002")
		require.NoError(t, repo.SaveWithItems(ctx, pi))

		found, err := repo.FindByNumber(ctx, tenantID, "PI-20260828-0002")
		require.NoError(t, err)
		assert.Equal(t, pi.ID, found.ID)

		_, err = repo.FindByNumber(ctx, tenantID, "PI-19990101-0001")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("persists a recorded count through the update path", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		pi := createTestInventory(t, tenantID, "PI-20260828-0003")
		require.NoError(t, repo.SaveWithItems(ctx, pi))

		require.NoError(t, pi.RecordCount(pi.Items[0].ID, decimal.NewFromInt(7), "recount shelf 3"))
		require.NoError(t, repo.SaveWithItems(ctx, pi))

		found, err := repo.FindByID(ctx, tenantID, pi.ID)
		require.NoError(t, err)
		assert.Equal(t, stock.PhysicalInventoryStatusCounting, found.Status)
		require.NotNil(t, found.Items[0].CountedQuantity)
		assert.True(t, found.Items[0].CountedQuantity.Equal(decimal.NewFromInt(7)))
		require.NotNil(t, found.Items[0].Difference)
		assert.True(t, found.Items[0].Difference.Equal(decimal.NewFromInt(-3)))
	})

	t.Run("detects a stale header version", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		pi := createTestInventory(t, tenantID, "PI-20260828-0004")
		require.NoError(t, repo.SaveWithItems(ctx, pi))

		stale, err := repo.FindByID(ctx, tenantID, pi.ID)
		require.NoError(t, err)

		// First writer wins.
		require.NoError(t, pi.RecordCount(pi.Items[0].ID, decimal.NewFromInt(7), ""))
		require.NoError(t, repo.Save(ctx, pi))

		require.NoError(t, stale.RecordCount(stale.Items[0].ID, decimal.NewFromInt(8), ""))
		assert.ErrorIs(t, repo.Save(ctx, stale), shared.ErrConcurrencyConflict)
	})

	t.Run("filters documents by status", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		open := createTestInventory(t, tenantID, "PI-20260828-0005")
		require.NoError(t, repo.SaveWithItems(ctx, open))

		counting := createTestInventory(t, tenantID, "PI-20260828-0006")
		require.NoError(t, repo.SaveWithItems(ctx, counting))
		require.NoError(t, counting.RecordCount(counting.Items[0].ID, decimal.NewFromInt(1), ""))
		require.NoError(t, repo.SaveWithItems(ctx, counting))

		status := stock.PhysicalInventoryStatusCounting
		page, err := repo.FindByTenant(ctx, tenantID, &status, shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		require.Len(t, page.Items, 1)
		assert.Equal(t, counting.ID, page.Items[0].ID)

		all, err := repo.FindByTenant(ctx, tenantID, nil, shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(2), all.Total)
	})

	t.Run("sequences count per tenant per day", func(t *testing.T) {
		db := setupPhysicalInventoryTestDB(t)
		repo := NewGormPhysicalInventoryRepository(db)

		now := time.Now()
		seq, err := repo.NextSequence(ctx, tenantID, now)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)

		require.NoError(t, repo.SaveWithItems(ctx, createTestInventory(t, tenantID, "PI-20260828-0007")))
		require.NoError(t, repo.SaveWithItems(ctx, createTestInventory(t, tenantID, "PI-20260828-0008")))
		require.NoError(t, repo.SaveWithItems(ctx, createTestInventory(t, uuid.New(), "PI-20260828-0009")))

		seq, err = repo.NextSequence(ctx, tenantID, now)
		require.NoError(t, err)
		assert.Equal(t, 3, seq)
	})
}
