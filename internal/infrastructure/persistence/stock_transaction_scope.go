package persistence

import (
	"context"

	appstock "github.com/bizsuite/stockledger/internal/application/stock"
	"github.com/bizsuite/stockledger/internal/domain/stock"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations - the
// movement ledger and its projection always commit through one of these.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appstock.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// LevelRepo returns the stock level repository scoped to the current transaction.
func (r *gormTransactionalRepositories) LevelRepo() stock.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

// MovementRepo returns the movement ledger repository scoped to the current transaction.
func (r *gormTransactionalRepositories) MovementRepo() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// PhysicalInventoryRepo returns the physical inventory repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PhysicalInventoryRepo() stock.PhysicalInventoryRepository {
	return NewGormPhysicalInventoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appstock.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appstock.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
