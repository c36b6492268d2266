package stock

import (
	"context"

	"github.com/bizsuite/stockledger/internal/domain/stock"
)

// TransactionScope provides transactional access to the stock repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll back
// atomically. Every ledger write goes through a scope: a movement row and its
// projection update must never commit separately.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the stock repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// LevelRepo returns the stock level repository scoped to the current transaction
	LevelRepo() stock.StockLevelRepository
	// MovementRepo returns the movement ledger repository scoped to the current transaction
	MovementRepo() stock.StockMovementRepository
	// PhysicalInventoryRepo returns the physical inventory repository scoped to the current transaction
	PhysicalInventoryRepo() stock.PhysicalInventoryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. This is useful for testing or when transaction support is not
// required.
type NoOpTransactionScope struct {
	levelRepo    stock.StockLevelRepository
	movementRepo stock.StockMovementRepository
	physicalRepo stock.PhysicalInventoryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	levelRepo stock.StockLevelRepository,
	movementRepo stock.StockMovementRepository,
	physicalRepo stock.PhysicalInventoryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		levelRepo:    levelRepo,
		movementRepo: movementRepo,
		physicalRepo: physicalRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// LevelRepo returns the stock level repository.
func (s *NoOpTransactionScope) LevelRepo() stock.StockLevelRepository {
	return s.levelRepo
}

// MovementRepo returns the movement ledger repository.
func (s *NoOpTransactionScope) MovementRepo() stock.StockMovementRepository {
	return s.movementRepo
}

// PhysicalInventoryRepo returns the physical inventory repository.
func (s *NoOpTransactionScope) PhysicalInventoryRepo() stock.PhysicalInventoryRepository {
	return s.physicalRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
