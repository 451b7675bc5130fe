package application

import (
	"context"

	"betledger/domain/interfaces"
)

// UnitOfWork scopes one serializable ledger transaction. Repositories obtained
// from it share the same database transaction; Commit applies every write in
// the unit or none of them. Events published through EventBus are buffered and
// delivered only after a successful commit.
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes buffered events
	Commit() error

	// Rollback rolls back the transaction and discards buffered events.
	// Safe to defer: a no-op after Commit.
	Rollback() error

	// Repository getters
	WalletRepository() interfaces.WalletRepository
	BetRepository() interfaces.BetRepository
	EscrowRepository() interfaces.EscrowRepository
	BetProofRepository() interfaces.BetProofRepository
	TransactionRepository() interfaces.TransactionRepository
	GameRepository() interfaces.GameRepository
	EventBus() interfaces.EventPublisher
}

// UnitOfWorkFactory creates UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}
