package interfaces

import (
	"context"

	"betledger/domain/entities"
	"betledger/domain/events"
)

// WalletRepository defines the interface for wallet data access
type WalletRepository interface {
	// GetByUserID retrieves a user's wallet
	GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error)

	// GetByUserIDForUpdate retrieves a user's wallet with a row lock so
	// concurrent reservations against the same wallet serialize
	GetByUserIDForUpdate(ctx context.Context, userID int64) (*entities.Wallet, error)

	// GetOrCreate retrieves a user's wallet, creating an empty one if absent
	GetOrCreate(ctx context.Context, userID int64) (*entities.Wallet, error)

	// ApplyDelta atomically adjusts balance and pending amount. The update is
	// guarded so neither field can go negative; a guard failure returns
	// domain.ErrInsufficientFunds and writes nothing.
	ApplyDelta(ctx context.Context, walletID int64, balanceDelta, pendingDelta int64) error
}

// BetRepository defines the interface for bet data access
type BetRepository interface {
	// Create creates a new bet
	Create(ctx context.Context, bet *entities.Bet) error

	// GetByID retrieves a bet by its ID
	GetByID(ctx context.Context, id int64) (*entities.Bet, error)

	// GetByIDForUpdate retrieves a bet with a row lock for lifecycle mutations
	GetByIDForUpdate(ctx context.Context, id int64) (*entities.Bet, error)

	// Update writes the bet's status, result, and timestamps, but only if the
	// row's current status is one of expected (optimistic check-and-set).
	// A lost race returns domain.ErrConflict.
	Update(ctx context.Context, bet *entities.Bet, expected ...entities.BetStatus) error

	// GetByUser returns bets where the user is creator or opponent, newest
	// first, optionally filtered by status
	GetByUser(ctx context.Context, userID int64, status *entities.BetStatus) ([]*entities.Bet, error)
}

// EscrowRepository defines the interface for escrow data access
type EscrowRepository interface {
	// Create creates the escrow owned by a bet
	Create(ctx context.Context, escrow *entities.Escrow) error

	// GetByBetID retrieves the escrow for a bet
	GetByBetID(ctx context.Context, betID int64) (*entities.Escrow, error)

	// UpdateStatus transitions the escrow's custodial state
	UpdateStatus(ctx context.Context, escrowID int64, status entities.EscrowStatus) error
}

// BetProofRepository defines the interface for bet proof data access
type BetProofRepository interface {
	// Upsert records a party's proof, replacing any earlier submission by the
	// same user for the same bet
	Upsert(ctx context.Context, proof *entities.BetProof) error

	// GetByBet returns all proofs for a bet, most recent first
	GetByBet(ctx context.Context, betID int64) ([]*entities.BetProof, error)
}

// TransactionRepository defines the interface for the append-only ledger
type TransactionRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, txn *entities.Transaction) error

	// GetByID retrieves a ledger entry
	GetByID(ctx context.Context, id int64) (*entities.Transaction, error)

	// UpdateStatus finalizes a pending entry with its outcome and external reference
	UpdateStatus(ctx context.Context, id int64, status entities.TransactionStatus, externalID *string) error

	// GetByUser returns a user's ledger entries, newest first
	GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error)
}

// GameRepository defines the interface for game catalog data access
type GameRepository interface {
	// GetByID retrieves a game by its ID
	GetByID(ctx context.Context, id int64) (*entities.Game, error)

	// GetActive returns all active games, ordered by name
	GetActive(ctx context.Context) ([]*entities.Game, error)

	// GetAccount retrieves a user's linked account for a game, nil if unlinked
	GetAccount(ctx context.Context, userID, gameID int64) (*entities.GameAccount, error)

	// UpsertAccount links or relinks a user's in-game identity
	UpsertAccount(ctx context.Context, account *entities.GameAccount) error
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event) error
}
