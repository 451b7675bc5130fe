package application

import (
	"context"
	"fmt"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/interfaces"
	"betledger/domain/services"
)

// Ledger is the application facade over the escrow engine. Each operation
// runs inside its own unit of work: the service is constructed from the
// transaction-bound repositories, and every write in one call commits
// together or not at all.
type Ledger struct {
	uowFactory UnitOfWorkFactory
	oracle     interfaces.ResultOracle
}

// NewLedger creates a new Ledger. oracle may be nil when external result
// verification is not configured.
func NewLedger(uowFactory UnitOfWorkFactory, oracle interfaces.ResultOracle) *Ledger {
	return &Ledger{
		uowFactory: uowFactory,
		oracle:     oracle,
	}
}

// withUnitOfWork runs fn against a bet service bound to a fresh transaction.
// The deferred rollback is a no-op once the commit succeeds.
func (l *Ledger) withUnitOfWork(ctx context.Context, fn func(svc interfaces.BetService) error) error {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	svc := services.NewBetService(
		uow.WalletRepository(),
		uow.BetRepository(),
		uow.EscrowRepository(),
		uow.BetProofRepository(),
		uow.TransactionRepository(),
		uow.GameRepository(),
		l.oracle,
		uow.EventBus(),
	)

	if err := fn(svc); err != nil {
		return err
	}

	return uow.Commit()
}

// CreateBet opens a bet against an opponent, reserving the creator's stake.
func (l *Ledger) CreateBet(ctx context.Context, creatorID, opponentID, gameID, amount int64, method entities.PaymentMethod) (*entities.BetDetail, error) {
	var detail *entities.BetDetail
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		detail, err = svc.CreateBet(ctx, creatorID, opponentID, gameID, amount, method)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// AcceptBet locks the escrow with the opponent's matching stake.
func (l *Ledger) AcceptBet(ctx context.Context, betID, userID int64) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		bet, err = svc.AcceptBet(ctx, betID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// RejectBet declines a pending bet and refunds the creator's reservation.
func (l *Ledger) RejectBet(ctx context.Context, betID, userID int64) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		bet, err = svc.RejectBet(ctx, betID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// CancelBet cancels a non-terminal bet and unwinds its reservations.
func (l *Ledger) CancelBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		bet, err = svc.CancelBet(ctx, betID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// SubmitResult records a party's claimed outcome and, when the claims agree
// or the oracle confirms, settles the bet.
func (l *Ledger) SubmitResult(ctx context.Context, betID, userID int64, claimed entities.BetResult, proofURL string) (*interfaces.SubmitOutcome, error) {
	var outcome *interfaces.SubmitOutcome
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		outcome, err = svc.SubmitResult(ctx, betID, userID, claimed, proofURL)
		return err
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// ResolveDispute settles a disputed bet with an adjudicated result.
func (l *Ledger) ResolveDispute(ctx context.Context, betID int64, result entities.BetResult) (*entities.Bet, error) {
	var bet *entities.Bet
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		bet, err = svc.ResolveDispute(ctx, betID, result)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// GetBetByID returns a bet with its escrow and submitted proofs.
func (l *Ledger) GetBetByID(ctx context.Context, betID int64) (*entities.BetDetail, error) {
	var detail *entities.BetDetail
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		detail, err = svc.GetBetByID(ctx, betID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// GetUserBets returns a user's bets, newest first, optionally by status.
func (l *Ledger) GetUserBets(ctx context.Context, userID int64, status *entities.BetStatus) ([]*entities.Bet, error) {
	var bets []*entities.Bet
	err := l.withUnitOfWork(ctx, func(svc interfaces.BetService) error {
		var err error
		bets, err = svc.GetUserBets(ctx, userID, status)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bets, nil
}

// GetWallet returns a user's wallet, creating an empty one on first touch.
func (l *Ledger) GetWallet(ctx context.Context, userID int64) (*entities.Wallet, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	wallet, err := uow.WalletRepository().GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return wallet, nil
}

// GetTransactions returns a user's ledger history, newest first.
func (l *Ledger) GetTransactions(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	txns, err := uow.TransactionRepository().GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return txns, nil
}

// GetActiveGames returns the bettable game catalog.
func (l *Ledger) GetActiveGames(ctx context.Context) ([]*entities.Game, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	games, err := uow.GameRepository().GetActive(ctx)
	if err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return games, nil
}

// LinkGameAccount links or relinks a user's in-game identity, enabling
// oracle verification for their bets on that game.
func (l *Ledger) LinkGameAccount(ctx context.Context, userID, gameID int64, username string, apiToken *string) (*entities.GameAccount, error) {
	uow := l.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin unit of work: %w", err)
	}
	defer uow.Rollback()

	game, err := uow.GameRepository().GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, fmt.Errorf("game %d: %w", gameID, domain.ErrNotFound)
	}

	account := &entities.GameAccount{
		UserID:   userID,
		GameID:   gameID,
		Username: username,
		APIToken: apiToken,
	}
	if err := uow.GameRepository().UpsertAccount(ctx, account); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}
	return account, nil
}
