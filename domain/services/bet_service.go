package services

import (
	"context"
	"fmt"
	"time"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// betService is the escrow engine: the state machine governing a bet's
// lifecycle from creation through acceptance, proof submission, resolution,
// and fund distribution. It is constructed per unit of work from the
// transaction-bound repositories, so every method body is one atomic unit.
type betService struct {
	wallets    *WalletManager
	betRepo    interfaces.BetRepository
	escrowRepo interfaces.EscrowRepository
	proofRepo  interfaces.BetProofRepository
	txRepo     interfaces.TransactionRepository
	gameRepo   interfaces.GameRepository
	resolver   *ResultResolver
	settlement *SettlementService
	publisher  interfaces.EventPublisher
}

// NewBetService creates a new bet service from a unit of work's repositories.
// oracle may be nil when external verification is not configured.
func NewBetService(
	walletRepo interfaces.WalletRepository,
	betRepo interfaces.BetRepository,
	escrowRepo interfaces.EscrowRepository,
	proofRepo interfaces.BetProofRepository,
	txRepo interfaces.TransactionRepository,
	gameRepo interfaces.GameRepository,
	oracle interfaces.ResultOracle,
	publisher interfaces.EventPublisher,
) interfaces.BetService {
	return &betService{
		wallets:    NewWalletManager(walletRepo),
		betRepo:    betRepo,
		escrowRepo: escrowRepo,
		proofRepo:  proofRepo,
		txRepo:     txRepo,
		gameRepo:   gameRepo,
		resolver:   NewResultResolver(gameRepo, proofRepo, oracle),
		settlement: NewSettlementService(),
		publisher:  publisher,
	}
}

// CreateBet reserves the creator's stake and opens a pending bet with its
// escrow. The creator's total exposure is unchanged; the stake moves from
// balance to pending.
func (s *betService) CreateBet(ctx context.Context, creatorID, opponentID, gameID, amount int64, method entities.PaymentMethod) (*entities.BetDetail, error) {
	if creatorID == opponentID {
		return nil, fmt.Errorf("cannot create a bet against yourself: %w", domain.ErrInvalidState)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("bet amount must be positive: %w", domain.ErrInvalidState)
	}
	if !entities.ValidPaymentMethod(method) {
		return nil, fmt.Errorf("unknown payment method %q: %w", method, domain.ErrInvalidState)
	}

	game, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game == nil || !game.IsActive {
		return nil, fmt.Errorf("game %d: %w", gameID, domain.ErrNotFound)
	}

	if _, err := s.wallets.Reserve(ctx, creatorID, amount); err != nil {
		return nil, err
	}

	bet := &entities.Bet{
		CreatorID:     creatorID,
		OpponentID:    opponentID,
		GameID:        gameID,
		Amount:        amount,
		PaymentMethod: method,
		Status:        entities.BetStatusPending,
	}
	if err := s.betRepo.Create(ctx, bet); err != nil {
		return nil, fmt.Errorf("failed to create bet: %w", err)
	}

	escrow := &entities.Escrow{
		BetID:  bet.ID,
		Amount: amount,
		Status: entities.EscrowStatusPending,
	}
	if err := s.escrowRepo.Create(ctx, escrow); err != nil {
		return nil, fmt.Errorf("failed to create escrow: %w", err)
	}

	return &entities.BetDetail{Bet: bet, Escrow: escrow}, nil
}

// AcceptBet locks the escrow and reserves the opponent's matching stake.
func (s *betService) AcceptBet(ctx context.Context, betID, userID int64) (*entities.Bet, error) {
	bet, err := s.getForUpdate(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.OpponentID != userID {
		return nil, fmt.Errorf("only the opponent can accept bet %d: %w", betID, domain.ErrUnauthorized)
	}
	if bet.Status != entities.BetStatusPending {
		return nil, fmt.Errorf("bet %d is %s, not pending: %w", betID, bet.Status, domain.ErrInvalidState)
	}

	if _, err := s.wallets.Reserve(ctx, userID, bet.Amount); err != nil {
		return nil, err
	}

	now := time.Now()
	bet.Status = entities.BetStatusAccepted
	bet.AcceptedAt = &now
	if err := s.betRepo.Update(ctx, bet, entities.BetStatusPending); err != nil {
		return nil, err
	}
	if err := s.setEscrowStatus(ctx, betID, entities.EscrowStatusLocked); err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(events.BetAcceptedEvent{
		BetID:      bet.ID,
		CreatorID:  bet.CreatorID,
		OpponentID: bet.OpponentID,
		Amount:     bet.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet accepted event")
	}

	return bet, nil
}

// RejectBet declines a pending bet and returns the creator's reserved stake.
// The opponent's wallet is untouched; nothing was ever reserved from it.
func (s *betService) RejectBet(ctx context.Context, betID, userID int64) (*entities.Bet, error) {
	bet, err := s.getForUpdate(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.OpponentID != userID {
		return nil, fmt.Errorf("only the opponent can reject bet %d: %w", betID, domain.ErrUnauthorized)
	}
	if bet.Status != entities.BetStatusPending {
		return nil, fmt.Errorf("bet %d is %s, not pending: %w", betID, bet.Status, domain.ErrInvalidState)
	}

	bet.Status = entities.BetStatusRejected
	if err := s.betRepo.Update(ctx, bet, entities.BetStatusPending); err != nil {
		return nil, err
	}
	if err := s.setEscrowStatus(ctx, betID, entities.EscrowStatusRefunded); err != nil {
		return nil, err
	}
	if _, err := s.wallets.Release(ctx, bet.CreatorID, bet.Amount); err != nil {
		return nil, err
	}

	return bet, nil
}

// CancelBet administratively cancels any non-terminal bet, unwinding whatever
// reservations exist. A pending bet unwinds like a rejection; once the
// opponent has matched, both parties are refunded with ledger entries.
func (s *betService) CancelBet(ctx context.Context, betID int64) (*entities.Bet, error) {
	bet, err := s.getForUpdate(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.CanBeCancelled() {
		return nil, fmt.Errorf("bet %d is already %s: %w", betID, bet.Status, domain.ErrInvalidState)
	}

	previous := bet.Status
	if previous == entities.BetStatusPending {
		// Only the creator's stake is held.
		bet.Status = entities.BetStatusCancelled
		if err := s.betRepo.Update(ctx, bet, previous); err != nil {
			return nil, err
		}
		if err := s.setEscrowStatus(ctx, betID, entities.EscrowStatusRefunded); err != nil {
			return nil, err
		}
		if _, err := s.wallets.Release(ctx, bet.CreatorID, bet.Amount); err != nil {
			return nil, err
		}
		return bet, nil
	}

	// Both stakes are held: refund symmetrically through the settlement path.
	if err := s.settle(ctx, bet, entities.BetResultCancelled, entities.EscrowStatusRefunded, previous); err != nil {
		return nil, err
	}
	now := time.Now()
	result := entities.BetResultCancelled
	bet.Status = entities.BetStatusCancelled
	bet.Result = &result
	bet.ResolvedAt = &now
	if err := s.betRepo.Update(ctx, bet, previous); err != nil {
		return nil, err
	}
	return bet, nil
}

// SubmitResult durably records the caller's proof, then consults the resolver.
// A confirmed result settles the bet in the same atomic unit; conflicting
// claims with no oracle move it to disputed; otherwise it stays in progress
// awaiting the other party.
func (s *betService) SubmitResult(ctx context.Context, betID, userID int64, claimed entities.BetResult, proofURL string) (*interfaces.SubmitOutcome, error) {
	bet, err := s.getForUpdate(ctx, betID)
	if err != nil {
		return nil, err
	}
	if !bet.IsParticipant(userID) {
		return nil, fmt.Errorf("user %d is not a party to bet %d: %w", userID, betID, domain.ErrUnauthorized)
	}
	if !bet.AcceptsProofs() {
		return nil, fmt.Errorf("bet %d is %s, not accepting results: %w", betID, bet.Status, domain.ErrInvalidState)
	}
	if claimed != entities.BetResultCreatorWon && claimed != entities.BetResultOpponentWon && claimed != entities.BetResultDraw {
		return nil, fmt.Errorf("cannot claim result %q: %w", claimed, domain.ErrInvalidState)
	}

	// The proof is recorded before the resolver runs so a failure during
	// resolution never loses the party's submission.
	proof := &entities.BetProof{
		BetID:         betID,
		UserID:        userID,
		ProofType:     entities.ProofTypeScreenshot,
		ProofURL:      proofURL,
		ClaimedResult: claimed,
	}
	if err := s.proofRepo.Upsert(ctx, proof); err != nil {
		return nil, fmt.Errorf("failed to record proof: %w", err)
	}

	if bet.Status == entities.BetStatusAccepted {
		bet.Status = entities.BetStatusInProgress
		if err := s.betRepo.Update(ctx, bet, entities.BetStatusAccepted); err != nil {
			return nil, err
		}
	}

	resolution, err := s.resolver.Resolve(ctx, bet)
	if err != nil {
		return nil, err
	}

	switch resolution.Outcome {
	case ResolutionResolved:
		if err := s.complete(ctx, bet, resolution.Result, entities.BetStatusInProgress); err != nil {
			return nil, err
		}
		return &interfaces.SubmitOutcome{
			Settled:  true,
			Verified: resolution.Verified,
			Result:   &resolution.Result,
		}, nil

	case ResolutionDisputed:
		bet.Status = entities.BetStatusDisputed
		if err := s.betRepo.Update(ctx, bet, entities.BetStatusInProgress); err != nil {
			return nil, err
		}
		if err := s.publisher.Publish(events.BetDisputedEvent{
			BetID:      bet.ID,
			CreatorID:  bet.CreatorID,
			OpponentID: bet.OpponentID,
		}); err != nil {
			log.WithError(err).Error("Failed to publish bet disputed event")
		}
		return &interfaces.SubmitOutcome{Disputed: true}, nil

	default:
		return &interfaces.SubmitOutcome{Pending: true}, nil
	}
}

// ResolveDispute settles a disputed bet with an administratively decided
// result.
func (s *betService) ResolveDispute(ctx context.Context, betID int64, result entities.BetResult) (*entities.Bet, error) {
	bet, err := s.getForUpdate(ctx, betID)
	if err != nil {
		return nil, err
	}
	if bet.Status != entities.BetStatusDisputed {
		return nil, fmt.Errorf("bet %d is %s, not disputed: %w", betID, bet.Status, domain.ErrInvalidState)
	}
	if !entities.ValidResult(result) {
		return nil, fmt.Errorf("unknown result %q: %w", result, domain.ErrInvalidState)
	}

	if err := s.complete(ctx, bet, result, entities.BetStatusDisputed); err != nil {
		return nil, err
	}
	return bet, nil
}

// GetBetByID returns a bet with its escrow and proofs.
func (s *betService) GetBetByID(ctx context.Context, betID int64) (*entities.BetDetail, error) {
	bet, err := s.betRepo.GetByID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, domain.ErrNotFound)
	}

	escrow, err := s.escrowRepo.GetByBetID(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow: %w", err)
	}
	proofs, err := s.proofRepo.GetByBet(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proofs: %w", err)
	}

	return &entities.BetDetail{Bet: bet, Escrow: escrow, Proofs: proofs}, nil
}

// GetUserBets returns a user's bets, newest first, optionally by status.
func (s *betService) GetUserBets(ctx context.Context, userID int64, status *entities.BetStatus) ([]*entities.Bet, error) {
	bets, err := s.betRepo.GetByUser(ctx, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", userID, err)
	}
	return bets, nil
}

// complete settles the bet and marks it COMPLETED in the same atomic unit.
// The check-and-set on the expected status guarantees settlement executes at
// most once: a concurrent submission that already completed the bet makes
// this update match zero rows and the whole unit rolls back.
func (s *betService) complete(ctx context.Context, bet *entities.Bet, result entities.BetResult, expected entities.BetStatus) error {
	if err := s.settle(ctx, bet, result, entities.EscrowStatusReleased, expected); err != nil {
		return err
	}

	now := time.Now()
	bet.Status = entities.BetStatusCompleted
	bet.Result = &result
	bet.ResolvedAt = &now
	if err := s.betRepo.Update(ctx, bet, expected); err != nil {
		return err
	}

	if err := s.publisher.Publish(events.BetResolvedEvent{
		BetID:  bet.ID,
		Result: result,
		Amount: bet.Amount,
	}); err != nil {
		log.WithError(err).Error("Failed to publish bet resolved event")
	}
	return nil
}

// settle releases the escrow and distributes the pot. Wallets are locked in
// ascending user ID order so concurrent settlements on overlapping wallets
// cannot deadlock.
func (s *betService) settle(ctx context.Context, bet *entities.Bet, result entities.BetResult, escrowStatus entities.EscrowStatus, expected entities.BetStatus) error {
	if bet.Status != expected {
		return fmt.Errorf("bet %d is %s: %w", bet.ID, bet.Status, domain.ErrInvalidState)
	}

	escrow, err := s.escrowRepo.GetByBetID(ctx, bet.ID)
	if err != nil {
		return fmt.Errorf("failed to get escrow: %w", err)
	}
	if escrow == nil {
		return fmt.Errorf("escrow for bet %d: %w", bet.ID, domain.ErrNotFound)
	}
	if !escrow.IsHeld() {
		return fmt.Errorf("escrow for bet %d is already %s: %w", bet.ID, escrow.Status, domain.ErrConflict)
	}
	if err := s.escrowRepo.UpdateStatus(ctx, escrow.ID, escrowStatus); err != nil {
		return fmt.Errorf("failed to update escrow status: %w", err)
	}

	dist, err := s.settlement.Distribute(bet, result)
	if err != nil {
		return err
	}
	if !dist.Conserves() {
		return fmt.Errorf("settlement for bet %d does not conserve funds", bet.ID)
	}

	parties := []PartyDistribution{dist.Creator, dist.Opponent}
	if parties[0].UserID > parties[1].UserID {
		parties[0], parties[1] = parties[1], parties[0]
	}

	for _, party := range parties {
		wallet, err := s.wallets.Apply(ctx, party)
		if err != nil {
			return err
		}
		if party.TransactionAmount == 0 {
			continue
		}
		txn := &entities.Transaction{
			UserID:        party.UserID,
			WalletID:      wallet.ID,
			Amount:        party.TransactionAmount,
			Type:          party.TransactionType,
			Status:        entities.TransactionStatusCompleted,
			PaymentMethod: entities.PaymentMethodWallet,
			Reference:     settlementReference(party.TransactionType, bet.ID),
		}
		if err := s.txRepo.Create(ctx, txn); err != nil {
			return fmt.Errorf("failed to record settlement transaction: %w", err)
		}
		if err := s.publisher.Publish(events.BalanceChangeEvent{
			UserID:          party.UserID,
			WalletID:        wallet.ID,
			TransactionType: party.TransactionType,
			ChangeAmount:    party.TransactionAmount,
		}); err != nil {
			log.WithError(err).Error("Failed to publish balance change event")
		}
	}

	return nil
}

func (s *betService) setEscrowStatus(ctx context.Context, betID int64, status entities.EscrowStatus) error {
	escrow, err := s.escrowRepo.GetByBetID(ctx, betID)
	if err != nil {
		return fmt.Errorf("failed to get escrow: %w", err)
	}
	if escrow == nil {
		return fmt.Errorf("escrow for bet %d: %w", betID, domain.ErrNotFound)
	}
	if err := s.escrowRepo.UpdateStatus(ctx, escrow.ID, status); err != nil {
		return fmt.Errorf("failed to update escrow status: %w", err)
	}
	return nil
}

func (s *betService) getForUpdate(ctx context.Context, betID int64) (*entities.Bet, error) {
	bet, err := s.betRepo.GetByIDForUpdate(ctx, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bet: %w", err)
	}
	if bet == nil {
		return nil, fmt.Errorf("bet %d: %w", betID, domain.ErrNotFound)
	}
	return bet, nil
}

func settlementReference(txType entities.TransactionType, betID int64) string {
	switch txType {
	case entities.TransactionTypeBetWin:
		return fmt.Sprintf("Bet win: %d", betID)
	case entities.TransactionTypeBetLoss:
		return fmt.Sprintf("Bet loss: %d", betID)
	default:
		return fmt.Sprintf("Bet refund: %d", betID)
	}
}
