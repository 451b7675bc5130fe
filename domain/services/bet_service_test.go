package services

import (
	"context"
	"testing"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type betServiceMocks struct {
	walletRepo *MockWalletRepository
	betRepo    *MockBetRepository
	escrowRepo *MockEscrowRepository
	proofRepo  *MockBetProofRepository
	txRepo     *MockTransactionRepository
	gameRepo   *MockGameRepository
	publisher  *MockEventPublisher
}

func newBetServiceMocks() *betServiceMocks {
	return &betServiceMocks{
		walletRepo: new(MockWalletRepository),
		betRepo:    new(MockBetRepository),
		escrowRepo: new(MockEscrowRepository),
		proofRepo:  new(MockBetProofRepository),
		txRepo:     new(MockTransactionRepository),
		gameRepo:   new(MockGameRepository),
		publisher:  new(MockEventPublisher),
	}
}

func (m *betServiceMocks) service() *betService {
	return NewBetService(
		m.walletRepo, m.betRepo, m.escrowRepo, m.proofRepo,
		m.txRepo, m.gameRepo, nil, m.publisher,
	).(*betService)
}

func (m *betServiceMocks) assertExpectations(t *testing.T) {
	m.walletRepo.AssertExpectations(t)
	m.betRepo.AssertExpectations(t)
	m.escrowRepo.AssertExpectations(t)
	m.proofRepo.AssertExpectations(t)
	m.txRepo.AssertExpectations(t)
	m.gameRepo.AssertExpectations(t)
	m.publisher.AssertExpectations(t)
}

func activeGame() *entities.Game {
	return &entities.Game{ID: 10, Name: "Chess Arena", Platform: "pc", IsActive: true}
}

func TestBetService_CreateBet(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 100, PendingAmount: 0}

	mocks.gameRepo.On("GetByID", ctx, int64(10)).Return(activeGame(), nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(-20), int64(20)).Return(nil)
	mocks.betRepo.On("Create", ctx, mock.MatchedBy(func(b *entities.Bet) bool {
		return b.CreatorID == 100 && b.OpponentID == 200 && b.Amount == 20 &&
			b.Status == entities.BetStatusPending
	})).Return(nil).Run(func(args mock.Arguments) {
		args.Get(1).(*entities.Bet).ID = 1
	})
	mocks.escrowRepo.On("Create", ctx, mock.MatchedBy(func(e *entities.Escrow) bool {
		return e.BetID == 1 && e.Amount == 20 && e.Status == entities.EscrowStatusPending
	})).Return(nil)

	detail, err := svc.CreateBet(ctx, 100, 200, 10, 20, entities.PaymentMethodWallet)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusPending, detail.Bet.Status)
	assert.Equal(t, entities.EscrowStatusPending, detail.Escrow.Status)
	// Creator's stake moved from balance to pending; exposure unchanged.
	assert.Equal(t, int64(80), creatorWallet.Balance)
	assert.Equal(t, int64(20), creatorWallet.PendingAmount)
	assert.Equal(t, int64(100), creatorWallet.TotalExposure())
	mocks.assertExpectations(t)
}

func TestBetService_CreateBet_AgainstSelf(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	_, err := svc.CreateBet(ctx, 100, 100, 10, 20, entities.PaymentMethodWallet)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
}

func TestBetService_CreateBet_NonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	_, err := svc.CreateBet(ctx, 100, 200, 10, 0, entities.PaymentMethodWallet)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.CreateBet(ctx, 100, 200, 10, -5, entities.PaymentMethodWallet)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_CreateBet_InactiveGame(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	game := activeGame()
	game.IsActive = false
	mocks.gameRepo.On("GetByID", ctx, int64(10)).Return(game, nil)

	_, err := svc.CreateBet(ctx, 100, 200, 10, 20, entities.PaymentMethodWallet)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
}

func TestBetService_CreateBet_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	poorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 10, PendingAmount: 0}
	mocks.gameRepo.On("GetByID", ctx, int64(10)).Return(activeGame(), nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(poorWallet, nil)

	_, err := svc.CreateBet(ctx, 100, 200, 10, 20, entities.PaymentMethodWallet)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	mocks.betRepo.AssertNotCalled(t, "Create")
}

func TestBetService_AcceptBet(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusPending}
	opponentWallet := &entities.Wallet{ID: 2, UserID: 200, Balance: 50, PendingAmount: 0}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusPending}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(200)).Return(opponentWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(2), int64(-20), int64(20)).Return(nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusPending).Return(nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusLocked).Return(nil)
	mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		accepted, ok := e.(events.BetAcceptedEvent)
		return ok && accepted.BetID == 1 && accepted.Amount == 20
	})).Return(nil)

	updated, err := svc.AcceptBet(ctx, 1, 200)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusAccepted, updated.Status)
	assert.NotNil(t, updated.AcceptedAt)
	assert.Equal(t, int64(30), opponentWallet.Balance)
	assert.Equal(t, int64(20), opponentWallet.PendingAmount)
	mocks.assertExpectations(t)
}

func TestBetService_AcceptBet_OnlyOpponent(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusPending}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	// Neither the creator nor a stranger can accept.
	_, err := svc.AcceptBet(ctx, 1, 100)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.AcceptBet(ctx, 1, 999)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
}

func TestBetService_AcceptBet_NotPending(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusAccepted}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	_, err := svc.AcceptBet(ctx, 1, 200)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_RejectBet(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusPending}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusPending}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusPending).Return(nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusRefunded).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(20), int64(-20)).Return(nil)

	updated, err := svc.RejectBet(ctx, 1, 200)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusRejected, updated.Status)
	// Creator made whole; rejection writes no ledger entries.
	assert.Equal(t, int64(100), creatorWallet.Balance)
	assert.Equal(t, int64(0), creatorWallet.PendingAmount)
	mocks.txRepo.AssertNotCalled(t, "Create")
	mocks.assertExpectations(t)
}

func TestBetService_CancelBet_Pending(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusPending}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusPending}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusPending).Return(nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusRefunded).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(20), int64(-20)).Return(nil)

	updated, err := svc.CancelBet(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusCancelled, updated.Status)
	// Only the creator had a stake reserved.
	mocks.txRepo.AssertNotCalled(t, "Create")
	mocks.assertExpectations(t)
}

func TestBetService_CancelBet_Accepted_RefundsBoth(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusAccepted}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	opponentWallet := &entities.Wallet{ID: 2, UserID: 200, Balance: 30, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusLocked}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusRefunded).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(200)).Return(opponentWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(20), int64(-20)).Return(nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(2), int64(20), int64(-20)).Return(nil)
	mocks.txRepo.On("Create", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.Type == entities.TransactionTypeRefund && txn.Amount == 20
	})).Return(nil).Twice()
	mocks.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil).Twice()
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusAccepted).Return(nil)

	updated, err := svc.CancelBet(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusCancelled, updated.Status)
	require.NotNil(t, updated.Result)
	assert.Equal(t, entities.BetResultCancelled, *updated.Result)
	assert.Equal(t, int64(100), creatorWallet.Balance)
	assert.Equal(t, int64(50), opponentWallet.Balance)
	mocks.assertExpectations(t)
}

func TestBetService_SubmitResult_FirstProofAwaits(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusAccepted}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.proofRepo.On("Upsert", ctx, mock.MatchedBy(func(p *entities.BetProof) bool {
		return p.BetID == 1 && p.UserID == 100 && p.ClaimedResult == entities.BetResultCreatorWon
	})).Return(nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusAccepted).Return(nil)
	mocks.proofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
	}, nil)

	outcome, err := svc.SubmitResult(ctx, 1, 100, entities.BetResultCreatorWon, "https://proofs.example.com/1.png")
	require.NoError(t, err)

	assert.True(t, outcome.Pending)
	assert.False(t, outcome.Settled)
	assert.Equal(t, entities.BetStatusInProgress, bet.Status)
	mocks.assertExpectations(t)
}

func TestBetService_SubmitResult_AgreementSettles(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusInProgress}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	opponentWallet := &entities.Wallet{ID: 2, UserID: 200, Balance: 30, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusLocked}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.proofRepo.On("Upsert", ctx, mock.AnythingOfType("*entities.BetProof")).Return(nil)
	mocks.proofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultCreatorWon},
	}, nil)

	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusReleased).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(200)).Return(opponentWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(40), int64(-20)).Return(nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(2), int64(0), int64(-20)).Return(nil)
	mocks.txRepo.On("Create", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.UserID == 100 && txn.Type == entities.TransactionTypeBetWin && txn.Amount == 40
	})).Return(nil)
	mocks.txRepo.On("Create", ctx, mock.MatchedBy(func(txn *entities.Transaction) bool {
		return txn.UserID == 200 && txn.Type == entities.TransactionTypeBetLoss && txn.Amount == -20
	})).Return(nil)
	mocks.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil).Twice()
	mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		resolved, ok := e.(events.BetResolvedEvent)
		return ok && resolved.BetID == 1 && resolved.Result == entities.BetResultCreatorWon
	})).Return(nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusInProgress).Return(nil)

	outcome, err := svc.SubmitResult(ctx, 1, 200, entities.BetResultCreatorWon, "https://proofs.example.com/2.png")
	require.NoError(t, err)

	assert.True(t, outcome.Settled)
	require.NotNil(t, outcome.Result)
	assert.Equal(t, entities.BetResultCreatorWon, *outcome.Result)
	assert.Equal(t, entities.BetStatusCompleted, bet.Status)
	assert.NotNil(t, bet.ResolvedAt)

	// Winner: 80 + pot 40 = 120, reservation gone. Loser: balance untouched,
	// reservation consumed. Total exposure 150 across both, as before the bet.
	assert.Equal(t, int64(120), creatorWallet.Balance)
	assert.Equal(t, int64(0), creatorWallet.PendingAmount)
	assert.Equal(t, int64(30), opponentWallet.Balance)
	assert.Equal(t, int64(0), opponentWallet.PendingAmount)
	assert.Equal(t, int64(150), creatorWallet.TotalExposure()+opponentWallet.TotalExposure())
	mocks.assertExpectations(t)
}

func TestBetService_SubmitResult_ConflictDisputes(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusInProgress}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.proofRepo.On("Upsert", ctx, mock.AnythingOfType("*entities.BetProof")).Return(nil)
	mocks.proofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultOpponentWon},
	}, nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusInProgress).Return(nil)
	mocks.publisher.On("Publish", mock.MatchedBy(func(e events.Event) bool {
		disputed, ok := e.(events.BetDisputedEvent)
		return ok && disputed.BetID == 1
	})).Return(nil)

	outcome, err := svc.SubmitResult(ctx, 1, 200, entities.BetResultOpponentWon, "")
	require.NoError(t, err)

	assert.True(t, outcome.Disputed)
	assert.Equal(t, entities.BetStatusDisputed, bet.Status)
	// No funds move on a dispute.
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
	mocks.assertExpectations(t)
}

func TestBetService_SubmitResult_NonParticipant(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusAccepted}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	_, err := svc.SubmitResult(ctx, 1, 999, entities.BetResultCreatorWon, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	mocks.proofRepo.AssertNotCalled(t, "Upsert")
}

func TestBetService_SubmitResult_PendingBetRejectsProofs(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusPending}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	_, err := svc.SubmitResult(ctx, 1, 100, entities.BetResultCreatorWon, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestBetService_SubmitResult_CancelledClaimRejected(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusInProgress}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	// Parties cannot claim a cancellation; that is an administrative action.
	_, err := svc.SubmitResult(ctx, 1, 100, entities.BetResultCancelled, "")
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

// A lost check-and-set on the final status update must surface as a conflict
// so the whole unit of work, wallet writes included, rolls back.
func TestBetService_SubmitResult_LostRaceConflicts(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusInProgress}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	opponentWallet := &entities.Wallet{ID: 2, UserID: 200, Balance: 30, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusLocked}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.proofRepo.On("Upsert", ctx, mock.AnythingOfType("*entities.BetProof")).Return(nil)
	mocks.proofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultCreatorWon},
	}, nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusReleased).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, mock.AnythingOfType("int64")).Return(creatorWallet, nil).Once()
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, mock.AnythingOfType("int64")).Return(opponentWallet, nil).Once()
	mocks.walletRepo.On("ApplyDelta", ctx, mock.AnythingOfType("int64"), mock.AnythingOfType("int64"), mock.AnythingOfType("int64")).Return(nil)
	mocks.txRepo.On("Create", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil)
	mocks.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusInProgress).Return(domain.ErrConflict)

	_, err := svc.SubmitResult(ctx, 1, 200, entities.BetResultCreatorWon, "")
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestBetService_ResolveDispute(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusDisputed}
	creatorWallet := &entities.Wallet{ID: 1, UserID: 100, Balance: 80, PendingAmount: 20}
	opponentWallet := &entities.Wallet{ID: 2, UserID: 200, Balance: 30, PendingAmount: 20}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusLocked}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)
	mocks.escrowRepo.On("UpdateStatus", ctx, int64(5), entities.EscrowStatusReleased).Return(nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(100)).Return(creatorWallet, nil)
	mocks.walletRepo.On("GetByUserIDForUpdate", ctx, int64(200)).Return(opponentWallet, nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(1), int64(0), int64(-20)).Return(nil)
	mocks.walletRepo.On("ApplyDelta", ctx, int64(2), int64(40), int64(-20)).Return(nil)
	mocks.txRepo.On("Create", ctx, mock.AnythingOfType("*entities.Transaction")).Return(nil).Twice()
	mocks.publisher.On("Publish", mock.AnythingOfType("events.BalanceChangeEvent")).Return(nil).Twice()
	mocks.publisher.On("Publish", mock.AnythingOfType("events.BetResolvedEvent")).Return(nil)
	mocks.betRepo.On("Update", ctx, bet, entities.BetStatusDisputed).Return(nil)

	updated, err := svc.ResolveDispute(ctx, 1, entities.BetResultOpponentWon)
	require.NoError(t, err)

	assert.Equal(t, entities.BetStatusCompleted, updated.Status)
	require.NotNil(t, updated.Result)
	assert.Equal(t, entities.BetResultOpponentWon, *updated.Result)
	assert.Equal(t, int64(70), opponentWallet.Balance)
	mocks.assertExpectations(t)
}

// An escrow that no longer holds funds must never be distributed again, even
// if the bet row somehow still reads as disputed.
func TestBetService_ResolveDispute_EscrowAlreadyReleased(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, GameID: 10, Amount: 20, Status: entities.BetStatusDisputed}
	escrow := &entities.Escrow{ID: 5, BetID: 1, Amount: 20, Status: entities.EscrowStatusReleased}

	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)
	mocks.escrowRepo.On("GetByBetID", ctx, int64(1)).Return(escrow, nil)

	_, err := svc.ResolveDispute(ctx, 1, entities.BetResultOpponentWon)
	assert.ErrorIs(t, err, domain.ErrConflict)
	mocks.escrowRepo.AssertNotCalled(t, "UpdateStatus")
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
}

func TestBetService_ResolveDispute_NotDisputed(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	bet := &entities.Bet{ID: 1, CreatorID: 100, OpponentID: 200, Amount: 20, Status: entities.BetStatusInProgress}
	mocks.betRepo.On("GetByIDForUpdate", ctx, int64(1)).Return(bet, nil)

	_, err := svc.ResolveDispute(ctx, 1, entities.BetResultCreatorWon)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	mocks.walletRepo.AssertNotCalled(t, "ApplyDelta")
}

func TestBetService_GetBetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	mocks := newBetServiceMocks()
	svc := mocks.service()

	mocks.betRepo.On("GetByID", ctx, int64(404)).Return(nil, nil)

	_, err := svc.GetBetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
