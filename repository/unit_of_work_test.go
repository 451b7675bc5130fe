package repository

import (
	"context"
	"testing"
	"time"

	"betledger/domain/entities"
	"betledger/domain/events"
	"betledger/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitPersistsAndFlushesEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	bus := events.NewBus()

	received := make(chan events.BalanceChangeEvent, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		if e, ok := event.(events.BalanceChangeEvent); ok {
			received <- e
		}
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	wallet, err := uow.WalletRepository().GetOrCreate(ctx, 5001)
	require.NoError(t, err)
	require.NoError(t, uow.WalletRepository().ApplyDelta(ctx, wallet.ID, 1000, 0))

	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          5001,
		WalletID:        wallet.ID,
		TransactionType: entities.TransactionTypeDeposit,
		ChangeAmount:    1000,
	}))

	require.NoError(t, uow.Commit())

	// The write is visible outside the transaction
	loaded, err := NewWalletRepository(testDB.DB).GetByUserID(ctx, 5001)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, int64(1000), loaded.Balance)

	// The buffered event reached the subscriber
	select {
	case event := <-received:
		assert.Equal(t, int64(5001), event.UserID)
		assert.Equal(t, int64(1000), event.ChangeAmount)
	case <-time.After(2 * time.Second):
		t.Fatal("balance change event was not delivered after commit")
	}
}

func TestUnitOfWork_RollbackDiscardsWritesAndEvents(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	bus := events.NewBus()

	received := make(chan struct{}, 1)
	bus.Subscribe(events.EventTypeBalanceChange, func(ctx context.Context, event events.Event) {
		received <- struct{}{}
	})

	factory := NewUnitOfWorkFactory(testDB.DB, bus)

	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	wallet, err := uow.WalletRepository().GetOrCreate(ctx, 5002)
	require.NoError(t, err)
	require.NoError(t, uow.WalletRepository().ApplyDelta(ctx, wallet.ID, 1000, 0))

	require.NoError(t, uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       5002,
		WalletID:     wallet.ID,
		ChangeAmount: 1000,
	}))

	require.NoError(t, uow.Rollback())

	// The wallet insert itself rolled back
	loaded, err := NewWalletRepository(testDB.DB).GetByUserID(ctx, 5002)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	select {
	case <-received:
		t.Fatal("event was delivered despite rollback")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestUnitOfWork_SettlementFlowIsAtomic(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)

	ctx := context.Background()
	factory := NewUnitOfWorkFactory(testDB.DB, events.NewBus())

	gameRepo := NewGameRepository(testDB.DB)
	game := testutil.CreateTestGame("Street Fighter")
	require.NoError(t, gameRepo.Create(ctx, game))

	// Seed a bet with its escrow and both funded wallets in one unit of work
	uow := factory.Create()
	require.NoError(t, uow.Begin(ctx))

	creator, err := uow.WalletRepository().GetOrCreate(ctx, 6001)
	require.NoError(t, err)
	require.NoError(t, uow.WalletRepository().ApplyDelta(ctx, creator.ID, 800, 200))

	opponent, err := uow.WalletRepository().GetOrCreate(ctx, 6002)
	require.NoError(t, err)
	require.NoError(t, uow.WalletRepository().ApplyDelta(ctx, opponent.ID, 300, 200))

	bet := testutil.CreateTestBet(6001, 6002, game.ID, 200)
	bet.Status = entities.BetStatusAccepted
	require.NoError(t, uow.BetRepository().Create(ctx, bet))

	escrow := testutil.CreateTestEscrow(bet.ID, 200)
	escrow.Status = entities.EscrowStatusLocked
	require.NoError(t, uow.EscrowRepository().Create(ctx, escrow))

	require.NoError(t, uow.Commit())

	// Settle: creator wins the pot, both reservations release
	settle := factory.Create()
	require.NoError(t, settle.Begin(ctx))

	require.NoError(t, settle.EscrowRepository().UpdateStatus(ctx, escrow.ID, entities.EscrowStatusReleased))
	require.NoError(t, settle.WalletRepository().ApplyDelta(ctx, creator.ID, 400, -200))
	require.NoError(t, settle.WalletRepository().ApplyDelta(ctx, opponent.ID, 0, -200))

	now := time.Now()
	result := entities.BetResultCreatorWon
	bet.Status = entities.BetStatusCompleted
	bet.Result = &result
	bet.ResolvedAt = &now
	require.NoError(t, settle.BetRepository().Update(ctx, bet, entities.BetStatusAccepted))

	require.NoError(t, settle.Commit())

	creatorAfter, err := NewWalletRepository(testDB.DB).GetByUserID(ctx, 6001)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), creatorAfter.Balance)
	assert.Equal(t, int64(0), creatorAfter.PendingAmount)

	opponentAfter, err := NewWalletRepository(testDB.DB).GetByUserID(ctx, 6002)
	require.NoError(t, err)
	assert.Equal(t, int64(300), opponentAfter.Balance)
	assert.Equal(t, int64(0), opponentAfter.PendingAmount)

	escrowAfter, err := NewEscrowRepository(testDB.DB).GetByBetID(ctx, bet.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.EscrowStatusReleased, escrowAfter.Status)
}
