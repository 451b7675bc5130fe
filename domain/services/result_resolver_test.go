package services

import (
	"context"
	"errors"
	"testing"

	"betledger/domain/entities"
	"betledger/domain/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolverBet() *entities.Bet {
	return &entities.Bet{
		ID:         1,
		CreatorID:  100,
		OpponentID: 200,
		GameID:     10,
		Amount:     20,
		Status:     entities.BetStatusInProgress,
	}
}

func TestResultResolver_AgreeingProofs(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, nil)
	bet := resolverBet()

	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultCreatorWon},
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionResolved, resolution.Outcome)
	assert.Equal(t, entities.BetResultCreatorWon, resolution.Result)
	assert.False(t, resolution.Verified)
	mockProofRepo.AssertExpectations(t)
}

func TestResultResolver_ConflictingProofs(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, nil)
	bet := resolverBet()

	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultOpponentWon},
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionDisputed, resolution.Outcome)
}

func TestResultResolver_SingleProofAwaits(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, nil)
	bet := resolverBet()

	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultCreatorWon},
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionAwaiting, resolution.Outcome)
}

// The oracle's verdict beats the parties' claims, even unanimous ones.
func TestResultResolver_OracleTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)
	mockOracle := new(MockResultOracle)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, mockOracle)
	bet := resolverBet()

	game := &entities.Game{ID: 10, Name: "Chess Arena", APIEndpoint: "https://api.chess.example", APIKey: "key", IsActive: true}
	creatorAccount := &entities.GameAccount{UserID: 100, GameID: 10, Username: "alice"}
	opponentAccount := &entities.GameAccount{UserID: 200, GameID: 10, Username: "bob"}

	mockGameRepo.On("GetByID", ctx, int64(10)).Return(game, nil)
	mockGameRepo.On("GetAccount", ctx, int64(100), int64(10)).Return(creatorAccount, nil)
	mockGameRepo.On("GetAccount", ctx, int64(200), int64(10)).Return(opponentAccount, nil)
	mockOracle.On("Verify", ctx, game, creatorAccount, opponentAccount).Return(&interfaces.OracleVerification{
		Verified: true,
		Result:   entities.BetResultOpponentWon,
		MatchID:  "m-42",
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionResolved, resolution.Outcome)
	assert.Equal(t, entities.BetResultOpponentWon, resolution.Result)
	assert.True(t, resolution.Verified)
	// Proof counting never ran.
	mockProofRepo.AssertNotCalled(t, "GetByBet", ctx, int64(1))
	mockOracle.AssertExpectations(t)
}

func TestResultResolver_OracleFailureFallsBackToProofs(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)
	mockOracle := new(MockResultOracle)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, mockOracle)
	bet := resolverBet()

	game := &entities.Game{ID: 10, APIEndpoint: "https://api.chess.example", APIKey: "key"}
	creatorAccount := &entities.GameAccount{UserID: 100, GameID: 10, Username: "alice"}
	opponentAccount := &entities.GameAccount{UserID: 200, GameID: 10, Username: "bob"}

	mockGameRepo.On("GetByID", ctx, int64(10)).Return(game, nil)
	mockGameRepo.On("GetAccount", ctx, int64(100), int64(10)).Return(creatorAccount, nil)
	mockGameRepo.On("GetAccount", ctx, int64(200), int64(10)).Return(opponentAccount, nil)
	mockOracle.On("Verify", ctx, game, creatorAccount, opponentAccount).Return(nil, errors.New("timeout"))

	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultDraw},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultDraw},
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionResolved, resolution.Outcome)
	assert.Equal(t, entities.BetResultDraw, resolution.Result)
	assert.False(t, resolution.Verified)
}

func TestResultResolver_MissingAccountLinkSkipsOracle(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)
	mockOracle := new(MockResultOracle)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, mockOracle)
	bet := resolverBet()

	game := &entities.Game{ID: 10, APIEndpoint: "https://api.chess.example", APIKey: "key"}
	mockGameRepo.On("GetByID", ctx, int64(10)).Return(game, nil)
	mockGameRepo.On("GetAccount", ctx, int64(100), int64(10)).Return(&entities.GameAccount{UserID: 100}, nil)
	mockGameRepo.On("GetAccount", ctx, int64(200), int64(10)).Return(nil, nil)

	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionAwaiting, resolution.Outcome)
	mockOracle.AssertNotCalled(t, "Verify")
}

func TestResultResolver_GameWithoutOracleUsesProofs(t *testing.T) {
	ctx := context.Background()
	mockGameRepo := new(MockGameRepository)
	mockProofRepo := new(MockBetProofRepository)
	mockOracle := new(MockResultOracle)

	resolver := NewResultResolver(mockGameRepo, mockProofRepo, mockOracle)
	bet := resolverBet()

	// No API endpoint configured: the game has no oracle.
	mockGameRepo.On("GetByID", ctx, int64(10)).Return(&entities.Game{ID: 10, Name: "Pool"}, nil)
	mockProofRepo.On("GetByBet", ctx, int64(1)).Return([]*entities.BetProof{
		{BetID: 1, UserID: 100, ClaimedResult: entities.BetResultOpponentWon},
		{BetID: 1, UserID: 200, ClaimedResult: entities.BetResultOpponentWon},
	}, nil)

	resolution, err := resolver.Resolve(ctx, bet)
	require.NoError(t, err)

	assert.Equal(t, ResolutionResolved, resolution.Outcome)
	assert.Equal(t, entities.BetResultOpponentWon, resolution.Result)
	mockOracle.AssertNotCalled(t, "Verify")
}
