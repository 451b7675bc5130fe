package testutil

import (
	"time"

	"betledger/domain/entities"
)

// CreateTestGame creates an active game without oracle configuration
func CreateTestGame(name string) *entities.Game {
	return &entities.Game{
		Name:      name,
		Platform:  "pc",
		IsActive:  true,
		CreatedAt: time.Now(),
	}
}

// CreateTestGameWithOracle creates an active game with an oracle endpoint
func CreateTestGameWithOracle(name, endpoint string) *entities.Game {
	game := CreateTestGame(name)
	game.APIEndpoint = endpoint
	game.APIKey = "test-api-key"
	return game
}

// CreateTestBet creates a pending bet between two users
func CreateTestBet(creatorID, opponentID, gameID, amount int64) *entities.Bet {
	return &entities.Bet{
		CreatorID:     creatorID,
		OpponentID:    opponentID,
		GameID:        gameID,
		Amount:        amount,
		PaymentMethod: entities.PaymentMethodWallet,
		Status:        entities.BetStatusPending,
		CreatedAt:     time.Now(),
	}
}

// CreateTestEscrow creates a pending escrow for a bet
func CreateTestEscrow(betID, amount int64) *entities.Escrow {
	now := time.Now()
	return &entities.Escrow{
		BetID:     betID,
		Amount:    amount,
		Status:    entities.EscrowStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestProof creates a proof claiming the given result
func CreateTestProof(betID, userID int64, claimed entities.BetResult) *entities.BetProof {
	return &entities.BetProof{
		BetID:         betID,
		UserID:        userID,
		ProofType:     entities.ProofTypeScreenshot,
		ProofURL:      "https://proofs.example.com/match.png",
		ClaimedResult: claimed,
		SubmittedAt:   time.Now(),
	}
}

// CreateTestTransaction creates a completed deposit ledger entry
func CreateTestTransaction(userID, walletID, amount int64) *entities.Transaction {
	return &entities.Transaction{
		UserID:        userID,
		WalletID:      walletID,
		Amount:        amount,
		Type:          entities.TransactionTypeDeposit,
		Status:        entities.TransactionStatusCompleted,
		PaymentMethod: entities.PaymentMethodEcocash,
		Reference:     "Test deposit",
		CreatedAt:     time.Now(),
	}
}
