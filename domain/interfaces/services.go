package interfaces

import (
	"context"

	"betledger/domain/entities"
)

// OracleVerification is the oracle's answer for one match-up. When Verified is
// false the Result field carries no meaning.
type OracleVerification struct {
	Verified bool
	Result   entities.BetResult
	MatchID  string
}

// ResultOracle is the external, authoritative game-result verification
// capability. Implementations must bound their calls with a timeout; any
// failure is reported as an error and never blocks manual settlement.
type ResultOracle interface {
	Verify(ctx context.Context, game *entities.Game, creator, opponent *entities.GameAccount) (*OracleVerification, error)
}

// PaymentRequest describes one funds movement on an external rail.
type PaymentRequest struct {
	Amount         int64
	DestinationRef string
	Reference      string
}

// PaymentResult is the gateway's answer. Reason is populated on failure.
type PaymentResult struct {
	Success    bool
	ExternalID string
	Reference  string
	Reason     string
}

// PaymentProcessor is the external funds-movement capability for one payment
// method. Used only at wallet top-up and cash-out boundaries; bet settlement
// moves funds between wallets and never touches external rails.
type PaymentProcessor interface {
	Method() entities.PaymentMethod
	ProcessPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
	ProcessWithdrawal(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

/// SubmitOutcome reports what happened to a result submission: either the bet
// settled, went into dispute, or is still awaiting the other party.
type SubmitOutcome struct {
	Settled  bool
	Disputed bool
	Pending  bool
	Verified bool
	Result   *entities.BetResult
}

// BetService is the escrow engine governing a bet's lifecycle. Every method
// expects to run inside a single unit of work; all writes in one call either
// apply together or not at all.
type BetService interface {
	CreateBet(ctx context.Context, creatorID, opponentID, gameID, amount int64, method entities.PaymentMethod) (*entities.BetDetail, error)
	AcceptBet(ctx context.Context, betID, userID int64) (*entities.Bet, error)
	RejectBet(ctx context.Context, betID, userID int64) (*entities.Bet, error)
	CancelBet(ctx context.Context, betID int64) (*entities.Bet, error)
	SubmitResult(ctx context.Context, betID, userID int64, claimed entities.BetResult, proofURL string) (*SubmitOutcome, error)
	ResolveDispute(ctx context.Context, betID int64, result entities.BetResult) (*entities.Bet, error)
	GetBetByID(ctx context.Context, betID int64) (*entities.BetDetail, error)
	GetUserBets(ctx context.Context, userID int64, status *entities.BetStatus) ([]*entities.Bet, error)
}
