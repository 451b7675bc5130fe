package entities

import (
	"time"
)

// BetStatus represents the state of a bet
type BetStatus string

const (
	BetStatusPending    BetStatus = "pending"
	BetStatusAccepted   BetStatus = "accepted"
	BetStatusInProgress BetStatus = "in_progress"
	BetStatusDisputed   BetStatus = "disputed"
	BetStatusCompleted  BetStatus = "completed"
	BetStatusRejected   BetStatus = "rejected"
	BetStatusCancelled  BetStatus = "cancelled"
)

// BetResult represents the resolved outcome of a bet
type BetResult string

const (
	BetResultCreatorWon  BetResult = "creator_won"
	BetResultOpponentWon BetResult = "opponent_won"
	BetResultDraw        BetResult = "draw"
	BetResultCancelled   BetResult = "cancelled"
)

// Bet represents one wager between a creator and an opponent over a game for
// a fixed amount. A bet owns exactly one escrow, created atomically with it.
// Bets are never deleted; terminal bets are retained as history.
type Bet struct {
	ID            int64         `db:"id"`
	CreatorID     int64         `db:"creator_id"`
	OpponentID    int64         `db:"opponent_id"`
	GameID        int64         `db:"game_id"`
	Amount        int64         `db:"amount"`
	PaymentMethod PaymentMethod `db:"payment_method"`
	Status        BetStatus     `db:"status"`
	Result        *BetResult    `db:"result"`
	CreatedAt     time.Time     `db:"created_at"`
	AcceptedAt    *time.Time    `db:"accepted_at"`
	ResolvedAt    *time.Time    `db:"resolved_at"`
}

// BetDetail bundles a bet with its escrow and proofs for caller-facing reads.
type BetDetail struct {
	Bet    *Bet
	Escrow *Escrow
	Proofs []*BetProof
}

// IsParticipant checks if a user is a party to the bet.
func (b *Bet) IsParticipant(userID int64) bool {
	return b.CreatorID == userID || b.OpponentID == userID
}

// IsTerminal reports whether the bet has reached a terminal state.
func (b *Bet) IsTerminal() bool {
	return b.Status == BetStatusCompleted ||
		b.Status == BetStatusRejected ||
		b.Status == BetStatusCancelled
}

// CanBeCancelled reports whether the bet is still in a cancellable state.
// Settlement is never interruptible: only pre-resolution states qualify.
func (b *Bet) CanBeCancelled() bool {
	return !b.IsTerminal()
}

// AcceptsProofs reports whether result submissions are valid for the current state.
func (b *Bet) AcceptsProofs() bool {
	return b.Status == BetStatusAccepted || b.Status == BetStatusInProgress
}

// ValidStatus reports whether s is a known bet status.
func ValidStatus(s BetStatus) bool {
	switch s {
	case BetStatusPending, BetStatusAccepted, BetStatusInProgress,
		BetStatusDisputed, BetStatusCompleted, BetStatusRejected, BetStatusCancelled:
		return true
	}
	return false
}

// ValidResult reports whether r is one of the closed set of outcomes.
func ValidResult(r BetResult) bool {
	switch r {
	case BetResultCreatorWon, BetResultOpponentWon, BetResultDraw, BetResultCancelled:
		return true
	}
	return false
}
