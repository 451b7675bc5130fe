package entities

import "time"

// EscrowStatus represents the custodial state of a bet's stake
type EscrowStatus string

const (
	EscrowStatusPending  EscrowStatus = "pending"
	EscrowStatusLocked   EscrowStatus = "locked"
	EscrowStatusReleased EscrowStatus = "released"
	EscrowStatusRefunded EscrowStatus = "refunded"
)

// Escrow tracks the custodial state of a bet's stake independently of wallet
// bookkeeping so the two can be cross-checked. Owned exclusively by its bet.
type Escrow struct {
	ID        int64        `db:"id"`
	BetID     int64        `db:"bet_id"`
	Amount    int64        `db:"amount"`
	Status    EscrowStatus `db:"status"`
	CreatedAt time.Time    `db:"created_at"`
	UpdatedAt time.Time    `db:"updated_at"`
}

// IsHeld reports whether the escrow still holds funds.
func (e *Escrow) IsHeld() bool {
	return e.Status == EscrowStatusPending || e.Status == EscrowStatusLocked
}
