package entities

import (
	"errors"
	"time"
)

// Wallet holds a user's funds. Balance is spendable; PendingAmount is reserved
// against open bets and is neither spendable nor withdrawable. Both are
// non-negative at all times; the database enforces the same invariant.
type Wallet struct {
	ID            int64     `db:"id"`
	UserID        int64     `db:"user_id"`
	Balance       int64     `db:"balance"`
	PendingAmount int64     `db:"pending_amount"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// TotalExposure returns the user's total economic exposure. This sum changes
// only through deposits, withdrawals, and bet settlement payouts; bet
// creation, acceptance, and rejection merely reshuffle between the two fields.
func (w *Wallet) TotalExposure() int64 {
	return w.Balance + w.PendingAmount
}

// CanAfford checks whether the spendable balance covers an amount.
func (w *Wallet) CanAfford(amount int64) bool {
	return w.Balance >= amount
}

// HasReserved checks whether at least amount is currently reserved.
func (w *Wallet) HasReserved(amount int64) bool {
	return w.PendingAmount >= amount
}

// Validate checks the wallet invariants.
func (w *Wallet) Validate() error {
	if w.Balance < 0 {
		return errors.New("wallet balance cannot be negative")
	}
	if w.PendingAmount < 0 {
		return errors.New("wallet pending amount cannot be negative")
	}
	return nil
}
