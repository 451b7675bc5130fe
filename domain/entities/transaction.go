package entities

import (
	"errors"
	"time"
)

// TransactionType represents the kind of balance-affecting event
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeBetWin     TransactionType = "bet_win"
	TransactionTypeBetLoss    TransactionType = "bet_loss"
	TransactionTypeRefund     TransactionType = "refund"
)

// TransactionStatus represents the lifecycle of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// PaymentMethod is the closed set of supported payment rails
type PaymentMethod string

const (
	PaymentMethodEcocash PaymentMethod = "ecocash"
	PaymentMethodPaypal  PaymentMethod = "paypal"
	PaymentMethodWallet  PaymentMethod = "wallet"
)

// ValidPaymentMethod reports whether m is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentMethodEcocash, PaymentMethodPaypal, PaymentMethodWallet:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry for a balance-affecting event.
// Amount is signed: positive credits the wallet, negative debits it. The
// wallet balance is the materialized view; transactions are the event log,
// and the engine writes both in the same atomic unit.
type Transaction struct {
	ID            int64             `db:"id"`
	UserID        int64             `db:"user_id"`
	WalletID      int64             `db:"wallet_id"`
	Amount        int64             `db:"amount"`
	Type          TransactionType   `db:"type"`
	Status        TransactionStatus `db:"status"`
	PaymentMethod PaymentMethod     `db:"payment_method"`
	Reference     string            `db:"reference"`
	ExternalID    *string           `db:"external_id"`
	CreatedAt     time.Time         `db:"created_at"`
}

// IsCredit reports whether the transaction credits the wallet.
func (t *Transaction) IsCredit() bool {
	return t.Amount > 0
}

// IsDebit reports whether the transaction debits the wallet.
func (t *Transaction) IsDebit() bool {
	return t.Amount < 0
}

// Validate performs basic consistency checks on the transaction.
func (t *Transaction) Validate() error {
	if t.Amount == 0 {
		return errors.New("transaction amount cannot be zero")
	}
	switch t.Type {
	case TransactionTypeDeposit, TransactionTypeBetWin, TransactionTypeRefund:
		if t.IsDebit() {
			return errors.New("credit transaction must have positive amount")
		}
	case TransactionTypeWithdrawal, TransactionTypeBetLoss:
		if t.IsCredit() {
			return errors.New("debit transaction must have negative amount")
		}
	default:
		return errors.New("unknown transaction type")
	}
	return nil
}
