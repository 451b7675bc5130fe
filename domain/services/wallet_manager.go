package services

import (
	"context"
	"fmt"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

// WalletManager owns the balance and pending-amount invariants per wallet.
// Each primitive is atomic with respect to the owning wallet row: the wallet
// is locked for the duration of the enclosing unit of work, and the guarded
// repository update refuses any delta that would drive a field negative.
// Only the escrow engine and the funding flow mutate wallets through it.
type WalletManager struct {
	walletRepo interfaces.WalletRepository
}

// NewWalletManager creates a new WalletManager bound to a unit of work's
// wallet repository.
func NewWalletManager(walletRepo interfaces.WalletRepository) *WalletManager {
	return &WalletManager{walletRepo: walletRepo}
}

// Reserve earmarks amount against an open bet: balance decreases, pending
// increases, total exposure unchanged. Fails with ErrInsufficientFunds when
// the spendable balance does not cover the amount.
func (m *WalletManager) Reserve(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	wallet, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.CanAfford(amount) {
		return nil, fmt.Errorf("wallet for user %d has %d, needs %d: %w",
			userID, wallet.Balance, amount, domain.ErrInsufficientFunds)
	}
	if err := m.walletRepo.ApplyDelta(ctx, wallet.ID, -amount, amount); err != nil {
		return nil, fmt.Errorf("failed to reserve %d on wallet %d: %w", amount, wallet.ID, err)
	}
	wallet.Balance -= amount
	wallet.PendingAmount += amount
	return wallet, nil
}

// Release undoes a reservation: pending decreases, balance increases.
func (m *WalletManager) Release(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	wallet, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.HasReserved(amount) {
		return nil, fmt.Errorf("wallet %d has %d reserved, cannot release %d: %w",
			wallet.ID, wallet.PendingAmount, amount, domain.ErrInvalidState)
	}
	if err := m.walletRepo.ApplyDelta(ctx, wallet.ID, amount, -amount); err != nil {
		return nil, fmt.Errorf("failed to release %d on wallet %d: %w", amount, wallet.ID, err)
	}
	wallet.Balance += amount
	wallet.PendingAmount -= amount
	return wallet, nil
}

// Payout credits winnings beyond the wallet's own stake. Pending is untouched.
func (m *WalletManager) Payout(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	wallet, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := m.walletRepo.ApplyDelta(ctx, wallet.ID, amount, 0); err != nil {
		return nil, fmt.Errorf("failed to pay out %d on wallet %d: %w", amount, wallet.ID, err)
	}
	wallet.Balance += amount
	return wallet, nil
}

// SettleReservation consumes a reservation that was spent: pending decreases
// with no balance credit.
func (m *WalletManager) SettleReservation(ctx context.Context, userID, amount int64) (*entities.Wallet, error) {
	wallet, err := m.lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.HasReserved(amount) {
		return nil, fmt.Errorf("wallet %d has %d reserved, cannot settle %d: %w",
			wallet.ID, wallet.PendingAmount, amount, domain.ErrInvalidState)
	}
	if err := m.walletRepo.ApplyDelta(ctx, wallet.ID, 0, -amount); err != nil {
		return nil, fmt.Errorf("failed to settle reservation of %d on wallet %d: %w", amount, wallet.ID, err)
	}
	wallet.PendingAmount -= amount
	return wallet, nil
}

// Apply executes one party's settlement distribution against their wallet.
func (m *WalletManager) Apply(ctx context.Context, dist PartyDistribution) (*entities.Wallet, error) {
	wallet, err := m.lock(ctx, dist.UserID)
	if err != nil {
		return nil, err
	}
	if err := m.walletRepo.ApplyDelta(ctx, wallet.ID, dist.BalanceDelta, dist.PendingDelta); err != nil {
		return nil, fmt.Errorf("failed to apply settlement to wallet %d: %w", wallet.ID, err)
	}
	wallet.Balance += dist.BalanceDelta
	wallet.PendingAmount += dist.PendingDelta
	return wallet, nil
}

func (m *WalletManager) lock(ctx context.Context, userID int64) (*entities.Wallet, error) {
	wallet, err := m.walletRepo.GetByUserIDForUpdate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock wallet for user %d: %w", userID, err)
	}
	if wallet == nil {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, domain.ErrNotFound)
	}
	if err := wallet.Validate(); err != nil {
		return nil, fmt.Errorf("wallet %d: %w", wallet.ID, err)
	}
	return wallet, nil
}
