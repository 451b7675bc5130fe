package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain"
	"betledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// WalletRepository implements the WalletRepository interface
type WalletRepository struct {
	q queryable
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *database.DB) *WalletRepository {
	return &WalletRepository{q: db.Pool}
}

// newWalletRepositoryWithTx creates a new wallet repository bound to a transaction
func newWalletRepositoryWithTx(tx queryable) *WalletRepository {
	return &WalletRepository{q: tx}
}

const walletColumns = `id, user_id, balance, pending_amount, created_at, updated_at`

// GetByUserID retrieves a user's wallet, nil if none exists
func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) (*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE user_id = $1`, walletColumns)
	return r.scanOne(ctx, query, userID)
}

// GetByUserIDForUpdate retrieves a user's wallet with a row lock held until
// the enclosing transaction ends. Concurrent reservations against the same
// wallet serialize on this lock.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*entities.Wallet, error) {
	query := fmt.Sprintf(`SELECT %s FROM wallets WHERE user_id = $1 FOR UPDATE`, walletColumns)
	return r.scanOne(ctx, query, userID)
}

// GetOrCreate retrieves a user's wallet, creating an empty one if absent.
// The upsert makes concurrent first touches of the same user safe.
func (r *WalletRepository) GetOrCreate(ctx context.Context, userID int64) (*entities.Wallet, error) {
	query := fmt.Sprintf(`
		INSERT INTO wallets (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING %s
	`, walletColumns)

	wallet, err := r.scanOne(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create wallet for user %d: %w", userID, err)
	}
	return wallet, nil
}

// ApplyDelta atomically adjusts balance and pending amount. The WHERE guard
// refuses any delta that would drive either field negative; together with the
// CHECK constraints it makes a negative balance unrepresentable.
func (r *WalletRepository) ApplyDelta(ctx context.Context, walletID int64, balanceDelta, pendingDelta int64) error {
	query := `
		UPDATE wallets
		SET balance = balance + $1,
		    pending_amount = pending_amount + $2,
		    updated_at = NOW()
		WHERE id = $3
		  AND balance + $1 >= 0
		  AND pending_amount + $2 >= 0
	`

	result, err := r.q.Exec(ctx, query, balanceDelta, pendingDelta, walletID)
	if err != nil {
		return fmt.Errorf("failed to apply delta to wallet %d: %w", walletID, err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM wallets WHERE id = $1)`, walletID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check wallet %d: %w", walletID, err)
		}
		if !exists {
			return fmt.Errorf("wallet %d: %w", walletID, domain.ErrNotFound)
		}
		return fmt.Errorf("delta (%d, %d) on wallet %d: %w",
			balanceDelta, pendingDelta, walletID, domain.ErrInsufficientFunds)
	}

	return nil
}

func (r *WalletRepository) scanOne(ctx context.Context, query string, args ...any) (*entities.Wallet, error) {
	var wallet entities.Wallet
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&wallet.ID,
		&wallet.UserID,
		&wallet.Balance,
		&wallet.PendingAmount,
		&wallet.CreatedAt,
		&wallet.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	return &wallet, nil
}
