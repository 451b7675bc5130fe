package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain"
	"betledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// TransactionRepository implements the append-only ledger
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository bound to a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

const transactionColumns = `id, user_id, wallet_id, amount, type, status, payment_method, reference, external_id, created_at`

// Create appends a ledger entry. Entries are never updated except for the
// status finalization of pending external transfers.
func (r *TransactionRepository) Create(ctx context.Context, txn *entities.Transaction) error {
	if err := txn.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO transactions (user_id, wallet_id, amount, type, status, payment_method, reference, external_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		txn.UserID,
		txn.WalletID,
		txn.Amount,
		txn.Type,
		txn.Status,
		txn.PaymentMethod,
		txn.Reference,
		txn.ExternalID,
	).Scan(&txn.ID, &txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create transaction for user %d: %w", txn.UserID, err)
	}

	return nil
}

// GetByID retrieves a ledger entry, nil if none exists
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*entities.Transaction, error) {
	query := fmt.Sprintf(`SELECT %s FROM transactions WHERE id = $1`, transactionColumns)

	var txn entities.Transaction
	err := r.q.QueryRow(ctx, query, id).Scan(
		&txn.ID,
		&txn.UserID,
		&txn.WalletID,
		&txn.Amount,
		&txn.Type,
		&txn.Status,
		&txn.PaymentMethod,
		&txn.Reference,
		&txn.ExternalID,
		&txn.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction %d: %w", id, err)
	}

	return &txn, nil
}

// UpdateStatus finalizes a pending entry with its outcome and external reference
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status entities.TransactionStatus, externalID *string) error {
	query := `
		UPDATE transactions
		SET status = $1, external_id = COALESCE($2, external_id)
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, status, externalID, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %d: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetByUser returns a user's ledger entries, newest first
func (r *TransactionRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*entities.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}

	query := fmt.Sprintf(`
		SELECT %s FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, transactionColumns)

	rows, err := r.q.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	var txns []*entities.Transaction
	for rows.Next() {
		var txn entities.Transaction
		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.WalletID,
			&txn.Amount,
			&txn.Type,
			&txn.Status,
			&txn.PaymentMethod,
			&txn.Reference,
			&txn.ExternalID,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return txns, nil
}
