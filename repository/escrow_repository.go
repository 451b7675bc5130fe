package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain"
	"betledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// EscrowRepository implements the EscrowRepository interface
type EscrowRepository struct {
	q queryable
}

// NewEscrowRepository creates a new escrow repository
func NewEscrowRepository(db *database.DB) *EscrowRepository {
	return &EscrowRepository{q: db.Pool}
}

// newEscrowRepositoryWithTx creates a new escrow repository bound to a transaction
func newEscrowRepositoryWithTx(tx queryable) *EscrowRepository {
	return &EscrowRepository{q: tx}
}

// Create creates the escrow owned by a bet. The unique constraint on bet_id
// enforces one escrow per bet.
func (r *EscrowRepository) Create(ctx context.Context, escrow *entities.Escrow) error {
	query := `
		INSERT INTO escrows (bet_id, amount, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		escrow.BetID,
		escrow.Amount,
		escrow.Status,
	).Scan(&escrow.ID, &escrow.CreatedAt, &escrow.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create escrow for bet %d: %w", escrow.BetID, err)
	}

	return nil
}

// GetByBetID retrieves the escrow for a bet, nil if none exists
func (r *EscrowRepository) GetByBetID(ctx context.Context, betID int64) (*entities.Escrow, error) {
	query := `
		SELECT id, bet_id, amount, status, created_at, updated_at
		FROM escrows
		WHERE bet_id = $1
	`

	var escrow entities.Escrow
	err := r.q.QueryRow(ctx, query, betID).Scan(
		&escrow.ID,
		&escrow.BetID,
		&escrow.Amount,
		&escrow.Status,
		&escrow.CreatedAt,
		&escrow.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow for bet %d: %w", betID, err)
	}

	return &escrow, nil
}

// UpdateStatus transitions the escrow's custodial state
func (r *EscrowRepository) UpdateStatus(ctx context.Context, escrowID int64, status entities.EscrowStatus) error {
	query := `
		UPDATE escrows
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, status, escrowID)
	if err != nil {
		return fmt.Errorf("failed to update escrow %d: %w", escrowID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("escrow %d: %w", escrowID, domain.ErrNotFound)
	}

	return nil
}
