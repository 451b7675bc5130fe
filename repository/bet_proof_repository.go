package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain/entities"
)

// BetProofRepository implements the BetProofRepository interface
type BetProofRepository struct {
	q queryable
}

// NewBetProofRepository creates a new bet proof repository
func NewBetProofRepository(db *database.DB) *BetProofRepository {
	return &BetProofRepository{q: db.Pool}
}

// newBetProofRepositoryWithTx creates a new bet proof repository bound to a transaction
func newBetProofRepositoryWithTx(tx queryable) *BetProofRepository {
	return &BetProofRepository{q: tx}
}

// Upsert records a party's proof. A resubmission by the same user for the
// same bet replaces the earlier claim and refreshes the timestamp, so each
// party holds exactly one live proof per bet.
func (r *BetProofRepository) Upsert(ctx context.Context, proof *entities.BetProof) error {
	query := `
		INSERT INTO bet_proofs (bet_id, user_id, proof_type, proof_url, claimed_result)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (bet_id, user_id) DO UPDATE SET
			proof_type = EXCLUDED.proof_type,
			proof_url = EXCLUDED.proof_url,
			claimed_result = EXCLUDED.claimed_result,
			submitted_at = NOW()
		RETURNING id, submitted_at
	`

	err := r.q.QueryRow(ctx, query,
		proof.BetID,
		proof.UserID,
		proof.ProofType,
		proof.ProofURL,
		proof.ClaimedResult,
	).Scan(&proof.ID, &proof.SubmittedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert proof for bet %d by user %d: %w", proof.BetID, proof.UserID, err)
	}

	return nil
}

// GetByBet returns all proofs for a bet, most recent first
func (r *BetProofRepository) GetByBet(ctx context.Context, betID int64) ([]*entities.BetProof, error) {
	query := `
		SELECT id, bet_id, user_id, proof_type, proof_url, claimed_result, submitted_at
		FROM bet_proofs
		WHERE bet_id = $1
		ORDER BY submitted_at DESC
	`

	rows, err := r.q.Query(ctx, query, betID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proofs for bet %d: %w", betID, err)
	}
	defer rows.Close()

	var proofs []*entities.BetProof
	for rows.Next() {
		var proof entities.BetProof
		err := rows.Scan(
			&proof.ID,
			&proof.BetID,
			&proof.UserID,
			&proof.ProofType,
			&proof.ProofURL,
			&proof.ClaimedResult,
			&proof.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proof: %w", err)
		}
		proofs = append(proofs, &proof)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate proofs: %w", err)
	}

	return proofs, nil
}
