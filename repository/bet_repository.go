package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain"
	"betledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// BetRepository implements the BetRepository interface
type BetRepository struct {
	q queryable
}

// NewBetRepository creates a new bet repository
func NewBetRepository(db *database.DB) *BetRepository {
	return &BetRepository{q: db.Pool}
}

// newBetRepositoryWithTx creates a new bet repository bound to a transaction
func newBetRepositoryWithTx(tx queryable) *BetRepository {
	return &BetRepository{q: tx}
}

const betColumns = `id, creator_id, opponent_id, game_id, amount, payment_method, status, result, created_at, accepted_at, resolved_at`

// Create creates a new bet
func (r *BetRepository) Create(ctx context.Context, bet *entities.Bet) error {
	query := `
		INSERT INTO bets (creator_id, opponent_id, game_id, amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		bet.CreatorID,
		bet.OpponentID,
		bet.GameID,
		bet.Amount,
		bet.PaymentMethod,
		bet.Status,
	).Scan(&bet.ID, &bet.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create bet: %w", err)
	}

	return nil
}

// GetByID retrieves a bet by its ID, nil if none exists
func (r *BetRepository) GetByID(ctx context.Context, id int64) (*entities.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1`, betColumns)
	return r.scanOne(ctx, query, id)
}

// GetByIDForUpdate retrieves a bet with a row lock for lifecycle mutations
func (r *BetRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entities.Bet, error) {
	query := fmt.Sprintf(`SELECT %s FROM bets WHERE id = $1 FOR UPDATE`, betColumns)
	return r.scanOne(ctx, query, id)
}

// Update writes the bet's status, result, and timestamps, but only if the
// row's current status is one of expected. A lost race (the row already moved
// on) matches zero rows and returns domain.ErrConflict, rolling the enclosing
// unit of work back. This is what makes settlement at-most-once.
func (r *BetRepository) Update(ctx context.Context, bet *entities.Bet, expected ...entities.BetStatus) error {
	if len(expected) == 0 {
		return fmt.Errorf("bet update requires at least one expected status")
	}

	expectedStrs := make([]string, len(expected))
	for i, status := range expected {
		expectedStrs[i] = string(status)
	}

	query := `
		UPDATE bets
		SET status = $1,
		    result = $2,
		    accepted_at = $3,
		    resolved_at = $4
		WHERE id = $5 AND status = ANY($6)
	`

	result, err := r.q.Exec(ctx, query,
		bet.Status,
		bet.Result,
		bet.AcceptedAt,
		bet.ResolvedAt,
		bet.ID,
		expectedStrs,
	)
	if err != nil {
		return fmt.Errorf("failed to update bet %d: %w", bet.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("bet %d no longer in expected status: %w", bet.ID, domain.ErrConflict)
	}

	return nil
}

// GetByUser returns bets where the user is creator or opponent, newest first,
// optionally filtered by status
func (r *BetRepository) GetByUser(ctx context.Context, userID int64, status *entities.BetStatus) ([]*entities.Bet, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM bets
		WHERE (creator_id = $1 OR opponent_id = $1)
		  AND ($2::varchar IS NULL OR status = $2)
		ORDER BY created_at DESC
	`, betColumns)

	rows, err := r.q.Query(ctx, query, userID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to get bets for user %d: %w", userID, err)
	}
	defer rows.Close()

	var bets []*entities.Bet
	for rows.Next() {
		bet, err := scanBet(rows)
		if err != nil {
			return nil, err
		}
		bets = append(bets, bet)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bets: %w", err)
	}

	return bets, nil
}

func (r *BetRepository) scanOne(ctx context.Context, query string, args ...any) (*entities.Bet, error) {
	bet, err := scanBet(r.q.QueryRow(ctx, query, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bet, nil
}

// scanBet scans one bet row from either a pgx.Row or pgx.Rows
func scanBet(row pgx.Row) (*entities.Bet, error) {
	var bet entities.Bet
	err := row.Scan(
		&bet.ID,
		&bet.CreatorID,
		&bet.OpponentID,
		&bet.GameID,
		&bet.Amount,
		&bet.PaymentMethod,
		&bet.Status,
		&bet.Result,
		&bet.CreatedAt,
		&bet.AcceptedAt,
		&bet.ResolvedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan bet: %w", err)
	}
	return &bet, nil
}
