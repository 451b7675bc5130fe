package repository

import (
	"context"
	"fmt"

	"betledger/database"
	"betledger/domain/entities"

	"github.com/jackc/pgx/v5"
)

// GameRepository implements the game catalog and account-link data access
type GameRepository struct {
	q queryable
}

// NewGameRepository creates a new game repository
func NewGameRepository(db *database.DB) *GameRepository {
	return &GameRepository{q: db.Pool}
}

// newGameRepositoryWithTx creates a new game repository bound to a transaction
func newGameRepositoryWithTx(tx queryable) *GameRepository {
	return &GameRepository{q: tx}
}

const gameColumns = `id, name, platform, api_endpoint, api_key, is_active, created_at`

// Create adds a game to the catalog
func (r *GameRepository) Create(ctx context.Context, game *entities.Game) error {
	query := `
		INSERT INTO games (name, platform, api_endpoint, api_key, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		game.Name,
		game.Platform,
		game.APIEndpoint,
		game.APIKey,
		game.IsActive,
	).Scan(&game.ID, &game.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game %q: %w", game.Name, err)
	}

	return nil
}

// GetByID retrieves a game by its ID, nil if none exists
func (r *GameRepository) GetByID(ctx context.Context, id int64) (*entities.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE id = $1`, gameColumns)

	var game entities.Game
	err := r.q.QueryRow(ctx, query, id).Scan(
		&game.ID,
		&game.Name,
		&game.Platform,
		&game.APIEndpoint,
		&game.APIKey,
		&game.IsActive,
		&game.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %d: %w", id, err)
	}

	return &game, nil
}

// GetActive returns all active games, ordered by name
func (r *GameRepository) GetActive(ctx context.Context) ([]*entities.Game, error) {
	query := fmt.Sprintf(`SELECT %s FROM games WHERE is_active ORDER BY name`, gameColumns)

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active games: %w", err)
	}
	defer rows.Close()

	var games []*entities.Game
	for rows.Next() {
		var game entities.Game
		err := rows.Scan(
			&game.ID,
			&game.Name,
			&game.Platform,
			&game.APIEndpoint,
			&game.APIKey,
			&game.IsActive,
			&game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate games: %w", err)
	}

	return games, nil
}

// GetAccount retrieves a user's linked account for a game, nil if unlinked
func (r *GameRepository) GetAccount(ctx context.Context, userID, gameID int64) (*entities.GameAccount, error) {
	query := `
		SELECT id, user_id, game_id, username, api_token, created_at, updated_at
		FROM game_accounts
		WHERE user_id = $1 AND game_id = $2
	`

	var account entities.GameAccount
	err := r.q.QueryRow(ctx, query, userID, gameID).Scan(
		&account.ID,
		&account.UserID,
		&account.GameID,
		&account.Username,
		&account.APIToken,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game account for user %d, game %d: %w", userID, gameID, err)
	}

	return &account, nil
}

// UpsertAccount links or relinks a user's in-game identity
func (r *GameRepository) UpsertAccount(ctx context.Context, account *entities.GameAccount) error {
	query := `
		INSERT INTO game_accounts (user_id, game_id, username, api_token)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_id) DO UPDATE SET
			username = EXCLUDED.username,
			api_token = EXCLUDED.api_token,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		account.UserID,
		account.GameID,
		account.Username,
		account.APIToken,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game account for user %d: %w", account.UserID, err)
	}

	return nil
}
