package entities

import "time"

// Game is a wagerable title. A game with a non-empty APIEndpoint has an
// external result oracle; games without one settle on submitted proofs only.
type Game struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Platform    string    `db:"platform"`
	APIEndpoint string    `db:"api_endpoint"`
	APIKey      string    `db:"api_key"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
}

// HasOracle reports whether the game exposes a result verification API.
func (g *Game) HasOracle() bool {
	return g.APIEndpoint != ""
}

// GameAccount links a user to their in-game identity for one game. The
// resolver needs both parties' accounts before it can query the oracle.
type GameAccount struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	GameID    int64     `db:"game_id"`
	Username  string    `db:"username"`
	APIToken  *string   `db:"api_token"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
