package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"betledger/domain"
	"betledger/domain/entities"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 10 * time.Second

// HTTPOracle verifies bet outcomes against a game platform's match history
// API. Each game row carries its own endpoint and key; the oracle asks for
// the most recent match between the two linked accounts.
type HTTPOracle struct {
	httpClient *http.Client
}

// NewHTTPOracle creates a new HTTP-backed result oracle
func NewHTTPOracle() *HTTPOracle {
	return &HTTPOracle{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// matchRecord is one entry in a platform's match history response.
type matchRecord struct {
	MatchID   string `json:"match_id"`
	Winner    string `json:"winner"`
	Completed bool   `json:"completed"`
}

type matchHistoryResponse struct {
	Matches []matchRecord `json:"matches"`
}

// Verify fetches the latest head-to-head match and maps its winner onto a
// bet result. An incomplete match or one the platform does not know about is
// reported as unverified, not as an error.
func (o *HTTPOracle) Verify(ctx context.Context, game *entities.Game, creator, opponent *entities.GameAccount) (*interfaces.OracleVerification, error) {
	if !game.HasOracle() {
		return &interfaces.OracleVerification{}, nil
	}

	query := url.Values{}
	query.Set("player1", creator.Username)
	query.Set("player2", opponent.Username)
	query.Set("limit", "1")

	endpoint := fmt.Sprintf("%s/matches?%s", game.APIEndpoint, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build oracle request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+game.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewExternalServiceError(game.Platform, "match history request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewExternalServiceError(game.Platform,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var history matchHistoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		return nil, domain.NewExternalServiceError(game.Platform, "malformed match history", err)
	}

	if len(history.Matches) == 0 {
		return &interfaces.OracleVerification{}, nil
	}

	match := history.Matches[0]
	if !match.Completed {
		return &interfaces.OracleVerification{MatchID: match.MatchID}, nil
	}

	result, ok := mapWinner(match.Winner, creator.Username, opponent.Username)
	if !ok {
		// The platform reported a winner neither party claims to be.
		log.WithFields(log.Fields{
			"gameID":  game.ID,
			"matchID": match.MatchID,
			"winner":  match.Winner,
		}).Warn("Oracle reported an unrecognized winner")
		return &interfaces.OracleVerification{MatchID: match.MatchID}, nil
	}

	return &interfaces.OracleVerification{
		Verified: true,
		Result:   result,
		MatchID:  match.MatchID,
	}, nil
}

// mapWinner translates the platform's winner field into a bet result. An
// empty winner on a completed match is a draw.
func mapWinner(winner, creatorName, opponentName string) (entities.BetResult, bool) {
	switch winner {
	case creatorName:
		return entities.BetResultCreatorWon, true
	case opponentName:
		return entities.BetResultOpponentWon, true
	case "":
		return entities.BetResultDraw, true
	}
	return "", false
}
