package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"betledger/domain"
	"betledger/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oracleFixtures(endpoint string) (*entities.Game, *entities.GameAccount, *entities.GameAccount) {
	game := &entities.Game{
		ID:          10,
		Name:        "Chess Arena",
		Platform:    "chessarena",
		APIEndpoint: endpoint,
		APIKey:      "secret-key",
		IsActive:    true,
	}
	creator := &entities.GameAccount{UserID: 100, GameID: 10, Username: "alice"}
	opponent := &entities.GameAccount{UserID: 200, GameID: 10, Username: "bob"}
	return game, creator, opponent
}

func TestHTTPOracle_Verify(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/matches", r.URL.Path)
		assert.Equal(t, "alice", r.URL.Query().Get("player1"))
		assert.Equal(t, "bob", r.URL.Query().Get("player2"))

		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"match_id": "m-42", "winner": "bob", "completed": true},
			},
		})
	}))
	defer server.Close()

	game, creator, opponent := oracleFixtures(server.URL)
	verification, err := NewHTTPOracle().Verify(context.Background(), game, creator, opponent)
	require.NoError(t, err)

	assert.True(t, verification.Verified)
	assert.Equal(t, entities.BetResultOpponentWon, verification.Result)
	assert.Equal(t, "m-42", verification.MatchID)
	assert.Equal(t, "Bearer secret-key", gotAuth)
}

func TestHTTPOracle_Verify_DrawOnEmptyWinner(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"matches": []map[string]any{
				{"match_id": "m-7", "winner": "", "completed": true},
			},
		})
	}))
	defer server.Close()

	game, creator, opponent := oracleFixtures(server.URL)
	verification, err := NewHTTPOracle().Verify(context.Background(), game, creator, opponent)
	require.NoError(t, err)

	assert.True(t, verification.Verified)
	assert.Equal(t, entities.BetResultDraw, verification.Result)
}

func TestHTTPOracle_Verify_UnverifiedCases(t *testing.T) {
	cases := []struct {
		name string
		body map[string]any
	}{
		{"no matches", map[string]any{"matches": []map[string]any{}}},
		{"incomplete match", map[string]any{
			"matches": []map[string]any{{"match_id": "m-1", "winner": "alice", "completed": false}},
		}},
		{"unrecognized winner", map[string]any{
			"matches": []map[string]any{{"match_id": "m-2", "winner": "mallory", "completed": true}},
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tc.body)
			}))
			defer server.Close()

			game, creator, opponent := oracleFixtures(server.URL)
			verification, err := NewHTTPOracle().Verify(context.Background(), game, creator, opponent)
			require.NoError(t, err)
			assert.False(t, verification.Verified)
		})
	}
}

func TestHTTPOracle_Verify_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	game, creator, opponent := oracleFixtures(server.URL)
	_, err := NewHTTPOracle().Verify(context.Background(), game, creator, opponent)
	require.Error(t, err)

	var extErr *domain.ExternalServiceError
	assert.True(t, errors.As(err, &extErr))
}

func TestHTTPOracle_Verify_GameWithoutOracle(t *testing.T) {
	game, creator, opponent := oracleFixtures("")
	verification, err := NewHTTPOracle().Verify(context.Background(), game, creator, opponent)
	require.NoError(t, err)
	assert.False(t, verification.Verified)
}
