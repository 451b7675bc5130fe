package httpapi

import (
	"time"

	"betledger/domain/entities"
	"betledger/domain/interfaces"
)

type createBetRequest struct {
	CreatorID     int64  `json:"creator_id"`
	OpponentID    int64  `json:"opponent_id"`
	GameID        int64  `json:"game_id"`
	Amount        int64  `json:"amount"`
	PaymentMethod string `json:"payment_method"`
}

type actorRequest struct {
	UserID int64 `json:"user_id"`
}

type submitResultRequest struct {
	UserID        int64  `json:"user_id"`
	ClaimedResult string `json:"claimed_result"`
	ProofURL      string `json:"proof_url"`
}

type resolveDisputeRequest struct {
	Result string `json:"result"`
}

type depositRequest struct {
	Amount    int64  `json:"amount"`
	Method    string `json:"method"`
	SourceRef string `json:"source_ref"`
}

type withdrawalRequest struct {
	Amount         int64  `json:"amount"`
	Method         string `json:"method"`
	DestinationRef string `json:"destination_ref"`
}

type linkAccountRequest struct {
	GameID   int64   `json:"game_id"`
	Username string  `json:"username"`
	APIToken *string `json:"api_token,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type betResponse struct {
	ID            int64      `json:"id"`
	CreatorID     int64      `json:"creator_id"`
	OpponentID    int64      `json:"opponent_id"`
	GameID        int64      `json:"game_id"`
	Amount        int64      `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	Result        *string    `json:"result,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	AcceptedAt    *time.Time `json:"accepted_at,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

type escrowResponse struct {
	ID     int64  `json:"id"`
	BetID  int64  `json:"bet_id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

type proofResponse struct {
	UserID        int64     `json:"user_id"`
	ProofType     string    `json:"proof_type"`
	ProofURL      string    `json:"proof_url"`
	ClaimedResult string    `json:"claimed_result"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type betDetailResponse struct {
	Bet    betResponse      `json:"bet"`
	Escrow *escrowResponse  `json:"escrow,omitempty"`
	Proofs []proofResponse  `json:"proofs,omitempty"`
}

type submitOutcomeResponse struct {
	Settled  bool    `json:"settled"`
	Disputed bool    `json:"disputed"`
	Pending  bool    `json:"pending"`
	Verified bool    `json:"verified"`
	Result   *string `json:"result,omitempty"`
}

type walletResponse struct {
	UserID        int64 `json:"user_id"`
	Balance       int64 `json:"balance"`
	PendingAmount int64 `json:"pending_amount"`
}

type transactionResponse struct {
	ID            int64     `json:"id"`
	Amount        int64     `json:"amount"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method"`
	Reference     string    `json:"reference"`
	ExternalID    *string   `json:"external_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type gameResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Platform  string `json:"platform"`
	HasOracle bool   `json:"has_oracle"`
}

type gameAccountResponse struct {
	GameID   int64  `json:"game_id"`
	Username string `json:"username"`
}

func toBetResponse(bet *entities.Bet) betResponse {
	resp := betResponse{
		ID:            bet.ID,
		CreatorID:     bet.CreatorID,
		OpponentID:    bet.OpponentID,
		GameID:        bet.GameID,
		Amount:        bet.Amount,
		PaymentMethod: string(bet.PaymentMethod),
		Status:        string(bet.Status),
		CreatedAt:     bet.CreatedAt,
		AcceptedAt:    bet.AcceptedAt,
		ResolvedAt:    bet.ResolvedAt,
	}
	if bet.Result != nil {
		result := string(*bet.Result)
		resp.Result = &result
	}
	return resp
}

func toBetDetailResponse(detail *entities.BetDetail) betDetailResponse {
	resp := betDetailResponse{
		Bet: toBetResponse(detail.Bet),
	}
	if detail.Escrow != nil {
		resp.Escrow = &escrowResponse{
			ID:     detail.Escrow.ID,
			BetID:  detail.Escrow.BetID,
			Amount: detail.Escrow.Amount,
			Status: string(detail.Escrow.Status),
		}
	}
	for _, proof := range detail.Proofs {
		resp.Proofs = append(resp.Proofs, proofResponse{
			UserID:        proof.UserID,
			ProofType:     string(proof.ProofType),
			ProofURL:      proof.ProofURL,
			ClaimedResult: string(proof.ClaimedResult),
			SubmittedAt:   proof.SubmittedAt,
		})
	}
	return resp
}

func toSubmitOutcomeResponse(outcome *interfaces.SubmitOutcome) submitOutcomeResponse {
	resp := submitOutcomeResponse{
		Settled:  outcome.Settled,
		Disputed: outcome.Disputed,
		Pending:  outcome.Pending,
		Verified: outcome.Verified,
	}
	if outcome.Result != nil {
		result := string(*outcome.Result)
		resp.Result = &result
	}
	return resp
}

func toWalletResponse(wallet *entities.Wallet) walletResponse {
	return walletResponse{
		UserID:        wallet.UserID,
		Balance:       wallet.Balance,
		PendingAmount: wallet.PendingAmount,
	}
}

func toTransactionResponse(txn *entities.Transaction) transactionResponse {
	return transactionResponse{
		ID:            txn.ID,
		Amount:        txn.Amount,
		Type:          string(txn.Type),
		Status:        string(txn.Status),
		PaymentMethod: string(txn.PaymentMethod),
		Reference:     txn.Reference,
		ExternalID:    txn.ExternalID,
		CreatedAt:     txn.CreatedAt,
	}
}

func toGameResponse(game *entities.Game) gameResponse {
	return gameResponse{
		ID:        game.ID,
		Name:      game.Name,
		Platform:  game.Platform,
		HasOracle: game.HasOracle(),
	}
}
