package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"betledger/application"
	"betledger/cache"
	"betledger/domain/entities"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

// Handler exposes the ledger over HTTP.
type Handler struct {
	ledger  *application.Ledger
	funding *application.FundingService
	cache   *cache.Cache
}

// NewHandler creates a new HTTP handler. cache may be nil; reads then go
// straight to the database.
func NewHandler(ledger *application.Ledger, funding *application.FundingService, c *cache.Cache) *Handler {
	return &Handler{
		ledger:  ledger,
		funding: funding,
		cache:   c,
	}
}

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/bets", func(r chi.Router) {
			r.Post("/", h.CreateBet)
			r.Get("/{betID}", h.GetBet)
			r.Post("/{betID}/accept", h.AcceptBet)
			r.Post("/{betID}/reject", h.RejectBet)
			r.Post("/{betID}/cancel", h.CancelBet)
			r.Post("/{betID}/proofs", h.SubmitResult)
			r.Post("/{betID}/dispute", h.ResolveDispute)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Get("/bets", h.GetUserBets)
			r.Get("/wallet", h.GetWallet)
			r.Get("/transactions", h.GetTransactions)
			r.Post("/game-accounts", h.LinkGameAccount)
			r.Post("/deposits", h.Deposit)
			r.Post("/withdrawals", h.Withdraw)
		})

		r.Get("/games", h.GetGames)
	})
}

// CreateBet opens a bet and reserves the creator's stake.
func (h *Handler) CreateBet(w http.ResponseWriter, r *http.Request) {
	var req createBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.CreatorID == 0 || req.OpponentID == 0 {
		writeBadRequest(w, "creator_id and opponent_id are required")
		return
	}
	if req.Amount <= 0 {
		writeBadRequest(w, "amount must be positive")
		return
	}
	method := entities.PaymentMethod(req.PaymentMethod)
	if !entities.ValidPaymentMethod(method) {
		writeBadRequest(w, "unknown payment method")
		return
	}

	detail, err := h.ledger.CreateBet(r.Context(), req.CreatorID, req.OpponentID, req.GameID, req.Amount, method)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, req.CreatorID)
	writeJSON(w, http.StatusCreated, toBetDetailResponse(detail))
}

// GetBet returns a bet with its escrow and proofs.
func (h *Handler) GetBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	detail, err := h.ledger.GetBetByID(r.Context(), betID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBetDetailResponse(detail))
}

// AcceptBet locks the escrow with the opponent's matching stake.
func (h *Handler) AcceptBet(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(betID, userID int64) (*entities.Bet, error) {
		return h.ledger.AcceptBet(r.Context(), betID, userID)
	})
}

// RejectBet declines a pending bet.
func (h *Handler) RejectBet(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(betID, userID int64) (*entities.Bet, error) {
		return h.ledger.RejectBet(r.Context(), betID, userID)
	})
}

// lifecycle handles the shared accept/reject shape: bet ID from the path,
// acting user from the body.
func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(betID, userID int64) (*entities.Bet, error)) {
	betID, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	var req actorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == 0 {
		writeBadRequest(w, "user_id is required")
		return
	}

	bet, err := op(betID, req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, bet.CreatorID)
	h.invalidateWallet(r, bet.OpponentID)
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// CancelBet cancels a non-terminal bet and unwinds its reservations.
func (h *Handler) CancelBet(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	bet, err := h.ledger.CancelBet(r.Context(), betID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, bet.CreatorID)
	h.invalidateWallet(r, bet.OpponentID)
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// SubmitResult records a party's claimed outcome with proof.
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	var req submitResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == 0 {
		writeBadRequest(w, "user_id is required")
		return
	}
	claimed := entities.BetResult(req.ClaimedResult)
	if !entities.ValidResult(claimed) || claimed == entities.BetResultCancelled {
		writeBadRequest(w, "unknown claimed result")
		return
	}

	outcome, err := h.ledger.SubmitResult(r.Context(), betID, req.UserID, claimed, req.ProofURL)
	if err != nil {
		writeError(w, err)
		return
	}

	if outcome.Settled {
		// The balance-change events evict both parties; this covers the
		// submitter before those fire.
		h.cache.Delete(r.Context(), cache.WalletKey(req.UserID))
	}
	writeJSON(w, http.StatusOK, toSubmitOutcomeResponse(outcome))
}

// ResolveDispute settles a disputed bet with an adjudicated result.
func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	betID, ok := pathID(w, r, "betID")
	if !ok {
		return
	}

	var req resolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	result := entities.BetResult(req.Result)
	if !entities.ValidResult(result) {
		writeBadRequest(w, "unknown result")
		return
	}

	bet, err := h.ledger.ResolveDispute(r.Context(), betID, result)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, bet.CreatorID)
	h.invalidateWallet(r, bet.OpponentID)
	writeJSON(w, http.StatusOK, toBetResponse(bet))
}

// GetUserBets returns a user's bets, optionally filtered by ?status=.
func (h *Handler) GetUserBets(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var statusFilter *entities.BetStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := entities.BetStatus(raw)
		if !entities.ValidStatus(status) {
			writeBadRequest(w, "unknown status filter")
			return
		}
		statusFilter = &status
	}

	bets, err := h.ledger.GetUserBets(r.Context(), userID, statusFilter)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]betResponse, 0, len(bets))
	for _, bet := range bets {
		resp = append(resp, toBetResponse(bet))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetWallet returns a user's wallet, serving a cached snapshot when fresh.
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	key := cache.WalletKey(userID)
	var cached walletResponse
	if hit, err := h.cache.Get(r.Context(), key, &cached); err != nil {
		log.WithError(err).Warn("Wallet cache read failed")
	} else if hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	wallet, err := h.ledger.GetWallet(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toWalletResponse(wallet)
	if err := h.cache.Set(r.Context(), key, resp); err != nil {
		log.WithError(err).Warn("Wallet cache write failed")
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTransactions returns a user's ledger history, newest first.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	txns, err := h.ledger.GetTransactions(r.Context(), userID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]transactionResponse, 0, len(txns))
	for _, txn := range txns {
		resp = append(resp, toTransactionResponse(txn))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetGames returns the bettable game catalog.
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	key := cache.GamesKey()
	var cached []gameResponse
	if hit, err := h.cache.Get(r.Context(), key, &cached); err != nil {
		log.WithError(err).Warn("Games cache read failed")
	} else if hit {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	games, err := h.ledger.GetActiveGames(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]gameResponse, 0, len(games))
	for _, game := range games {
		resp = append(resp, toGameResponse(game))
	}
	if err := h.cache.Set(r.Context(), key, resp); err != nil {
		log.WithError(err).Warn("Games cache write failed")
	}
	writeJSON(w, http.StatusOK, resp)
}

// LinkGameAccount links a user's in-game identity for oracle verification.
func (h *Handler) LinkGameAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req linkAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.GameID == 0 || req.Username == "" {
		writeBadRequest(w, "game_id and username are required")
		return
	}

	account, err := h.ledger.LinkGameAccount(r.Context(), userID, req.GameID, req.Username, req.APIToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gameAccountResponse{
		GameID:   account.GameID,
		Username: account.Username,
	})
}

// Deposit tops up a wallet from an external payment rail.
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		writeBadRequest(w, "amount must be positive")
		return
	}

	txn, err := h.funding.Deposit(r.Context(), userID, req.Amount, entities.PaymentMethod(req.Method), req.SourceRef)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

// Withdraw cashes out wallet funds to an external payment rail.
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userID")
	if !ok {
		return
	}

	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.Amount <= 0 {
		writeBadRequest(w, "amount must be positive")
		return
	}

	txn, err := h.funding.Withdraw(r.Context(), userID, req.Amount, entities.PaymentMethod(req.Method), req.DestinationRef)
	if err != nil {
		writeError(w, err)
		return
	}

	h.invalidateWallet(r, userID)
	writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *Handler) invalidateWallet(r *http.Request, userID int64) {
	h.cache.Delete(r.Context(), cache.WalletKey(userID))
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeBadRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}
