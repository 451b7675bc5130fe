package services

import (
	"context"
	"fmt"

	"betledger/domain/entities"
	"betledger/domain/interfaces"

	log "github.com/sirupsen/logrus"
)

// ResolutionOutcome classifies what the resolver decided
type ResolutionOutcome string

const (
	// ResolutionResolved means a result is confirmed and settlement may proceed
	ResolutionResolved ResolutionOutcome = "resolved"
	// ResolutionDisputed means both parties submitted conflicting claims and
	// no oracle could break the tie; manual resolution is required
	ResolutionDisputed ResolutionOutcome = "disputed"
	// ResolutionAwaiting means fewer than two proofs exist and the oracle
	// could not verify; a valid intermediate state, not an error
	ResolutionAwaiting ResolutionOutcome = "awaiting"
)

// Resolution is the resolver's decision for a bet.
type Resolution struct {
	Outcome  ResolutionOutcome
	Result   entities.BetResult
	Verified bool
}

// ResultResolver decides a bet's outcome. The oracle, when one exists for the
// game and both parties have linked accounts, always takes precedence over
// party self-reports. Without oracle confirmation the resolver falls back to
// the parties' submitted proofs.
type ResultResolver struct {
	gameRepo  interfaces.GameRepository
	proofRepo interfaces.BetProofRepository
	oracle    interfaces.ResultOracle
}

// NewResultResolver creates a new ResultResolver. oracle may be nil when no
// external verification is configured.
func NewResultResolver(gameRepo interfaces.GameRepository, proofRepo interfaces.BetProofRepository, oracle interfaces.ResultOracle) *ResultResolver {
	return &ResultResolver{
		gameRepo:  gameRepo,
		proofRepo: proofRepo,
		oracle:    oracle,
	}
}

// Resolve runs the resolution algorithm for a bet. Oracle failures of any
// kind (timeout, malformed response, missing account links) are logged and
// treated as "not verified": they fall through to proof counting and never
// block manual settlement.
func (r *ResultResolver) Resolve(ctx context.Context, bet *entities.Bet) (*Resolution, error) {
	if verification := r.tryOracle(ctx, bet); verification != nil && verification.Verified {
		return &Resolution{
			Outcome:  ResolutionResolved,
			Result:   verification.Result,
			Verified: true,
		}, nil
	}

	proofs, err := r.proofRepo.GetByBet(ctx, bet.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proofs for bet %d: %w", bet.ID, err)
	}

	var creatorProof, opponentProof *entities.BetProof
	for _, proof := range proofs {
		switch proof.UserID {
		case bet.CreatorID:
			creatorProof = proof
		case bet.OpponentID:
			opponentProof = proof
		}
	}

	if creatorProof == nil || opponentProof == nil {
		return &Resolution{Outcome: ResolutionAwaiting}, nil
	}

	if creatorProof.ClaimedResult != opponentProof.ClaimedResult {
		return &Resolution{Outcome: ResolutionDisputed}, nil
	}

	return &Resolution{
		Outcome: ResolutionResolved,
		Result:  creatorProof.ClaimedResult,
	}, nil
}

// tryOracle attempts external verification, returning nil on any failure.
func (r *ResultResolver) tryOracle(ctx context.Context, bet *entities.Bet) *interfaces.OracleVerification {
	if r.oracle == nil {
		return nil
	}

	game, err := r.gameRepo.GetByID(ctx, bet.GameID)
	if err != nil {
		log.WithError(err).WithField("betID", bet.ID).Warn("Failed to load game for oracle verification")
		return nil
	}
	if game == nil || !game.HasOracle() {
		return nil
	}

	creatorAccount, err := r.gameRepo.GetAccount(ctx, bet.CreatorID, bet.GameID)
	if err != nil {
		log.WithError(err).WithField("betID", bet.ID).Warn("Failed to load creator game account")
		return nil
	}
	opponentAccount, err := r.gameRepo.GetAccount(ctx, bet.OpponentID, bet.GameID)
	if err != nil {
		log.WithError(err).WithField("betID", bet.ID).Warn("Failed to load opponent game account")
		return nil
	}
	if creatorAccount == nil || opponentAccount == nil {
		// Without both account links the oracle cannot identify the match.
		return nil
	}

	verification, err := r.oracle.Verify(ctx, game, creatorAccount, opponentAccount)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"betID":  bet.ID,
			"gameID": game.ID,
		}).Warn("Oracle verification failed, falling back to submitted proofs")
		return nil
	}

	return verification
}
