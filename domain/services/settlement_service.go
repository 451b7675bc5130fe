package services

import (
	"fmt"

	"betledger/domain/entities"
)

// SettlementService contains pure business logic for distributing an escrowed
// pot once a bet's result is known. It computes deltas only; applying them is
// the escrow engine's job.
type SettlementService struct{}

// NewSettlementService creates a new SettlementService
func NewSettlementService() *SettlementService {
	return &SettlementService{}
}

// PartyDistribution describes one party's share of a settlement: how their
// wallet moves and the ledger entry that records it. A zero TransactionAmount
// means no ledger entry is written for that party.
type PartyDistribution struct {
	UserID            int64
	BalanceDelta      int64
	PendingDelta      int64
	TransactionType   entities.TransactionType
	TransactionAmount int64
}

// Distribution is the complete settlement plan for a bet.
type Distribution struct {
	Creator  PartyDistribution
	Opponent PartyDistribution
	Pot      int64
}

// Distribute computes the settlement plan for a resolved result. The pot is
// twice the stake and never exceeds the sum of both reservations, so the total
// of balance+pending across both wallets is conserved by construction.
func (s *SettlementService) Distribute(bet *entities.Bet, result entities.BetResult) (*Distribution, error) {
	amount := bet.Amount
	pot := 2 * amount

	switch result {
	case entities.BetResultCreatorWon:
		return &Distribution{
			Creator: PartyDistribution{
				UserID:            bet.CreatorID,
				BalanceDelta:      pot,
				PendingDelta:      -amount,
				TransactionType:   entities.TransactionTypeBetWin,
				TransactionAmount: pot,
			},
			Opponent: PartyDistribution{
				UserID:            bet.OpponentID,
				BalanceDelta:      0,
				PendingDelta:      -amount,
				TransactionType:   entities.TransactionTypeBetLoss,
				TransactionAmount: -amount,
			},
			Pot: pot,
		}, nil

	case entities.BetResultOpponentWon:
		return &Distribution{
			Creator: PartyDistribution{
				UserID:            bet.CreatorID,
				BalanceDelta:      0,
				PendingDelta:      -amount,
				TransactionType:   entities.TransactionTypeBetLoss,
				TransactionAmount: -amount,
			},
			Opponent: PartyDistribution{
				UserID:            bet.OpponentID,
				BalanceDelta:      pot,
				PendingDelta:      -amount,
				TransactionType:   entities.TransactionTypeBetWin,
				TransactionAmount: pot,
			},
			Pot: pot,
		}, nil

	case entities.BetResultDraw, entities.BetResultCancelled:
		refund := func(userID int64) PartyDistribution {
			return PartyDistribution{
				UserID:            userID,
				BalanceDelta:      amount,
				PendingDelta:      -amount,
				TransactionType:   entities.TransactionTypeRefund,
				TransactionAmount: amount,
			}
		}
		return &Distribution{
			Creator:  refund(bet.CreatorID),
			Opponent: refund(bet.OpponentID),
			Pot:      pot,
		}, nil
	}

	return nil, fmt.Errorf("unknown bet result %q", result)
}

// Conserves verifies the distribution moves no money in or out of the pair of
// wallets: the sum of both parties' balance and pending deltas must be zero
// net of nothing, i.e. total exposure across the two wallets is unchanged.
func (d *Distribution) Conserves() bool {
	total := d.Creator.BalanceDelta + d.Creator.PendingDelta +
		d.Opponent.BalanceDelta + d.Opponent.PendingDelta
	return total == 0
}
