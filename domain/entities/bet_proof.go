package entities

import "time"

// ProofType categorizes the submitted evidence
type ProofType string

const (
	ProofTypeScreenshot ProofType = "screenshot"
	ProofTypeVideo      ProofType = "video"
	ProofTypeAPIRecord  ProofType = "api_record"
)

// BetProof records one party's claimed result for a bet together with an
// evidence reference. At most one proof per (bet, user): resubmission replaces
// the earlier proof, updating claim, evidence, and timestamp.
type BetProof struct {
	ID            int64     `db:"id"`
	BetID         int64     `db:"bet_id"`
	UserID        int64     `db:"user_id"`
	ProofType     ProofType `db:"proof_type"`
	ProofURL      string    `db:"proof_url"`
	ClaimedResult BetResult `db:"claimed_result"`
	SubmittedAt   time.Time `db:"submitted_at"`
}
