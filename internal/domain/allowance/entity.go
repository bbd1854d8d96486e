package allowance

import (
	"time"

	"github.com/shopspring/decimal"
)

type ClaimStatus string

const (
	StatusPending  ClaimStatus = "pending"
	StatusApproved ClaimStatus = "approved"
	StatusRejected ClaimStatus = "rejected"
	StatusPaid     ClaimStatus = "paid"
)

// CanTransitionTo encodes the claim workflow: pending -> approved/rejected,
// approved -> paid. Rejected and paid are terminal; a rejected period may be
// claimed again with a fresh pending row.
func (s ClaimStatus) CanTransitionTo(next ClaimStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusRejected
	case StatusApproved:
		return next == StatusPaid
	default:
		return false
	}
}

// Claim is a meal-allowance claim for one (user, month, year) period. Amount
// is fixed at submission time and is never recomputed, even if attendance or
// the configured rate changes later — claims need a stable audit trail.
type Claim struct {
	ID              string
	UserID          string
	PeriodMonth     int
	PeriodYear      int
	ValidDays       int
	RatePerDay      decimal.Decimal
	Amount          decimal.Decimal
	Status          ClaimStatus
	ClaimDate       time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	RejectionReason *string
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// Joined fields
	UserName     *string
	ApproverName *string
}

// Preview is the claimable-amount projection for a period.
type Preview struct {
	Month          int             `json:"month"`
	Year           int             `json:"year"`
	ValidDays      int             `json:"valid_days"`
	RatePerDay     decimal.Decimal `json:"rate_per_day"`
	Amount         decimal.Decimal `json:"amount"`
	CanClaim       bool            `json:"can_claim"`
	AlreadyClaimed bool            `json:"already_claimed"`
	ClaimStatus    string          `json:"claim_status,omitempty"`
}
