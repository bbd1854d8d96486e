package allowance

import (
	"context"
)

// ClaimRepository defines data access for meal-allowance claims.
//
// Create must rely on the partial unique index over
// (user_id, period_month, period_year) WHERE status <> 'rejected': a
// concurrent duplicate submission surfaces as ErrAlreadyClaimed.
type ClaimRepository interface {
	Create(ctx context.Context, claim Claim) (Claim, error)

	GetByID(ctx context.Context, id string) (Claim, error)

	// GetForPeriod returns the most recent claim for the period, or nil.
	GetForPeriod(ctx context.Context, userID string, month, year int) (*Claim, error)

	// UpdateStatus performs the workflow transition as a conditional write
	// keyed on the expected current status. Returns false when the row was
	// not in the expected state.
	UpdateStatus(ctx context.Context, id string, from, to ClaimStatus, adminID *string, reason *string) (bool, error)

	List(ctx context.Context, filter ClaimFilter) ([]Claim, int64, error)

	// ListForPeriod returns all claims of a month, for report export.
	ListForPeriod(ctx context.Context, month, year int) ([]Claim, error)
}
