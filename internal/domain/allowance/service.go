package allowance

import "context"

// AllowanceService computes meal-allowance eligibility from attendance history
// and runs the claim approval workflow.
type AllowanceService interface {
	// Preview projects the claimable amount for a period. Idempotent: with no
	// intervening attendance changes two calls return identical results. When
	// a claim already exists its stored amount and status are returned instead
	// of a recomputation.
	Preview(ctx context.Context, userID string, month, year int) (Preview, error)

	// Submit creates a pending claim with the amount fixed at submission time.
	Submit(ctx context.Context, req SubmitClaimRequest) (ClaimResponse, error)

	// Decide approves or rejects a pending claim (admin only).
	Decide(ctx context.Context, req DecideClaimRequest) (ClaimResponse, error)

	// MarkPaid transitions an approved claim to paid (admin only).
	MarkPaid(ctx context.Context, claimID string, adminID string) (ClaimResponse, error)

	// DirectApprove submits and approves in one atomic step, bypassing the
	// employee-initiated pending stage. Used for bulk payroll reconciliation;
	// the one-non-rejected-claim invariant still holds.
	DirectApprove(ctx context.Context, req DirectApproveRequest) (ClaimResponse, error)

	// GetMyClaims lists the caller's claims.
	GetMyClaims(ctx context.Context, userID string, filter ClaimFilter) (ListClaimsResponse, error)

	// ListClaims lists claims across users (admin).
	ListClaims(ctx context.Context, filter ClaimFilter) (ListClaimsResponse, error)
}
