package allowance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClaimRepo struct {
	mu     sync.Mutex
	seq    int
	claims map[string]allowance.Claim
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{claims: make(map[string]allowance.Claim)}
}

func (f *fakeClaimRepo) Create(_ context.Context, claim allowance.Claim) (allowance.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.claims {
		if c.UserID == claim.UserID && c.PeriodMonth == claim.PeriodMonth &&
			c.PeriodYear == claim.PeriodYear && c.Status != allowance.StatusRejected {
			return allowance.Claim{}, allowance.ErrAlreadyClaimed
		}
	}

	f.seq++
	claim.ID = fmt.Sprintf("claim-%d", f.seq)
	claim.CreatedAt = time.Now()
	f.claims[claim.ID] = claim
	return claim, nil
}

func (f *fakeClaimRepo) GetByID(_ context.Context, id string) (allowance.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	claim, ok := f.claims[id]
	if !ok {
		return allowance.Claim{}, allowance.ErrClaimNotFound
	}
	return claim, nil
}

func (f *fakeClaimRepo) GetForPeriod(_ context.Context, userID string, month, year int) (*allowance.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var best *allowance.Claim
	for _, c := range f.claims {
		if c.UserID != userID || c.PeriodMonth != month || c.PeriodYear != year {
			continue
		}
		claim := c
		switch {
		case best == nil:
			best = &claim
		case best.Status == allowance.StatusRejected && claim.Status != allowance.StatusRejected:
			best = &claim
		case best.Status == claim.Status && claim.CreatedAt.After(best.CreatedAt):
			best = &claim
		}
	}
	return best, nil
}

func (f *fakeClaimRepo) UpdateStatus(_ context.Context, id string, from, to allowance.ClaimStatus, adminID *string, reason *string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	claim, ok := f.claims[id]
	if !ok || claim.Status != from {
		return false, nil
	}

	now := time.Now()
	claim.Status = to
	switch to {
	case allowance.StatusApproved:
		claim.ApprovedBy = adminID
		claim.ApprovedAt = &now
	case allowance.StatusRejected:
		claim.ApprovedBy = adminID
		claim.ApprovedAt = &now
		claim.RejectionReason = reason
	case allowance.StatusPaid:
		claim.PaidAt = &now
	}
	f.claims[id] = claim
	return true, nil
}

func (f *fakeClaimRepo) List(_ context.Context, filter allowance.ClaimFilter) ([]allowance.Claim, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []allowance.Claim
	for _, c := range f.claims {
		if filter.UserID != nil && c.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		result = append(result, c)
	}
	return result, int64(len(result)), nil
}

func (f *fakeClaimRepo) ListForPeriod(_ context.Context, month, year int) ([]allowance.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []allowance.Claim
	for _, c := range f.claims {
		if c.PeriodMonth == month && c.PeriodYear == year {
			result = append(result, c)
		}
	}
	return result, nil
}

// stubAttendanceRepo serves only valid-day counts; the claim workflow never
// touches individual attendance rows.
type stubAttendanceRepo struct {
	mu        sync.Mutex
	validDays map[string]int
}

func periodKey(userID string, month, year int) string {
	return fmt.Sprintf("%s/%04d-%02d", userID, year, month)
}

func (s *stubAttendanceRepo) setValidDays(userID string, month, year, days int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.validDays == nil {
		s.validDays = make(map[string]int)
	}
	s.validDays[periodKey(userID, month, year)] = days
}

func (s *stubAttendanceRepo) CountValidDays(_ context.Context, userID string, month, year int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.validDays[periodKey(userID, month, year)], nil
}

func (s *stubAttendanceRepo) Create(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	return att, nil
}

func (s *stubAttendanceRepo) GetByID(_ context.Context, _ string) (attendance.Attendance, error) {
	return attendance.Attendance{}, attendance.ErrAttendanceNotFound
}

func (s *stubAttendanceRepo) GetByUserAndDate(_ context.Context, _ string, _ time.Time) (*attendance.Attendance, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) CompleteCheckOut(_ context.Context, _ string, _ time.Time, _, _ float64, _ string, _ int) (bool, error) {
	return false, nil
}

func (s *stubAttendanceRepo) List(_ context.Context, _ attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	return nil, 0, nil
}

func (s *stubAttendanceRepo) ListForPeriod(_ context.Context, _, _ int) ([]attendance.Attendance, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) FindOpenBefore(_ context.Context, _ time.Time) ([]attendance.Attendance, error) {
	return nil, nil
}

func (s *stubAttendanceRepo) AppendNote(_ context.Context, _ string, _ string) error {
	return nil
}

func newTestAllowanceService(rate int64) (allowance.AllowanceService, *fakeClaimRepo, *stubAttendanceRepo) {
	claims := newFakeClaimRepo()
	att := &stubAttendanceRepo{}
	clk := &clock.Fixed{Instant: time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC)}
	passthrough := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	svc := NewAllowanceService(passthrough, claims, att, decimal.NewFromInt(rate), clk, 5*time.Second)
	return svc, claims, att
}

func TestPreviewComputesAmount(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 20)

	preview, err := svc.Preview(context.Background(), "user-1", 4, 2026)

	require.NoError(t, err)
	assert.Equal(t, 20, preview.ValidDays)
	assert.Equal(t, "500000", preview.Amount.String())
	assert.True(t, preview.CanClaim)
	assert.False(t, preview.AlreadyClaimed)
	assert.Empty(t, preview.ClaimStatus)
}

func TestPreviewIsIdempotent(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 12)

	first, err := svc.Preview(context.Background(), "user-1", 4, 2026)
	require.NoError(t, err)
	second, err := svc.Preview(context.Background(), "user-1", 4, 2026)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPreviewWithNoAttendance(t *testing.T) {
	svc, _, _ := newTestAllowanceService(25000)

	preview, err := svc.Preview(context.Background(), "user-1", 4, 2026)

	require.NoError(t, err)
	assert.Zero(t, preview.ValidDays)
	assert.False(t, preview.CanClaim)
}

func TestSubmitFixesAmountAtSubmission(t *testing.T) {
	svc, claims, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 20)

	resp, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, "500000", resp.Amount)
	assert.Equal(t, string(allowance.StatusPending), resp.Status)

	// Attendance changes after submission never move the claimed amount.
	att.setValidDays("user-1", 4, 2026, 25)

	stored, err := claims.GetByID(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "500000", stored.Amount.String())
	assert.Equal(t, 20, stored.ValidDays)

	// The preview now mirrors the stored claim, not a recomputation.
	preview, err := svc.Preview(context.Background(), "user-1", 4, 2026)
	require.NoError(t, err)
	assert.True(t, preview.AlreadyClaimed)
	assert.False(t, preview.CanClaim)
	assert.Equal(t, 20, preview.ValidDays)
	assert.Equal(t, string(allowance.StatusPending), preview.ClaimStatus)
}

func TestSubmitWithNoValidDays(t *testing.T) {
	svc, _, _ := newTestAllowanceService(25000)

	_, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})

	assert.ErrorIs(t, err, allowance.ErrNoValidAttendance)
}

func TestSubmitDuplicatePeriod(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 10)

	_, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	assert.ErrorIs(t, err, allowance.ErrAlreadyClaimed)
}

func TestClaimLifecyclePendingApprovedPaid(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 20)

	submitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	approved, err := svc.Decide(context.Background(), allowance.DecideClaimRequest{
		ClaimID: submitted.ID, AdminID: "admin-1", Decision: allowance.DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, string(allowance.StatusApproved), approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "admin-1", *approved.ApprovedBy)

	paid, err := svc.MarkPaid(context.Background(), submitted.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, string(allowance.StatusPaid), paid.Status)
	assert.NotNil(t, paid.PaidAt)
}

func TestRejectRequiresReason(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 5)

	submitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), allowance.DecideClaimRequest{
		ClaimID: submitted.ID, AdminID: "admin-1", Decision: allowance.DecisionReject,
	})

	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestRejectedPeriodCanBeResubmitted(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 15)

	submitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	rejected, err := svc.Decide(context.Background(), allowance.DecideClaimRequest{
		ClaimID:  submitted.ID,
		AdminID:  "admin-1",
		Decision: allowance.DecisionReject,
		Notes:    "wrong period",
	})
	require.NoError(t, err)
	assert.Equal(t, string(allowance.StatusRejected), rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "wrong period", *rejected.RejectionReason)

	preview, err := svc.Preview(context.Background(), "user-1", 4, 2026)
	require.NoError(t, err)
	assert.True(t, preview.CanClaim)
	assert.False(t, preview.AlreadyClaimed)
	assert.Equal(t, string(allowance.StatusRejected), preview.ClaimStatus)

	resubmitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, string(allowance.StatusPending), resubmitted.Status)
	assert.NotEqual(t, submitted.ID, resubmitted.ID)
}

func TestDecideOnSettledClaim(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 10)

	submitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), allowance.DecideClaimRequest{
		ClaimID: submitted.ID, AdminID: "admin-1", Decision: allowance.DecisionApprove,
	})
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), allowance.DecideClaimRequest{
		ClaimID: submitted.ID, AdminID: "admin-1", Decision: allowance.DecisionApprove,
	})
	assert.ErrorIs(t, err, allowance.ErrInvalidTransition)
}

func TestMarkPaidRequiresApproved(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 10)

	submitted, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.MarkPaid(context.Background(), submitted.ID, "admin-1")
	assert.ErrorIs(t, err, allowance.ErrInvalidTransition)
}

func TestDirectApproveSkipsPendingStage(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 20)

	resp, err := svc.DirectApprove(context.Background(), allowance.DirectApproveRequest{
		AdminID: "admin-1", UserID: "user-1", Month: 4, Year: 2026,
	})

	require.NoError(t, err)
	assert.Equal(t, string(allowance.StatusApproved), resp.Status)
	assert.Equal(t, "500000", resp.Amount)
	require.NotNil(t, resp.ApprovedBy)
	assert.Equal(t, "admin-1", *resp.ApprovedBy)
	assert.NotNil(t, resp.ApprovedAt)
}

func TestDirectApproveDuplicatePeriod(t *testing.T) {
	svc, _, att := newTestAllowanceService(25000)
	att.setValidDays("user-1", 4, 2026, 20)

	_, err := svc.Submit(context.Background(), allowance.SubmitClaimRequest{
		UserID: "user-1", Month: 4, Year: 2026,
	})
	require.NoError(t, err)

	_, err = svc.DirectApprove(context.Background(), allowance.DirectApproveRequest{
		AdminID: "admin-1", UserID: "user-1", Month: 4, Year: 2026,
	})
	assert.ErrorIs(t, err, allowance.ErrAlreadyClaimed)
}

func TestDirectApproveWithNoValidDays(t *testing.T) {
	svc, _, _ := newTestAllowanceService(25000)

	_, err := svc.DirectApprove(context.Background(), allowance.DirectApproveRequest{
		AdminID: "admin-1", UserID: "user-1", Month: 4, Year: 2026,
	})
	assert.ErrorIs(t, err, allowance.ErrNoValidAttendance)
}
