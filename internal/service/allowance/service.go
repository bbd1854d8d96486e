package allowance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// TxRunner executes fn inside a storage transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type AllowanceServiceImpl struct {
	runInTx        TxRunner
	claimRepo      allowance.ClaimRepository
	attendanceRepo attendance.AttendanceRepository
	ratePerDay     decimal.Decimal
	clock          clock.Clock
	queryTimeout   time.Duration
}

func NewAllowanceService(
	runInTx TxRunner,
	claimRepo allowance.ClaimRepository,
	attendanceRepo attendance.AttendanceRepository,
	ratePerDay decimal.Decimal,
	clk clock.Clock,
	queryTimeout time.Duration,
) allowance.AllowanceService {
	return &AllowanceServiceImpl{
		runInTx:        runInTx,
		claimRepo:      claimRepo,
		attendanceRepo: attendanceRepo,
		ratePerDay:     ratePerDay,
		clock:          clk,
		queryTimeout:   queryTimeout,
	}
}

func (s *AllowanceServiceImpl) queryCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.queryTimeout)
}

func validatePeriod(month, year int) error {
	var errs validator.ValidationErrors

	if !validator.IsValidMonth(month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if !validator.IsValidYear(year) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Preview implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) Preview(ctx context.Context, userID string, month, year int) (allowance.Preview, error) {
	if err := validatePeriod(month, year); err != nil {
		return allowance.Preview{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	claim, err := s.claimRepo.GetForPeriod(qctx, userID, month, year)
	cancel()
	if err != nil {
		return allowance.Preview{}, err
	}

	// A binding (non-rejected) claim freezes the preview at its stored values.
	if claim != nil && claim.Status != allowance.StatusRejected {
		return allowance.Preview{
			Month:          month,
			Year:           year,
			ValidDays:      claim.ValidDays,
			RatePerDay:     claim.RatePerDay,
			Amount:         claim.Amount,
			CanClaim:       false,
			AlreadyClaimed: true,
			ClaimStatus:    string(claim.Status),
		}, nil
	}

	qctx, cancel = s.queryCtx(ctx)
	validDays, err := s.attendanceRepo.CountValidDays(qctx, userID, month, year)
	cancel()
	if err != nil {
		return allowance.Preview{}, err
	}

	preview := allowance.Preview{
		Month:      month,
		Year:       year,
		ValidDays:  validDays,
		RatePerDay: s.ratePerDay,
		Amount:     s.ratePerDay.Mul(decimal.NewFromInt(int64(validDays))),
		CanClaim:   validDays > 0,
	}
	if claim != nil {
		// Rejected history: the period is claimable again.
		preview.ClaimStatus = string(claim.Status)
	}

	return preview, nil
}

// Submit implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) Submit(ctx context.Context, req allowance.SubmitClaimRequest) (allowance.ClaimResponse, error) {
	if err := req.Validate(); err != nil {
		return allowance.ClaimResponse{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	existing, err := s.claimRepo.GetForPeriod(qctx, req.UserID, req.Month, req.Year)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}
	if existing != nil && existing.Status != allowance.StatusRejected {
		return allowance.ClaimResponse{}, allowance.ErrAlreadyClaimed
	}

	qctx, cancel = s.queryCtx(ctx)
	validDays, err := s.attendanceRepo.CountValidDays(qctx, req.UserID, req.Month, req.Year)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}
	if validDays == 0 {
		return allowance.ClaimResponse{}, allowance.ErrNoValidAttendance
	}

	claim := allowance.Claim{
		UserID:      req.UserID,
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		ValidDays:   validDays,
		RatePerDay:  s.ratePerDay,
		Amount:      s.ratePerDay.Mul(decimal.NewFromInt(int64(validDays))),
		Status:      allowance.StatusPending,
		ClaimDate:   s.clock.Now().UTC(),
	}
	if req.Notes != "" {
		claim.Notes = &req.Notes
	}

	qctx, cancel = s.queryCtx(ctx)
	created, err := s.claimRepo.Create(qctx, claim)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}

	slog.Info("meal allowance claim submitted",
		"claim_id", created.ID,
		"user_id", created.UserID,
		"period_month", created.PeriodMonth,
		"period_year", created.PeriodYear,
		"valid_days", created.ValidDays,
		"amount", created.Amount.String(),
	)

	return toClaimResponse(created), nil
}

// Decide implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) Decide(ctx context.Context, req allowance.DecideClaimRequest) (allowance.ClaimResponse, error) {
	if err := req.Validate(); err != nil {
		return allowance.ClaimResponse{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	claim, err := s.claimRepo.GetByID(qctx, req.ClaimID)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}

	target := allowance.StatusApproved
	var reason *string
	if req.Decision == allowance.DecisionReject {
		target = allowance.StatusRejected
		reason = &req.Notes
	}

	if !claim.Status.CanTransitionTo(target) {
		return allowance.ClaimResponse{}, allowance.ErrInvalidTransition
	}

	return s.transition(ctx, claim.ID, claim.Status, target, &req.AdminID, reason)
}

// MarkPaid implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) MarkPaid(ctx context.Context, claimID string, adminID string) (allowance.ClaimResponse, error) {
	qctx, cancel := s.queryCtx(ctx)
	claim, err := s.claimRepo.GetByID(qctx, claimID)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}

	if !claim.Status.CanTransitionTo(allowance.StatusPaid) {
		return allowance.ClaimResponse{}, allowance.ErrInvalidTransition
	}

	return s.transition(ctx, claim.ID, claim.Status, allowance.StatusPaid, &adminID, nil)
}

// transition runs the conditional status update and reloads the claim. A lost
// race on the conditional write surfaces as ErrInvalidTransition.
func (s *AllowanceServiceImpl) transition(ctx context.Context, claimID string, from, to allowance.ClaimStatus, adminID *string, reason *string) (allowance.ClaimResponse, error) {
	qctx, cancel := s.queryCtx(ctx)
	ok, err := s.claimRepo.UpdateStatus(qctx, claimID, from, to, adminID, reason)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}
	if !ok {
		return allowance.ClaimResponse{}, allowance.ErrInvalidTransition
	}

	qctx, cancel = s.queryCtx(ctx)
	updated, err := s.claimRepo.GetByID(qctx, claimID)
	cancel()
	if err != nil {
		return allowance.ClaimResponse{}, err
	}

	slog.Info("meal allowance claim transitioned",
		"claim_id", claimID,
		"from", from,
		"to", to,
	)

	return toClaimResponse(updated), nil
}

// DirectApprove implements allowance.AllowanceService. The claim is born
// approved inside one transaction so no pending window is observable.
func (s *AllowanceServiceImpl) DirectApprove(ctx context.Context, req allowance.DirectApproveRequest) (allowance.ClaimResponse, error) {
	if err := req.Validate(); err != nil {
		return allowance.ClaimResponse{}, err
	}

	now := s.clock.Now().UTC()

	var created allowance.Claim
	err := s.runInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.claimRepo.GetForPeriod(txCtx, req.UserID, req.Month, req.Year)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != allowance.StatusRejected {
			return allowance.ErrAlreadyClaimed
		}

		validDays, err := s.attendanceRepo.CountValidDays(txCtx, req.UserID, req.Month, req.Year)
		if err != nil {
			return err
		}
		if validDays == 0 {
			return allowance.ErrNoValidAttendance
		}

		claim := allowance.Claim{
			UserID:      req.UserID,
			PeriodMonth: req.Month,
			PeriodYear:  req.Year,
			ValidDays:   validDays,
			RatePerDay:  s.ratePerDay,
			Amount:      s.ratePerDay.Mul(decimal.NewFromInt(int64(validDays))),
			Status:      allowance.StatusApproved,
			ClaimDate:   now,
			ApprovedBy:  &req.AdminID,
			ApprovedAt:  &now,
		}
		if req.Notes != "" {
			claim.Notes = &req.Notes
		}

		created, err = s.claimRepo.Create(txCtx, claim)
		return err
	})
	if err != nil {
		return allowance.ClaimResponse{}, err
	}

	slog.Info("meal allowance claim direct-approved",
		"claim_id", created.ID,
		"user_id", created.UserID,
		"admin_id", req.AdminID,
		"amount", created.Amount.String(),
	)

	return toClaimResponse(created), nil
}

// GetMyClaims implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) GetMyClaims(ctx context.Context, userID string, filter allowance.ClaimFilter) (allowance.ListClaimsResponse, error) {
	filter.UserID = &userID
	return s.ListClaims(ctx, filter)
}

// ListClaims implements allowance.AllowanceService.
func (s *AllowanceServiceImpl) ListClaims(ctx context.Context, filter allowance.ClaimFilter) (allowance.ListClaimsResponse, error) {
	if err := filter.Validate(); err != nil {
		return allowance.ListClaimsResponse{}, err
	}

	qctx, cancel := s.queryCtx(ctx)
	defer cancel()

	items, total, err := s.claimRepo.List(qctx, filter)
	if err != nil {
		return allowance.ListClaimsResponse{}, err
	}

	responses := make([]allowance.ClaimResponse, 0, len(items))
	for _, claim := range items {
		responses = append(responses, toClaimResponse(claim))
	}

	return allowance.ListClaimsResponse{
		Items:      responses,
		TotalItems: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func toClaimResponse(claim allowance.Claim) allowance.ClaimResponse {
	resp := allowance.ClaimResponse{
		ID:              claim.ID,
		UserID:          claim.UserID,
		UserName:        claim.UserName,
		PeriodMonth:     claim.PeriodMonth,
		PeriodYear:      claim.PeriodYear,
		ValidDays:       claim.ValidDays,
		RatePerDay:      claim.RatePerDay.String(),
		Amount:          claim.Amount.String(),
		Status:          string(claim.Status),
		ClaimDate:       claim.ClaimDate.Format(time.RFC3339),
		ApprovedBy:      claim.ApprovedBy,
		RejectionReason: claim.RejectionReason,
		Notes:           claim.Notes,
	}
	if claim.ApprovedAt != nil {
		approvedAt := claim.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &approvedAt
	}
	if claim.PaidAt != nil {
		paidAt := claim.PaidAt.Format(time.RFC3339)
		resp.PaidAt = &paidAt
	}
	return resp
}
