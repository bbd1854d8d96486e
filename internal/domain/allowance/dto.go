package allowance

import (
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
)

type SubmitClaimRequest struct {
	UserID string `json:"-"`
	Month  int    `json:"month"`
	Year   int    `json:"year"`
	Notes  string `json:"notes"`
}

func (r *SubmitClaimRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if !validator.IsValidYear(r.Year) {
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

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type DecideClaimRequest struct {
	ClaimID  string `json:"-"`
	AdminID  string `json:"-"`
	Decision string `json:"decision"`
	Notes    string `json:"notes"`
}

func (r *DecideClaimRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(r.Decision, []string{DecisionApprove, DecisionReject}) {
		errs = append(errs, validator.ValidationError{
			Field:   "decision",
			Message: "decision must be one of: approve, reject",
		})
	}

	if r.Decision == DecisionReject && validator.IsEmpty(r.Notes) {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "a rejection reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type DirectApproveRequest struct {
	AdminID string `json:"-"`
	UserID  string `json:"user_id"`
	Month   int    `json:"month"`
	Year    int    `json:"year"`
	Notes   string `json:"notes"`
}

func (r *DirectApproveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}
	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if !validator.IsValidYear(r.Year) {
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

type ClaimResponse struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id"`
	UserName        *string `json:"user_name,omitempty"`
	PeriodMonth     int     `json:"period_month"`
	PeriodYear      int     `json:"period_year"`
	ValidDays       int     `json:"valid_days"`
	RatePerDay      string  `json:"rate_per_day"`
	Amount          string  `json:"amount"`
	Status          string  `json:"status"`
	ClaimDate       string  `json:"claim_date"`
	ApprovedBy      *string `json:"approved_by,omitempty"`
	ApprovedAt      *string `json:"approved_at,omitempty"`
	PaidAt          *string `json:"paid_at,omitempty"`
	RejectionReason *string `json:"rejection_reason,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type ClaimFilter struct {
	UserID *string      `json:"user_id,omitempty"`
	Status *ClaimStatus `json:"status,omitempty"`
	Month  *int         `json:"month,omitempty"`
	Year   *int         `json:"year,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ClaimFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Status != nil {
		valid := []string{string(StatusPending), string(StatusApproved), string(StatusRejected), string(StatusPaid)}
		if !validator.IsInSlice(string(*f.Status), valid) {
			errs = append(errs, validator.ValidationError{
				Field:   "status",
				Message: "status must be one of: pending, approved, rejected, paid",
			})
		}
	}

	if f.Month != nil && !validator.IsValidMonth(*f.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
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

type ListClaimsResponse struct {
	Items      []ClaimResponse `json:"items"`
	TotalItems int64           `json:"total_items"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
}
