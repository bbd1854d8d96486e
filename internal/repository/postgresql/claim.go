package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const claimColumns = `
	c.id, c.user_id, c.period_month, c.period_year, c.valid_days,
	c.rate_per_day, c.amount, c.status, c.claim_date,
	c.approved_by, c.approved_at, c.paid_at, c.rejection_reason, c.notes,
	c.created_at, c.updated_at`

type claimRepository struct {
	db *database.DB
}

func NewClaimRepository(db *database.DB) allowance.ClaimRepository {
	return &claimRepository{db: db}
}

func scanClaim(row pgx.Row) (allowance.Claim, error) {
	var c allowance.Claim
	err := row.Scan(
		&c.ID, &c.UserID, &c.PeriodMonth, &c.PeriodYear, &c.ValidDays,
		&c.RatePerDay, &c.Amount, &c.Status, &c.ClaimDate,
		&c.ApprovedBy, &c.ApprovedAt, &c.PaidAt, &c.RejectionReason, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create implements allowance.ClaimRepository. The partial unique index over
// (user_id, period_month, period_year) WHERE status <> 'rejected' arbitrates
// duplicate submissions; the losing insert gets ErrAlreadyClaimed.
func (r *claimRepository) Create(ctx context.Context, claim allowance.Claim) (allowance.Claim, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO meal_allowance_claims (
			user_id, period_month, period_year, valid_days,
			rate_per_day, amount, status, claim_date,
			approved_by, approved_at, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		claim.UserID,
		claim.PeriodMonth,
		claim.PeriodYear,
		claim.ValidDays,
		claim.RatePerDay,
		claim.Amount,
		claim.Status,
		claim.ClaimDate,
		claim.ApprovedBy,
		claim.ApprovedAt,
		claim.Notes,
	).Scan(&claim.ID, &claim.CreatedAt, &claim.UpdatedAt)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return allowance.Claim{}, allowance.ErrAlreadyClaimed
		}
		return allowance.Claim{}, fmt.Errorf("failed to create claim: %w", database.ClassifyError(err))
	}

	return claim, nil
}

// GetByID implements allowance.ClaimRepository.
func (r *claimRepository) GetByID(ctx context.Context, id string) (allowance.Claim, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + claimColumns + ` FROM meal_allowance_claims c WHERE c.id = $1`

	claim, err := scanClaim(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return allowance.Claim{}, allowance.ErrClaimNotFound
		}
		return allowance.Claim{}, fmt.Errorf("failed to get claim: %w", database.ClassifyError(err))
	}

	return claim, nil
}

// GetForPeriod implements allowance.ClaimRepository. Non-rejected claims win
// over rejected history so the caller sees the binding claim first.
func (r *claimRepository) GetForPeriod(ctx context.Context, userID string, month, year int) (*allowance.Claim, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + claimColumns + `
		FROM meal_allowance_claims c
		WHERE c.user_id = $1 AND c.period_month = $2 AND c.period_year = $3
		ORDER BY (c.status <> 'rejected') DESC, c.created_at DESC
		LIMIT 1
	`

	claim, err := scanClaim(q.QueryRow(ctx, query, userID, month, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get claim for period: %w", database.ClassifyError(err))
	}

	return &claim, nil
}

// UpdateStatus implements allowance.ClaimRepository. The status predicate
// makes each workflow transition a single conditional write.
func (r *claimRepository) UpdateStatus(ctx context.Context, id string, from, to allowance.ClaimStatus, adminID *string, reason *string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	var query string
	var args []interface{}

	switch to {
	case allowance.StatusApproved:
		query = `
			UPDATE meal_allowance_claims
			SET status = $3, approved_by = $4, approved_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $2
		`
		args = []interface{}{id, from, to, adminID}
	case allowance.StatusRejected:
		query = `
			UPDATE meal_allowance_claims
			SET status = $3, approved_by = $4, approved_at = NOW(), rejection_reason = $5, updated_at = NOW()
			WHERE id = $1 AND status = $2
		`
		args = []interface{}{id, from, to, adminID, reason}
	case allowance.StatusPaid:
		query = `
			UPDATE meal_allowance_claims
			SET status = $3, paid_at = NOW(), updated_at = NOW()
			WHERE id = $1 AND status = $2
		`
		args = []interface{}{id, from, to}
	default:
		return false, fmt.Errorf("unsupported claim status %q", to)
	}

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update claim status: %w", database.ClassifyError(err))
	}

	return tag.RowsAffected() > 0, nil
}

// List implements allowance.ClaimRepository.
func (r *claimRepository) List(ctx context.Context, filter allowance.ClaimFilter) ([]allowance.Claim, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND c.user_id = $%d", argPos)
		args = append(args, *filter.UserID)
		argPos++
	}
	if filter.Status != nil {
		where += fmt.Sprintf(" AND c.status = $%d", argPos)
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.Month != nil {
		where += fmt.Sprintf(" AND c.period_month = $%d", argPos)
		args = append(args, *filter.Month)
		argPos++
	}
	if filter.Year != nil {
		where += fmt.Sprintf(" AND c.period_year = $%d", argPos)
		args = append(args, *filter.Year)
		argPos++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM meal_allowance_claims c` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count claims: %w", database.ClassifyError(err))
	}

	query := `SELECT ` + claimColumns + `, u.name, approver.name
		FROM meal_allowance_claims c
		JOIN users u ON u.id = c.user_id
		LEFT JOIN users approver ON approver.id = c.approved_by` + where +
		fmt.Sprintf(" ORDER BY c.created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list claims: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []allowance.Claim
	for rows.Next() {
		var c allowance.Claim
		err := rows.Scan(
			&c.ID, &c.UserID, &c.PeriodMonth, &c.PeriodYear, &c.ValidDays,
			&c.RatePerDay, &c.Amount, &c.Status, &c.ClaimDate,
			&c.ApprovedBy, &c.ApprovedAt, &c.PaidAt, &c.RejectionReason, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt,
			&c.UserName, &c.ApproverName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan claim row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate claims: %w", database.ClassifyError(err))
	}

	return result, total, nil
}

// ListForPeriod implements allowance.ClaimRepository.
func (r *claimRepository) ListForPeriod(ctx context.Context, month, year int) ([]allowance.Claim, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + claimColumns + `, u.name, approver.name
		FROM meal_allowance_claims c
		JOIN users u ON u.id = c.user_id
		LEFT JOIN users approver ON approver.id = c.approved_by
		WHERE c.period_month = $1 AND c.period_year = $2
		ORDER BY u.name ASC, c.created_at ASC
	`

	rows, err := q.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list claims for period: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []allowance.Claim
	for rows.Next() {
		var c allowance.Claim
		err := rows.Scan(
			&c.ID, &c.UserID, &c.PeriodMonth, &c.PeriodYear, &c.ValidDays,
			&c.RatePerDay, &c.Amount, &c.Status, &c.ClaimDate,
			&c.ApprovedBy, &c.ApprovedAt, &c.PaidAt, &c.RejectionReason, &c.Notes,
			&c.CreatedAt, &c.UpdatedAt,
			&c.UserName, &c.ApproverName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan claim row: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate claims: %w", database.ClassifyError(err))
	}

	return result, nil
}
