package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access for attendance records.
//
// Create must rely on the (user_id, date) unique index: a concurrent duplicate
// insert surfaces as ErrAlreadyCheckedIn, so exactly one of two racing
// check-ins succeeds.
type AttendanceRepository interface {
	Create(ctx context.Context, att Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string) (Attendance, error)

	// GetByUserAndDate returns nil when the user has no record for the day.
	GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*Attendance, error)

	// CompleteCheckOut records the terminal transition with a conditional
	// update (check_out_time IS NULL). Returns false when the record was
	// already checked out by a concurrent request.
	CompleteCheckOut(ctx context.Context, id string, out time.Time, lat, lon float64, photoURL string, workMinutes int) (bool, error)

	List(ctx context.Context, filter AttendanceFilter) ([]Attendance, int64, error)

	// CountValidDays counts fully-worked valid days in a claim period:
	// is_valid AND check_out_time IS NOT NULL.
	CountValidDays(ctx context.Context, userID string, month, year int) (int, error)

	// ListForPeriod returns all records in a month, for report export.
	ListForPeriod(ctx context.Context, month, year int) ([]Attendance, error)

	// FindOpenBefore returns records still missing a check-out whose working
	// day ended before the given date.
	FindOpenBefore(ctx context.Context, date time.Time) ([]Attendance, error)

	// AppendNote adds an audit note without touching any other column.
	AppendNote(ctx context.Context, id string, note string) error
}
