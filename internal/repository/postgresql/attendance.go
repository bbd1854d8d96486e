package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	a.id, a.user_id, a.date, a.check_in_time,
	a.check_in_latitude, a.check_in_longitude, a.check_in_accuracy, a.check_in_photo_url,
	a.check_out_time, a.check_out_latitude, a.check_out_longitude, a.check_out_photo_url,
	a.nearest_location_id, a.distance_meters, a.effective_radius, a.work_minutes,
	a.is_valid, a.notes, a.created_at, a.updated_at`

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var att attendance.Attendance
	err := row.Scan(
		&att.ID, &att.UserID, &att.Date, &att.CheckInTime,
		&att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInAccuracy, &att.CheckInPhotoURL,
		&att.CheckOutTime, &att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutPhotoURL,
		&att.NearestLocationID, &att.DistanceMeters, &att.EffectiveRadius, &att.WorkMinutes,
		&att.IsValid, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
	)
	return att, err
}

// Create implements attendance.AttendanceRepository. The unique index on
// (user_id, date) is the arbiter for concurrent check-ins: exactly one insert
// wins, the loser gets ErrAlreadyCheckedIn.
func (a *attendanceRepository) Create(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (
			user_id, date, check_in_time,
			check_in_latitude, check_in_longitude, check_in_accuracy, check_in_photo_url,
			nearest_location_id, distance_meters, effective_radius, is_valid, notes
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		) RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		att.UserID,
		att.Date,
		att.CheckInTime,
		att.CheckInLatitude,
		att.CheckInLongitude,
		att.CheckInAccuracy,
		att.CheckInPhotoURL,
		att.NearestLocationID,
		att.DistanceMeters,
		att.EffectiveRadius,
		att.IsValid,
		att.Notes,
	).Scan(&att.ID, &att.CreatedAt, &att.UpdatedAt)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.Attendance{}, fmt.Errorf("failed to create attendance: %w", database.ClassifyError(err))
	}

	return att, nil
}

// GetByID implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByID(ctx context.Context, id string) (attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.id = $1`

	att, err := scanAttendance(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", database.ClassifyError(err))
	}

	return att, nil
}

// GetByUserAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + ` FROM attendances a WHERE a.user_id = $1 AND a.date = $2 LIMIT 1`

	att, err := scanAttendance(q.QueryRow(ctx, query, userID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance by user and date: %w", database.ClassifyError(err))
	}

	return &att, nil
}

// CompleteCheckOut implements attendance.AttendanceRepository. The
// check_out_time IS NULL predicate makes the terminal transition atomic: a
// concurrent duplicate check-out matches zero rows.
func (a *attendanceRepository) CompleteCheckOut(ctx context.Context, id string, out time.Time, lat, lon float64, photoURL string, workMinutes int) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET check_out_time = $2,
			check_out_latitude = $3,
			check_out_longitude = $4,
			check_out_photo_url = $5,
			work_minutes = $6,
			updated_at = NOW()
		WHERE id = $1
		  AND check_out_time IS NULL
	`

	tag, err := q.Exec(ctx, query, id, out, lat, lon, photoURL, workMinutes)
	if err != nil {
		return false, fmt.Errorf("failed to complete check-out: %w", database.ClassifyError(err))
	}

	return tag.RowsAffected() > 0, nil
}

// List implements attendance.AttendanceRepository.
func (a *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, a.db)

	where := ` WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if filter.UserID != nil {
		where += fmt.Sprintf(" AND a.user_id = $%d", argPos)
		args = append(args, *filter.UserID)
		argPos++
	}
	if filter.Month != nil {
		where += fmt.Sprintf(" AND EXTRACT(MONTH FROM a.date) = $%d", argPos)
		args = append(args, *filter.Month)
		argPos++
	}
	if filter.Year != nil {
		where += fmt.Sprintf(" AND EXTRACT(YEAR FROM a.date) = $%d", argPos)
		args = append(args, *filter.Year)
		argPos++
	}

	var total int64
	countQuery := `SELECT COUNT(*) FROM attendances a` + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", database.ClassifyError(err))
	}

	query := `SELECT ` + attendanceColumns + `, u.name
		FROM attendances a
		JOIN users u ON u.id = a.user_id` + where +
		fmt.Sprintf(" ORDER BY a.date DESC, a.check_in_time DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		err := rows.Scan(
			&att.ID, &att.UserID, &att.Date, &att.CheckInTime,
			&att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInAccuracy, &att.CheckInPhotoURL,
			&att.CheckOutTime, &att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutPhotoURL,
			&att.NearestLocationID, &att.DistanceMeters, &att.EffectiveRadius, &att.WorkMinutes,
			&att.IsValid, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
			&att.UserName,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate attendances: %w", database.ClassifyError(err))
	}

	return result, total, nil
}

// CountValidDays implements attendance.AttendanceRepository. A day counts
// only when it was fully worked: geofence-valid check-in and a recorded
// check-out.
func (a *attendanceRepository) CountValidDays(ctx context.Context, userID string, month, year int) (int, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT COUNT(*)
		FROM attendances a
		WHERE a.user_id = $1
		  AND EXTRACT(MONTH FROM a.date) = $2
		  AND EXTRACT(YEAR FROM a.date) = $3
		  AND a.is_valid
		  AND a.check_out_time IS NOT NULL
	`

	var count int
	if err := q.QueryRow(ctx, query, userID, month, year).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count valid days: %w", database.ClassifyError(err))
	}

	return count, nil
}

// ListForPeriod implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListForPeriod(ctx context.Context, month, year int) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `, u.name
		FROM attendances a
		JOIN users u ON u.id = a.user_id
		WHERE EXTRACT(MONTH FROM a.date) = $1
		  AND EXTRACT(YEAR FROM a.date) = $2
		ORDER BY a.date ASC, u.name ASC
	`

	rows, err := q.Query(ctx, query, month, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances for period: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []attendance.Attendance
	for rows.Next() {
		var att attendance.Attendance
		err := rows.Scan(
			&att.ID, &att.UserID, &att.Date, &att.CheckInTime,
			&att.CheckInLatitude, &att.CheckInLongitude, &att.CheckInAccuracy, &att.CheckInPhotoURL,
			&att.CheckOutTime, &att.CheckOutLatitude, &att.CheckOutLongitude, &att.CheckOutPhotoURL,
			&att.NearestLocationID, &att.DistanceMeters, &att.EffectiveRadius, &att.WorkMinutes,
			&att.IsValid, &att.Notes, &att.CreatedAt, &att.UpdatedAt,
			&att.UserName,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", database.ClassifyError(err))
	}

	return result, nil
}

// FindOpenBefore implements attendance.AttendanceRepository.
func (a *attendanceRepository) FindOpenBefore(ctx context.Context, date time.Time) ([]attendance.Attendance, error) {
	q := GetQuerier(ctx, a.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendances a
		WHERE a.check_out_time IS NULL
		  AND a.date < $1
		  AND (a.notes IS NULL OR a.notes NOT LIKE '%missing check-out%')
		ORDER BY a.date ASC
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find open attendances: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var result []attendance.Attendance
	for rows.Next() {
		att, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		result = append(result, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendances: %w", database.ClassifyError(err))
	}

	return result, nil
}

// AppendNote implements attendance.AttendanceRepository.
func (a *attendanceRepository) AppendNote(ctx context.Context, id string, note string) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET notes = CASE WHEN notes IS NULL OR notes = '' THEN $2 ELSE notes || '; ' || $2 END,
			updated_at = NOW()
		WHERE id = $1
	`

	if _, err := q.Exec(ctx, query, id, note); err != nil {
		return fmt.Errorf("failed to append attendance note: %w", database.ClassifyError(err))
	}

	return nil
}
