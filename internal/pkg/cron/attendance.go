package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/clock"
)

// MissingCheckOutNote marks records whose working day ended without a
// check-out. The note is additive audit metadata; the record stays open and
// its validity flag is untouched, so the day still never counts toward a
// meal-allowance claim (a claimable day requires a completed check-out).
const MissingCheckOutNote = "missing check-out"

// NewMissingCheckOutJob returns the hourly janitor that annotates stale open
// attendance records from previous days.
func NewMissingCheckOutJob(repo attendance.AttendanceRepository, clk clock.Clock, timezone *time.Location) Job {
	return Job{
		Name:     "flag-missing-check-outs",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			local := clk.Now().In(timezone)
			today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

			open, err := repo.FindOpenBefore(ctx, today)
			if err != nil {
				return err
			}

			for _, rec := range open {
				if err := repo.AppendNote(ctx, rec.ID, MissingCheckOutNote); err != nil {
					slog.Error("failed to flag open attendance record",
						"attendance_id", rec.ID, "error", err)
					continue
				}
				slog.Warn("attendance record missing check-out",
					"attendance_id", rec.ID,
					"user_id", rec.UserID,
					"date", rec.Date.Format("2006-01-02"),
				)
			}

			return nil
		},
	}
}
