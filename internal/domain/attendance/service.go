package attendance

import "context"

// AttendanceService is the per-day check-in/check-out state machine:
// not checked in -> checked in -> checked out, anchored to the deployment
// timezone so client clocks cannot move the day boundary.
type AttendanceService interface {
	// CheckIn records the day's entry. An out-of-range reading is accepted and
	// flagged invalid, never rejected: refusing it would let a caller retry
	// until a spoofed location passes, while recording it preserves a
	// tamper-evident trail.
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the day's record and computes worked minutes. The
	// geofence is not re-validated on exit; only entry is gated.
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	// GetMyAttendance lists the caller's records.
	GetMyAttendance(ctx context.Context, userID string, filter AttendanceFilter) (ListAttendanceResponse, error)

	// ListAttendance lists records across users (admin).
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
}
