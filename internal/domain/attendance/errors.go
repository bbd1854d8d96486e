package attendance

import "errors"

// Attendance domain errors. These are state-machine signals, not transient
// failures: a client retrying a duplicate check-in gets ErrAlreadyCheckedIn
// and can treat it as success-equivalent.
var (
	ErrAlreadyCheckedIn  = errors.New("you have already checked in today")
	ErrNotCheckedIn      = errors.New("you have not checked in yet")
	ErrAlreadyCheckedOut = errors.New("you have already checked out")

	ErrAttendanceNotFound = errors.New("attendance record not found")
)
