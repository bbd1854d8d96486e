package allowance

import "errors"

var (
	// ErrAlreadyClaimed signals a non-rejected claim already exists for the
	// period. A rejected claim does not block resubmission.
	ErrAlreadyClaimed = errors.New("meal allowance already claimed for this period")

	ErrInvalidTransition = errors.New("claim status change is not allowed from its current state")
	ErrNoValidAttendance = errors.New("no valid attendance found for this period")
	ErrClaimNotFound     = errors.New("meal allowance claim not found")
)
