package attendance

import (
	"time"
)

// Attendance is the per-user, per-day record. One row per (UserID, Date); the
// database enforces this with a unique index. IsValid is computed once at
// check-in from the geofence result and is never recomputed afterwards, even
// if the authorized site is later edited — the record is an audit trail.
type Attendance struct {
	ID                string
	UserID            string
	Date              time.Time // calendar day in the deployment timezone
	CheckInTime       time.Time
	CheckInLatitude   float64
	CheckInLongitude  float64
	CheckInAccuracy   float64
	CheckInPhotoURL   string
	CheckOutTime      *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutPhotoURL  *string
	NearestLocationID *string
	DistanceMeters    *float64
	EffectiveRadius   *float64
	WorkMinutes       *int
	IsValid           bool
	Notes             *string
	CreatedAt         time.Time
	UpdatedAt         time.Time

	// Joined fields
	UserName *string
}

// CheckedOut reports whether the record reached its terminal state.
func (a Attendance) CheckedOut() bool {
	return a.CheckOutTime != nil
}
