package location

import "time"

// Coordinate is a GPS reading as reported by the client device.
// AccuracyMeters is the device-reported 68% confidence radius.
type Coordinate struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters float64
}

// WorkingHours describes when a site accepts attendance. Weekdays uses
// time.Weekday numbering (0 = Sunday).
type WorkingHours struct {
	Start    string `json:"start"` // "09:00"
	End      string `json:"end"`   // "18:00"
	Weekdays []int  `json:"weekdays"`
}

// Location is an authorized attendance site. Sites are soft-deactivated, never
// deleted, because historical attendance records reference them.
type Location struct {
	ID           string
	Name         string
	Address      string
	Latitude     float64
	Longitude    float64
	RadiusMeters float64
	WorkingHours WorkingHours
	Active       bool
	CreatedBy    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
