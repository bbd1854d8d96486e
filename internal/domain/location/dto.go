package location

import (
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
)

type CreateLocationRequest struct {
	Name         string       `json:"name"`
	Address      string       `json:"address"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	RadiusMeters float64      `json:"radius_meters"`
	WorkingHours WorkingHours `json:"working_hours"`
}

func (r *CreateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}

	if !validator.IsValidLatitude(r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	// Negative or zero radii are a configuration error and are rejected here,
	// before any geofence logic can see them.
	if r.RadiusMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be greater than 0",
		})
	}

	errs = append(errs, validateWorkingHours(r.WorkingHours)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type UpdateLocationRequest struct {
	ID           string       `json:"-"`
	Name         string       `json:"name"`
	Address      string       `json:"address"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	RadiusMeters float64      `json:"radius_meters"`
	WorkingHours WorkingHours `json:"working_hours"`
}

func (r *UpdateLocationRequest) Validate() error {
	base := CreateLocationRequest{
		Name:         r.Name,
		Address:      r.Address,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
		RadiusMeters: r.RadiusMeters,
		WorkingHours: r.WorkingHours,
	}
	return base.Validate()
}

func validateWorkingHours(wh WorkingHours) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if wh.Start != "" && !validator.IsValidClockString(wh.Start) {
		errs = append(errs, validator.ValidationError{
			Field:   "working_hours.start",
			Message: "start must be in HH:MM format",
		})
	}
	if wh.End != "" && !validator.IsValidClockString(wh.End) {
		errs = append(errs, validator.ValidationError{
			Field:   "working_hours.end",
			Message: "end must be in HH:MM format",
		})
	}
	for _, d := range wh.Weekdays {
		if d < 0 || d > 6 {
			errs = append(errs, validator.ValidationError{
				Field:   "working_hours.weekdays",
				Message: "weekdays must be between 0 (Sunday) and 6 (Saturday)",
			})
			break
		}
	}

	return errs
}

type LocationResponse struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Address      string       `json:"address,omitempty"`
	Latitude     float64      `json:"latitude"`
	Longitude    float64      `json:"longitude"`
	RadiusMeters float64      `json:"radius_meters"`
	WorkingHours WorkingHours `json:"working_hours"`
	Active       bool         `json:"active"`
	CreatedAt    string       `json:"created_at"`
	UpdatedAt    string       `json:"updated_at"`
}
