package attendance

import (
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
)

type CheckInRequest struct {
	UserID         string                `json:"-"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	AccuracyMeters float64               `json:"accuracy_meters"`
	Notes          string                `json:"notes"`
	File           multipart.File        `json:"-"`
	FileHeader     *multipart.FileHeader `json:"-"`
}

func (r *CheckInRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCoordinate(r.Latitude, r.Longitude)...)
	errs = append(errs, validateProofPhoto(r.FileHeader)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type CheckOutRequest struct {
	UserID         string                `json:"-"`
	Latitude       float64               `json:"latitude"`
	Longitude      float64               `json:"longitude"`
	AccuracyMeters float64               `json:"accuracy_meters"`
	File           multipart.File        `json:"-"`
	FileHeader     *multipart.FileHeader `json:"-"`
}

func (r *CheckOutRequest) Validate() error {
	var errs validator.ValidationErrors

	errs = append(errs, validateCoordinate(r.Latitude, r.Longitude)...)
	errs = append(errs, validateProofPhoto(r.FileHeader)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

func validateCoordinate(lat, lon float64) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if !validator.IsValidLatitude(lat) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}

	if !validator.IsValidLongitude(lon) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}

	return errs
}

func validateProofPhoto(fh *multipart.FileHeader) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if fh == nil {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "attendance proof photo is required",
		})
		return errs
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "invalid file type: only jpg, jpeg, png allowed",
		})
	} else if fh.Size > 10<<20 { // 10MB
		errs = append(errs, validator.ValidationError{
			Field:   "photo",
			Message: "attendance proof photo size must not exceed 10MB",
		})
	}

	return errs
}

type AttendanceResponse struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	UserName          *string  `json:"user_name,omitempty"`
	Date              string   `json:"date"`
	CheckInTime       string   `json:"check_in_time"`
	CheckOutTime      *string  `json:"check_out_time,omitempty"`
	CheckInLatitude   float64  `json:"check_in_latitude"`
	CheckInLongitude  float64  `json:"check_in_longitude"`
	CheckOutLatitude  *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64 `json:"check_out_longitude,omitempty"`
	CheckInPhotoURL   string   `json:"check_in_photo_url"`
	CheckOutPhotoURL  *string  `json:"check_out_photo_url,omitempty"`
	NearestLocationID *string  `json:"nearest_location_id,omitempty"`
	DistanceMeters    *float64 `json:"distance_meters,omitempty"`
	WorkMinutes       *int     `json:"work_minutes,omitempty"`
	IsValid           bool     `json:"is_valid"`
	Notes             *string  `json:"notes,omitempty"`
}

type AttendanceFilter struct {
	UserID *string `json:"user_id,omitempty"`
	Month  *int    `json:"month,omitempty"`
	Year   *int    `json:"year,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.Month != nil && !validator.IsValidMonth(*f.Month) {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}
	if f.Year != nil && !validator.IsValidYear(*f.Year) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year is out of range",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type ListAttendanceResponse struct {
	Items      []AttendanceResponse `json:"items"`
	TotalItems int64                `json:"total_items"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
}
