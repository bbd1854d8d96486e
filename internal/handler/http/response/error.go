package response

import (
	"errors"
	"net/http"

	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/allowance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/attendance"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/auth"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/location"
	"github.com/cybercafe-ops/cafe-backend-go/internal/domain/user"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/database"
	"github.com/cybercafe-ops/cafe-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid token")
	case errors.Is(err, auth.ErrTokenExpired):
		Unauthorized(w, "Token expired")
	case errors.Is(err, auth.ErrRefreshTokenRevoked):
		Unauthorized(w, "Refresh token revoked")
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUserInactive):
		Forbidden(w, "User account is inactive")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		Conflict(w, "You have already checked in today")
	case errors.Is(err, attendance.ErrNotCheckedIn):
		Conflict(w, "You have not checked in today")
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		Conflict(w, "You have already checked out today")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")

	// Meal allowance domain errors
	case errors.Is(err, allowance.ErrAlreadyClaimed):
		Conflict(w, "A claim for this period already exists")
	case errors.Is(err, allowance.ErrInvalidTransition):
		Conflict(w, "Claim is not in a state that allows this action")
	case errors.Is(err, allowance.ErrNoValidAttendance):
		BadRequest(w, "No valid attendance days in this period", nil)
	case errors.Is(err, allowance.ErrClaimNotFound):
		NotFound(w, "Claim not found")

	// Location domain errors
	case errors.Is(err, location.ErrLocationNotFound):
		NotFound(w, "Location not found")

	// Storage failures are retryable
	case errors.Is(err, database.ErrUnavailable):
		ServiceUnavailable(w, "Storage temporarily unavailable, please retry")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
