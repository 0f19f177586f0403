package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/kpi"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
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
	// Identity errors
	case errors.Is(err, user.ErrUnauthorized):
		Unauthorized(w, "Authentication required")
	case errors.Is(err, user.ErrUnknownRole):
		Forbidden(w, "Unknown role")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, "Insufficient permissions")

	// Location errors
	case errors.Is(err, attendance.ErrInvalidLocation):
		UnprocessableEntity(w, "INVALID_LOCATION", err.Error())
	case errors.Is(err, attendance.ErrLocationInaccurate):
		UnprocessableEntity(w, "LOCATION_INACCURATE", err.Error())
	case errors.Is(err, attendance.ErrOutsideGeofence):
		UnprocessableEntity(w, "OUTSIDE_GEOFENCE", err.Error())
	case errors.Is(err, attendance.ErrLocationAdjustmentTooFar):
		UnprocessableEntity(w, "LOCATION_ADJUSTMENT_TOO_FAR", err.Error())

	// State errors
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedIn),
		errors.Is(err, attendance.ErrNotCheckedOut),
		errors.Is(err, attendance.ErrMissingCheckIn),
		errors.Is(err, attendance.ErrCheckOutBeforeCheckIn):
		Conflict(w, err.Error())

	// Persistence errors
	case errors.Is(err, attendance.ErrCheckoutPersistenceFailed):
		slog.Error("Check-out persistence failed", "error", err)
		ServiceUnavailable(w, attendance.ErrCheckoutPersistenceFailed.Error())

	// Reporting errors
	case errors.Is(err, period.ErrInvalidRange),
		errors.Is(err, period.ErrInvalidPeriod),
		errors.Is(err, kpi.ErrInvalidScope),
		errors.Is(err, kpi.ErrDepartmentRequired):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
