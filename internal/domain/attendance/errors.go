package attendance

import (
	"errors"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
)

// Attendance domain errors
var (
	// Location validation errors
	ErrInvalidLocation          = geo.ErrInvalidLocation
	ErrLocationInaccurate       = errors.New("location accuracy exceeds the allowed maximum")
	ErrOutsideGeofence          = errors.New("you are outside the allowed office radius")
	ErrLocationAdjustmentTooFar = errors.New("adjusted location is too far from the original position")

	// State errors
	ErrAlreadyCheckedIn      = errors.New("you have already checked in today")
	ErrAlreadyCheckedOut     = errors.New("you have already checked out today")
	ErrNotCheckedIn          = errors.New("you have not checked in yet")
	ErrNotCheckedOut         = errors.New("you have not checked out yet")
	ErrMissingCheckIn        = errors.New("attendance record has no check-in time")
	ErrCheckOutBeforeCheckIn = errors.New("check-out time must be after check-in time")

	// Persistence errors
	ErrCheckoutPersistenceFailed = errors.New("failed to save check-out, please retry")

	// Store signals
	ErrRecordNotFound  = errors.New("attendance record not found")
	ErrDuplicateRecord = errors.New("attendance record already exists for this user and date")
	ErrStaleRecord     = errors.New("attendance record changed concurrently")
)
