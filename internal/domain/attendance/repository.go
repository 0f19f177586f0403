package attendance

import (
	"context"
	"time"
)

// UpdateKind selects the column group an update writes and the precondition
// the store checks atomically with it. Columns outside the group are never
// touched, so updates of different kinds on the same row do not clobber each other.
type UpdateKind int

const (
	// UpdateCheckIn writes the check-in columns, late_minutes and status.
	// Requires check_in_time to still be empty.
	UpdateCheckIn UpdateKind = iota + 1
	// UpdateCheckOut writes the check-out columns, work_hours, overtime_hours
	// and status. Requires a check-in and an empty check_out_time.
	UpdateCheckOut
	// UpdateCheckInPin writes the check-in coordinates, accuracy and address.
	// Requires a check-in.
	UpdateCheckInPin
	// UpdateCheckOutPin writes the check-out coordinates, accuracy and address.
	// Requires a check-out.
	UpdateCheckOutPin
)

// Allows reports whether current satisfies the precondition of k.
func (k UpdateKind) Allows(current Record) bool {
	switch k {
	case UpdateCheckIn:
		return current.CheckInTime == nil
	case UpdateCheckOut:
		return current.CheckInTime != nil && current.CheckOutTime == nil
	case UpdateCheckInPin:
		return current.CheckInTime != nil
	case UpdateCheckOutPin:
		return current.CheckOutTime != nil
	default:
		return false
	}
}

// Apply copies the columns owned by k from changes onto current.
func (k UpdateKind) Apply(current *Record, changes Record) {
	switch k {
	case UpdateCheckIn:
		current.CheckInTime = changes.CheckInTime
		current.CheckInLatitude = changes.CheckInLatitude
		current.CheckInLongitude = changes.CheckInLongitude
		current.CheckInAccuracy = changes.CheckInAccuracy
		current.CheckInAddress = changes.CheckInAddress
		current.LateMinutes = changes.LateMinutes
		current.Status = changes.Status
	case UpdateCheckOut:
		current.CheckOutTime = changes.CheckOutTime
		current.CheckOutLatitude = changes.CheckOutLatitude
		current.CheckOutLongitude = changes.CheckOutLongitude
		current.CheckOutAccuracy = changes.CheckOutAccuracy
		current.CheckOutAddress = changes.CheckOutAddress
		current.WorkHours = changes.WorkHours
		current.OvertimeHours = changes.OvertimeHours
		current.Status = changes.Status
	case UpdateCheckInPin:
		current.CheckInLatitude = changes.CheckInLatitude
		current.CheckInLongitude = changes.CheckInLongitude
		current.CheckInAccuracy = changes.CheckInAccuracy
		current.CheckInAddress = changes.CheckInAddress
	case UpdateCheckOutPin:
		current.CheckOutLatitude = changes.CheckOutLatitude
		current.CheckOutLongitude = changes.CheckOutLongitude
		current.CheckOutAccuracy = changes.CheckOutAccuracy
		current.CheckOutAddress = changes.CheckOutAddress
	}
}

// RecordFilter selects records for reporting. Start and End are inclusive calendar days.
type RecordFilter struct {
	Start      time.Time
	End        time.Time
	UserID     *string
	Department *string
}

// RecordRepository defines data access methods for attendance records.
// The (user, date) pair is unique; together with the per-kind update
// preconditions it is the only concurrency control the attendance service relies on.
type RecordRepository interface {
	// FindByUserAndDate returns nil, nil when no record exists
	FindByUserAndDate(ctx context.Context, userID string, date time.Time) (*Record, error)

	// Create inserts a record, returning ErrDuplicateRecord if (user, date) is taken
	Create(ctx context.Context, record Record) (Record, error)

	// Update writes the columns owned by kind from changes onto the row with
	// changes.ID and returns the resulting row. It returns ErrStaleRecord when
	// the precondition no longer holds and ErrRecordNotFound when id is unknown.
	Update(ctx context.Context, changes Record, kind UpdateKind) (Record, error)

	// FindMany lists records matching filter ordered by date, newest first
	FindMany(ctx context.Context, filter RecordFilter) ([]Record, error)
}
