package attendance

import (
	"time"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
	StatusHalfDay Status = "half_day"
)

// State is the position of a user-day in the check-in/check-out lifecycle.
type State string

const (
	StateNoRecord   State = "no_record"
	StateCheckedIn  State = "checked_in"
	StateCheckedOut State = "checked_out"
)

// Record is the single attendance row for a user on a calendar day.
type Record struct {
	ID     string
	UserID string
	// Calendar day, stored as UTC midnight.
	Date time.Time

	CheckInTime       *time.Time
	CheckInLatitude   *float64
	CheckInLongitude  *float64
	CheckInAccuracy   *float64
	CheckInAddress    *string
	CheckOutTime      *time.Time
	CheckOutLatitude  *float64
	CheckOutLongitude *float64
	CheckOutAccuracy  *float64
	CheckOutAddress   *string

	WorkHours     *float64
	OvertimeHours float64
	LateMinutes   int
	Status        Status

	CreatedAt time.Time
	UpdatedAt time.Time

	// DTO / Join
	UserName   *string
	Department *string
}

// StateOf derives the lifecycle state of a possibly missing record.
func StateOf(r *Record) State {
	switch {
	case r == nil || r.CheckInTime == nil:
		return StateNoRecord
	case r.CheckOutTime == nil:
		return StateCheckedIn
	default:
		return StateCheckedOut
	}
}

// IsAttended reports whether the record counts towards attendance.
func (r Record) IsAttended() bool {
	return r.Status != StatusAbsent
}
