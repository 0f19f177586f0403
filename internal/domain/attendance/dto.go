package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

// ========================================
// LOCATION
// ========================================

// LocationInput is the raw location payload shared by check-in, check-out and
// pin adjustment. Coordinates may arrive as JSON numbers or numeric strings.
type LocationInput struct {
	Latitude  validator.Number `json:"latitude"`
	Longitude validator.Number `json:"longitude"`
	Accuracy  validator.Number `json:"accuracy"`
	Address   *string          `json:"address,omitempty"`
}

// Location is a validated fix.
type Location struct {
	Point          geo.Point
	AccuracyMeters float64
	Address        *string
}

// Parse checks that all three numeric fields are present and finite and that
// the coordinates are in range. Failures wrap ErrInvalidLocation.
func (l LocationInput) Parse() (Location, error) {
	fields := []struct {
		name string
		n    validator.Number
	}{
		{"latitude", l.Latitude},
		{"longitude", l.Longitude},
		{"accuracy", l.Accuracy},
	}
	for _, f := range fields {
		if !f.n.Present {
			return Location{}, fmt.Errorf("%w: %s is required", ErrInvalidLocation, f.name)
		}
		if !f.n.Valid {
			return Location{}, fmt.Errorf("%w: %s must be numeric", ErrInvalidLocation, f.name)
		}
	}
	if l.Accuracy.Value < 0 {
		return Location{}, fmt.Errorf("%w: accuracy must not be negative", ErrInvalidLocation)
	}

	point := geo.Point{Latitude: l.Latitude.Value, Longitude: l.Longitude.Value}
	if err := point.Validate(); err != nil {
		return Location{}, err
	}

	var address *string
	if l.Address != nil {
		if trimmed := strings.TrimSpace(*l.Address); trimmed != "" {
			address = &trimmed
		}
	}

	return Location{Point: point, AccuracyMeters: l.Accuracy.Value, Address: address}, nil
}

// ========================================
// CHECK-IN / CHECK-OUT
// ========================================

type CheckInRequest struct {
	UserID string `json:"-"`
	LocationInput
}

type CheckOutRequest struct {
	UserID string `json:"-"`
	LocationInput
}

type CheckInResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	CheckInTime string `json:"check_in_time"`
	Status      Status `json:"status"`
}

type CheckOutResponse struct {
	ID            string  `json:"id"`
	Date          string  `json:"date"`
	CheckOutTime  string  `json:"check_out_time"`
	Status        Status  `json:"status"`
	WorkHours     float64 `json:"work_hours"`
	OvertimeHours float64 `json:"overtime_hours"`
}

// ========================================
// PIN ADJUSTMENT
// ========================================

type Event string

const (
	EventCheckIn  Event = "check_in"
	EventCheckOut Event = "check_out"
)

type AdjustLocationRequest struct {
	UserID string `json:"-"`
	Event  Event  `json:"event"`
	LocationInput
}

func (r *AdjustLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Event == "" {
		r.Event = EventCheckIn
	}
	if r.Event != EventCheckIn && r.Event != EventCheckOut {
		errs = append(errs, validator.ValidationError{
			Field:   "event",
			Message: "event must be one of: check_in, check_out",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// READ MODELS
// ========================================

type RecordResponse struct {
	ID                string   `json:"id"`
	UserID            string   `json:"user_id"`
	UserName          *string  `json:"user_name,omitempty"`
	Department        *string  `json:"department,omitempty"`
	Date              string   `json:"date"`
	State             State    `json:"state"`
	CheckInTime       *string  `json:"check_in_time,omitempty"`
	CheckInLatitude   *float64 `json:"check_in_latitude,omitempty"`
	CheckInLongitude  *float64 `json:"check_in_longitude,omitempty"`
	CheckInAccuracy   *float64 `json:"check_in_accuracy,omitempty"`
	CheckInAddress    *string  `json:"check_in_address,omitempty"`
	CheckOutTime      *string  `json:"check_out_time,omitempty"`
	CheckOutLatitude  *float64 `json:"check_out_latitude,omitempty"`
	CheckOutLongitude *float64 `json:"check_out_longitude,omitempty"`
	CheckOutAccuracy  *float64 `json:"check_out_accuracy,omitempty"`
	CheckOutAddress   *string  `json:"check_out_address,omitempty"`
	WorkHours         *float64 `json:"work_hours,omitempty"`
	OvertimeHours     float64  `json:"overtime_hours"`
	LateMinutes       int      `json:"late_minutes"`
	Status            Status   `json:"status"`
}

type TodayResponse struct {
	Date   string          `json:"date"`
	State  State           `json:"state"`
	Record *RecordResponse `json:"record,omitempty"`
}

type HistoryFilter struct {
	UserID    string  `json:"-"`
	StartDate *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate   *string `json:"end_date,omitempty"`   // YYYY-MM-DD
}

func (f *HistoryFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.StartDate != nil && *f.StartDate != "" {
		if _, valid := validator.IsValidDate(*f.StartDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		if _, valid := validator.IsValidDate(*f.EndDate); !valid {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListHistoryResponse struct {
	StartDate string           `json:"start_date"`
	EndDate   string           `json:"end_date"`
	Total     int              `json:"total"`
	Records   []RecordResponse `json:"records"`
}

// ToResponse maps a Record to its API shape.
func ToResponse(r Record) RecordResponse {
	return RecordResponse{
		ID:                r.ID,
		UserID:            r.UserID,
		UserName:          r.UserName,
		Department:        r.Department,
		Date:              r.Date.Format("2006-01-02"),
		State:             StateOf(&r),
		CheckInTime:       timePtrToString(r.CheckInTime),
		CheckInLatitude:   r.CheckInLatitude,
		CheckInLongitude:  r.CheckInLongitude,
		CheckInAccuracy:   r.CheckInAccuracy,
		CheckInAddress:    r.CheckInAddress,
		CheckOutTime:      timePtrToString(r.CheckOutTime),
		CheckOutLatitude:  r.CheckOutLatitude,
		CheckOutLongitude: r.CheckOutLongitude,
		CheckOutAccuracy:  r.CheckOutAccuracy,
		CheckOutAddress:   r.CheckOutAddress,
		WorkHours:         r.WorkHours,
		OvertimeHours:     r.OvertimeHours,
		LateMinutes:       r.LateMinutes,
		Status:            r.Status,
	}
}

// timePtrToString safely converts a *time.Time to an RFC3339 string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339)
	return &format
}
