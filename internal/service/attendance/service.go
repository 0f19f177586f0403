package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/period"
	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	attendance.RecordRepository
	activityLog activity.Sink
	policy      Policy
}

func NewAttendanceService(repo attendance.RecordRepository, activityLog activity.Sink, policy Policy) attendance.AttendanceService {
	return &AttendanceServiceImpl{
		RecordRepository: repo,
		activityLog:      activityLog,
		policy:           policy,
	}
}

// CheckIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest, now time.Time) (attendance.CheckInResponse, error) {
	if req.UserID == "" {
		return attendance.CheckInResponse{}, user.ErrUnauthorized
	}

	loc, err := s.validateLocation(req.LocationInput)
	if err != nil {
		return attendance.CheckInResponse{}, err
	}

	date := s.today(now)
	existing, err := s.RecordRepository.FindByUserAndDate(ctx, req.UserID, date)
	if err != nil {
		return attendance.CheckInResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if existing != nil && existing.CheckInTime != nil {
		return attendance.CheckInResponse{}, attendance.ErrAlreadyCheckedIn
	}

	checkInTime := now.UTC()

	var saved attendance.Record
	if existing == nil {
		record := attendance.Record{UserID: req.UserID, Date: date}
		applyCheckIn(&record, checkInTime, loc)
		saved, err = s.RecordRepository.Create(ctx, record)
	} else {
		// A row without a check-in (e.g. pre-marked absent) is promoted in place.
		record := *existing
		applyCheckIn(&record, checkInTime, loc)
		saved, err = s.RecordRepository.Update(ctx, record, attendance.UpdateCheckIn)
	}
	if err != nil {
		if errors.Is(err, attendance.ErrDuplicateRecord) || errors.Is(err, attendance.ErrStaleRecord) {
			return attendance.CheckInResponse{}, attendance.ErrAlreadyCheckedIn
		}
		return attendance.CheckInResponse{}, fmt.Errorf("failed to save check-in: %w", err)
	}

	if err := s.logActivity(ctx, saved, activity.ActionCheckIn, locationDetails(loc, saved.Status)); err != nil {
		return attendance.CheckInResponse{}, err
	}

	return attendance.CheckInResponse{
		ID:          saved.ID,
		Date:        saved.Date.Format(period.DateLayout),
		CheckInTime: checkInTime.Format(time.RFC3339),
		Status:      saved.Status,
	}, nil
}

// CheckOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest, now time.Time) (attendance.CheckOutResponse, error) {
	if req.UserID == "" {
		return attendance.CheckOutResponse{}, user.ErrUnauthorized
	}

	loc, err := s.validateLocation(req.LocationInput)
	if err != nil {
		return attendance.CheckOutResponse{}, err
	}

	record, err := s.RecordRepository.FindByUserAndDate(ctx, req.UserID, s.today(now))
	if err != nil {
		return attendance.CheckOutResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	switch {
	case record == nil:
		return attendance.CheckOutResponse{}, attendance.ErrNotCheckedIn
	case record.CheckOutTime != nil:
		return attendance.CheckOutResponse{}, attendance.ErrAlreadyCheckedOut
	case record.CheckInTime == nil:
		return attendance.CheckOutResponse{}, attendance.ErrMissingCheckIn
	}

	checkOutTime := now.UTC()
	if !checkOutTime.After(*record.CheckInTime) {
		return attendance.CheckOutResponse{}, attendance.ErrCheckOutBeforeCheckIn
	}

	workHours := checkOutTime.Sub(*record.CheckInTime).Hours()
	overtime := s.policy.OvertimeHours(workHours)

	updated := *record
	updated.CheckOutTime = &checkOutTime
	updated.CheckOutLatitude = &loc.Point.Latitude
	updated.CheckOutLongitude = &loc.Point.Longitude
	updated.CheckOutAccuracy = &loc.AccuracyMeters
	updated.CheckOutAddress = loc.Address
	updated.WorkHours = &workHours
	updated.OvertimeHours = overtime
	updated.Status = attendance.StatusPresent

	saved, err := s.RecordRepository.Update(ctx, updated, attendance.UpdateCheckOut)
	if err != nil {
		if errors.Is(err, attendance.ErrStaleRecord) {
			return attendance.CheckOutResponse{}, attendance.ErrAlreadyCheckedOut
		}
		return attendance.CheckOutResponse{}, fmt.Errorf("%w: %w", attendance.ErrCheckoutPersistenceFailed, err)
	}

	details := locationDetails(loc, saved.Status)
	details["work_hours"] = workHours
	details["overtime_hours"] = overtime
	if err := s.logActivity(ctx, saved, activity.ActionCheckOut, details); err != nil {
		return attendance.CheckOutResponse{}, err
	}

	return attendance.CheckOutResponse{
		ID:            saved.ID,
		Date:          saved.Date.Format(period.DateLayout),
		CheckOutTime:  checkOutTime.Format(time.RFC3339),
		Status:        saved.Status,
		WorkHours:     workHours,
		OvertimeHours: overtime,
	}, nil
}

// AdjustLocation implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) AdjustLocation(ctx context.Context, req attendance.AdjustLocationRequest, now time.Time) (attendance.RecordResponse, error) {
	if req.UserID == "" {
		return attendance.RecordResponse{}, user.ErrUnauthorized
	}
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	// Accuracy is optional for a manual pin; the original value is kept when omitted.
	input := req.LocationInput
	keepAccuracy := !input.Accuracy.Present
	if keepAccuracy {
		input.Accuracy = validator.NewNumber(0)
	}
	loc, err := input.Parse()
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	record, err := s.RecordRepository.FindByUserAndDate(ctx, req.UserID, s.today(now))
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}
	if record == nil || record.CheckInTime == nil {
		return attendance.RecordResponse{}, attendance.ErrNotCheckedIn
	}

	updated := *record
	kind, notReady := attendance.UpdateCheckInPin, attendance.ErrNotCheckedIn
	var lat, lng, accuracy **float64
	var address **string
	switch req.Event {
	case attendance.EventCheckOut:
		if record.CheckOutTime == nil {
			return attendance.RecordResponse{}, attendance.ErrNotCheckedOut
		}
		kind, notReady = attendance.UpdateCheckOutPin, attendance.ErrNotCheckedOut
		lat, lng, accuracy, address = &updated.CheckOutLatitude, &updated.CheckOutLongitude, &updated.CheckOutAccuracy, &updated.CheckOutAddress
	default:
		lat, lng, accuracy, address = &updated.CheckInLatitude, &updated.CheckInLongitude, &updated.CheckInAccuracy, &updated.CheckInAddress
	}

	if *lat == nil || *lng == nil {
		return attendance.RecordResponse{}, fmt.Errorf("%w: original %s position is missing", attendance.ErrInvalidLocation, req.Event)
	}
	original := geo.Point{Latitude: **lat, Longitude: **lng}
	distance, err := geo.DistanceMeters(original, loc.Point)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	if distance > s.policy.PinAdjustMaxMeters {
		return attendance.RecordResponse{}, fmt.Errorf("%w: moved %.0f m, at most %.0f m allowed",
			attendance.ErrLocationAdjustmentTooFar, distance, s.policy.PinAdjustMaxMeters)
	}

	*lat = &loc.Point.Latitude
	*lng = &loc.Point.Longitude
	if !keepAccuracy {
		*accuracy = &loc.AccuracyMeters
	}
	if loc.Address != nil {
		*address = loc.Address
	}

	// Writes the pin columns of req.Event only.
	saved, err := s.RecordRepository.Update(ctx, updated, kind)
	if err != nil {
		if errors.Is(err, attendance.ErrStaleRecord) {
			return attendance.RecordResponse{}, notReady
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to save adjusted location: %w", err)
	}

	details := map[string]any{
		"event":           string(req.Event),
		"from_latitude":   original.Latitude,
		"from_longitude":  original.Longitude,
		"to_latitude":     loc.Point.Latitude,
		"to_longitude":    loc.Point.Longitude,
		"distance_meters": distance,
	}
	if err := s.logActivity(ctx, saved, activity.ActionAdjustLocation, details); err != nil {
		return attendance.RecordResponse{}, err
	}

	return attendance.ToResponse(saved), nil
}

// GetToday implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetToday(ctx context.Context, userID string, now time.Time) (attendance.TodayResponse, error) {
	if userID == "" {
		return attendance.TodayResponse{}, user.ErrUnauthorized
	}

	date := s.today(now)
	record, err := s.RecordRepository.FindByUserAndDate(ctx, userID, date)
	if err != nil {
		return attendance.TodayResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	resp := attendance.TodayResponse{
		Date:  date.Format(period.DateLayout),
		State: attendance.StateOf(record),
	}
	if record != nil {
		r := attendance.ToResponse(*record)
		resp.Record = &r
	}
	return resp, nil
}

// ListHistory implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListHistory(ctx context.Context, filter attendance.HistoryFilter, now time.Time) (attendance.ListHistoryResponse, error) {
	if filter.UserID == "" {
		return attendance.ListHistoryResponse{}, user.ErrUnauthorized
	}
	if err := filter.Validate(); err != nil {
		return attendance.ListHistoryResponse{}, err
	}

	start, err := parseOptionalDay(filter.StartDate)
	if err != nil {
		return attendance.ListHistoryResponse{}, err
	}
	end, err := parseOptionalDay(filter.EndDate)
	if err != nil {
		return attendance.ListHistoryResponse{}, err
	}

	r, err := period.Resolve(period.Monthly, s.today(now), start, end)
	if err != nil {
		return attendance.ListHistoryResponse{}, err
	}

	records, err := s.RecordRepository.FindMany(ctx, attendance.RecordFilter{
		Start:  r.Start,
		End:    r.End,
		UserID: &filter.UserID,
	})
	if err != nil {
		return attendance.ListHistoryResponse{}, fmt.Errorf("failed to list attendance history: %w", err)
	}

	items := make([]attendance.RecordResponse, 0, len(records))
	for _, record := range records {
		items = append(items, attendance.ToResponse(record))
	}

	return attendance.ListHistoryResponse{
		StartDate: r.Start.Format(period.DateLayout),
		EndDate:   r.End.Format(period.DateLayout),
		Total:     len(items),
		Records:   items,
	}, nil
}

func (s *AttendanceServiceImpl) today(now time.Time) time.Time {
	return period.Day(now.In(s.policy.location()))
}

// validateLocation runs every location rule before the store is touched.
func (s *AttendanceServiceImpl) validateLocation(input attendance.LocationInput) (attendance.Location, error) {
	loc, err := input.Parse()
	if err != nil {
		return attendance.Location{}, err
	}

	if loc.AccuracyMeters > s.policy.MaxAccuracyMeters {
		return attendance.Location{}, fmt.Errorf("%w: %.0f m reported, at most %.0f m allowed",
			attendance.ErrLocationInaccurate, loc.AccuracyMeters, s.policy.MaxAccuracyMeters)
	}

	if s.policy.Geofence != nil {
		inside, err := s.policy.Geofence.Contains(loc.Point, loc.AccuracyMeters)
		if err != nil {
			return attendance.Location{}, err
		}
		if !inside {
			return attendance.Location{}, attendance.ErrOutsideGeofence
		}
	}

	return loc, nil
}

func (s *AttendanceServiceImpl) logActivity(ctx context.Context, record attendance.Record, action activity.Action, details map[string]any) error {
	if s.activityLog == nil {
		return nil
	}
	err := s.activityLog.Record(ctx, activity.Entry{
		UserID:       record.UserID,
		Action:       action,
		ResourceType: activity.ResourceAttendance,
		ResourceID:   record.ID,
		Details:      details,
	})
	if err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func applyCheckIn(record *attendance.Record, at time.Time, loc attendance.Location) {
	record.CheckInTime = &at
	record.CheckInLatitude = &loc.Point.Latitude
	record.CheckInLongitude = &loc.Point.Longitude
	record.CheckInAccuracy = &loc.AccuracyMeters
	record.CheckInAddress = loc.Address
	record.LateMinutes = 0
	record.Status = attendance.StatusPresent
}

func locationDetails(loc attendance.Location, status attendance.Status) map[string]any {
	details := map[string]any{
		"latitude":  loc.Point.Latitude,
		"longitude": loc.Point.Longitude,
		"accuracy":  loc.AccuracyMeters,
		"status":    string(status),
	}
	if loc.Address != nil {
		details["address"] = *loc.Address
	}
	return details
}

func parseOptionalDay(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	day, err := period.ParseDay(*s)
	if err != nil {
		return nil, err
	}
	return &day, nil
}
