package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations.
// Every operation receives the current instant explicitly.
type AttendanceService interface {
	// CheckIn records the first event of the caller's day
	CheckIn(ctx context.Context, req CheckInRequest, now time.Time) (CheckInResponse, error)

	// CheckOut closes the caller's day and computes work hours
	CheckOut(ctx context.Context, req CheckOutRequest, now time.Time) (CheckOutResponse, error)

	// AdjustLocation moves today's check-in or check-out pin within a small radius
	AdjustLocation(ctx context.Context, req AdjustLocationRequest, now time.Time) (RecordResponse, error)

	// GetToday returns the caller's state for today
	GetToday(ctx context.Context, userID string, now time.Time) (TodayResponse, error)

	// ListHistory returns the caller's records for a date range
	ListHistory(ctx context.Context, filter HistoryFilter, now time.Time) (ListHistoryResponse, error)
}
