package activity

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
)

type bestEffortSink struct {
	next activity.Sink
}

// NewBestEffortSink wraps next so that write failures are logged and swallowed.
// A logging outage must not fail an attendance write that already succeeded.
func NewBestEffortSink(next activity.Sink) activity.Sink {
	return &bestEffortSink{next: next}
}

// Record implements activity.Sink.
func (s *bestEffortSink) Record(ctx context.Context, entry activity.Entry) error {
	if err := s.next.Record(ctx, entry); err != nil {
		slog.Warn("Activity log write failed",
			"action", entry.Action,
			"user_id", entry.UserID,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
			"error", err,
		)
	}
	return nil
}
