package activity

import (
	"context"
	"time"
)

type Action string

const (
	ActionCheckIn        Action = "check_in"
	ActionCheckOut       Action = "check_out"
	ActionAdjustLocation Action = "adjust_location"
)

const ResourceAttendance = "attendance"

// Entry is one activity-log line.
type Entry struct {
	ID           string
	UserID       string
	Action       Action
	ResourceType string
	ResourceID   string
	Details      map[string]any
	CreatedAt    time.Time
}

// Sink receives activity-log entries. Callers treat it as fire-and-forget.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}
