package period

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

type Kind string

const (
	Weekly  Kind = "weekly"
	Monthly Kind = "monthly"
)

var (
	ErrInvalidRange  = errors.New("invalid date range")
	ErrInvalidPeriod = errors.New("period must be one of: weekly, monthly")
)

// ParseKind maps a query value to a Kind. Empty means Monthly.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", Monthly:
		return Monthly, nil
	case Weekly:
		return Weekly, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidPeriod, s)
	}
}

// Range is an inclusive interval of calendar days. Both bounds are UTC midnight.
type Range struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar day, read in t's own location, and returns
// that day as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a calendar day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Resolve returns the reporting interval for kind as seen from today.
// Custom bounds, when either is set, take precedence over kind. The end of the
// range is never after today.
func Resolve(kind Kind, today time.Time, customStart, customEnd *time.Time) (Range, error) {
	today = Day(today)

	var r Range
	switch {
	case customStart != nil || customEnd != nil:
		r.Start, r.End = today, today
		if customStart != nil {
			r.Start = Day(*customStart)
		}
		if customEnd != nil {
			r.End = Day(*customEnd)
		}
	case kind == Weekly:
		// Monday-start weeks; Sunday closes the previous week.
		offset := (int(today.Weekday()) + 6) % 7
		r.Start = today.AddDate(0, 0, -offset)
		r.End = r.Start.AddDate(0, 0, 6)
	default:
		r.Start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		r.End = r.Start.AddDate(0, 1, -1)
	}

	if r.End.After(today) {
		r.End = today
	}
	if r.Start.After(r.End) {
		return Range{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}

	return r, nil
}

// Len returns the number of calendar days in r.
func (r Range) Len() int {
	return int((r.End.Unix()-r.Start.Unix())/86400) + 1
}

// Limit rejects ranges longer than maxDays. A non-positive maxDays disables the check.
func (r Range) Limit(maxDays int) error {
	if maxDays > 0 && r.Len() > maxDays {
		return fmt.Errorf("%w: %d days requested, at most %d allowed", ErrInvalidRange, r.Len(), maxDays)
	}
	return nil
}

// Days lists every calendar day of r in ascending order.
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether day falls inside r.
func (r Range) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.Start) && !day.After(r.End)
}

// CountBusinessDays counts Monday through Friday days in r. Holidays are not excluded.
func CountBusinessDays(r Range) int {
	count := 0
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			count++
		}
	}
	return count
}
