package attendance

import (
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/pkg/geo"
)

const (
	DefaultMaxAccuracyMeters  = 5000
	DefaultPinAdjustMaxMeters = 100
)

// Policy holds the tunable rules of the check-in/check-out flow.
type Policy struct {
	// Fixes reporting a worse accuracy are rejected.
	MaxAccuracyMeters float64
	// Zero disables overtime.
	StandardWorkHours float64
	// Maximum distance a pin may be moved from its original fix.
	PinAdjustMaxMeters float64
	// Optional office geofence. Nil means not enforced.
	Geofence *geo.Fence
	// Location in which "today" is evaluated.
	Location *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAccuracyMeters:  DefaultMaxAccuracyMeters,
		PinAdjustMaxMeters: DefaultPinAdjustMaxMeters,
		Location:           time.UTC,
	}
}

// OvertimeHours returns the hours worked beyond the standard day.
func (p Policy) OvertimeHours(workHours float64) float64 {
	if p.StandardWorkHours <= 0 || workHours <= p.StandardWorkHours {
		return 0
	}
	return workHours - p.StandardWorkHours
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}
