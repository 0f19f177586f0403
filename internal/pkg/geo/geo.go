package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusMeters is the mean Earth radius used by DistanceMeters.
const EarthRadiusMeters = 6371000

var ErrInvalidLocation = errors.New("invalid location")

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate reports ErrInvalidLocation for non-finite or out-of-range degrees.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsInf(p.Latitude, 0) {
		return fmt.Errorf("%w: latitude must be a finite number", ErrInvalidLocation)
	}
	if math.IsNaN(p.Longitude) || math.IsInf(p.Longitude, 0) {
		return fmt.Errorf("%w: longitude must be a finite number", ErrInvalidLocation)
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrInvalidLocation)
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrInvalidLocation)
	}
	return nil
}

// DistanceMeters returns the great-circle (Haversine) distance between a and b in meters.
func DistanceMeters(a, b Point) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	if err := b.Validate(); err != nil {
		return 0, err
	}

	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c, nil
}

// Fence is a circular boundary around Center.
type Fence struct {
	Center                  Point
	RadiusMeters            float64
	AccuracyToleranceMeters float64
}

// Contains is WithinGeofence applied to the fence's own parameters.
func (f Fence) Contains(p Point, accuracyMeters float64) (bool, error) {
	return WithinGeofence(p, f.Center, f.RadiusMeters, accuracyMeters, f.AccuracyToleranceMeters)
}

// WithinGeofence is true only when point lies within radiusMeters of center
// and the reported accuracy does not exceed the tolerance.
func WithinGeofence(point, center Point, radiusMeters, accuracyMeters, accuracyToleranceMeters float64) (bool, error) {
	if math.IsNaN(accuracyMeters) || math.IsInf(accuracyMeters, 0) || accuracyMeters < 0 {
		return false, fmt.Errorf("%w: accuracy must be a non-negative number", ErrInvalidLocation)
	}

	distance, err := DistanceMeters(point, center)
	if err != nil {
		return false, err
	}

	return distance <= radiusMeters && accuracyMeters <= accuracyToleranceMeters, nil
}

func toRadians(deg float64) float64 {
	return deg * (math.Pi / 180.0)
}
