package services

import (
	"errors"

	"orderflow/internal/core/domain/model/driver"
	"orderflow/internal/core/domain/model/kernel"
)

// AssignmentRadiusMeters bounds the haversine distance between a driver and
// the tenant site. Only drivers strictly closer than this are considered.
const AssignmentRadiusMeters = 3000.0

// ErrNoDriverInRange is returned when no available driver is within the radius.
// It is an expected outcome, not a failure: the order stays READY.
var ErrNoDriverInRange = errors.New("no available driver within assignment radius")

// DriverSelector picks a driver for a READY order.
//
// Business rules:
//   - only available drivers are candidates
//   - a candidate must be closer than AssignmentRadiusMeters to the tenant
//     site (a driver at exactly the radius does not qualify)
//   - the first qualifying candidate in the given scan order wins; distance is
//     not used to rank candidates
//
// Example:
//
//	selected, err := services.NewDriverSelector().Select(site.Location(), drivers)
//	if errors.Is(err, services.ErrNoDriverInRange) {
//	    // leave the order READY for a later attempt
//	}
type DriverSelector struct {
	radiusMeters float64
}

func NewDriverSelector() DriverSelector {
	return DriverSelector{radiusMeters: AssignmentRadiusMeters}
}

// Select returns the first available driver within the radius of site.
func (s DriverSelector) Select(site kernel.GeoPoint, candidates []*driver.Driver) (*driver.Driver, error) {
	if err := site.Validate(); err != nil {
		return nil, err
	}

	for _, d := range candidates {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if !d.IsAvailable() {
			continue
		}
		if d.DistanceTo(site) < s.radiusMeters {
			return d, nil
		}
	}

	return nil, ErrNoDriverInRange
}
