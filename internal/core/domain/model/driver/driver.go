// Package driver models the delivery drivers of a tenant: where they are and
// whether they can take another order.
package driver

import (
	"errors"
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrDriverIsNotConstructed = errors.New("Driver must be created via NewDriver or RestoreDriver")
	// ErrDriverIsNotAvailable is returned when assigning an order to a driver
	// that is already busy.
	ErrDriverIsNotAvailable = errors.New("driver is not available")
	// ErrNoActiveDeliveries is returned when completing a delivery for a driver
	// that has none.
	ErrNoActiveDeliveries = errors.New("driver has no active deliveries")
)

// Driver is an aggregate root holding a driver's position and availability.
//
// Business rules:
//   - a driver belongs to exactly one tenant
//   - an available driver has no active deliveries
//   - taking an order makes the driver unavailable until every active delivery
//     is completed or released
//
// Version increments on every change and is the predicate of the repository's
// conditional update, so two workflows cannot both claim the same driver.
type Driver struct {
	id               string
	tenantID         string
	name             string
	location         kernel.GeoPoint
	available        bool
	activeDeliveries int
	version          int
	guard            guard.ConstructorGuard
}

// NewDriver registers an available driver at location.
//
// Example:
//
//	pos, _ := kernel.NewGeoPoint(-12.1211, -77.0297)
//	d, err := driver.NewDriver("drv-17", "sede-miraflores", "Rosa", pos)
func NewDriver(id, tenantID, name string, location kernel.GeoPoint) (*Driver, error) {
	if err := errors.Join(
		requireText("driverId", id),
		requireText("tenantId", tenantID),
		requireText("name", name),
		location.Validate(),
	); err != nil {
		return nil, err
	}

	return &Driver{
		id:        id,
		tenantID:  tenantID,
		name:      name,
		location:  location,
		available: true,
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// RestoreDriver rebuilds a driver read from storage.
func RestoreDriver(
	id, tenantID, name string,
	location kernel.GeoPoint,
	available bool,
	activeDeliveries, version int,
) (*Driver, error) {
	d, err := NewDriver(id, tenantID, name, location)
	if err != nil {
		return nil, err
	}
	if activeDeliveries < 0 {
		return nil, errs.NewValueIsOutOfRangeError("activeDeliveries", activeDeliveries, 0, "+inf")
	}

	d.available = available
	d.activeDeliveries = activeDeliveries
	d.version = version
	return d, nil
}

func (d *Driver) Validate() error {
	if d == nil {
		return ErrDriverIsNotConstructed
	}
	return d.guard.Validate(ErrDriverIsNotConstructed)
}

func (d *Driver) ID() string {
	return d.id
}

func (d *Driver) TenantID() string {
	return d.tenantID
}

func (d *Driver) Name() string {
	return d.name
}

func (d *Driver) Location() kernel.GeoPoint {
	return d.location
}

func (d *Driver) IsAvailable() bool {
	return d.available
}

func (d *Driver) ActiveDeliveries() int {
	return d.activeDeliveries
}

// Version is the value the store holds for this driver.
func (d *Driver) Version() int {
	return d.version
}

// DistanceTo returns the haversine distance in meters from the driver to p.
func (d *Driver) DistanceTo(p kernel.GeoPoint) float64 {
	return d.location.DistanceTo(p)
}

// MarkAssigned records that the driver took an order.
func (d *Driver) MarkAssigned() error {
	if !d.available {
		return ErrDriverIsNotAvailable
	}
	d.activeDeliveries++
	d.available = false
	return nil
}

// CompleteDelivery releases one active delivery, delivered or cancelled. The
// driver becomes available again once none remain.
func (d *Driver) CompleteDelivery() error {
	if d.activeDeliveries == 0 {
		return ErrNoActiveDeliveries
	}
	d.activeDeliveries--
	d.available = d.activeDeliveries == 0
	return nil
}

// MarkPersisted advances Version after the store accepted a conditional write.
func (d *Driver) MarkPersisted() {
	d.version++
}

// MoveTo updates the driver's last known position.
func (d *Driver) MoveTo(location kernel.GeoPoint) error {
	if err := location.Validate(); err != nil {
		return err
	}
	d.location = location
	return nil
}

func requireText(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}
