package ports

import (
	"context"

	"orderflow/internal/core/domain/model/driver"
)

// DriverRepository persists driver aggregates.
type DriverRepository interface {
	Add(ctx context.Context, aggregate *driver.Driver) error

	// Update writes the driver if its stored version equals aggregate.Version(),
	// bumping the version. Returns errs.ConflictError otherwise.
	Update(ctx context.Context, aggregate *driver.Driver) error

	Get(ctx context.Context, id string) (*driver.Driver, error)

	// ListAvailableByTenant returns the tenant's available drivers in a stable scan order.
	ListAvailableByTenant(ctx context.Context, tenantID string) ([]*driver.Driver, error)
}
