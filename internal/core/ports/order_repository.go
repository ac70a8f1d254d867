package ports

import (
	"context"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
)

// OrderRepository is the Order Store: the persistence contract for order aggregates.
// Orders are never deleted.
type OrderRepository interface {
	// Add persists a new order. Returns errs.ConflictError when the id exists.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the aggregate only if the stored status still equals
	// aggregate.PersistedStatus(). Returns errs.ObjectNotFoundError when the order
	// is gone and errs.ConflictError when another writer changed it first.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get returns errs.ObjectNotFoundError when no order has the id.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// ListByCustomer returns the customer's orders, newest first.
	ListByCustomer(ctx context.Context, customerID string) ([]*order.Order, error)

	// ListReadyUnassigned returns up to limit READY orders that have no driver,
	// oldest ready first.
	ListReadyUnassigned(ctx context.Context, limit int) ([]*order.Order, error)

	// MarkProcessed sets the processed flag. Repeating it has no further effect.
	MarkProcessed(ctx context.Context, id kernel.UUID, at time.Time) error
}
