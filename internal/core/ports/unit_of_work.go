package ports

import (
	"context"
)

// UnitOfWorkFactory creates a fresh UnitOfWork per command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a business transaction boundary across the order, driver,
// tenant and cart stores. Client code manages the lifecycle explicitly:
// Begin, then Commit, with a deferred Rollback.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error

	// Repositories returned after Begin run inside the transaction.
	OrderRepository() OrderRepository
	DriverRepository() DriverRepository
	TenantRepository() TenantRepository
	CartRepository() CartRepository
}
