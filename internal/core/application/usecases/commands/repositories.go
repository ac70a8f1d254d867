// Package commands contains the write operations of the order core. Each
// command is built through its constructor and handled by a handler that opens
// a unit of work, applies domain logic, commits, and then publishes the domain
// events the transition returned.
package commands

import (
	"context"

	"orderflow/internal/core/ports"
)

// Unit of Work interfaces scoped to what each handler touches.
type (
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	DriverRepoFactory interface {
		DriverRepository() ports.DriverRepository
	}

	TenantRepoFactory interface {
		TenantRepository() ports.TenantRepository
	}

	CartRepoFactory interface {
		CartRepository() ports.CartRepository
	}

	// OrderUoW is used by handlers that only touch orders.
	OrderUoW interface {
		TxManager
		OrderRepoFactory
	}

	OrderUoWFactory interface {
		Create() OrderUoW
	}

	// CheckoutUoW turns a cart into an order in one transaction.
	CheckoutUoW interface {
		TxManager
		OrderRepoFactory
		CartRepoFactory
	}

	CheckoutUoWFactory interface {
		Create() CheckoutUoW
	}

	// UoW coordinates orders with drivers and tenant sites, as needed by
	// driver assignment and delivery updates.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().Get(ctx, orderID)
	//   drivers, err := uow.DriverRepository().ListAvailableByTenant(ctx, o.TenantID())
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		DriverRepoFactory
		TenantRepoFactory
	}

	UoWFactory interface {
		Create() UoW
	}
)
