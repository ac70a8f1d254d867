package ports

import (
	"context"

	"orderflow/internal/core/domain/model/cart"
	"orderflow/internal/core/domain/model/tenant"
)

// TenantRepository reads tenant sites.
type TenantRepository interface {
	Get(ctx context.Context, id string) (*tenant.Tenant, error)
}

// CartRepository reads and clears the checkout snapshot of a customer's cart.
type CartRepository interface {
	// Get returns errs.ObjectNotFoundError when the customer has no cart.
	Get(ctx context.Context, customerID string) (*cart.Cart, error)
	// Clear is idempotent.
	Clear(ctx context.Context, customerID string) error
}
