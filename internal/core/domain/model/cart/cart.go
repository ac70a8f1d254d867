// Package cart is the checkout snapshot of a customer's cart. Cart editing is
// handled by another service; at checkout the items are copied into the order
// and the cart is cleared.
package cart

import (
	"slices"
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

type Item struct {
	ProductID string
	Name      string
	UnitPrice kernel.Money
	Quantity  int
}

type Cart struct {
	customerID string
	tenantID   string
	items      []Item
}

// NewCart builds a cart snapshot. TenantID is the site the cart was filled at.
func NewCart(customerID, tenantID string, items []Item) (*Cart, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, errs.NewValueIsRequiredError("customerId")
	}
	return &Cart{customerID: customerID, tenantID: tenantID, items: slices.Clone(items)}, nil
}

func (c *Cart) CustomerID() string {
	return c.customerID
}

func (c *Cart) TenantID() string {
	return c.tenantID
}

func (c *Cart) Items() []Item {
	return slices.Clone(c.items)
}

func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Total is the sum of unit price times quantity over all items.
func (c *Cart) Total() kernel.Money {
	total := kernel.Zero
	for _, it := range c.items {
		total = total.Add(it.UnitPrice.Times(it.Quantity))
	}
	return total
}
