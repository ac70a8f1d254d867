package commands

import (
	"errors"
	"strings"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand checks out the customer's cart into a new order.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(customer, "sede-miraflores",
//	    order.Address{Raw: "Av. Larco 123"}, "card", "no onions")
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type CreateOrderCommand struct {
	customer      actor.Actor
	tenantID      string
	address       order.Address
	paymentMethod string
	notes         string

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand validates the checkout request. tenantID may be empty,
// in which case the tenant the cart was filled at is used.
func NewCreateOrderCommand(
	customer actor.Actor,
	tenantID string,
	address order.Address,
	paymentMethod string,
	notes string,
) (CreateOrderCommand, error) {
	if err := customer.Validate(); err != nil {
		return CreateOrderCommand{}, err
	}
	if customer.Role() != actor.RoleCustomer {
		return CreateOrderCommand{}, errs.NewForbiddenError(customer.Role(), "place orders")
	}
	if address.IsEmpty() {
		return CreateOrderCommand{}, errs.NewValueIsRequiredError("deliveryAddress")
	}

	return CreateOrderCommand{
		customer:      customer,
		tenantID:      strings.TrimSpace(tenantID),
		address:       address,
		paymentMethod: paymentMethod,
		notes:         notes,
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Customer() actor.Actor {
	return c.customer
}

func (c CreateOrderCommand) TenantID() string {
	return c.tenantID
}

func (c CreateOrderCommand) Address() order.Address {
	return c.address
}

func (c CreateOrderCommand) PaymentMethod() string {
	return c.paymentMethod
}

func (c CreateOrderCommand) Notes() string {
	return c.notes
}
