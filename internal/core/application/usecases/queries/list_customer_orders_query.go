package queries

import (
	"errors"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrListCustomerOrdersQueryIsNotConstructed = errors.New(
	"ListCustomerOrdersQuery must be created via NewListCustomerOrdersQuery constructor",
)

// ListCustomerOrdersQuery lists the orders placed by the calling customer.
type ListCustomerOrdersQuery struct {
	customerID string

	guard guard.ConstructorGuard
}

func NewListCustomerOrdersQuery(customer actor.Actor) (ListCustomerOrdersQuery, error) {
	if err := customer.Validate(); err != nil {
		return ListCustomerOrdersQuery{}, err
	}
	if customer.Role() != actor.RoleCustomer {
		return ListCustomerOrdersQuery{}, errs.NewForbiddenError(customer.Role(), "list customer orders")
	}

	return ListCustomerOrdersQuery{
		customerID: customer.ID(),
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (q ListCustomerOrdersQuery) Validate() error {
	return q.guard.Validate(ErrListCustomerOrdersQueryIsNotConstructed)
}

func (q ListCustomerOrdersQuery) CustomerID() string {
	return q.customerID
}
