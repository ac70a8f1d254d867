package queries

import (
	"context"
)

type ListCustomerOrdersQueryHandler struct {
	orders OrderReader
}

func NewListCustomerOrdersQueryHandler(orders OrderReader) ListCustomerOrdersQueryHandler {
	return ListCustomerOrdersQueryHandler{orders: orders}
}

// Handle returns the customer's orders newest first; an empty slice when there are none.
func (h ListCustomerOrdersQueryHandler) Handle(
	ctx context.Context,
	query ListCustomerOrdersQuery,
) ([]OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	found, err := h.orders.ListByCustomer(ctx, query.CustomerID())
	if err != nil {
		return nil, err
	}

	resp := make([]OrderResponse, 0, len(found))
	for _, o := range found {
		resp = append(resp, NewOrderResponse(o))
	}
	return resp, nil
}
