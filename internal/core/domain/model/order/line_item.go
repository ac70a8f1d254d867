package order

import (
	"strings"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/errs"
)

// LineItem is one product of the order, priced at checkout time.
type LineItem struct {
	productID string
	name      string
	unitPrice kernel.Money
	quantity  int
}

func NewLineItem(productID, name string, unitPrice kernel.Money, quantity int) (LineItem, error) {
	if strings.TrimSpace(productID) == "" {
		return LineItem{}, errs.NewValueIsRequiredError("productId")
	}
	if quantity <= 0 {
		return LineItem{}, errs.NewValueIsOutOfRangeError("quantity", quantity, 1, "+inf")
	}

	return LineItem{
		productID: productID,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
	}, nil
}

func (i LineItem) ProductID() string {
	return i.productID
}

func (i LineItem) Name() string {
	return i.name
}

func (i LineItem) UnitPrice() kernel.Money {
	return i.unitPrice
}

func (i LineItem) Quantity() int {
	return i.quantity
}

// Subtotal is unit price times quantity.
func (i LineItem) Subtotal() kernel.Money {
	return i.unitPrice.Times(i.quantity)
}
