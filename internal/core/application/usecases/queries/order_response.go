// Package queries contains the read operations of the order core. Queries
// never change state; they read through the same repositories the commands use.
package queries

import (
	"time"

	"orderflow/internal/core/domain/model/order"
)

// OrderResponse is the read model of an order as returned by the API.
type OrderResponse struct {
	ID             string            `json:"orderId"`
	TenantID       string            `json:"tenantId"`
	CustomerID     string            `json:"customerId"`
	Status         string            `json:"status"`
	Items          []ItemResponse    `json:"items"`
	Subtotal       string            `json:"subtotal"`
	DeliveryFee    string            `json:"deliveryFee"`
	Total          string            `json:"total"`
	Currency       string            `json:"currency"`
	Address        AddressResponse   `json:"deliveryAddress"`
	PaymentMethod  string            `json:"paymentMethod"`
	PaymentStatus  string            `json:"paymentStatus"`
	Notes          string            `json:"notes,omitempty"`
	KitchenStaffID string            `json:"kitchenStaffId,omitempty"`
	DriverID       string            `json:"driverId,omitempty"`
	History        []HistoryResponse `json:"statusHistory"`
	Processed      bool              `json:"processed"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
	ReadyAt        *time.Time        `json:"readyAt,omitempty"`
	DeliveredAt    *time.Time        `json:"deliveredAt,omitempty"`
	CancelledAt    *time.Time        `json:"cancelledAt,omitempty"`
}

type ItemResponse struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	UnitPrice string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type AddressResponse struct {
	Street    string `json:"street,omitempty"`
	District  string `json:"district,omitempty"`
	Reference string `json:"reference,omitempty"`
	Line      string `json:"line"`
}

type HistoryResponse struct {
	Status    string    `json:"status"`
	ActorID   string    `json:"updatedBy"`
	ActorRole string    `json:"role"`
	At        time.Time `json:"timestamp"`
	Note      string    `json:"note,omitempty"`
}

// NewOrderResponse maps the aggregate to its read model.
func NewOrderResponse(o *order.Order) OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items()))
	for _, it := range o.Items() {
		items = append(items, ItemResponse{
			ProductID: it.ProductID(),
			Name:      it.Name(),
			UnitPrice: it.UnitPrice().String(),
			Quantity:  it.Quantity(),
			Subtotal:  it.Subtotal().String(),
		})
	}

	history := make([]HistoryResponse, 0, len(o.History()))
	for _, h := range o.History() {
		history = append(history, HistoryResponse{
			Status:    h.Status.String(),
			ActorID:   h.ActorID,
			ActorRole: h.ActorRole.String(),
			At:        h.At,
			Note:      h.Note,
		})
	}

	addr := o.Address()
	return OrderResponse{
		ID:          o.ID().String(),
		TenantID:    o.TenantID(),
		CustomerID:  o.CustomerID(),
		Status:      o.Status().String(),
		Items:       items,
		Subtotal:    o.Subtotal().String(),
		DeliveryFee: o.DeliveryFee().String(),
		Total:       o.Total().String(),
		Currency:    o.Currency(),
		Address: AddressResponse{
			Street:    addr.Street,
			District:  addr.District,
			Reference: addr.Reference,
			Line:      addr.String(),
		},
		PaymentMethod:  o.PaymentMethod(),
		PaymentStatus:  string(o.PaymentStatus()),
		Notes:          o.Notes(),
		KitchenStaffID: o.KitchenStaffID(),
		DriverID:       o.DriverID(),
		History:        history,
		Processed:      o.Processed(),
		CreatedAt:      o.CreatedAt(),
		UpdatedAt:      o.UpdatedAt(),
		ReadyAt:        o.ReadyAt(),
		DeliveredAt:    o.DeliveredAt(),
		CancelledAt:    o.CancelledAt(),
	}
}
