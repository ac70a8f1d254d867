// Package event defines the domain events emitted by order transitions and the
// envelope they travel in on the event bus and the notification topic.
//
// Events form a closed tagged union: OrderCreated, OrderStatusChanged,
// OrderAssigned and OrderReady. Each variant is its own struct embedding a
// common Header; consumers switch on the concrete type.
package event

import (
	"time"

	"github.com/shopspring/decimal"
)

// Type is the discriminator carried in the envelope.
type Type string

const (
	TypeOrderCreated       Type = "OrderCreated"
	TypeOrderStatusChanged Type = "OrderStatusChanged"
	TypeOrderAssigned      Type = "OrderAssigned"
	TypeOrderReady         Type = "OrderReady"
)

// ScopeAll targets every live connection regardless of tenant.
const ScopeAll = "all"

// Event is implemented only by the variants declared in this package.
type Event interface {
	EventType() Type
	EventHeader() Header
	isEvent()
}

// Actor identifies who caused the event.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// Header is shared by every variant.
type Header struct {
	OrderID    string    `json:"orderId"`
	TenantID   string    `json:"tenantId"`
	CustomerID string    `json:"customerId"`
	Actor      Actor     `json:"actor"`
	OccurredAt time.Time `json:"timestamp"`
}

func (h Header) EventHeader() Header {
	return h
}

// Scope returns the broadcast scope of e: its tenant, or ScopeAll when the
// event carries no tenant.
func Scope(e Event) string {
	if tenant := e.EventHeader().TenantID; tenant != "" {
		return tenant
	}
	return ScopeAll
}

// OrderCreated is emitted once, when checkout stores a new order.
type OrderCreated struct {
	Header
	Status      string          `json:"status"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
	Total       decimal.Decimal `json:"total"`
	Currency    string          `json:"currency"`
	ItemCount   int             `json:"itemCount"`
}

func (OrderCreated) EventType() Type { return TypeOrderCreated }
func (OrderCreated) isEvent()        {}

// OrderStatusChanged is emitted by every successful transition.
type OrderStatusChanged struct {
	Header
	PreviousStatus string `json:"previousStatus"`
	NewStatus      string `json:"newStatus"`
	KitchenStaffID string `json:"kitchenStaffId,omitempty"`
	DriverID       string `json:"driverId,omitempty"`
	Note           string `json:"note,omitempty"`
}

func (OrderStatusChanged) EventType() Type { return TypeOrderStatusChanged }
func (OrderStatusChanged) isEvent()        {}

// Assignment tells which party an OrderAssigned event is about.
type Assignment string

const (
	AssignmentKitchen Assignment = "kitchen"
	AssignmentDriver  Assignment = "driver"
)

// OrderAssigned is emitted when a chef takes the order or a driver is assigned.
type OrderAssigned struct {
	Header
	Assignment Assignment `json:"assignment"`
	AssigneeID string     `json:"assigneeId"`
	Status     string     `json:"status"`
}

func (OrderAssigned) EventType() Type { return TypeOrderAssigned }
func (OrderAssigned) isEvent()        {}

// OrderReady is emitted when the order enters READY; it triggers driver assignment.
type OrderReady struct {
	Header
	ReadyAt time.Time `json:"readyAt"`
}

func (OrderReady) EventType() Type { return TypeOrderReady }
func (OrderReady) isEvent()        {}
