package commands

import (
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/order"
)

// NotificationTypeStatusUpdate is the push type for OrderStatusChanged.
// Other events are pushed under their own event type.
const NotificationTypeStatusUpdate = "ORDER_STATUS_UPDATE"

// Notification is the JSON document pushed to a WebSocket client.
type Notification struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

type NotificationData struct {
	OrderID        string     `json:"orderId"`
	TenantID       string     `json:"tenantId"`
	Status         string     `json:"status"`
	PreviousStatus string     `json:"previousStatus,omitempty"`
	Message        string     `json:"message"`
	Timestamp      time.Time  `json:"timestamp"`
	DriverID       string     `json:"driverId,omitempty"`
	KitchenStaffID string     `json:"kitchenStaffId,omitempty"`
	UpdatedBy      *UpdatedBy `json:"updatedBy,omitempty"`
	HandledBy      *HandledBy `json:"handledBy,omitempty"`
}

type UpdatedBy struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// HandledBy tells staff who is working the order at its current stage.
type HandledBy struct {
	Stage   string `json:"stage"`
	Handler string `json:"handler"`
	Role    string `json:"role"`
}

var customerMessages = map[order.Status]string{
	order.StatusCreated:    "Order received! We are preparing your order.",
	order.StatusCooking:    "Your order is being prepared by our chef.",
	order.StatusReady:      "Your order is ready! The driver will pick it up soon.",
	order.StatusDelivering: "Your order is on its way!",
	order.StatusDelivered:  "Order delivered. Enjoy your meal!",
	order.StatusCancelled:  "Your order has been cancelled.",
}

var staffMessages = map[order.Status]string{
	order.StatusCreated:    "New order received, needs a chef",
	order.StatusCooking:    "Order in preparation",
	order.StatusReady:      "Order ready, assign a driver",
	order.StatusDelivering: "Order out for delivery",
	order.StatusDelivered:  "Order completed",
	order.StatusCancelled:  "Order cancelled",
}

const defaultStatusMessage = "Order status updated"

// CustomerMessage is the text shown to the customer for status.
func CustomerMessage(status order.Status) string {
	if m, ok := customerMessages[status]; ok {
		return m
	}
	return defaultStatusMessage
}

// StaffMessage is the text shown to the tenant's staff for status.
func StaffMessage(status order.Status) string {
	if m, ok := staffMessages[status]; ok {
		return m
	}
	return defaultStatusMessage
}

// BuildNotification renders e for one audience. Customer notifications carry
// who updated the order; staff notifications carry who handles it.
func BuildNotification(e event.Event, forCustomer bool) Notification {
	h := e.EventHeader()
	n := Notification{
		Type: string(e.EventType()),
		Data: NotificationData{
			OrderID:   h.OrderID,
			TenantID:  h.TenantID,
			Timestamp: h.OccurredAt,
		},
	}

	switch ev := e.(type) {
	case event.OrderCreated:
		n.Data.Status = ev.Status
	case event.OrderStatusChanged:
		n.Type = NotificationTypeStatusUpdate
		n.Data.Status = ev.NewStatus
		n.Data.PreviousStatus = ev.PreviousStatus
		n.Data.DriverID = ev.DriverID
		n.Data.KitchenStaffID = ev.KitchenStaffID
	case event.OrderAssigned:
		n.Data.Status = ev.Status
		switch ev.Assignment {
		case event.AssignmentDriver:
			n.Data.DriverID = ev.AssigneeID
		case event.AssignmentKitchen:
			n.Data.KitchenStaffID = ev.AssigneeID
		}
	case event.OrderReady:
		n.Data.Status = order.StatusReady.String()
	}

	status := order.ParseStatus(n.Data.Status)
	if forCustomer {
		n.Data.Message = CustomerMessage(status)
		if h.Actor.ID != "" {
			n.Data.UpdatedBy = &UpdatedBy{ID: h.Actor.ID, Role: h.Actor.Role}
		}
		return n
	}

	n.Data.Message = StaffMessage(status)
	n.Data.HandledBy = handledBy(status, h.Actor, n.Data.KitchenStaffID, n.Data.DriverID)
	return n
}

func handledBy(status order.Status, by event.Actor, kitchenStaffID, driverID string) *HandledBy {
	switch status {
	case order.StatusCooking:
		return &HandledBy{Stage: "kitchen", Handler: firstOf(kitchenStaffID, by.ID), Role: actor.RoleKitchenStaff.String()}
	case order.StatusDelivering, order.StatusDelivered:
		if driverID == "" {
			return nil
		}
		return &HandledBy{Stage: "delivery", Handler: driverID, Role: actor.RoleDriver.String()}
	default:
		return nil
	}
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
