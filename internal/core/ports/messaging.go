package ports

import (
	"context"

	"orderflow/internal/core/domain/model/event"
)

// EventBus carries domain event envelopes to asynchronous consumers such as
// the driver assignment trigger.
type EventBus interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// NotificationTopic fans event envelopes out to every subscriber, in
// particular the WebSocket gateways.
type NotificationTopic interface {
	Publish(ctx context.Context, env event.Envelope) error
}

// OrderQueueMessage is one unit of work for the asynchronous queue consumer.
type OrderQueueMessage struct {
	MessageID string `json:"messageId"`
	OrderID   string `json:"orderId"`
	TenantID  string `json:"tenantId"`
	Total     string `json:"total"`
	Status    string `json:"status"`
}

// WorkQueue enqueues order work items for at-least-once processing.
type WorkQueue interface {
	Send(ctx context.Context, msg OrderQueueMessage) error
}

// PublishResult reports how many events of a batch reached every destination.
type PublishResult struct {
	Published int
	Failed    int
}

// EventPublisher publishes domain events on a best-effort basis. A failure is
// reported to the caller but never undoes the state change that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, e event.Event) error
	PublishBatch(ctx context.Context, events []event.Event) PublishResult
}
