package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"orderflow/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.WorkQueue = (*WorkQueue)(nil)

// WorkQueue sends persistent order messages to the processing queue through
// the default exchange.
type WorkQueue struct {
	client *Client
}

func NewWorkQueue(client *Client) *WorkQueue {
	return &WorkQueue{client: client}
}

func (q *WorkQueue) Send(ctx context.Context, msg ports.OrderQueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal queue message %s: %w", msg.MessageID, err)
	}

	return q.client.Publish(ctx, "", OrderQueue, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		MessageId:    msg.MessageID,
		Headers:      amqp.Table{"tenant_id": msg.TenantID},
		Body:         body,
	})
}
