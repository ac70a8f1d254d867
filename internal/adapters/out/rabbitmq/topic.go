package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.NotificationTopic = (*NotificationTopic)(nil)

// NotificationTopic fans envelopes out to every gateway's queue. Messages are
// transient: a notification nobody receives now is not worth replaying.
type NotificationTopic struct {
	client *Client
}

func NewNotificationTopic(client *Client) *NotificationTopic {
	return &NotificationTopic{client: client}
}

func (t *NotificationTopic) Publish(ctx context.Context, env event.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope %s: %w", env.EventID, err)
	}

	return t.client.Publish(ctx, NotificationsExchange, "", amqp.Publishing{
		DeliveryMode: amqp.Transient,
		ContentType:  "application/json",
		MessageId:    env.EventID,
		Type:         string(env.EventType),
		Timestamp:    env.OccurredAt,
		Body:         body,
	})
}
