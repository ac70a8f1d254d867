package amqp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"orderflow/internal/core/domain/model/event"

	amqp "github.com/rabbitmq/amqp091-go"
)

type NotificationRouter interface {
	Route(ctx context.Context, env event.Envelope) error
}

// NotificationConsumer binds a server-named, exclusive queue to the
// notification exchange, so every gateway instance sees every notification.
type NotificationConsumer struct {
	opener   ChannelOpener
	exchange string
	router   NotificationRouter
	logger   *slog.Logger
}

func NewNotificationConsumer(
	opener ChannelOpener,
	exchange string,
	router NotificationRouter,
	logger *slog.Logger,
) *NotificationConsumer {
	return &NotificationConsumer{
		opener:   opener,
		exchange: exchange,
		router:   router,
		logger:   logger.With("component", "NotificationConsumer"),
	}
}

func (c *NotificationConsumer) Start(ctx context.Context) error {
	ch, err := c.opener.OpenChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return err
	}
	if err = ch.QueueBind(q.Name, "", c.exchange, false, nil); err != nil {
		return err
	}
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "consumer started", "queue", q.Name)
	return c.Run(ctx, deliveries)
}

func (c *NotificationConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("amqp: notification channel closed")
			}

			var env event.Envelope
			if err := json.Unmarshal(d.Body, &env); err != nil {
				c.logger.WarnContext(ctx, "dropping malformed notification", "message_id", d.MessageId, "error", err)
				continue
			}
			if err := c.router.Route(ctx, env); err != nil {
				c.logger.WarnContext(ctx, "notification not delivered", "event_id", env.EventID, "error", err)
			}
		}
	}
}
