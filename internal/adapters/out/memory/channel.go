package memory

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/ports"
)

var (
	_ ports.EventBus          = (*Channel)(nil)
	_ ports.NotificationTopic = (*Channel)(nil)
	_ ports.WorkQueue         = (*Queue)(nil)
)

// EnvelopeHandler consumes one envelope.
type EnvelopeHandler func(ctx context.Context, env event.Envelope) error

// Channel delivers envelopes synchronously to every subscriber, in
// subscription order. It stands in for both the event bus and the
// notification topic.
type Channel struct {
	name   string
	mu     sync.RWMutex
	subs   []EnvelopeHandler
	logger *slog.Logger
}

func NewChannel(name string, logger *slog.Logger) *Channel {
	return &Channel{
		name:   name,
		logger: logger.With("component", "memory.Channel", "channel", name),
	}
}

func (c *Channel) Subscribe(h EnvelopeHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, h)
}

// Publish never fails: a subscriber error is the consumer's problem and is
// only logged, as it would be with a real broker.
func (c *Channel) Publish(ctx context.Context, env event.Envelope) error {
	c.mu.RLock()
	subs := append([]EnvelopeHandler(nil), c.subs...)
	c.mu.RUnlock()

	for _, h := range subs {
		if err := h(ctx, env); err != nil {
			c.logger.WarnContext(ctx, "subscriber failed",
				"event_id", env.EventID, "event_type", string(env.EventType), "error", err)
		}
	}
	return nil
}

// MessageHandler consumes one raw work queue message.
type MessageHandler func(ctx context.Context, id string, body []byte) error

// Queue hands every message straight to its consumer.
type Queue struct {
	mu       sync.RWMutex
	consumer MessageHandler
	logger   *slog.Logger
}

func NewQueue(logger *slog.Logger) *Queue {
	return &Queue{logger: logger.With("component", "memory.Queue")}
}

func (q *Queue) Consume(h MessageHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.consumer = h
}

func (q *Queue) Send(ctx context.Context, msg ports.OrderQueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	q.mu.RLock()
	consumer := q.consumer
	q.mu.RUnlock()
	if consumer == nil {
		q.logger.DebugContext(ctx, "no consumer, message dropped", "message_id", msg.MessageID)
		return nil
	}

	if err = consumer(ctx, msg.MessageID, body); err != nil {
		q.logger.WarnContext(ctx, "message failed", "message_id", msg.MessageID, "error", err)
	}
	return nil
}
