// Package kafka reads the event bus topic with a consumer group and hands
// every envelope to a router.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/event"

	"github.com/segmentio/kafka-go"
)

// Router handles one envelope. A nil error commits the offset.
type Router interface {
	Route(ctx context.Context, env event.Envelope) error
}

type ConsumerConfig struct {
	Brokers    []string
	GroupID    string
	Topic      string
	MaxRetries int
	Backoff    time.Duration
}

// Consumer commits offsets manually, after the router accepted the message.
// A message the router keeps failing on is logged and skipped after
// MaxRetries attempts so one poison message cannot stall the partition.
type Consumer struct {
	r          *kafka.Reader
	router     Router
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger
}

func NewConsumer(cfg ConsumerConfig, router Router, logger *slog.Logger) *Consumer {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 200 * time.Millisecond
	}

	return &Consumer{
		r: kafka.NewReader(kafka.ReaderConfig{
			Brokers:        cfg.Brokers,
			GroupID:        cfg.GroupID,
			Topic:          cfg.Topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			CommitInterval: 0,
		}),
		router:     router,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		logger:     logger.With("component", "KafkaConsumer", "topic", cfg.Topic),
	}
}

// Start blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.r.Close()

	c.logger.InfoContext(ctx, "consumer started")
	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.InfoContext(ctx, "consumer stopped")
				return nil
			}
			return err
		}

		c.handle(ctx, m)

		if err = c.r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.ErrorContext(ctx, "commit failed", "offset", m.Offset, "error", err)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, m kafka.Message) {
	var env event.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		c.logger.ErrorContext(ctx, "dropping malformed envelope",
			"partition", m.Partition, "offset", m.Offset, "error", err)
		return
	}

	for attempt := 1; ; attempt++ {
		err := c.router.Route(ctx, env)
		if err == nil {
			return
		}
		if attempt >= c.maxRetries || ctx.Err() != nil {
			c.logger.ErrorContext(ctx, "giving up on event",
				"event_id", env.EventID, "event_type", string(env.EventType), "attempts", attempt, "error", err)
			return
		}

		c.logger.WarnContext(ctx, "event handling failed, retrying",
			"event_id", env.EventID, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.backoff * time.Duration(attempt)):
		}
	}
}
