// Package amqp consumes RabbitMQ queues: the order work queue in batches and
// the notification fanout for this gateway.
package amqp

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"orderflow/internal/core/application/usecases/commands"

	amqp "github.com/rabbitmq/amqp091-go"
)

type BatchHandler interface {
	Handle(ctx context.Context, command commands.ProcessOrderQueueCommand) (commands.QueueBatchResult, error)
}

// ChannelOpener opens a dedicated AMQP channel for a consumer.
type ChannelOpener interface {
	OpenChannel() (*amqp.Channel, error)
}

type BatchConfig struct {
	Queue     string
	Consumer  string
	BatchSize int
	MaxWait   time.Duration
}

// BatchConsumer groups deliveries into batches of up to BatchSize, or fewer
// after MaxWait, and settles each delivery by its own outcome: processed
// messages are acked, failed ones are requeued once and dead-lettered when
// they fail again on redelivery.
type BatchConsumer struct {
	opener  ChannelOpener
	handler BatchHandler
	cfg     BatchConfig
	logger  *slog.Logger
}

func NewBatchConsumer(opener ChannelOpener, handler BatchHandler, cfg BatchConfig, logger *slog.Logger) *BatchConsumer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.MaxWait <= 0 {
		cfg.MaxWait = time.Second
	}
	return &BatchConsumer{
		opener:  opener,
		handler: handler,
		cfg:     cfg,
		logger:  logger.With("component", "BatchConsumer", "queue", cfg.Queue),
	}
}

// Start consumes until ctx is cancelled or the channel closes.
func (c *BatchConsumer) Start(ctx context.Context) error {
	ch, err := c.opener.OpenChannel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err = ch.Qos(c.cfg.BatchSize, 0, false); err != nil {
		return err
	}
	deliveries, err := ch.Consume(c.cfg.Queue, c.cfg.Consumer, false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "consumer started", "batch_size", c.cfg.BatchSize, "max_wait", c.cfg.MaxWait.String())
	return c.Run(ctx, deliveries)
}

// Run batches deliveries read from the channel. Pending deliveries are
// flushed before it returns.
func (c *BatchConsumer) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	batch := make([]amqp.Delivery, 0, c.cfg.BatchSize)
	timer := time.NewTimer(c.cfg.MaxWait)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		c.flush(ctx, batch)
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case d, ok := <-deliveries:
			if !ok {
				flush()
				return errors.New("amqp: delivery channel closed")
			}
			batch = append(batch, d)
			if len(batch) >= c.cfg.BatchSize {
				flush()
				timer.Reset(c.cfg.MaxWait)
			}
		case <-timer.C:
			flush()
			timer.Reset(c.cfg.MaxWait)
		}
	}
}

func (c *BatchConsumer) flush(ctx context.Context, batch []amqp.Delivery) {
	byID := make(map[string]amqp.Delivery, len(batch))
	messages := make([]commands.QueueMessage, 0, len(batch))
	for _, d := range batch {
		id := d.MessageId
		if _, dup := byID[id]; id == "" || dup {
			id = "delivery-" + strconv.FormatUint(d.DeliveryTag, 10)
		}
		byID[id] = d
		messages = append(messages, commands.QueueMessage{ID: id, Body: d.Body})
	}

	var result commands.QueueBatchResult
	cmd, err := commands.NewProcessOrderQueueCommand(messages)
	if err == nil {
		result, err = c.handler.Handle(ctx, cmd)
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "batch failed", "size", len(batch), "error", err)
		result = commands.QueueBatchResult{}
		for _, m := range messages {
			result.Failed = append(result.Failed, m.ID)
		}
	}

	for _, id := range result.Processed {
		if ackErr := byID[id].Ack(false); ackErr != nil {
			c.logger.WarnContext(ctx, "ack failed", "message_id", id, "error", ackErr)
		}
	}
	for _, id := range result.Failed {
		d := byID[id]
		requeue := !d.Redelivered
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			c.logger.WarnContext(ctx, "nack failed", "message_id", id, "error", nackErr)
		}
		if !requeue {
			c.logger.WarnContext(ctx, "message dead-lettered", "message_id", id)
		}
	}
}
