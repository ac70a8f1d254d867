// Package publisher implements the event publisher: it wraps domain events in
// envelopes and writes them to the event bus and the notification topic.
package publisher

import (
	"context"
	"errors"
	"log/slog"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

var _ ports.EventPublisher = (*Publisher)(nil)

// Publisher is best effort. It is called after the state change has been
// committed, so an error here is reported and logged but never rolls back.
type Publisher struct {
	source string
	bus    ports.EventBus
	topic  ports.NotificationTopic
	logger *slog.Logger
}

// New returns a Publisher tagging envelopes with source. Either destination
// may be nil when the deployment does not run it.
func New(source string, bus ports.EventBus, topic ports.NotificationTopic, logger *slog.Logger) *Publisher {
	return &Publisher{
		source: source,
		bus:    bus,
		topic:  topic,
		logger: logger.With("component", "EventPublisher"),
	}
}

// Publish writes e to every destination. The returned error wraps
// errs.ErrDownstreamUnavailable when at least one of them failed.
func (p *Publisher) Publish(ctx context.Context, e event.Event) error {
	env, err := event.Encode(e, p.source)
	if err != nil {
		return err
	}

	var failures []error
	if p.bus != nil {
		if err = p.bus.Publish(ctx, env); err != nil {
			failures = append(failures, errs.NewDownstreamUnavailableError("event bus", err))
		}
	}
	if p.topic != nil {
		if err = p.topic.Publish(ctx, env); err != nil {
			failures = append(failures, errs.NewDownstreamUnavailableError("notification topic", err))
		}
	}

	if len(failures) > 0 {
		err = errors.Join(failures...)
		p.logger.ErrorContext(ctx, "failed to publish event",
			"event_id", env.EventID,
			"event_type", string(env.EventType),
			"order_id", env.CorrelationID,
			"error", err,
		)
		return err
	}

	p.logger.DebugContext(ctx, "event published",
		"event_id", env.EventID, "event_type", string(env.EventType), "order_id", env.CorrelationID)
	return nil
}

// PublishBatch publishes events in order and counts the outcomes. A failing
// event does not stop the rest of the batch.
func (p *Publisher) PublishBatch(ctx context.Context, events []event.Event) ports.PublishResult {
	var result ports.PublishResult
	for _, e := range events {
		if err := p.Publish(ctx, e); err != nil {
			result.Failed++
			continue
		}
		result.Published++
	}
	return result
}
