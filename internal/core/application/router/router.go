// Package router dispatches envelopes read from the event bus and the
// notification topic to the command handlers that react to them.
package router

import (
	"context"
	"errors"
	"log/slog"

	"orderflow/internal/core/application/usecases/commands"
	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/core/domain/model/kernel"
)

type DriverAssigner interface {
	Handle(ctx context.Context, command commands.AssignDriverCommand) (commands.AssignDriverResult, error)
}

type Broadcaster interface {
	Handle(ctx context.Context, command commands.BroadcastEventCommand) (commands.DispatchResult, error)
}

// EventRouter starts the driver assignment workflow for every OrderReady
// event seen on the event bus. Other event types are ignored there.
type EventRouter struct {
	assigner DriverAssigner
	logger   *slog.Logger
}

func NewEventRouter(assigner DriverAssigner, logger *slog.Logger) *EventRouter {
	return &EventRouter{
		assigner: assigner,
		logger:   logger.With("component", "EventRouter"),
	}
}

// Route returns an error only when the envelope should be retried. Unknown
// event types and malformed ids are logged and dropped.
func (r *EventRouter) Route(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode(env)
	if errors.Is(err, event.ErrUnknownEventType) {
		r.logger.WarnContext(ctx, "skipping unknown event", "event_id", env.EventID, "event_type", string(env.EventType))
		return nil
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "skipping undecodable event", "event_id", env.EventID, "error", err)
		return nil
	}

	ready, ok := e.(event.OrderReady)
	if !ok {
		return nil
	}

	orderID, err := kernel.UUIDFromString(ready.OrderID)
	if err != nil {
		r.logger.ErrorContext(ctx, "skipping OrderReady with bad order id", "event_id", env.EventID, "error", err)
		return nil
	}

	cmd, err := commands.NewAssignDriverCommand(orderID, nil)
	if err != nil {
		return err
	}

	result, err := r.assigner.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "driver assignment triggered",
		"event_id", env.EventID, "order_id", result.OrderID, "outcome", string(result.Outcome), "driver_id", result.DriverID)
	return nil
}

// NotificationRouter broadcasts every envelope of the notification topic to
// the WebSocket clients in its scope.
type NotificationRouter struct {
	broadcaster Broadcaster
	logger      *slog.Logger
}

func NewNotificationRouter(broadcaster Broadcaster, logger *slog.Logger) *NotificationRouter {
	return &NotificationRouter{
		broadcaster: broadcaster,
		logger:      logger.With("component", "NotificationRouter"),
	}
}

// Route never asks for redelivery: a notification that cannot be pushed now
// is stale by the time it would be retried.
func (r *NotificationRouter) Route(ctx context.Context, env event.Envelope) error {
	e, err := event.Decode(env)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping notification", "event_id", env.EventID, "error", err)
		return nil
	}

	cmd, err := commands.NewBroadcastEventCommand(e)
	if err != nil {
		r.logger.WarnContext(ctx, "skipping notification", "event_id", env.EventID, "error", err)
		return nil
	}

	if _, err = r.broadcaster.Handle(ctx, cmd); err != nil {
		r.logger.ErrorContext(ctx, "broadcast failed", "event_id", env.EventID, "error", err)
	}
	return nil
}
