package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/event"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrBroadcastEventCommandIsNotConstructed = errors.New(
	"BroadcastEventCommand must be created via NewBroadcastEventCommand constructor",
)

// BroadcastEventCommand pushes one domain event to every live connection in
// its scope.
type BroadcastEventCommand struct {
	event event.Event

	guard guard.ConstructorGuard
}

func NewBroadcastEventCommand(e event.Event) (BroadcastEventCommand, error) {
	if e == nil {
		return BroadcastEventCommand{}, errs.NewValueIsRequiredError("event")
	}
	if e.EventHeader().OrderID == "" {
		return BroadcastEventCommand{}, errs.NewValueIsRequiredError("event orderId")
	}

	return BroadcastEventCommand{
		event: e,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c BroadcastEventCommand) Validate() error {
	return c.guard.Validate(ErrBroadcastEventCommandIsNotConstructed)
}

func (c BroadcastEventCommand) Event() event.Event {
	return c.event
}
