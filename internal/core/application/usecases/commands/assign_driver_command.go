package commands

import (
	"errors"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/pkg/guard"
)

var ErrAssignDriverCommandIsNotConstructed = errors.New(
	"AssignDriverCommand must be created via NewAssignDriverCommand constructor",
)

// AssignDriverCommand triggers the driver assignment workflow for one order.
//
// Example:
//
//	cmd, _ := NewAssignDriverCommand(orderID, nil) // triggered by OrderReady
//	result, err := handler.Handle(ctx, cmd)
//	if err == nil && !result.Assigned {
//	    log.Printf("order stays READY: %s", result.Outcome)
//	}
type AssignDriverCommand struct {
	orderID     kernel.UUID
	requestedBy *actor.Actor

	guard guard.ConstructorGuard
}

// NewAssignDriverCommand builds the trigger. requestedBy is nil for event and
// scheduler triggers and set for a manual trigger through the API.
func NewAssignDriverCommand(orderID kernel.UUID, requestedBy *actor.Actor) (AssignDriverCommand, error) {
	if err := orderID.Validate(); err != nil {
		return AssignDriverCommand{}, err
	}
	if requestedBy != nil {
		if err := requestedBy.Validate(); err != nil {
			return AssignDriverCommand{}, err
		}
	}

	return AssignDriverCommand{
		orderID:     orderID,
		requestedBy: requestedBy,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

func (c AssignDriverCommand) Validate() error {
	return c.guard.Validate(ErrAssignDriverCommandIsNotConstructed)
}

func (c AssignDriverCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c AssignDriverCommand) RequestedBy() *actor.Actor {
	return c.requestedBy
}
