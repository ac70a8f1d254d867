package commands

import (
	"errors"
	"fmt"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrTransitionOrderCommandIsNotConstructed = errors.New(
	"TransitionOrderCommand must be created via one of its constructors",
)

// TransitionOrderCommand asks to move an order to a target status on behalf
// of an actor. The specialised constructors below cover the kitchen, delivery
// and cancellation endpoints; all of them are handled by
// TransitionOrderCommandHandler.
type TransitionOrderCommand struct {
	orderID        kernel.UUID
	actor          actor.Actor
	target         order.Status
	expected       *order.Status
	patch          order.Patch
	driverLocation *kernel.GeoPoint

	guard guard.ConstructorGuard
}

// NewTransitionOrderCommand builds a generic status change. When expected is
// not nil the change is rejected with errs.ConflictError unless the order is
// currently in that status.
func NewTransitionOrderCommand(
	orderID kernel.UUID,
	a actor.Actor,
	target order.Status,
	expected *order.Status,
	patch order.Patch,
) (TransitionOrderCommand, error) {
	if err := errors.Join(orderID.Validate(), a.Validate(), target.Validate()); err != nil {
		return TransitionOrderCommand{}, err
	}
	if expected != nil {
		if err := expected.Validate(); err != nil {
			return TransitionOrderCommand{}, err
		}
	}

	return TransitionOrderCommand{
		orderID:  orderID,
		actor:    a,
		target:   target,
		expected: expected,
		patch:    patch,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// NewCancelOrderCommand cancels an order from any non-terminal status.
func NewCancelOrderCommand(orderID kernel.UUID, a actor.Actor) (TransitionOrderCommand, error) {
	return NewTransitionOrderCommand(orderID, a, order.StatusCancelled, nil, order.Patch{})
}

// NewStartCookingCommand assigns a chef and moves the order to COOKING.
// An empty chefID assigns the acting kitchen staff member.
func NewStartCookingCommand(orderID kernel.UUID, a actor.Actor, chefID string) (TransitionOrderCommand, error) {
	return NewTransitionOrderCommand(orderID, a, order.StatusCooking, nil, order.Patch{KitchenStaffID: chefID})
}

// NewMarkReadyCommand moves a COOKING order to READY.
func NewMarkReadyCommand(orderID kernel.UUID, a actor.Actor) (TransitionOrderCommand, error) {
	return NewTransitionOrderCommand(orderID, a, order.StatusReady, nil, order.Patch{})
}

// NewUpdateDeliveryStatusCommand is the driver's status report. Only
// DELIVERING and DELIVERED are accepted; location, when given, updates the
// driver's position.
func NewUpdateDeliveryStatusCommand(
	orderID kernel.UUID,
	a actor.Actor,
	target order.Status,
	location *kernel.GeoPoint,
	note string,
) (TransitionOrderCommand, error) {
	if target != order.StatusDelivering && target != order.StatusDelivered {
		return TransitionOrderCommand{}, errs.NewValueIsInvalidErrorWithCause("status",
			fmt.Errorf("%s is not a delivery status", target))
	}
	if location != nil {
		if err := location.Validate(); err != nil {
			return TransitionOrderCommand{}, err
		}
	}

	cmd, err := NewTransitionOrderCommand(orderID, a, target, nil, order.Patch{Note: note})
	if err != nil {
		return TransitionOrderCommand{}, err
	}
	cmd.driverLocation = location
	return cmd, nil
}

func (c TransitionOrderCommand) Validate() error {
	return c.guard.Validate(ErrTransitionOrderCommandIsNotConstructed)
}

func (c TransitionOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c TransitionOrderCommand) Actor() actor.Actor {
	return c.actor
}

func (c TransitionOrderCommand) Target() order.Status {
	return c.target
}

// Expected is the status the caller believes the order is in, or nil.
func (c TransitionOrderCommand) Expected() *order.Status {
	return c.expected
}

func (c TransitionOrderCommand) Patch() order.Patch {
	return c.patch
}

func (c TransitionOrderCommand) DriverLocation() *kernel.GeoPoint {
	return c.driverLocation
}
