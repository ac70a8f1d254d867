package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// TransitionOrderResult is the order after the change and the outcome of
// publishing the events the change produced.
type TransitionOrderResult struct {
	Order     *order.Order
	Published ports.PublishResult
}

// TransitionOrderCommandHandler applies a status change with the conditional
// write discipline of the order store:
//
//  1. read the order and, if the caller named an expected status, compare it
//  2. let the aggregate check the lifecycle guard and the actor's access
//  3. write the order conditionally on the status it was read with
//  4. after commit, publish the returned events
//
// Drivers are kept in step in the same transaction. A driver taking a READY
// order is marked assigned (errs.ConflictError when not available), a
// DELIVERED order or a cancelled DELIVERING order releases its driver, and a
// reported location updates the reporting driver's position.
type TransitionOrderCommandHandler struct {
	uowFactory UoWFactory
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewTransitionOrderCommandHandler(
	uowFactory UoWFactory,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) TransitionOrderCommandHandler {
	return TransitionOrderCommandHandler{
		uowFactory: uowFactory,
		publisher:  publisher,
		logger:     logger.With("component", "TransitionOrderCommandHandler"),
	}
}

// Handle returns errs.ObjectNotFoundError, errs.InvalidTransitionError,
// errs.ForbiddenError or errs.ConflictError without changing anything, or the
// updated order.
func (h TransitionOrderCommandHandler) Handle(
	ctx context.Context,
	command TransitionOrderCommand,
) (TransitionOrderResult, error) {
	if err := command.Validate(); err != nil {
		return TransitionOrderResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return TransitionOrderResult{}, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orders := uow.OrderRepository()
	o, err := orders.Get(ctx, command.OrderID())
	if err != nil {
		return TransitionOrderResult{}, err
	}

	if expected := command.Expected(); expected != nil && *expected != o.Status() {
		return TransitionOrderResult{}, errs.NewConflictErrorWithCause("order", o.ID().String(),
			errors.New("expected status "+expected.String()+", found "+o.Status().String()))
	}

	from := o.Status()
	events, err := o.Transition(command.Actor(), command.Target(), command.Patch(), time.Now())
	if err != nil {
		return TransitionOrderResult{}, err
	}

	if err = orders.Update(ctx, o); err != nil {
		return TransitionOrderResult{}, err
	}

	if err = h.syncDriver(ctx, uow.DriverRepository(), o, from, command); err != nil {
		return TransitionOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return TransitionOrderResult{}, err
	}

	published := h.publisher.PublishBatch(ctx, events)

	h.logger.InfoContext(ctx, "order transitioned",
		"order_id", o.ID().String(),
		"from", from.String(),
		"to", o.Status().String(),
		"actor_id", command.Actor().ID(),
		"actor_role", command.Actor().Role().String(),
	)

	return TransitionOrderResult{Order: o, Published: published}, nil
}

func (h TransitionOrderCommandHandler) syncDriver(
	ctx context.Context,
	drivers ports.DriverRepository,
	o *order.Order,
	from order.Status,
	command TransitionOrderCommand,
) error {
	assignee := o.DriverID()
	isDriver := command.Actor().Role() == actor.RoleDriver
	take := isDriver && from == order.StatusReady && o.Status() == order.StatusDelivering
	release := assignee != "" &&
		(o.Status() == order.StatusDelivered || (o.Status() == order.StatusCancelled && from == order.StatusDelivering))

	// A reported location moves the reporting driver.
	location := command.DriverLocation()
	reporter := ""
	if location != nil && isDriver {
		reporter = command.Actor().ID()
	}

	if take || release {
		d, err := drivers.Get(ctx, assignee)
		switch {
		case errors.Is(err, errs.ErrObjectNotFound) && !take:
			h.logger.WarnContext(ctx, "driver of order not found, skipping driver update",
				"order_id", o.ID().String(), "driver_id", assignee)
			if reporter == assignee {
				return nil
			}
		case err != nil:
			return err
		default:
			if take {
				if err = d.MarkAssigned(); err != nil {
					return errs.NewConflictErrorWithCause("driver", assignee, err)
				}
			}
			if release {
				if err = d.CompleteDelivery(); err != nil {
					h.logger.WarnContext(ctx, "driver had no active delivery to release",
						"order_id", o.ID().String(), "driver_id", assignee)
				}
			}
			if reporter == assignee {
				if err = d.MoveTo(*location); err != nil {
					return err
				}
				reporter = ""
			}
			if err = drivers.Update(ctx, d); err != nil {
				return err
			}
		}
	}

	if reporter == "" {
		return nil
	}
	d, err := drivers.Get(ctx, reporter)
	if errors.Is(err, errs.ErrObjectNotFound) {
		h.logger.WarnContext(ctx, "reporting driver not found, location dropped",
			"order_id", o.ID().String(), "driver_id", reporter)
		return nil
	}
	if err != nil {
		return err
	}
	if err = d.MoveTo(*location); err != nil {
		return err
	}
	return drivers.Update(ctx, d)
}
