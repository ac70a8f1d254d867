package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/core/domain/model/order"
	"orderflow/internal/core/domain/services"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// AssignmentOutcome explains the result of a driver assignment attempt.
type AssignmentOutcome string

const (
	OutcomeAssigned        AssignmentOutcome = "assigned"
	OutcomeNoDriverInRange AssignmentOutcome = "no_driver_in_range"
	OutcomeAlreadyAssigned AssignmentOutcome = "already_assigned"
	OutcomeNotReady        AssignmentOutcome = "not_ready"
)

// AssignDriverResult is returned for every attempt that did not fail.
// Assigned is false when the order was left untouched.
type AssignDriverResult struct {
	Assigned  bool
	OrderID   string
	DriverID  string
	Outcome   AssignmentOutcome
	Published ports.PublishResult
}

// AssignDriverCommandHandler runs the driver assignment workflow:
//
//	Validate  the order must be READY; DELIVERING with a driver is a no-op
//	Select    first available driver of the tenant within 3 km of the site
//	Persist   order READY -> DELIVERING with the driver, driver marked busy,
//	          both conditional writes in one transaction
//	Notify    publish OrderStatusChanged and OrderAssigned; failures are logged
//	          and never undo the assignment
//
// Finding no driver is not an error: the order stays READY and the scheduler
// retries later. Losing a race to another writer returns errs.ConflictError.
type AssignDriverCommandHandler struct {
	uowFactory UoWFactory
	selector   services.DriverSelector
	publisher  ports.EventPublisher
	logger     *slog.Logger
}

func NewAssignDriverCommandHandler(
	uowFactory UoWFactory,
	selector services.DriverSelector,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) AssignDriverCommandHandler {
	return AssignDriverCommandHandler{
		uowFactory: uowFactory,
		selector:   selector,
		publisher:  publisher,
		logger:     logger.With("component", "AssignDriverCommandHandler"),
	}
}

func (h AssignDriverCommandHandler) Handle(ctx context.Context, command AssignDriverCommand) (AssignDriverResult, error) {
	if err := command.Validate(); err != nil {
		return AssignDriverResult{}, err
	}

	result := AssignDriverResult{OrderID: command.OrderID().String()}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return result, err
	}
	defer func() {
		_ = uow.Rollback(ctx)
	}()

	// Validate
	orders := uow.OrderRepository()
	o, err := orders.Get(ctx, command.OrderID())
	if err != nil {
		return result, err
	}
	if requester := command.RequestedBy(); requester != nil {
		if err = authorizeManualTrigger(*requester, o); err != nil {
			return result, err
		}
	}

	switch {
	case o.Status() == order.StatusDelivering && o.DriverID() != "":
		result.DriverID = o.DriverID()
		result.Outcome = OutcomeAlreadyAssigned
		return result, nil
	case o.Status() != order.StatusReady:
		result.Outcome = OutcomeNotReady
		return result, nil
	}

	// Select
	site, err := uow.TenantRepository().Get(ctx, o.TenantID())
	if err != nil {
		return result, err
	}
	drivers := uow.DriverRepository()
	candidates, err := drivers.ListAvailableByTenant(ctx, o.TenantID())
	if err != nil {
		return result, err
	}

	selected, err := h.selector.Select(site.Location(), candidates)
	if errors.Is(err, services.ErrNoDriverInRange) {
		h.logger.InfoContext(ctx, "no driver in range, order stays ready",
			"order_id", result.OrderID, "tenant_id", o.TenantID(), "candidates", len(candidates))
		result.Outcome = OutcomeNoDriverInRange
		return result, nil
	}
	if err != nil {
		return result, err
	}

	// Persist
	driverActor, err := actor.NewActor(selected.ID(), actor.RoleDriver, o.TenantID())
	if err != nil {
		return result, err
	}
	events, err := o.Transition(driverActor, order.StatusDelivering, order.Patch{DriverID: selected.ID()}, time.Now())
	if err != nil {
		return result, err
	}
	if err = selected.MarkAssigned(); err != nil {
		return result, errs.NewConflictErrorWithCause("driver", selected.ID(), err)
	}
	if err = orders.Update(ctx, o); err != nil {
		return result, err
	}
	if err = drivers.Update(ctx, selected); err != nil {
		return result, err
	}
	if err = uow.Commit(ctx); err != nil {
		return result, err
	}

	// Notify
	result.Assigned = true
	result.DriverID = selected.ID()
	result.Outcome = OutcomeAssigned
	result.Published = h.publisher.PublishBatch(ctx, events)
	if result.Published.Failed > 0 {
		h.logger.WarnContext(ctx, "driver assigned but notification failed",
			"order_id", result.OrderID, "driver_id", result.DriverID, "failed", result.Published.Failed)
	}

	h.logger.InfoContext(ctx, "driver assigned",
		"order_id", result.OrderID, "driver_id", result.DriverID)

	return result, nil
}

// authorizeManualTrigger allows dispatch-side staff of the order's tenant to
// start the workflow through the API.
func authorizeManualTrigger(a actor.Actor, o *order.Order) error {
	switch a.Role() {
	case actor.RoleDispatcher, actor.RoleSiteAdmin, actor.RoleKitchenStaff:
		return o.Authorize(a)
	default:
		return errs.NewForbiddenError(a.Role(), "trigger driver assignment")
	}
}
