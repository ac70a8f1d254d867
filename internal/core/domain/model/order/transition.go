package order

import (
	"fmt"
	"slices"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/pkg/errs"
)

// edges lists, for each non-terminal status, the statuses it may move to.
var edges = map[Status][]Status{
	StatusCreated:    {StatusCooking, StatusCancelled},
	StatusCooking:    {StatusReady, StatusCancelled},
	StatusReady:      {StatusDelivering, StatusCancelled},
	StatusDelivering: {StatusDelivered, StatusCancelled},
}

// IsValidTransition reports whether from -> to is an edge of the lifecycle.
// Terminal statuses have no outgoing edges.
func IsValidTransition(from, to Status) bool {
	return slices.Contains(edges[from], to)
}

// CanDrive is the single capability check of the lifecycle: it reports whether
// an actor holding role may move an order from -> to. It assumes the edge is legal.
//
//	kitchen-staff  CREATED -> COOKING, COOKING -> READY
//	dispatcher     COOKING -> READY
//	driver         READY -> DELIVERING, DELIVERING -> DELIVERED
//	customer       any non-terminal -> CANCELLED
//	site-admin     any non-terminal -> CANCELLED
func CanDrive(role actor.Role, from, to Status) bool {
	switch role {
	case actor.RoleKitchenStaff:
		return (from == StatusCreated && to == StatusCooking) ||
			(from == StatusCooking && to == StatusReady)
	case actor.RoleDispatcher:
		return from == StatusCooking && to == StatusReady
	case actor.RoleDriver:
		return (from == StatusReady && to == StatusDelivering) ||
			(from == StatusDelivering && to == StatusDelivered)
	case actor.RoleCustomer, actor.RoleSiteAdmin:
		return to == StatusCancelled && !from.IsTerminal()
	default:
		return false
	}
}

// CheckTransition validates a requested status change without touching any
// state. Illegal edges, including every edge out of a terminal status, yield
// an InvalidTransitionError whatever the role; legal edges the role may not
// drive yield a ForbiddenError.
func CheckTransition(role actor.Role, from, to Status) error {
	if !IsValidTransition(from, to) {
		return errs.NewInvalidTransitionError(from, to)
	}
	if !CanDrive(role, from, to) {
		return errs.NewForbiddenError(role, fmt.Sprintf("move an order from %s to %s", from, to))
	}
	return nil
}
