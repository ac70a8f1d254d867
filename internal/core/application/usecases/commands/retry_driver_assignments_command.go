package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

// DefaultRetryBatchSize bounds how many waiting orders one retry run handles.
const DefaultRetryBatchSize = 50

var ErrRetryDriverAssignmentsCommandIsNotConstructed = errors.New(
	"RetryDriverAssignmentsCommand must be created via NewRetryDriverAssignmentsCommand constructor",
)

// RetryDriverAssignmentsCommand re-triggers the assignment workflow for READY
// orders that are still waiting for a driver.
type RetryDriverAssignmentsCommand struct {
	limit int

	guard guard.ConstructorGuard
}

func NewRetryDriverAssignmentsCommand(limit int) (RetryDriverAssignmentsCommand, error) {
	if limit <= 0 {
		return RetryDriverAssignmentsCommand{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	return RetryDriverAssignmentsCommand{
		limit: limit,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c RetryDriverAssignmentsCommand) Validate() error {
	return c.guard.Validate(ErrRetryDriverAssignmentsCommandIsNotConstructed)
}

func (c RetryDriverAssignmentsCommand) Limit() int {
	return c.limit
}
