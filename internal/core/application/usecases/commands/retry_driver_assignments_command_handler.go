package commands

import (
	"context"
	"log/slog"
)

type DriverAssigner interface {
	Handle(ctx context.Context, command AssignDriverCommand) (AssignDriverResult, error)
}

// RetryResult counts the outcomes of one retry run.
type RetryResult struct {
	Attempted int
	Assigned  int
	Waiting   int
	Failed    int
}

// RetryDriverAssignmentsCommandHandler feeds waiting orders back into the
// assignment workflow, oldest first. Each order is an independent attempt: a
// conflict or failure on one does not stop the others.
type RetryDriverAssignmentsCommandHandler struct {
	uowFactory OrderUoWFactory
	assigner   DriverAssigner
	logger     *slog.Logger
}

func NewRetryDriverAssignmentsCommandHandler(
	uowFactory OrderUoWFactory,
	assigner DriverAssigner,
	logger *slog.Logger,
) RetryDriverAssignmentsCommandHandler {
	return RetryDriverAssignmentsCommandHandler{
		uowFactory: uowFactory,
		assigner:   assigner,
		logger:     logger.With("component", "RetryDriverAssignmentsCommandHandler"),
	}
}

func (h RetryDriverAssignmentsCommandHandler) Handle(
	ctx context.Context,
	command RetryDriverAssignmentsCommand,
) (RetryResult, error) {
	if err := command.Validate(); err != nil {
		return RetryResult{}, err
	}

	waiting, err := h.uowFactory.Create().OrderRepository().ListReadyUnassigned(ctx, command.Limit())
	if err != nil {
		return RetryResult{}, err
	}

	var result RetryResult
	for _, o := range waiting {
		if ctx.Err() != nil {
			break
		}
		result.Attempted++

		cmd, cmdErr := NewAssignDriverCommand(o.ID(), nil)
		if cmdErr != nil {
			result.Failed++
			continue
		}
		assigned, assignErr := h.assigner.Handle(ctx, cmd)
		switch {
		case assignErr != nil:
			result.Failed++
			h.logger.WarnContext(ctx, "assignment retry failed", "order_id", o.ID().String(), "error", assignErr)
		case assigned.Assigned:
			result.Assigned++
		default:
			result.Waiting++
		}
	}

	if result.Attempted > 0 {
		h.logger.InfoContext(ctx, "assignment retry finished",
			"attempted", result.Attempted, "assigned", result.Assigned,
			"waiting", result.Waiting, "failed", result.Failed)
	}
	return result, nil
}
