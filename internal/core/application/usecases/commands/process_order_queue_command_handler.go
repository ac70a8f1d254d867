package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"orderflow/internal/core/domain/model/kernel"
	"orderflow/internal/core/ports"
	"orderflow/internal/pkg/errs"
)

// QueueBatchResult lists message ids by outcome. The consumer acks Processed
// and nacks Failed.
type QueueBatchResult struct {
	Processed []string
	Failed    []string
}

// ProcessOrderQueueCommandHandler marks the orders named by a batch of work
// queue messages as processed. A bad message fails alone; its siblings still
// complete.
type ProcessOrderQueueCommandHandler struct {
	uowFactory OrderUoWFactory
	logger     *slog.Logger
}

func NewProcessOrderQueueCommandHandler(uowFactory OrderUoWFactory, logger *slog.Logger) ProcessOrderQueueCommandHandler {
	return ProcessOrderQueueCommandHandler{
		uowFactory: uowFactory,
		logger:     logger.With("component", "ProcessOrderQueueCommandHandler"),
	}
}

func (h ProcessOrderQueueCommandHandler) Handle(
	ctx context.Context,
	command ProcessOrderQueueCommand,
) (QueueBatchResult, error) {
	if err := command.Validate(); err != nil {
		return QueueBatchResult{}, err
	}

	var result QueueBatchResult
	repo := h.uowFactory.Create().OrderRepository()

	for _, m := range command.Messages() {
		if err := h.process(ctx, repo, m); err != nil {
			h.logger.WarnContext(ctx, "queue message failed",
				"message_id", m.ID, "error", err)
			result.Failed = append(result.Failed, m.ID)
			continue
		}
		result.Processed = append(result.Processed, m.ID)
	}

	h.logger.InfoContext(ctx, "queue batch handled",
		"processed", len(result.Processed), "failed", len(result.Failed))

	return result, nil
}

func (h ProcessOrderQueueCommandHandler) process(ctx context.Context, repo ports.OrderRepository, m QueueMessage) error {
	var msg ports.OrderQueueMessage
	if err := json.Unmarshal(m.Body, &msg); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("queue message body", err)
	}

	orderID, err := kernel.UUIDFromString(msg.OrderID)
	if err != nil {
		return err
	}

	return repo.MarkProcessed(ctx, orderID, time.Now())
}
