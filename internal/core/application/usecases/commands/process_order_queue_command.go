package commands

import (
	"errors"

	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var ErrProcessOrderQueueCommandIsNotConstructed = errors.New(
	"ProcessOrderQueueCommand must be created via NewProcessOrderQueueCommand constructor",
)

// QueueMessage is one raw work queue delivery: the broker's message id and
// the JSON encoded ports.OrderQueueMessage.
type QueueMessage struct {
	ID   string
	Body []byte
}

type ProcessOrderQueueCommand struct {
	messages []QueueMessage

	guard guard.ConstructorGuard
}

func NewProcessOrderQueueCommand(messages []QueueMessage) (ProcessOrderQueueCommand, error) {
	if len(messages) == 0 {
		return ProcessOrderQueueCommand{}, errs.NewValueIsRequiredError("messages")
	}
	for _, m := range messages {
		if m.ID == "" {
			return ProcessOrderQueueCommand{}, errs.NewValueIsRequiredError("message id")
		}
	}

	return ProcessOrderQueueCommand{
		messages: append([]QueueMessage(nil), messages...),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c ProcessOrderQueueCommand) Validate() error {
	return c.guard.Validate(ErrProcessOrderQueueCommandIsNotConstructed)
}

func (c ProcessOrderQueueCommand) Messages() []QueueMessage {
	return append([]QueueMessage(nil), c.messages...)
}
