package commands

import (
	"errors"
	"strings"

	"orderflow/internal/core/domain/model/actor"
	"orderflow/internal/pkg/errs"
	"orderflow/internal/pkg/guard"
)

var (
	ErrRegisterConnectionCommandIsNotConstructed = errors.New(
		"RegisterConnectionCommand must be created via NewRegisterConnectionCommand constructor",
	)
	ErrDeregisterConnectionCommandIsNotConstructed = errors.New(
		"DeregisterConnectionCommand must be created via NewDeregisterConnectionCommand constructor",
	)
)

// RegisterConnectionCommand records a freshly opened WebSocket connection.
// identity is nil for anonymous clients.
type RegisterConnectionCommand struct {
	connectionID string
	identity     *actor.Actor

	guard guard.ConstructorGuard
}

func NewRegisterConnectionCommand(connectionID string, identity *actor.Actor) (RegisterConnectionCommand, error) {
	if strings.TrimSpace(connectionID) == "" {
		return RegisterConnectionCommand{}, errs.NewValueIsRequiredError("connectionId")
	}
	if identity != nil {
		if err := identity.Validate(); err != nil {
			return RegisterConnectionCommand{}, err
		}
	}

	return RegisterConnectionCommand{
		connectionID: connectionID,
		identity:     identity,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c RegisterConnectionCommand) Validate() error {
	return c.guard.Validate(ErrRegisterConnectionCommandIsNotConstructed)
}

func (c RegisterConnectionCommand) ConnectionID() string {
	return c.connectionID
}

func (c RegisterConnectionCommand) Identity() *actor.Actor {
	return c.identity
}

type DeregisterConnectionCommand struct {
	connectionID string

	guard guard.ConstructorGuard
}

func NewDeregisterConnectionCommand(connectionID string) (DeregisterConnectionCommand, error) {
	if strings.TrimSpace(connectionID) == "" {
		return DeregisterConnectionCommand{}, errs.NewValueIsRequiredError("connectionId")
	}

	return DeregisterConnectionCommand{
		connectionID: connectionID,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

func (c DeregisterConnectionCommand) Validate() error {
	return c.guard.Validate(ErrDeregisterConnectionCommandIsNotConstructed)
}

func (c DeregisterConnectionCommand) ConnectionID() string {
	return c.connectionID
}
