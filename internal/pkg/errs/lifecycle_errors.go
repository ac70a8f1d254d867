package errs

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTransition     = errors.New("invalid transition")
	ErrForbidden             = errors.New("forbidden")
	ErrConflict              = errors.New("conflict")
	ErrDownstreamUnavailable = errors.New("downstream unavailable")

	// ErrGone marks a push target (a WebSocket connection) that no longer exists.
	// It never reaches an API caller; the broadcast path uses it to prune the registry.
	ErrGone = errors.New("gone")
)

// InvalidTransitionError reports a status change that is not an edge of the
// order state machine, including any change out of a terminal state.
type InvalidTransitionError struct {
	From string
	To   string
}

func NewInvalidTransitionError(from, to fmt.Stringer) *InvalidTransitionError {
	return &InvalidTransitionError{From: from.String(), To: to.String()}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s -> %s", ErrInvalidTransition, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// ForbiddenError reports an actor that may not perform the requested action.
type ForbiddenError struct {
	Role   string
	Action string
}

func NewForbiddenError(role fmt.Stringer, action string) *ForbiddenError {
	return &ForbiddenError{Role: role.String(), Action: action}
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s: role %q may not %s", ErrForbidden, e.Role, e.Action)
}

func (e *ForbiddenError) Unwrap() error {
	return ErrForbidden
}

// ConflictError reports a conditional write that lost against a concurrent
// writer, or an insert of an identifier that already exists. The caller must
// re-read before retrying.
type ConflictError struct {
	Entity string
	ID     string
	Cause  error
}

func NewConflictError(entity, id string) *ConflictError {
	return &ConflictError{Entity: entity, ID: id}
}

func NewConflictErrorWithCause(entity, id string, cause error) *ConflictError {
	return &ConflictError{Entity: entity, ID: id, Cause: cause}
}

func (e *ConflictError) Error() string {
	return withCause(fmt.Sprintf("%s: %s %s was modified concurrently", ErrConflict, e.Entity, e.ID), e.Cause)
}

func (e *ConflictError) Unwrap() error {
	return ErrConflict
}

// DownstreamUnavailableError wraps a failure of an external dependency
// (event bus, notification topic, work queue, registry).
type DownstreamUnavailableError struct {
	Dependency string
	Cause      error
}

func NewDownstreamUnavailableError(dependency string, cause error) *DownstreamUnavailableError {
	return &DownstreamUnavailableError{Dependency: dependency, Cause: cause}
}

func (e *DownstreamUnavailableError) Error() string {
	return withCause(fmt.Sprintf("%s: %s", ErrDownstreamUnavailable, e.Dependency), e.Cause)
}

func (e *DownstreamUnavailableError) Unwrap() error {
	return ErrDownstreamUnavailable
}
