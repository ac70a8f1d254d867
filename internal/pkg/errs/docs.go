// Package errs provides the standardized error types of the order service.
// Every error type follows the same shape:
//   - a sentinel error variable (e.g., ErrObjectNotFound)
//   - a struct type carrying the error details
//   - constructors with and without a cause
//   - Error() for formatting and Unwrap() returning the sentinel
//
// Callers classify failures with errors.Is against the sentinels; the HTTP
// adapter maps each sentinel to a status code.
//
// Validation errors (ValueIsRequiredError, ValueIsInvalidError,
// ValueIsOutOfRangeError) describe bad input. Lifecycle errors
// (InvalidTransitionError, ForbiddenError, ConflictError) describe a rejected
// order state change. DownstreamUnavailableError wraps a failing dependency
// such as the event bus, and ErrGone marks a push target that no longer exists.
package errs
