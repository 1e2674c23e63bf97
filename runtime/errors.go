// Package runtime provides the error taxonomy shared by the query compiler and the
// document adapter.
package runtime

import (
	"errors"
	"fmt"
)

// Status codes a document client reports.
const (
	// StatusNotFound marks a missing resource.
	StatusNotFound = 404
	// StatusConflict marks a create for an id that already exists.
	StatusConflict = 409
	// StatusPreconditionFailed marks an If-Match etag mismatch.
	StatusPreconditionFailed = 412
)

// Error types for compilation and adapter operations.
var (
	// ErrUnsupportedOperator is returned when a filter uses an operator no registry knows.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned when an argument has the wrong shape.
	ErrValidation = errors.New("validation failed")

	// ErrRemote is returned when the document client reports a failure.
	ErrRemote = errors.New("remote operation failed")
)

// UnsupportedOperatorError reports an operator symbol that could not be resolved.
type UnsupportedOperatorError struct {
	Operator string
}

// Error implements the error interface.
func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("unsupported operator %q", e.Operator)
}

// Is checks if the error is ErrUnsupportedOperator.
func (e *UnsupportedOperatorError) Is(target error) bool {
	return target == ErrUnsupportedOperator
}

// NotFoundError is returned when a record is not found.
type NotFoundError struct {
	Collection string
	ID         string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("no %s found", e.Collection)
	}
	return fmt.Sprintf("no %s found with id %q", e.Collection, e.ID)
}

// Is checks if the error is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError reports an argument of the wrong shape.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid argument: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is checks if the error is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// RemoteOperationError represents a failure reported by the document client.
type RemoteOperationError struct {
	Op         string
	Link       string
	StatusCode int
	Cause      error
}

// Error implements the error interface.
func (e *RemoteOperationError) Error() string {
	msg := e.Op
	if e.Link != "" {
		msg += " " + e.Link
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *RemoteOperationError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is ErrRemote.
func (e *RemoteOperationError) Is(target error) bool {
	return target == ErrRemote
}

// NewRemoteError creates a new RemoteOperationError.
func NewRemoteError(op, link string, status int, cause error) *RemoteOperationError {
	return &RemoteOperationError{
		Op:         op,
		Link:       link,
		StatusCode: status,
		Cause:      cause,
	}
}

// StatusCode returns the status code carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var remote *RemoteOperationError
	if errors.As(err, &remote) {
		return remote.StatusCode
	}
	return 0
}

// IsStatus checks if err carries the given remote status code.
func IsStatus(err error, code int) bool {
	return err != nil && StatusCode(err) == code
}

// IsRemoteNotFound checks if err is the client's not-found signal.
func IsRemoteNotFound(err error) bool {
	return IsStatus(err, StatusNotFound)
}

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnsupportedOperator checks if an error is an unsupported operator error.
func IsUnsupportedOperator(err error) bool {
	return errors.Is(err, ErrUnsupportedOperator)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
