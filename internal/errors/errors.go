// Package errors provides sentinel errors and custom error types for the
// forgeterm application. Use errors.Is() and errors.As() to check for
// specific error types.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	// ErrUnknownOperation indicates the engine was asked for an operation
	// name outside the supported set
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrEngineUnavailable indicates no engine caller is attached to the
	// session
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrNotRepository indicates the engine's directory is not a git
	// repository
	ErrNotRepository = errors.New("not a git repository")

	// ErrEmptyCommit indicates a commit was requested with nothing staged
	ErrEmptyCommit = errors.New("nothing to commit")

	// ErrRemoteCall indicates a transport-level engine call failed
	ErrRemoteCall = errors.New("remote call failed")
)

// UnknownOperationError reports an operation name the engine does not serve
type UnknownOperationError struct {
	Op string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Op)
}

// Is returns true if the target error is ErrUnknownOperation
func (e *UnknownOperationError) Is(target error) bool {
	return target == ErrUnknownOperation
}

// NewUnknownOperationError creates a new UnknownOperationError
func NewUnknownOperationError(op string) *UnknownOperationError {
	return &UnknownOperationError{Op: op}
}

// RemoteError represents a failure reported by an out-of-process engine.
// Message carries the engine's own wording and is surfaced verbatim in
// command diagnostics.
type RemoteError struct {
	Op      string
	Message string
	Status  int // HTTP status when the transport is HTTP, else 0
	Err     error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is returns true if the target error is ErrRemoteCall
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}

// NewRemoteError creates a new RemoteError
func NewRemoteError(op, message string, status int, err error) *RemoteError {
	return &RemoteError{
		Op:      op,
		Message: message,
		Status:  status,
		Err:     err,
	}
}
