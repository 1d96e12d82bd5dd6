package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the framework.
type ErrorCode string

// Workflow error codes
const (
	// ErrInvalidTransition marks a state update that violates a declared
	// invariant, e.g. an illegal review_status change. The instance keeps
	// its prior checkpoint.
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
	// ErrRoutingError marks a router that received a state combination it
	// cannot classify. Fatal for the instance; never silently defaulted.
	ErrRoutingError ErrorCode = "ROUTING_ERROR"
	// ErrStepFailure marks a step whose internal logic failed. Fatal for the
	// current attempt; the last checkpoint is preserved.
	ErrStepFailure ErrorCode = "STEP_FAILURE"
	// ErrNeedsExternalInput is the expected suspension signal, not a failure.
	ErrNeedsExternalInput ErrorCode = "NEEDS_EXTERNAL_INPUT"
	// ErrCircuitBreakerTripped tags a terminal state forced by the revision
	// cap rather than reviewer approval.
	ErrCircuitBreakerTripped ErrorCode = "CIRCUIT_BREAKER_TRIPPED"
)

// Instance error codes
const (
	ErrInstanceNotFound  ErrorCode = "INSTANCE_NOT_FOUND"
	ErrInstanceBusy      ErrorCode = "INSTANCE_BUSY"
	ErrInstanceNotPaused ErrorCode = "INSTANCE_NOT_PAUSED"
	ErrCheckpointCorrupt ErrorCode = "CHECKPOINT_CORRUPT"
	ErrGraphInvalid      ErrorCode = "GRAPH_INVALID"
)

// External collaborator error codes
const (
	ErrModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	ErrModelResponse    ErrorCode = "MODEL_RESPONSE"
	ErrSearchFailed     ErrorCode = "SEARCH_FAILED"
	ErrNoteNotFound     ErrorCode = "NOTE_NOT_FOUND"
	ErrStoreClosed      ErrorCode = "STORE_CLOSED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Node      string    `json:"node,omitempty"`
	Retryable bool      `json:"retryable"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a new Error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode records the graph node the error originated at.
func (e *Error) WithNode(node string) *Error {
	e.Node = node
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetErrorNode extracts the node identifier tagged on an error, or "".
func GetErrorNode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Node
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}
