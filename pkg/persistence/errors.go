package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations use.
var (
	// ErrFlowNotFound indicates no flow exists under the given identifier.
	ErrFlowNotFound = errors.New("flow not found")

	// ErrSessionNotFound indicates no session exists under the given
	// identifier, or it has already expired.
	ErrSessionNotFound = errors.New("session not found")
)

// FlowError wraps flow storage errors with operation context.
type FlowError struct {
	Op     string
	FlowID string
	Err    error
}

func (e *FlowError) Error() string {
	return fmt.Sprintf("%s operation failed for flow %s: %v", e.Op, e.FlowID, e.Err)
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func (e *FlowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowError creates a flow error with context.
func NewFlowError(op, flowID string, err error) *FlowError {
	return &FlowError{
		Op:     op,
		FlowID: flowID,
		Err:    err,
	}
}

// IsFlowNotFound checks if an error indicates a missing flow.
func IsFlowNotFound(err error) bool {
	return errors.Is(err, ErrFlowNotFound)
}

// IsSessionNotFound checks if an error indicates a missing session.
func IsSessionNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}
