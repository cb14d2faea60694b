// Package services implements the application layer over the flow
// repository and session store: flow CRUD with structural validation, test
// session orchestration and idle-session sweeping.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/botfluent/botfluent/pkg/persistence"
)

// Business logic errors mapping to 4xx responses at the API boundary.
var (
	ErrFlowNotFound    = persistence.ErrFlowNotFound
	ErrSessionNotFound = persistence.ErrSessionNotFound

	ErrFlowNil          = errors.New("flow cannot be nil")
	ErrFlowNameRequired = errors.New("flow name is required")
	ErrFlowInvalid      = errors.New("flow is structurally invalid")
	ErrSessionNotLive   = errors.New("session is not awaiting input")
	ErrInputMissing     = errors.New("either an option id or text must be supplied")
	ErrInputAmbiguous   = errors.New("an option id and text cannot both be supplied")
)

// InvalidFlowError carries the validator's message list alongside the
// sentinel.
type InvalidFlowError struct {
	Errors []string
}

func (e *InvalidFlowError) Error() string {
	return fmt.Sprintf("%v: %s", ErrFlowInvalid, strings.Join(e.Errors, "; "))
}

func (e *InvalidFlowError) Unwrap() error {
	return ErrFlowInvalid
}

// IsValidationError checks if an error should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrFlowNil) ||
		errors.Is(err, ErrFlowNameRequired) ||
		errors.Is(err, ErrFlowInvalid) ||
		errors.Is(err, ErrInputMissing) ||
		errors.Is(err, ErrInputAmbiguous)
}

// IsConflictError checks if an error should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrSessionNotLive)
}
