package services

import (
	"errors"
	"fmt"

	"github.com/dukex/fleetflow/pkg/persistence"
)

// Errors callers map to a 400 response.
var (
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrWorkflowNil      = errors.New("workflow cannot be nil")
	ErrInvalidWorkflow  = errors.New("invalid workflow")
)

// ErrWorkflowNotFound is returned when a workflow id has no stored workflow.
var ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

// ServiceError attaches the failing operation and a readable detail to one
// of the sentinel errors above.
type ServiceError struct {
	Op     string
	Detail string
	Err    error
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Detail)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err was caused by the caller's input.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidSortField, ErrInvalidSortOrder, ErrWorkflowNil, ErrInvalidWorkflow} {
		if errors.Is(err, target) {
			return true
		}
	}

	return false
}

func newServiceError(op string, err error, format string, args ...any) *ServiceError {
	return &ServiceError{Op: op, Detail: fmt.Sprintf(format, args...), Err: err}
}
