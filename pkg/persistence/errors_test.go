package persistence_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
)

func TestStandardizedErrors(t *testing.T) {
	t.Parallel()

	t.Run("error checking functions work correctly", func(t *testing.T) {
		workflowErr := persistence.NewWorkflowError("GetByID", "workflow-123", persistence.ErrWorkflowNotFound)
		executionErr := persistence.NewExecutionError("Append", "exec-1", "workflow-123", persistence.ErrExecutionAlreadyExists)

		assert.True(t, persistence.IsWorkflowNotFound(workflowErr))
		assert.True(t, persistence.IsExecutionAlreadyExists(executionErr))
		assert.False(t, persistence.IsWorkflowNotFound(executionErr))

		assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", workflowErr), persistence.ErrWorkflowNotFound))
		assert.True(t, persistence.IsInvalidSortField(fmt.Errorf("%w: size", persistence.ErrInvalidSortField)))
	})

	t.Run("workflow error contains context", func(t *testing.T) {
		err := persistence.NewWorkflowError("Delete", "workflow-123", persistence.ErrWorkflowNotFound)

		assert.Contains(t, err.Error(), "Delete")
		assert.Contains(t, err.Error(), "workflow-123")
		assert.Contains(t, err.Error(), "workflow not found")
	})

	t.Run("execution error contains context", func(t *testing.T) {
		err := persistence.NewExecutionError("GetByID", "exec-9", "wf-2", persistence.ErrExecutionNotFound)

		assert.Contains(t, err.Error(), "exec-9")
		assert.Contains(t, err.Error(), "wf-2")
		assert.Contains(t, err.Error(), "execution not found")
	})
}

func TestVisibleInScope(t *testing.T) {
	assert.True(t, persistence.VisibleInScope("fleet-a", ""))
	assert.True(t, persistence.VisibleInScope("", "fleet-a"))
	assert.True(t, persistence.VisibleInScope("fleet-a", "fleet-a"))
	assert.False(t, persistence.VisibleInScope("fleet-b", "fleet-a"))
}
