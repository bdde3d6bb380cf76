// Package persistence provides the storage abstraction for workflows, executions and alerts.
package persistence

import (
	"context"

	"github.com/dukex/fleetflow/pkg/models"
)

type Persistence interface {
	WorkflowRepository() WorkflowRepository
	ExecutionRepository() ExecutionRepository
	AlertRepository() AlertRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflows with their nested triggers, conditions and actions.
type WorkflowRepository interface {
	ListWorkflows(ctx context.Context, opts ListWorkflowsOptions) (*WorkflowListResult, error)
	// GetActive returns the active workflows visible to scope.
	GetActive(ctx context.Context, scope string) ([]*models.Workflow, error)
	// GetByID returns nil without error when the workflow does not exist.
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// ExecutionRepository is append-only.
type ExecutionRepository interface {
	Append(ctx context.Context, execution *models.WorkflowExecution) error
	GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error)
	// ListByWorkflow returns the newest executions first.
	ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error)
}

type AlertRepository interface {
	Save(ctx context.Context, alert *models.Alert) error
	// ListByScope returns the newest alerts first.
	ListByScope(ctx context.Context, scope string, limit int) ([]*models.Alert, error)
}

// ListWorkflowsOptions contains options for listing workflows.
type ListWorkflowsOptions struct {
	Limit  int
	Offset int

	Scope    string
	IsActive *bool

	SortBy    string
	SortOrder string
}

// WorkflowListResult contains the result of a paginated workflow query.
type WorkflowListResult struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// DefaultExecutionLimit bounds execution and alert listings when no limit is given.
const DefaultExecutionLimit = 50

// VisibleInScope reports whether a workflow stored under workflowScope applies
// to scope. Unscoped workflows apply everywhere and an empty scope sees all.
func VisibleInScope(workflowScope, scope string) bool {
	return scope == "" || workflowScope == "" || workflowScope == scope
}

// AllowedSortFields lists the ListWorkflowsOptions.SortBy values.
var AllowedSortFields = []string{"created_at", "updated_at", "name"}
