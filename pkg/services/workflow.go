// Package services implements workflow management on top of persistence.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxExecutionLimit = 500

type Workflow struct {
	persistence persistence.Persistence
	validate    *validator.Validate
	logger      *slog.Logger

	store *workflow.Store
	scope string
}

// Option configures a Workflow service.
type Option func(*Workflow)

// WithStore keeps store in sync with every saved or deleted workflow visible
// to scope.
func WithStore(store *workflow.Store, scope string) Option {
	return func(w *Workflow) {
		w.store = store
		w.scope = scope
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	w := &Workflow{
		persistence: persistence,
		validate:    validator.New(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.logger = w.logger.With("module", "workflow_service")

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// ListWorkflowsRequest contains options for listing workflows.
type ListWorkflowsRequest struct {
	// Pagination
	Limit  int `validate:"min=1,max=100"`
	Offset int `validate:"min=0"`

	// Filtering
	Scope    string
	IsActive *bool

	// Sorting
	SortBy    string `validate:"oneof=created_at updated_at name"`
	SortOrder string `validate:"oneof=asc desc"`
}

// ListWorkflowsResponse contains the result of listing workflows.
type ListWorkflowsResponse struct {
	Workflows   []*models.Workflow `json:"workflows"`
	TotalCount  int64              `json:"total_count"`
	HasNextPage bool               `json:"has_next_page"`
}

// ListWorkflows retrieves workflows with filtering, sorting, and pagination.
func (w *Workflow) ListWorkflows(ctx context.Context, req ListWorkflowsRequest) (*ListWorkflowsResponse, error) {
	if err := w.validateListWorkflowsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	opts := persistence.ListWorkflowsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Scope:     req.Scope,
		IsActive:  req.IsActive,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	result, err := w.persistence.WorkflowRepository().ListWorkflows(ctx, opts)
	if err != nil {
		if persistence.IsInvalidSortField(err) {
			return nil, ErrInvalidSortField
		}

		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	return &ListWorkflowsResponse{
		Workflows:   result.Workflows,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// validateListWorkflowsRequest validates and sets defaults for the request.
func (w *Workflow) validateListWorkflowsRequest(req *ListWorkflowsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	req.Scope = strings.TrimSpace(req.Scope)

	if !slices.Contains(persistence.AllowedSortFields, req.SortBy) {
		return newServiceError("ListWorkflows", ErrInvalidSortField,
			"invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(persistence.AllowedSortFields, ", "))
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return newServiceError("ListWorkflows", ErrInvalidSortOrder,
			"invalid sort order '%s', allowed: asc, desc", req.SortOrder)
	}

	return nil
}

// FetchByID retrieves a workflow by its ID.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := w.persistence.WorkflowRepository().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, ErrWorkflowNotFound
	}

	return workflow, nil
}

// Validate checks that workflow can be saved and returns the warnings that
// do not prevent saving it.
func (w *Workflow) Validate(workflow *models.Workflow) ([]string, error) {
	if workflow == nil {
		return nil, ErrWorkflowNil
	}

	invalid := func(format string, args ...any) error {
		return newServiceError("Validate", ErrInvalidWorkflow, format, args...)
	}

	for i, trigger := range workflow.Triggers {
		if trigger == nil {
			return nil, invalid("trigger %d is empty", i)
		}
	}

	for i, condition := range workflow.Conditions {
		if condition == nil {
			return nil, invalid("condition %d is empty", i)
		}
	}

	for i, action := range workflow.Actions {
		if action == nil {
			return nil, invalid("action %d is empty", i)
		}
	}

	if err := w.validate.Struct(workflow); err != nil {
		return nil, invalid("%s", err.Error())
	}

	for _, trigger := range workflow.Triggers {
		if !trigger.Event.Valid() {
			return nil, invalid("unknown event type '%s'", trigger.Event)
		}
	}

	for _, condition := range workflow.Conditions {
		if !condition.Operator.Valid() {
			return nil, invalid("unknown operator '%s'", condition.Operator)
		}

		if !condition.LogicalOperator.Valid() {
			return nil, invalid("unknown logical operator '%s'", condition.LogicalOperator)
		}
	}

	return workflow.Warnings(), nil
}

// Create validates and adds a new workflow to the repository.
func (w *Workflow) Create(ctx context.Context, workflow *models.Workflow) (*models.Workflow, error) {
	if _, err := w.Validate(workflow); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	workflow.ID = uuid.New().String()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	workflow.DeletedAt = nil
	workflow.Scope = strings.TrimSpace(workflow.Scope)
	assignIDs(workflow)

	err := w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to create workflow: %w", err)
	}

	w.refresh(workflow)

	return workflow, nil
}

// Update replaces an existing workflow by its ID.
func (w *Workflow) Update(
	ctx context.Context,
	workflowID string,
	workflow *models.Workflow,
) (*models.Workflow, error) {
	if _, err := w.Validate(workflow); err != nil {
		return nil, err
	}

	existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		return nil, ErrWorkflowNotFound
	}

	workflow.ID = workflowID
	workflow.CreatedAt = existing.CreatedAt
	workflow.UpdatedAt = time.Now().UTC()
	workflow.DeletedAt = nil
	workflow.Scope = strings.TrimSpace(workflow.Scope)
	assignIDs(workflow)

	err = w.persistence.WorkflowRepository().Save(ctx, workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to update workflow: %w", err)
	}

	w.refresh(workflow)

	return workflow, nil
}

// Delete removes a workflow by its ID.
func (w *Workflow) Delete(ctx context.Context, workflowID string) error {
	existing, err := w.persistence.WorkflowRepository().GetByID(ctx, workflowID)
	if err != nil {
		return err
	}

	if existing == nil {
		return ErrWorkflowNotFound
	}

	err = w.persistence.WorkflowRepository().Delete(ctx, workflowID)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	if w.store != nil && w.store.Remove(workflowID) {
		w.logger.InfoContext(ctx, "Removed workflow from snapshot", "workflow_id", workflowID)
	}

	return nil
}

// ListExecutions returns the newest executions of a workflow.
func (w *Workflow) ListExecutions(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if _, err := w.FetchByID(ctx, workflowID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = persistence.DefaultExecutionLimit
	}

	if limit > maxExecutionLimit {
		limit = maxExecutionLimit
	}

	executions, err := w.persistence.ExecutionRepository().ListByWorkflow(ctx, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return executions, nil
}

// refresh mirrors a saved workflow into the snapshot. The store is left
// alone until its first load so a partial snapshot is never published.
func (w *Workflow) refresh(workflow *models.Workflow) {
	if w.store == nil || w.store.Snapshot() == nil {
		return
	}

	if workflow.IsActive && persistence.VisibleInScope(workflow.Scope, w.scope) {
		w.store.Upsert(workflow)
		w.logger.Info("Refreshed workflow in snapshot", "workflow_id", workflow.ID)

		return
	}

	if w.store.Remove(workflow.ID) {
		w.logger.Info("Removed workflow from snapshot", "workflow_id", workflow.ID)
	}
}

func assignIDs(workflow *models.Workflow) {
	for _, trigger := range workflow.Triggers {
		if trigger.ID == "" {
			trigger.ID = uuid.New().String()
		}
	}

	for _, action := range workflow.Actions {
		if action.ID == "" {
			action.ID = uuid.New().String()
		}
	}
}
