// Package web provides HTTP request and response types for the workflow API.
package web

import (
	"github.com/dukex/fleetflow/pkg/labels"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
)

// WorkflowRequest is the request body for creating or replacing a workflow.
type WorkflowRequest struct {
	Name        string                      `json:"name"        validate:"required,min=3"`
	Description string                      `json:"description"`
	Scope       string                      `json:"scope"`
	IsActive    bool                        `json:"is_active"`
	Triggers    []*models.WorkflowTrigger   `json:"triggers"`
	Conditions  []*models.WorkflowCondition `json:"conditions"`
	Actions     []*models.WorkflowAction    `json:"actions"`
}

// Workflow builds the model the request describes.
func (r WorkflowRequest) Workflow() *models.Workflow {
	return &models.Workflow{
		Name:        r.Name,
		Description: r.Description,
		Scope:       r.Scope,
		IsActive:    r.IsActive,
		Triggers:    r.Triggers,
		Conditions:  r.Conditions,
		Actions:     r.Actions,
	}
}

// WorkflowResponse is a workflow plus the configuration warnings it carries.
type WorkflowResponse struct {
	*models.Workflow

	Warnings []string `json:"warnings"`
}

// NewWorkflowResponse wraps workflow with its current warnings.
func NewWorkflowResponse(workflow *models.Workflow) WorkflowResponse {
	warnings := workflow.Warnings()
	if warnings == nil {
		warnings = []string{}
	}

	return WorkflowResponse{Workflow: workflow, Warnings: warnings}
}

// ProcessEventRequest is the request body for submitting a fleet event.
type ProcessEventRequest struct {
	ID        string                   `json:"id"`
	EventType models.WorkflowEventType `json:"event_type" validate:"required"`
	Scope     string                   `json:"scope"`
	Payload   payload.Value            `json:"payload"`
}

// Event converts the request into an engine event. A missing payload becomes
// an empty object.
func (r ProcessEventRequest) Event() models.Event {
	p := r.Payload
	if p.IsAbsent() {
		p = payload.Object(nil)
	}

	return models.Event{
		ID:      r.ID,
		Type:    r.EventType,
		Payload: p,
		Scope:   r.Scope,
	}
}

// ProcessEventResponse reports the executions one event produced.
type ProcessEventResponse struct {
	EventID    string                      `json:"event_id"`
	EventType  models.WorkflowEventType    `json:"event_type"`
	Executions []*models.WorkflowExecution `json:"executions"`
}

// CatalogEntry describes one selectable key with its display label.
type CatalogEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type EventTypeEntry struct {
	CatalogEntry

	SourceEntity string `json:"source_entity"`
}

type OperatorEntry struct {
	CatalogEntry

	RequiresValue bool             `json:"requires_value"`
	ValueType     models.ValueType `json:"value_type"`
}

type ActionTypeEntry struct {
	CatalogEntry

	ModelTypes         []string `json:"model_types"`
	RequiredParameters []string `json:"required_parameters"`
	Registered         bool     `json:"registered"`
}

// CatalogResponse lists everything a workflow editor can choose from.
type CatalogResponse struct {
	EventTypes       []EventTypeEntry  `json:"event_types"`
	Operators        []OperatorEntry   `json:"operators"`
	LogicalOperators []CatalogEntry    `json:"logical_operators"`
	ActionTypes      []ActionTypeEntry `json:"action_types"`
	Severities       []CatalogEntry    `json:"severities"`
}

// NewCatalogResponse builds the catalog from the model enums and the label
// bundle. registered reports whether an executor exists for an action type.
func NewCatalogResponse(bundle labels.Bundle, registered func(models.WorkflowActionType) bool) CatalogResponse {
	entry := func(group labels.Group, key string) CatalogEntry {
		return CatalogEntry{Key: key, Label: bundle.Label(group, key)}
	}

	var catalog CatalogResponse

	for _, t := range models.EventTypes() {
		catalog.EventTypes = append(catalog.EventTypes, EventTypeEntry{
			CatalogEntry: entry(labels.EventTypes, string(t)),
			SourceEntity: t.SourceEntity(),
		})
	}

	for _, op := range models.ConditionOperators() {
		catalog.Operators = append(catalog.Operators, OperatorEntry{
			CatalogEntry:  entry(labels.Operators, string(op)),
			RequiresValue: op.RequiresValue(),
			ValueType:     op.ValueType(),
		})
	}

	for _, op := range []models.LogicalOperator{models.LogicalAnd, models.LogicalOr} {
		catalog.LogicalOperators = append(catalog.LogicalOperators, entry(labels.LogicalOperators, string(op)))
	}

	for _, t := range models.ActionTypes() {
		required := t.RequiredParameters()
		if required == nil {
			required = []string{}
		}

		catalog.ActionTypes = append(catalog.ActionTypes, ActionTypeEntry{
			CatalogEntry:       entry(labels.ActionTypes, string(t)),
			ModelTypes:         t.ModelTypes(),
			RequiredParameters: required,
			Registered:         registered(t),
		})
	}

	for _, s := range []models.AlertSeverity{models.SeverityInfo, models.SeverityWarning, models.SeverityError, models.SeveritySuccess} {
		catalog.Severities = append(catalog.Severities, entry(labels.Severities, string(s)))
	}

	return catalog
}
