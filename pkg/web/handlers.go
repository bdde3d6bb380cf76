// Package web provides HTTP handlers and REST API endpoints for workflow management.
package web

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/fleetflow/pkg/labels"
	"github.com/dukex/fleetflow/pkg/metrics"
	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/registry"
	"github.com/dukex/fleetflow/pkg/schema"
	"github.com/dukex/fleetflow/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// EventProcessor runs an event through the workflow engine.
type EventProcessor interface {
	Process(ctx context.Context, event models.Event) ([]*models.WorkflowExecution, error)
}

type APIHandlers struct {
	workflowService *services.Workflow
	processor       EventProcessor
	schemas         *schema.Validator
	metrics         *metrics.Metrics
	validator       *validator.Validate
	registry        *registry.Registry
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	processor EventProcessor,
	schemas *schema.Validator,
	metrics *metrics.Metrics,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		processor:       processor,
		schemas:         schemas,
		metrics:         metrics,
		validator:       validator,
		registry:        registry,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	req, err := h.parseListWorkflowsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.workflowService.ListWorkflows(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	workflows := make([]WorkflowResponse, 0, len(result.Workflows))
	for _, workflow := range result.Workflows {
		workflows = append(workflows, NewWorkflowResponse(workflow))
	}

	return c.JSON(fiber.Map{
		"workflows":     workflows,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sort_by":    req.SortBy,
			"sort_order": req.SortOrder,
		},
	})
}

// parseListWorkflowsRequest parses query parameters for listing workflows.
func (h *APIHandlers) parseListWorkflowsRequest(c fiber.Ctx) (*services.ListWorkflowsRequest, error) {
	req := &services.ListWorkflowsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	req.Scope = c.Query("scope")

	if activeStr := c.Query("is_active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return nil, err
		}

		req.IsActive = &active
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	// Apply the service defaults up front so the echoed pagination is accurate.
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	return req, nil
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewWorkflowResponse(workflow))
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.workflowService.Create(c.Context(), req.Workflow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(NewWorkflowResponse(created))
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req WorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.workflowService.Update(c.Context(), id, req.Workflow())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(NewWorkflowResponse(updated))
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.workflowService.Delete(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetWorkflowExecutions(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	limit := 0

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		limit = parsed
	}

	executions, err := h.workflowService.ListExecutions(c.Context(), id, limit)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflow_id": id,
		"executions":  executions,
	})
}

// ProcessEvent runs a submitted event through the engine synchronously.
// With ?validate=true the payload is first checked against the schema of the
// event's source entity.
func (h *APIHandlers) ProcessEvent(c fiber.Ctx) error {
	var req ProcessEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if !req.EventType.Valid() {
		return badRequest(c, "unknown event type '"+string(req.EventType)+"'")
	}

	event := req.Event()
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	validate, _ := strconv.ParseBool(c.Query("validate"))
	if validate {
		if err := h.schemas.Validate(event.Type, event.Payload); err != nil {
			return handleProcessError(c, err)
		}
	}

	h.metrics.ObserveEvent(event.Type)

	executions, err := h.processor.Process(c.Context(), event)
	if err != nil {
		return handleProcessError(c, err)
	}

	if executions == nil {
		executions = []*models.WorkflowExecution{}
	}

	return c.JSON(ProcessEventResponse{
		EventID:    event.ID,
		EventType:  event.Type,
		Executions: executions,
	})
}

func (h *APIHandlers) GetCatalog(c fiber.Ctx) error {
	return c.JSON(NewCatalogResponse(labels.Default(), func(t models.WorkflowActionType) bool {
		_, ok := h.registry.Action(t)

		return ok
	}))
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registryHealth()
	repositoryCheck, repOk := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Fleetflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Fleetflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) registryHealth() (string, bool) {
	if h.registry == nil {
		return "Registry not initialized", false
	}

	count := len(h.registry.Types())
	if count == 0 {
		return "No actions registered", false
	}

	return strconv.Itoa(count) + " actions registered", true
}

// Register mounts the workflow, event and catalog endpoints on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)
	router.Get("/catalog", h.GetCatalog)
	router.Post("/events", h.ProcessEvent)

	w := router.Group("/workflows")
	w.Get("/", h.GetWorkflows)
	w.Post("/", h.CreateWorkflow)
	w.Get("/:id", h.GetWorkflow)
	w.Put("/:id", h.UpdateWorkflow)
	w.Delete("/:id", h.DeleteWorkflow)
	w.Get("/:id/executions", h.GetWorkflowExecutions)
}
