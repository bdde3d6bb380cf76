package web

import (
	"errors"
	"strings"

	"github.com/dukex/fleetflow/pkg/engine"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/schema"
	"github.com/dukex/fleetflow/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError provides typed error handling for service layer errors.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		problem := problems.NewStatusProblem(400).
			WithInstance(c.Path()).
			WithType("validation_error").
			WithDetail(err.Error())

		return c.Status(fiber.StatusBadRequest).JSON(problem)

	case persistence.IsWorkflowNotFound(err):
		problem := problems.NewStatusProblem(404).
			WithInstance(c.Path()).
			WithType("workflow_not_found").
			WithDetail("workflow not found")

		return c.Status(fiber.StatusNotFound).JSON(problem)

	default:
		return internalError(c, err)
	}
}

// handleProcessError maps engine and schema failures of an event submission.
func handleProcessError(c fiber.Ctx, err error) error {
	var validationErr *schema.ValidationError

	switch {
	case errors.As(err, &validationErr):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_payload").
			WithDetail(validationErr.Entity + " payload: " + strings.Join(validationErr.Violations, "; "))

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case errors.Is(err, engine.ErrInvalidPayload):
		problem := problems.NewStatusProblem(422).
			WithInstance(c.Path()).
			WithType("invalid_payload").
			WithDetail(err.Error())

		return c.Status(fiber.StatusUnprocessableEntity).JSON(problem)

	case errors.Is(err, engine.ErrWorkflowsUnavailable):
		problem := problems.NewStatusProblem(503).
			WithInstance(c.Path()).
			WithType("workflows_unavailable").
			WithDetail(err.Error())

		return c.Status(fiber.StatusServiceUnavailable).JSON(problem)

	default:
		return internalError(c, err)
	}
}
