package main

import (
	"context"
	"fmt"
	"io"

	"github.com/dukex/fleetflow/pkg/services"
)

const validatePageSize = 100

// validateWorkflows checks every stored workflow and writes one line per
// error or warning to out. It returns the number of invalid workflows.
func validateWorkflows(ctx context.Context, service *services.Workflow, out io.Writer) (int, error) {
	invalid := 0
	offset := 0

	for {
		page, err := service.ListWorkflows(ctx, services.ListWorkflowsRequest{
			Limit:     validatePageSize,
			Offset:    offset,
			SortBy:    "name",
			SortOrder: "asc",
		})
		if err != nil {
			return invalid, err
		}

		for _, workflow := range page.Workflows {
			warnings, err := service.Validate(workflow)
			if err != nil {
				invalid++

				_, _ = fmt.Fprintf(out, "ERROR   %s (%s): %v\n", workflow.Name, workflow.ID, err)

				continue
			}

			for _, warning := range warnings {
				_, _ = fmt.Fprintf(out, "WARNING %s (%s): %s\n", workflow.Name, workflow.ID, warning)
			}
		}

		if !page.HasNextPage || len(page.Workflows) == 0 {
			break
		}

		offset += len(page.Workflows)
	}

	return invalid, nil
}
