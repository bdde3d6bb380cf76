package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
)

// ExecutionRepository stores one JSON file per execution under
// executions/<workflow id>/<execution id>.json.
type ExecutionRepository struct {
	root string
}

func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

func (er *ExecutionRepository) dir() string {
	return filepath.Join(er.root, "executions")
}

// Append writes a finalized execution. Existing records are never overwritten.
func (er *ExecutionRepository) Append(_ context.Context, execution *models.WorkflowExecution) error {
	if err := validateID(execution.ID); err != nil {
		return persistence.NewExecutionError("Append", execution.ID, execution.WorkflowID, err)
	}

	if err := validateID(execution.WorkflowID); err != nil {
		return persistence.NewExecutionError("Append", execution.ID, execution.WorkflowID, err)
	}

	workflowDir := filepath.Join(er.dir(), execution.WorkflowID)

	err := os.MkdirAll(workflowDir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create executions directory: %w", err)
	}

	data, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	filePath := filepath.Join(workflowDir, execution.ID+".json")

	// O_EXCL makes the existence check and the create a single step.
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // #nosec G304 -- IDs are validated
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return persistence.NewExecutionError("Append", execution.ID, execution.WorkflowID, persistence.ErrExecutionAlreadyExists)
		}

		return fmt.Errorf("failed to create execution %s: %w", execution.ID, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()

		return fmt.Errorf("failed to write execution %s: %w", execution.ID, err)
	}

	return f.Close()
}

// GetByID searches every workflow directory for the execution.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.WorkflowExecution, error) {
	if validateID(id) != nil {
		return nil, persistence.NewExecutionError("GetByID", id, "", persistence.ErrExecutionNotFound)
	}

	matches, err := filepath.Glob(filepath.Join(er.dir(), "*", id+".json"))
	if err != nil {
		return nil, fmt.Errorf("failed to search execution %s: %w", id, err)
	}

	if len(matches) == 0 {
		return nil, persistence.NewExecutionError("GetByID", id, "", persistence.ErrExecutionNotFound)
	}

	return readExecution(matches[0])
}

func (er *ExecutionRepository) ListByWorkflow(_ context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 {
		limit = persistence.DefaultExecutionLimit
	}

	if validateID(workflowID) != nil {
		return []*models.WorkflowExecution{}, nil
	}

	workflowDir := filepath.Join(er.dir(), workflowID)

	entries, err := os.ReadDir(workflowDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.WorkflowExecution{}, nil
		}

		return nil, fmt.Errorf("failed to read executions of workflow %s: %w", workflowID, err)
	}

	executions := make([]*models.WorkflowExecution, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		execution, err := readExecution(filepath.Join(workflowDir, entry.Name()))
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	sort.SliceStable(executions, func(i, j int) bool {
		return executions[i].CreatedAt.After(executions[j].CreatedAt)
	})

	if len(executions) > limit {
		executions = executions[:limit]
	}

	return executions, nil
}

func readExecution(path string) (*models.WorkflowExecution, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path built from validated IDs
	if err != nil {
		return nil, fmt.Errorf("failed to read execution %s: %w", path, err)
	}

	var execution models.WorkflowExecution

	if err := json.Unmarshal(data, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution %s: %w", path, err)
	}

	return &execution, nil
}
