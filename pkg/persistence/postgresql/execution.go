package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/lib/pq"
)

// uniqueViolation is the PostgreSQL SQLSTATE for duplicate keys.
const uniqueViolation = "23505"

// ExecutionRepository stores finalized execution records as JSONB.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

func (r *ExecutionRepository) Append(ctx context.Context, execution *models.WorkflowExecution) error {
	record, err := json.Marshal(execution)
	if err != nil {
		return fmt.Errorf("failed to marshal execution %s: %w", execution.ID, err)
	}

	var errorKind sql.NullString
	if execution.ErrorKind != "" {
		errorKind = sql.NullString{String: string(execution.ErrorKind), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, status, event_type, error_kind, record, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		execution.ID,
		execution.WorkflowID,
		execution.Status,
		execution.EventType,
		errorKind,
		record,
		execution.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return persistence.NewExecutionError("Append", execution.ID, execution.WorkflowID, persistence.ErrExecutionAlreadyExists)
		}

		return persistence.NewExecutionError("Append", execution.ID, execution.WorkflowID, err)
	}

	return nil
}

func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.WorkflowExecution, error) {
	var record []byte

	err := r.db.QueryRowContext(ctx, "SELECT record FROM workflow_executions WHERE id = $1", id).Scan(&record)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewExecutionError("GetByID", id, "", persistence.ErrExecutionNotFound)
		}

		return nil, fmt.Errorf("failed to query execution %s: %w", id, err)
	}

	return decodeExecution(record)
}

func (r *ExecutionRepository) ListByWorkflow(ctx context.Context, workflowID string, limit int) ([]*models.WorkflowExecution, error) {
	if limit <= 0 {
		limit = persistence.DefaultExecutionLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT record
		FROM workflow_executions
		WHERE workflow_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	executions := make([]*models.WorkflowExecution, 0)

	for rows.Next() {
		var record []byte
		if err := rows.Scan(&record); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}

		execution, err := decodeExecution(record)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return executions, nil
}

func decodeExecution(record []byte) (*models.WorkflowExecution, error) {
	var execution models.WorkflowExecution

	if err := json.Unmarshal(record, &execution); err != nil {
		return nil, fmt.Errorf("failed to unmarshal execution: %w", err)
	}

	return &execution, nil
}
