package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/dukex/fleetflow/pkg/persistence/postgresql"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"alerts", "workflow_executions", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping PostgreSQL container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("fleetflow_test"),
			postgres.WithUsername("fleetflow"),
			postgres.WithPassword("fleetflow"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer db.Close()

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)

	for _, table := range []string{"workflows", "workflow_executions", "alerts"} {
		var exists bool

		err = db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)", table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table)
	}
}

func TestWorkflowRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.WorkflowRepository()

	speeding := &models.Workflow{
		Name:     "Speeding",
		Scope:    "fleet-a",
		IsActive: true,
		Triggers: []*models.WorkflowTrigger{{ID: "t1", Event: models.EventVehicleSpeeding, IsActive: true}},
		Conditions: []*models.WorkflowCondition{
			{Field: "vehicle.speed", Operator: models.OperatorGreaterThan, Value: float64(90)},
			{Field: "ignition", Operator: models.OperatorIsTrue, LogicalOperator: models.LogicalOr},
		},
		Actions: []*models.WorkflowAction{
			{ID: "a1", Type: models.ActionCreateAlert, Order: 1, Critical: true, Parameters: map[string]any{
				"title": "Speed", "content": "{vehicle.registration}", "severity": "warning",
			}},
		},
	}

	require.NoError(t, repo.Save(ctx, speeding))
	require.NoError(t, repo.Save(ctx, &models.Workflow{Name: "Global", IsActive: true}))
	require.NoError(t, repo.Save(ctx, &models.Workflow{Name: "Other fleet", Scope: "fleet-b", IsActive: true}))
	require.NoError(t, repo.Save(ctx, &models.Workflow{Name: "Paused", Scope: "fleet-a"}))

	loaded, err := repo.GetByID(ctx, speeding.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Len(t, loaded.Conditions, 2)
	assert.Equal(t, models.LogicalOr, loaded.Conditions[1].LogicalOperator)
	assert.True(t, loaded.Actions[0].Critical)
	assert.Equal(t, "{vehicle.registration}", loaded.Actions[0].Parameters["content"])

	active, err := repo.GetActive(ctx, "fleet-a")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Speeding", active[0].Name)
	assert.Equal(t, "Global", active[1].Name)

	list, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{Scope: "fleet-a", SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.TotalCount)
	assert.Equal(t, "Paused", list.Workflows[0].Name)

	_, err = repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{SortBy: "name; DROP TABLE workflows"})
	require.ErrorIs(t, err, persistence.ErrInvalidSortField)

	require.NoError(t, repo.Delete(ctx, speeding.ID))

	deleted, err := repo.GetByID(ctx, speeding.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	err = repo.Delete(ctx, speeding.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ExecutionRepository()

	base := time.Now().UTC().Truncate(time.Millisecond)

	for i, id := range []string{"exec-1", "exec-2"} {
		require.NoError(t, repo.Append(ctx, &models.WorkflowExecution{
			ID:         id,
			WorkflowID: "wf-1",
			EventType:  models.EventVehicleEnteredGeofence,
			Payload:    payload.FromAny(map[string]any{"geofence": map[string]any{"name": "Depot"}}),
			Status:     models.ExecutionCompleted,
			ActionResults: []models.ActionResult{
				{ActionType: models.ActionLogAlert, Status: models.ActionSucceeded, Output: map[string]any{"message": "Entered Depot"}},
			},
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	err := repo.Append(ctx, &models.WorkflowExecution{ID: "exec-1", WorkflowID: "wf-1", EventType: models.EventDeviceOffline, Status: models.ExecutionFailed, CreatedAt: base})
	require.True(t, persistence.IsExecutionAlreadyExists(err))

	executions, err := repo.ListByWorkflow(ctx, "wf-1", 10)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, "exec-2", executions[0].ID)
	assert.Equal(t, "Depot", executions[0].Payload.Lookup("geofence.name").Text())

	got, err := repo.GetByID(ctx, "exec-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCompleted, got.Status)

	_, err = repo.GetByID(ctx, "exec-404")
	require.ErrorIs(t, err, persistence.ErrExecutionNotFound)
}

func TestAlertRepository(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.AlertRepository()

	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, &models.Alert{
		ID: "alert-1", Title: "Speed", Content: "AB-123", Severity: models.SeverityWarning,
		RelatedEntity: &models.RelatedEntity{Type: models.EntityVehicle, ID: "v-1"},
		Scope:         "fleet-a", CreatedAt: now,
	}))
	require.NoError(t, repo.Save(ctx, &models.Alert{
		ID: "alert-2", Title: "Offline", Content: "", Severity: models.SeverityError, Scope: "fleet-b", CreatedAt: now,
	}))

	alerts, err := repo.ListByScope(ctx, "fleet-a", 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "v-1", alerts[0].RelatedEntity.ID)

	all, err := repo.ListByScope(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.Error(t, repo.Save(ctx, &models.Alert{ID: "alert-3", Severity: "catastrophic", CreatedAt: now}))
}

func TestHealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))
}
