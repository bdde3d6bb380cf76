package file

import (
	"context"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/payload"
	"github.com/dukex/fleetflow/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflow(name, scope string, active bool) *models.Workflow {
	return &models.Workflow{
		Name:     name,
		Scope:    scope,
		IsActive: active,
		Triggers: []*models.WorkflowTrigger{
			{ID: "t1", Event: models.EventVehicleSpeeding, IsActive: true},
		},
		Conditions: []*models.WorkflowCondition{
			{Field: "vehicle.speed", Operator: models.OperatorGreaterThan, Value: float64(90)},
		},
		Actions: []*models.WorkflowAction{
			{ID: "a1", Type: models.ActionLogAlert, Order: 1, Parameters: map[string]any{"message": "fast", "level": "warning"}},
		},
	}
}

func TestPersistence_HealthCheck(t *testing.T) {
	p := NewPersistence("file://" + t.TempDir())
	require.NoError(t, p.HealthCheck(context.Background()))

	missing := NewPersistence("/definitely/not/here")
	require.Error(t, missing.HealthCheck(context.Background()))
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newWorkflow("Speed watch", "fleet-a", true)
	require.NoError(t, repo.Save(ctx, workflow))

	assert.NotEmpty(t, workflow.ID)
	assert.False(t, workflow.CreatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, "Speed watch", loaded.Name)
	require.Len(t, loaded.Conditions, 1)
	assert.Equal(t, models.OperatorGreaterThan, loaded.Conditions[0].Operator)
	assert.Equal(t, "fast", loaded.Actions[0].Parameters["message"])

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	traversal, err := repo.GetByID(ctx, "../etc/passwd")
	require.NoError(t, err)
	assert.Nil(t, traversal)
}

func TestWorkflowRepository_GetActive(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowRepository(t.TempDir())

	require.NoError(t, repo.Save(ctx, newWorkflow("Scoped A", "fleet-a", true)))
	require.NoError(t, repo.Save(ctx, newWorkflow("Scoped B", "fleet-b", true)))
	require.NoError(t, repo.Save(ctx, newWorkflow("Global", "", true)))
	require.NoError(t, repo.Save(ctx, newWorkflow("Inactive", "fleet-a", false)))

	active, err := repo.GetActive(ctx, "fleet-a")
	require.NoError(t, err)

	names := make([]string, 0, len(active))
	for _, w := range active {
		names = append(names, w.Name)
	}

	assert.ElementsMatch(t, []string{"Scoped A", "Global"}, names)

	all, err := repo.GetActive(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestWorkflowRepository_ListWorkflows(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowRepository(t.TempDir())

	for _, name := range []string{"Charlie", "Alpha", "Bravo"} {
		require.NoError(t, repo.Save(ctx, newWorkflow(name, "fleet-a", true)))
	}

	result, err := repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{SortBy: "name", SortOrder: "asc", Limit: 2})
	require.NoError(t, err)

	require.Len(t, result.Workflows, 2)
	assert.Equal(t, "Alpha", result.Workflows[0].Name)
	assert.Equal(t, "Bravo", result.Workflows[1].Name)
	assert.Equal(t, int64(3), result.TotalCount)
	assert.True(t, result.HasNextPage)

	_, err = repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{SortBy: "name; DROP TABLE workflows; --"})
	require.ErrorIs(t, err, persistence.ErrInvalidSortField)

	inactive := false
	result, err = repo.ListWorkflows(ctx, persistence.ListWorkflowsOptions{IsActive: &inactive})
	require.NoError(t, err)
	assert.Empty(t, result.Workflows)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewWorkflowRepository(t.TempDir())

	workflow := newWorkflow("Doomed", "", true)
	require.NoError(t, repo.Save(ctx, workflow))
	require.NoError(t, repo.Delete(ctx, workflow.ID))

	loaded, err := repo.GetByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	err = repo.Delete(ctx, workflow.ID)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestExecutionRepository_AppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := NewExecutionRepository(t.TempDir())

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, repo.Append(ctx, &models.WorkflowExecution{
			ID:         id,
			WorkflowID: "wf-1",
			EventType:  models.EventVehicleSpeeding,
			Payload:    payload.FromAny(map[string]any{"vehicle": map[string]any{"speed": 100 + i}}),
			Status:     models.ExecutionCompleted,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}

	err := repo.Append(ctx, &models.WorkflowExecution{ID: "e1", WorkflowID: "wf-1", Status: models.ExecutionFailed})
	require.True(t, persistence.IsExecutionAlreadyExists(err))

	executions, err := repo.ListByWorkflow(ctx, "wf-1", 2)
	require.NoError(t, err)
	require.Len(t, executions, 2)
	assert.Equal(t, "e3", executions[0].ID)
	assert.Equal(t, "e2", executions[1].ID)

	first, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionCompleted, first.Status)
	assert.Equal(t, "100", first.Payload.Lookup("vehicle.speed").Text())

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, persistence.ErrExecutionNotFound)

	none, err := repo.ListByWorkflow(ctx, "wf-unknown", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAlertRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAlertRepository(t.TempDir())

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, &models.Alert{ID: "a1", Title: "Speed", Severity: models.SeverityWarning, Scope: "fleet-a", CreatedAt: base}))
	require.NoError(t, repo.Save(ctx, &models.Alert{ID: "a2", Title: "Offline", Severity: models.SeverityError, Scope: "fleet-b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Save(ctx, &models.Alert{
		ID:            "a3",
		Title:         "Geofence",
		Severity:      models.SeverityInfo,
		Scope:         "fleet-a",
		RelatedEntity: &models.RelatedEntity{Type: models.EntityVehicle, ID: "v-1"},
		CreatedAt:     base.Add(2 * time.Minute),
	}))

	alerts, err := repo.ListByScope(ctx, "fleet-a", 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "a3", alerts[0].ID)
	assert.Equal(t, "v-1", alerts[0].RelatedEntity.ID)

	require.Error(t, repo.Save(ctx, &models.Alert{ID: "../x"}))
}
