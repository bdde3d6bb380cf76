package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
	"github.com/dukex/fleetflow/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type funcAction struct {
	actionType models.WorkflowActionType
	execute    func(ctx context.Context, params map[string]any) (map[string]any, error)

	mu       sync.Mutex
	received map[string]any
	calls    int
}

func (a *funcAction) Type() models.WorkflowActionType {
	return a.actionType
}

func (a *funcAction) Execute(ctx context.Context, params map[string]any, _ models.Event, _ *slog.Logger) (map[string]any, error) {
	a.mu.Lock()
	a.received = params
	a.calls++
	a.mu.Unlock()

	return a.execute(ctx, params)
}

func newDispatcher(t *testing.T, timeout time.Duration, actions ...protocol.Action) *Dispatcher {
	t.Helper()

	reg := registry.NewRegistry(slog.Default())
	for _, a := range actions {
		reg.RegisterAction(a)
	}

	return New(reg, slog.Default(), WithTimeout(timeout))
}

func echoAction(actionType models.WorkflowActionType) *funcAction {
	return &funcAction{
		actionType: actionType,
		execute: func(_ context.Context, params map[string]any) (map[string]any, error) {
			return map[string]any{"message": params["message"]}, nil
		},
	}
}

func geofenceEvent() models.Event {
	return models.NewEvent(models.EventVehicleEnteredGeofence, map[string]any{
		"geofence": map[string]any{"name": "Depot"},
	})
}

func TestDispatch_ResolvesPlaceholders(t *testing.T) {
	executor := echoAction(models.ActionLogAlert)
	d := newDispatcher(t, time.Second, executor)

	result := d.Dispatch(context.Background(), &models.WorkflowAction{
		ID:    "a1",
		Type:  models.ActionLogAlert,
		Order: 2,
		Parameters: map[string]any{
			"message": "Entered {geofence.name} at {vehicle.registration}",
			"level":   "info",
		},
	}, geofenceEvent())

	assert.Equal(t, models.ActionSucceeded, result.Status)
	assert.Equal(t, "a1", result.ActionID)
	assert.Equal(t, 2, result.Order)
	assert.Empty(t, result.ErrorKind)
	assert.Equal(t, "Entered Depot at {vehicle.registration}", result.Output["message"])
	assert.Equal(t, "Entered Depot at {vehicle.registration}", executor.received["message"])
	assert.False(t, result.FinishedAt.Before(result.StartedAt))
}

func TestDispatch_Failures(t *testing.T) {
	tests := []struct {
		name          string
		action        *models.WorkflowAction
		executor      *funcAction
		expectedKind  models.ErrorKind
		expectedError string
		expectCall    bool
	}{
		{
			name:          "unknown action type",
			action:        &models.WorkflowAction{Type: "teleport_vehicle"},
			expectedKind:  models.ErrorKindUnknownActionType,
			expectedError: "unknown action type 'teleport_vehicle'",
		},
		{
			name:          "known type without executor",
			action:        &models.WorkflowAction{Type: models.ActionCreateAlert},
			executor:      echoAction(models.ActionLogAlert),
			expectedKind:  models.ErrorKindUnknownActionType,
			expectedError: "unknown action type 'create_alert'",
		},
		{
			name: "missing required parameter",
			action: &models.WorkflowAction{
				Type:       models.ActionLogAlert,
				Parameters: map[string]any{"message": "hello"},
			},
			executor:      echoAction(models.ActionLogAlert),
			expectedKind:  models.ErrorKindMissingParameter,
			expectedError: "missing required parameter: level",
		},
		{
			name: "blank and null parameters are missing",
			action: &models.WorkflowAction{
				Type:       models.ActionCreateAlert,
				Parameters: map[string]any{"title": " ", "content": nil, "severity": "info"},
			},
			executor:      echoAction(models.ActionCreateAlert),
			expectedKind:  models.ErrorKindMissingParameter,
			expectedError: "missing required parameter: title, content",
		},
		{
			name: "executor error",
			action: &models.WorkflowAction{
				Type:       models.ActionCreateAlert,
				Parameters: map[string]any{"title": "Speed", "content": "c", "severity": "warning"},
			},
			executor: &funcAction{
				actionType: models.ActionCreateAlert,
				execute: func(context.Context, map[string]any) (map[string]any, error) {
					return nil, errors.New("alert service unreachable")
				},
			},
			expectedKind:  models.ErrorKindExecutorError,
			expectedError: "alert service unreachable",
			expectCall:    true,
		},
		{
			name: "executor panic",
			action: &models.WorkflowAction{
				Type:       models.ActionLockVehicle,
				Parameters: map[string]any{},
			},
			executor: &funcAction{
				actionType: models.ActionLockVehicle,
				execute: func(context.Context, map[string]any) (map[string]any, error) {
					panic("nil vehicle")
				},
			},
			expectedKind:  models.ErrorKindExecutorError,
			expectedError: "action panicked: nil vehicle",
			expectCall:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var actions []protocol.Action
			if tt.executor != nil {
				actions = append(actions, tt.executor)
			}

			d := newDispatcher(t, time.Second, actions...)

			var result models.ActionResult

			require.NotPanics(t, func() {
				result = d.Dispatch(context.Background(), tt.action, geofenceEvent())
			})

			assert.Equal(t, models.ActionFailed, result.Status)
			assert.Equal(t, tt.expectedKind, result.ErrorKind)
			assert.Equal(t, tt.expectedError, result.Error)

			if tt.executor != nil {
				assert.Equal(t, tt.expectCall, tt.executor.calls > 0)
			}
		})
	}
}

func TestDispatch_Timeout(t *testing.T) {
	tests := []struct {
		name    string
		execute func(ctx context.Context, params map[string]any) (map[string]any, error)
	}{
		{
			name: "executor honours context",
			execute: func(ctx context.Context, _ map[string]any) (map[string]any, error) {
				<-ctx.Done()

				return nil, ctx.Err()
			},
		},
		{
			name: "executor ignores context",
			execute: func(context.Context, map[string]any) (map[string]any, error) {
				time.Sleep(time.Second)

				return map[string]any{}, nil
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := &funcAction{actionType: models.ActionLockVehicle, execute: tt.execute}
			d := newDispatcher(t, 20*time.Millisecond, executor)

			start := time.Now()
			result := d.Dispatch(context.Background(), &models.WorkflowAction{Type: models.ActionLockVehicle}, geofenceEvent())

			assert.Less(t, time.Since(start), 500*time.Millisecond)
			assert.Equal(t, models.ActionFailed, result.Status)
			assert.Equal(t, models.ErrorKindTimeout, result.ErrorKind)
		})
	}
}

func TestDispatch_Cancelled(t *testing.T) {
	t.Run("before invocation", func(t *testing.T) {
		executor := echoAction(models.ActionUnlockVehicle)
		d := newDispatcher(t, time.Second, executor)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		result := d.Dispatch(ctx, &models.WorkflowAction{Type: models.ActionUnlockVehicle}, geofenceEvent())

		assert.Equal(t, models.ErrorKindCancelled, result.ErrorKind)
		assert.Zero(t, executor.calls)
	})

	t.Run("during invocation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())

		executor := &funcAction{
			actionType: models.ActionUnlockVehicle,
			execute: func(actionCtx context.Context, _ map[string]any) (map[string]any, error) {
				cancel()
				<-actionCtx.Done()

				return nil, actionCtx.Err()
			},
		}
		d := newDispatcher(t, time.Second, executor)

		result := d.Dispatch(ctx, &models.WorkflowAction{Type: models.ActionUnlockVehicle}, geofenceEvent())

		assert.Equal(t, models.ActionFailed, result.Status)
		assert.Equal(t, models.ErrorKindCancelled, result.ErrorKind)
	})
}

func TestDispatch_OutcomeDeliveredAsContextEnds(t *testing.T) {
	var cancel context.CancelFunc

	executor := &funcAction{
		actionType: models.ActionUnlockVehicle,
		execute: func(actionCtx context.Context, _ map[string]any) (map[string]any, error) {
			cancel()
			<-actionCtx.Done()

			return map[string]any{"unlocked": true}, nil
		},
	}
	d := newDispatcher(t, time.Second, executor)

	for range 20 {
		var ctx context.Context

		ctx, cancel = context.WithCancel(context.Background())

		result := d.Dispatch(ctx, &models.WorkflowAction{Type: models.ActionUnlockVehicle}, geofenceEvent())

		require.Equal(t, models.ActionSucceeded, result.Status, result.Error)
		assert.Equal(t, true, result.Output["unlocked"])
	}
}

func TestDispatch_ExecutorOutlivesSettleGrace(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	executor := &funcAction{
		actionType: models.ActionUnlockVehicle,
		execute: func(context.Context, map[string]any) (map[string]any, error) {
			<-release

			return map[string]any{}, nil
		},
	}

	reg := registry.NewRegistry(slog.Default())
	reg.RegisterAction(executor)
	d := New(reg, slog.Default(), WithTimeout(10*time.Millisecond), WithSettleGrace(10*time.Millisecond))

	result := d.Dispatch(context.Background(), &models.WorkflowAction{Type: models.ActionUnlockVehicle}, geofenceEvent())

	assert.Equal(t, models.ActionFailed, result.Status)
	assert.Equal(t, models.ErrorKindTimeout, result.ErrorKind)
}

func TestDispatch_NilAction(t *testing.T) {
	d := newDispatcher(t, time.Second, echoAction(models.ActionLogAlert))

	var result models.ActionResult

	require.NotPanics(t, func() { result = d.Dispatch(context.Background(), nil, geofenceEvent()) })

	assert.Equal(t, models.ActionFailed, result.Status)
	assert.Equal(t, models.ErrorKindUnknownActionType, result.ErrorKind)
	assert.Equal(t, ErrEmptyAction.Error(), result.Error)
}

func TestDispatch_DoesNotMutateAction(t *testing.T) {
	d := newDispatcher(t, time.Second, echoAction(models.ActionLogAlert))

	action := &models.WorkflowAction{
		Type:       models.ActionLogAlert,
		Parameters: map[string]any{"message": "Entered {geofence.name}", "level": "info"},
	}

	result := d.Dispatch(context.Background(), action, geofenceEvent())

	assert.Equal(t, "Entered Depot", result.Parameters["message"])
	assert.Equal(t, "Entered {geofence.name}", action.Parameters["message"])
}
