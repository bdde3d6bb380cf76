package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"slices"
	"sync"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/protocol"
)

var ErrActionNotRegistered = errors.New("action type not registered")

// Registry maps action types to their executors. It is safe for concurrent
// use; registrations normally happen once at startup.
type Registry struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	actions map[models.WorkflowActionType]protocol.Action
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:  log.With("module", "registry"),
		actions: make(map[models.WorkflowActionType]protocol.Action),
	}
}

// RegisterAction adds or replaces the executor for action.Type().
func (r *Registry) RegisterAction(action protocol.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[action.Type()]; exists {
		r.logger.Warn("Replacing registered action", "action_type", action.Type())
	}

	r.actions[action.Type()] = action
}

// Action returns the executor registered for actionType.
func (r *Registry) Action(actionType models.WorkflowActionType) (protocol.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[actionType]

	return action, ok
}

// MustAction is Action returning ErrActionNotRegistered for unknown types.
func (r *Registry) MustAction(actionType models.WorkflowActionType) (protocol.Action, error) {
	action, ok := r.Action(actionType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrActionNotRegistered, actionType)
	}

	return action, nil
}

// Types lists the registered action types in sorted order.
func (r *Registry) Types() []models.WorkflowActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]models.WorkflowActionType, 0, len(r.actions))
	for t := range r.actions {
		types = append(types, t)
	}

	slices.Sort(types)

	return types
}

// SettingsFunc returns the configuration of the action factory with id.
type SettingsFunc func(id string) map[string]any

// LoadActionPlugins opens every shared object under <pluginsPath>/actions and
// registers the actions their factories create. settings may be nil.
func (r *Registry) LoadActionPlugins(pluginsPath string, settings SettingsFunc) error {
	factories, err := loadPlugin[protocol.ActionFactory](r.logger, pluginsPath, "Action")
	if err != nil {
		return err
	}

	for _, factory := range factories {
		var config map[string]any
		if settings != nil {
			config = settings(factory.ID())
		}

		action, err := factory.Create(config, r.logger)
		if err != nil {
			return fmt.Errorf("failed to create plugin action %s: %w", factory.ID(), err)
		}

		r.RegisterAction(action)
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	rootPath := filepath.Join(pluginsPath, "actions")

	pluginPathList, err := fs.Glob(os.DirFS(rootPath), "*/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins", "count", len(pluginPathList))

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(filepath.Join(rootPath, p))
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: symbol %s has unexpected type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded action plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
