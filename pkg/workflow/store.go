package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dukex/fleetflow/pkg/models"
	"github.com/dukex/fleetflow/pkg/persistence"
)

var ErrSnapshotUnavailable = errors.New("workflow snapshot has not been loaded")

// Loader fetches the full set of workflows a Store should hold.
type Loader func(ctx context.Context) ([]*models.Workflow, error)

// RepositoryLoader loads the active workflows visible in scope.
func RepositoryLoader(repo persistence.WorkflowRepository, scope string) Loader {
	return func(ctx context.Context) ([]*models.Workflow, error) {
		return repo.GetActive(ctx, scope)
	}
}

// Snapshot is an immutable view of the workflows held by a Store. Callers
// must not modify the workflows it returns.
type Snapshot struct {
	workflows []*models.Workflow
	version   uint64
	loadedAt  time.Time
}

func (s *Snapshot) Workflows() []*models.Workflow {
	return s.workflows
}

func (s *Snapshot) Version() uint64 {
	return s.version
}

func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

func (s *Snapshot) Len() int {
	return len(s.workflows)
}

func (s *Snapshot) Get(id string) (*models.Workflow, bool) {
	i := slices.IndexFunc(s.workflows, func(w *models.Workflow) bool { return w.ID == id })
	if i < 0 {
		return nil, false
	}

	return s.workflows[i], true
}

// Store holds the current workflow snapshot. Writers build a new snapshot
// from deep copies and swap it in atomically; readers never block and always
// see a complete snapshot.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
	logger  *slog.Logger
	now     func() time.Time
}

func NewStore(logger *slog.Logger) *Store {
	return &Store{
		logger: logger.With("module", "workflow_store"),
		now:    time.Now,
	}
}

// Snapshot returns the current snapshot, or nil before the first load.
func (s *Store) Snapshot() *Snapshot {
	return s.current.Load()
}

// Workflows returns the workflows of the current snapshot.
func (s *Store) Workflows(_ context.Context) ([]*models.Workflow, error) {
	snapshot := s.current.Load()
	if snapshot == nil {
		return nil, ErrSnapshotUnavailable
	}

	return snapshot.workflows, nil
}

// Replace swaps in a snapshot holding copies of workflows.
func (s *Store) Replace(workflows []*models.Workflow) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*models.Workflow, 0, len(workflows))
	for _, w := range workflows {
		if w != nil {
			next = append(next, w.Clone())
		}
	}

	return s.swap(next)
}

// Upsert adds workflow or replaces the workflow with the same ID.
func (s *Store) Upsert(workflow *models.Workflow) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.workflowsLocked()
	next := make([]*models.Workflow, 0, len(current)+1)
	replaced := false

	for _, w := range current {
		if w.ID == workflow.ID {
			next = append(next, workflow.Clone())
			replaced = true

			continue
		}

		next = append(next, w)
	}

	if !replaced {
		next = append(next, workflow.Clone())
	}

	return s.swap(next)
}

// Remove drops the workflow with id. It reports whether one was present.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.workflowsLocked()

	next := slices.DeleteFunc(slices.Clone(current), func(w *models.Workflow) bool { return w.ID == id })
	if len(next) == len(current) {
		return false
	}

	s.swap(next)

	return true
}

// Reload replaces the snapshot with the loader's result. On error the
// previous snapshot stays in place.
func (s *Store) Reload(ctx context.Context, load Loader) error {
	workflows, err := load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to reload workflows", "error", err)

		return fmt.Errorf("failed to reload workflows: %w", err)
	}

	snapshot := s.Replace(workflows)

	s.logger.InfoContext(ctx, "Workflows reloaded", "count", snapshot.Len(), "version", snapshot.Version())

	return nil
}

func (s *Store) workflowsLocked() []*models.Workflow {
	if snapshot := s.current.Load(); snapshot != nil {
		return snapshot.workflows
	}

	return nil
}

func (s *Store) swap(workflows []*models.Workflow) *Snapshot {
	var version uint64
	if previous := s.current.Load(); previous != nil {
		version = previous.version
	}

	snapshot := &Snapshot{
		workflows: workflows,
		version:   version + 1,
		loadedAt:  s.now().UTC(),
	}

	s.current.Store(snapshot)

	return snapshot
}
