package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// DefaultReloadSchedule refreshes the snapshot twice a minute.
const DefaultReloadSchedule = "@every 30s"

// ReloadObserver is told the outcome of every reload.
type ReloadObserver func(count int, err error)

// Reloader refreshes a Store from a Loader on a cron schedule.
type Reloader struct {
	store    *Store
	load     Loader
	schedule string
	observe  ReloadObserver
	logger   *slog.Logger

	cron *cron.Cron
}

// NewReloader validates schedule, which accepts standard five-field cron
// expressions and descriptors such as "@every 1m". observe may be nil.
func NewReloader(store *Store, load Loader, schedule string, observe ReloadObserver, logger *slog.Logger) (*Reloader, error) {
	if schedule == "" {
		schedule = DefaultReloadSchedule
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid reload schedule '%s': %w", schedule, err)
	}

	return &Reloader{
		store:    store,
		load:     load,
		schedule: schedule,
		observe:  observe,
		logger:   logger.With("module", "workflow_reloader", "schedule", schedule),
	}, nil
}

// ReloadNow reloads the store once.
func (r *Reloader) ReloadNow(ctx context.Context) error {
	err := r.store.Reload(ctx, r.load)

	if r.observe != nil {
		count := 0
		if snapshot := r.store.Snapshot(); snapshot != nil {
			count = snapshot.Len()
		}

		r.observe(count, err)
	}

	return err
}

// Start loads the store and schedules later reloads. A failed initial load
// is logged; events are rejected until a reload succeeds.
func (r *Reloader) Start(ctx context.Context) error {
	if err := r.ReloadNow(ctx); err != nil {
		r.logger.WarnContext(ctx, "Initial workflow load failed, retrying on schedule", "error", err)
	}

	r.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DefaultLogger),
		cron.Recover(cron.DefaultLogger),
	))

	_, err := r.cron.AddFunc(r.schedule, func() {
		_ = r.ReloadNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule workflow reload: %w", err)
	}

	r.cron.Start()
	r.logger.InfoContext(ctx, "Workflow reloader started")

	return nil
}

// Stop halts scheduling and waits for a running reload to finish.
func (r *Reloader) Stop() {
	if r.cron == nil {
		return
	}

	<-r.cron.Stop().Done()
}
