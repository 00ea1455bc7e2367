package crawler

import (
	"context"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/credential"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/db"
	"github.com/minhlq/github-harvester/pkg/log"
)

// Stubbed in tests.
var timeNow = time.Now

// Harvester wires the credential pool, the API client and the storage
// backend together and drives the two phases in order.
type Harvester struct {
	Logger log.Logger
	Config *cfg.Config
	Pool   *credential.Pool
	Api    *githubapi.Client
	Writer store.Writer
	Store  store.Store
	Seen   *SeenSet
}

func NewHarvester(logger log.Logger, config *cfg.Config, mysql *db.Mysql) (*Harvester, error) {
	pool, err := credential.NewPool(logger, config)
	if err != nil {
		return nil, err
	}
	api, err := githubapi.NewClient(logger, config, pool)
	if err != nil {
		return nil, err
	}
	writer, st, err := store.Factory(config.Storage.Backend, logger, config, mysql)
	if err != nil {
		return nil, err
	}

	return &Harvester{
		Logger: logger,
		Config: config,
		Pool:   pool,
		Api:    api,
		Writer: writer,
		Store:  st,
		Seen:   NewSeenSet(),
	}, nil
}

// Run executes the enabled phases and records the run's aggregate counts.
// Partial success is the expected steady state, so per-entity failures only
// show up in the counts, never in the returned error.
func (h *Harvester) Run(ctx context.Context) error {
	startedAt := timeNow()
	h.Logger.Info(ctx, "Harvest starting with %d credentials, backend=%s", h.Pool.Size(), h.Config.Storage.Backend)

	var collected, enriched, failed, skipped int64

	if h.Config.Phase1.Enabled {
		scheduler := NewPhase1Scheduler(h.Logger, h.Config, h.Writer, h.Api, h.Seen)
		saved, failedTasks, err := scheduler.RunAll(ctx)
		collected = saved
		skipped = int64(failedTasks)
		if err != nil {
			h.Logger.Warn(ctx, "Phase 1 stopped early: %v", err)
		}
	}

	if h.Config.Phase2.Enabled && ctx.Err() == nil {
		scheduler := NewPhase2Scheduler(h.Logger, h.Config, h.Store, h.Writer, h.Api)
		enrichedCount, failedCount, err := scheduler.RunAll(ctx)
		enriched = enrichedCount
		failed = failedCount
		if err != nil {
			h.Logger.Warn(ctx, "Phase 2 stopped early: %v", err)
		}
	}

	finishedAt := timeNow()
	stat := &model.RunStat{
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		DurationSec: int64(finishedAt.Sub(startedAt).Seconds()),
		Collected:   collected,
		Enriched:    enriched,
		Failed:      failed,
		Skipped:     skipped,
	}
	if err := h.Store.SaveRunStat(context.WithoutCancel(ctx), stat); err != nil {
		h.Logger.Error(ctx, "Failed to save run stats: %v", err)
	}

	h.Logger.Info(ctx, "Harvest finished in %s: collected=%d enriched=%d failed=%d skipped=%d",
		finishedAt.Sub(startedAt).Round(time.Second), collected, enriched, failed, skipped)
	return nil
}
