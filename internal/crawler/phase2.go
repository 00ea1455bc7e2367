package crawler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/log"
)

// Phase2Scheduler selects the entities eligible for enrichment and runs
// enrichment workers over them on a bounded pool.
type Phase2Scheduler struct {
	Logger log.Logger
	Config *cfg.Config
	Store  store.Store
	Writer store.Writer
	Api    *githubapi.Client
}

func NewPhase2Scheduler(logger log.Logger, config *cfg.Config, st store.Store, writer store.Writer, api *githubapi.Client) *Phase2Scheduler {
	return &Phase2Scheduler{
		Logger: logger,
		Config: config,
		Store:  st,
		Writer: writer,
		Api:    api,
	}
}

// RunAll returns the enriched and failed entity counts. A single worker's
// panic or error is counted as a failure and never terminates siblings.
func (s *Phase2Scheduler) RunAll(ctx context.Context) (int64, int64, error) {
	candidates, err := s.Store.Candidates(ctx, s.candidateFilter())
	if err != nil {
		return 0, 0, err
	}
	s.Logger.Info(ctx, "Phase 2 starting with %d enrichment candidates", len(candidates))

	poolSize := s.Config.Phase2.Workers
	if poolSize <= 0 {
		poolSize = 4
	}
	workers := make(chan struct{}, poolSize)
	var wg sync.WaitGroup
	var enriched, failed int64

	for _, candidate := range candidates {
		select {
		case <-ctx.Done():
			s.Logger.Warn(ctx, "Phase 2 interrupted, no new entities submitted")
		default:
			wg.Add(1)
			workers <- struct{}{}
			go func(candidate model.Repo) {
				defer wg.Done()
				defer func() { <-workers }()
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt64(&failed, 1)
						s.Logger.Error(ctx, "Enrichment of %s panicked: %v", candidate.FullName, r)
					}
				}()

				worker := NewEnrichmentWorker(s.Logger, s.Config, s.Api, s.Writer)
				ok, err := worker.Run(ctx, candidate)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					s.Logger.Warn(ctx, "Enrichment of %s failed: %v", candidate.FullName, err)
					return
				}
				if ok {
					atomic.AddInt64(&enriched, 1)
				}
			}(candidate)
			continue
		}
		break
	}

	wg.Wait()

	enrichedTotal := atomic.LoadInt64(&enriched)
	failedTotal := atomic.LoadInt64(&failed)
	s.Logger.Info(ctx, "Phase 2 done: %d enriched, %d failed", enrichedTotal, failedTotal)
	return enrichedTotal, failedTotal, ctx.Err()
}

func (s *Phase2Scheduler) candidateFilter() store.CandidateFilter {
	var createdAfter time.Time
	if s.Config.Phase2.MaxAgeYears > 0 {
		createdAfter = timeNow().AddDate(-s.Config.Phase2.MaxAgeYears, 0, 0)
	}
	return store.CandidateFilter{
		MinStars:     s.Config.Phase2.MinStars,
		CreatedAfter: createdAfter,
		SkipForks:    s.Config.Phase2.SkipForks,
		Limit:        s.Config.Phase2.MaxRepos,
	}
}
