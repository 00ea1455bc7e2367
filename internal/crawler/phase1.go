package crawler

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/minhlq/github-harvester/cfg"
	"github.com/minhlq/github-harvester/internal/githubapi"
	"github.com/minhlq/github-harvester/internal/model"
	"github.com/minhlq/github-harvester/internal/store"
	"github.com/minhlq/github-harvester/pkg/log"
)

// Phase1Scheduler fans the discovery tasks out over a bounded worker pool
// and accumulates discovered entities into save batches. A failed task is
// counted, never fatal to its siblings.
type Phase1Scheduler struct {
	Logger log.Logger
	Config *cfg.Config
	Writer store.Writer
	Api    *githubapi.Client
	Seen   *SeenSet

	batchMu sync.Mutex
	batch   []model.Repo
	saved   int64
	failed  int32
}

func NewPhase1Scheduler(logger log.Logger, config *cfg.Config, writer store.Writer, api *githubapi.Client, seen *SeenSet) *Phase1Scheduler {
	return &Phase1Scheduler{
		Logger: logger,
		Config: config,
		Writer: writer,
		Api:    api,
		Seen:   seen,
	}
}

// RunAll builds the task list, runs every task and returns how many rows the
// bulk upserts touched plus how many tasks failed. Cancellation stops new
// task submissions, lets running tasks finish and still flushes whatever
// the batch holds.
func (s *Phase1Scheduler) RunAll(ctx context.Context) (int64, int, error) {
	tasks := BuildTasks(s.Config, timeNow())
	s.Logger.Info(ctx, "Phase 1 starting with %d discovery tasks", len(tasks))

	poolSize := s.Config.Phase1.Workers
	if poolSize <= 0 {
		poolSize = 4
	}
	workers := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			s.Logger.Warn(ctx, "Phase 1 interrupted, no new tasks submitted")
		default:
			wg.Add(1)
			workers <- struct{}{}
			go func(task DiscoveryTask) {
				defer wg.Done()
				defer func() { <-workers }()
				defer func() {
					if r := recover(); r != nil {
						atomic.AddInt32(&s.failed, 1)
						s.Logger.Error(ctx, "Discovery task %s panicked: %v", task.Name, r)
					}
				}()
				s.runTask(ctx, task)
			}(task)
			continue
		}
		break
	}

	wg.Wait()

	// Final flush runs on a fresh context so an interrupt does not drop
	// what was already collected.
	s.flush(context.WithoutCancel(ctx))

	saved := atomic.LoadInt64(&s.saved)
	failed := int(atomic.LoadInt32(&s.failed))
	s.Logger.Info(ctx, "Phase 1 done: %d rows saved, %d tasks failed, %d unique repositories seen", saved, failed, s.Seen.Len())
	return saved, failed, ctx.Err()
}

func (s *Phase1Scheduler) runTask(ctx context.Context, task DiscoveryTask) {
	worker := NewDiscoveryWorker(s.Logger, s.Config, s.Api, s.Seen)
	entities, err := worker.Run(ctx, task)
	if err != nil {
		atomic.AddInt32(&s.failed, 1)
		s.Logger.Warn(ctx, "Discovery task %s failed after %d entities: %v", task.Name, len(entities), err)
	} else {
		s.Logger.Debug(ctx, "Discovery task %s collected %d entities", task.Name, len(entities))
	}
	if len(entities) > 0 {
		s.accumulate(ctx, entities)
	}
}

// accumulate appends to the shared batch and flushes once it crosses the
// configured size, bounding peak memory and the crash window.
func (s *Phase1Scheduler) accumulate(ctx context.Context, entities []model.Repo) {
	batchSize := s.Config.Phase1.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	s.batchMu.Lock()
	s.batch = append(s.batch, entities...)
	var toSave []model.Repo
	if len(s.batch) >= batchSize {
		toSave = s.batch
		s.batch = nil
	}
	s.batchMu.Unlock()

	if len(toSave) > 0 {
		s.save(ctx, toSave)
	}
}

func (s *Phase1Scheduler) flush(ctx context.Context) {
	s.batchMu.Lock()
	toSave := s.batch
	s.batch = nil
	s.batchMu.Unlock()

	if len(toSave) > 0 {
		s.save(ctx, toSave)
	}
}

func (s *Phase1Scheduler) save(ctx context.Context, entities []model.Repo) {
	affected, err := s.Writer.BulkUpsert(ctx, entities)
	if err != nil {
		atomic.AddInt32(&s.failed, 1)
		s.Logger.Error(ctx, "Failed to save batch of %d entities: %v", len(entities), err)
		return
	}
	atomic.AddInt64(&s.saved, affected)
}
