package ingest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
	"github.com/JakeFAU/billtext-ingest/internal/progress"
	"github.com/JakeFAU/billtext-ingest/internal/render"
	"github.com/JakeFAU/billtext-ingest/internal/stats"
)

// Config carries one job's parameters.
type Config struct {
	// Workers is the fixed pool size.
	Workers int
	// Limit is the total bill count the percentages are computed against.
	// Zero means "size of the backlog".
	Limit int
	// RenderInterval is the progress redraw cadence.
	RenderInterval time.Duration
}

// Coordinator runs one ingestion job end to end: it shards the backlog,
// starts the pool, drives the render ticker, and emits job-level events.
type Coordinator struct {
	cfg      Config
	deps     Deps
	renderer render.SnapshotRenderer
	logger   *zap.Logger
	views    struct {
		sync.RWMutex
		latest []stats.View
	}
}

// NewCoordinator applies defaults and wires the coordinator.
func NewCoordinator(cfg Config, deps Deps, renderer render.SnapshotRenderer) *Coordinator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RenderInterval <= 0 {
		cfg.RenderInterval = time.Second
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Emit == nil {
		deps.Emit = nopEmitter{}
	}
	return &Coordinator{
		cfg:      cfg,
		deps:     deps,
		renderer: renderer,
		logger:   deps.Logger,
	}
}

// Views returns the per-worker counters from the most recent render
// tick. The operator HTTP surface serves these.
func (c *Coordinator) Views() []stats.View {
	c.views.RLock()
	defer c.views.RUnlock()
	out := make([]stats.View, len(c.views.latest))
	copy(out, c.views.latest)
	return out
}

// Run executes the job over the given backlog and returns the final
// aggregate. Cancellation stops workers between bills; in-flight fetches
// are abandoned and persisted rows are kept.
func (c *Coordinator) Run(ctx context.Context, backlog []bills.ID) (stats.Snapshot, error) {
	start := time.Now()
	jobID := progress.UUIDToBytes(uuid.New())

	limit := c.cfg.Limit
	if limit <= 0 {
		limit = len(backlog)
	}
	opts := render.Options{Limit: limit, ThreadCount: c.cfg.Workers}

	c.logger.Info("ingestion job starting",
		zap.String("job_id", uuid.UUID(jobID).String()),
		zap.Int("bills", len(backlog)),
		zap.Int("workers", c.cfg.Workers),
	)
	c.deps.Emit.Emit(progress.Event{
		JobID:  jobID,
		TS:     start.UTC(),
		Stage:  progress.StageJobStart,
		Worker: -1,
	})

	shards := shard(backlog, c.cfg.Workers)
	byWorker := make([]*stats.WorkerStat, c.cfg.Workers)
	var wg sync.WaitGroup
	for i := 0; i < c.cfg.Workers; i++ {
		byWorker[i] = &stats.WorkerStat{}
		worker := NewWorker(i, jobID, c.deps, byWorker[i])
		wg.Add(1)
		go func(shard []bills.ID) {
			defer wg.Done()
			_ = worker.Run(ctx, shard)
		}(shards[i])
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	ticker := time.NewTicker(c.cfg.RenderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.renderTick(byWorker, opts)
			c.deps.Emit.Emit(progress.Event{
				JobID:  jobID,
				TS:     time.Now().UTC(),
				Stage:  progress.StageJobHB,
				Worker: -1,
			})
		case <-ctx.Done():
			<-done
			return c.finishCanceled(ctx, jobID, byWorker, opts, start)
		case <-done:
			if ctx.Err() != nil {
				return c.finishCanceled(ctx, jobID, byWorker, opts, start)
			}
			snap := c.renderTick(byWorker, opts)
			c.deps.Emit.Emit(progress.Event{
				JobID:  jobID,
				TS:     time.Now().UTC(),
				Stage:  progress.StageJobDone,
				Worker: -1,
				Dur:    time.Since(start),
			})
			c.logger.Info("ingestion job finished",
				zap.Int64("processed", snap.Processed),
				zap.Int64("successful", snap.Successful),
				zap.Int64("failed", snap.Failed),
				zap.Int64("with_text", snap.WithText),
				zap.Duration("took", time.Since(start)),
			)
			return snap, nil
		}
	}
}

func (c *Coordinator) finishCanceled(ctx context.Context, jobID [16]byte, byWorker []*stats.WorkerStat, opts render.Options, start time.Time) (stats.Snapshot, error) {
	snap := c.renderTick(byWorker, opts)
	c.deps.Emit.Emit(progress.Event{
		JobID:  jobID,
		TS:     time.Now().UTC(),
		Stage:  progress.StageJobError,
		Worker: -1,
		Dur:    time.Since(start),
		Note:   ctx.Err().Error(),
	})
	c.logger.Warn("ingestion job canceled",
		zap.Int64("processed", snap.Processed),
		zap.Error(ctx.Err()),
	)
	return snap, fmt.Errorf("ingestion job: %w", ctx.Err())
}

// renderTick copies every worker's counters once, renders, and caches
// the views for external readers.
func (c *Coordinator) renderTick(byWorker []*stats.WorkerStat, opts render.Options) stats.Snapshot {
	views := make([]stats.View, len(byWorker))
	for i, ws := range byWorker {
		views[i] = ws.Load(i)
	}

	c.views.Lock()
	c.views.latest = views
	c.views.Unlock()

	snap := stats.AggregateViews(views)
	if c.renderer != nil {
		c.renderer.Render(snap, views, opts)
	}
	return snap
}

// shard splits the backlog round-robin so shards stay balanced even
// when the backlog is sorted by congress or number.
func shard(backlog []bills.ID, workers int) [][]bills.ID {
	shards := make([][]bills.ID, workers)
	for i, bill := range backlog {
		shards[i%workers] = append(shards[i%workers], bill)
	}
	return shards
}

// Backlog enumerates bill identities for one congress and bill type,
// numbered from 1 up to limit.
func Backlog(congress int, billType string, limit int) []bills.ID {
	out := make([]bills.ID, 0, limit)
	for n := 1; n <= limit; n++ {
		out = append(out, bills.ID{
			Congress: congress,
			Type:     billType,
			Number:   strconv.Itoa(n),
		})
	}
	return out
}
