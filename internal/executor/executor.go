package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/graph"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/scheduler"
	"github.com/vk/stagegrid/internal/stage"
)

// ErrSkipped marks stages that never ran because an upstream stage failed or
// the run was cancelled.
var ErrSkipped = errors.New("skipped")

// WorkerPool is the in-process Executor. It dispatches ready stages to a
// fixed number of workers and stops scheduling new work after the first
// failure.
type WorkerPool struct {
	graph     graph.Graph
	scheduler scheduler.Scheduler
	registry  *registry.Registry
	workers   int

	wg     sync.WaitGroup
	report *Report
}

// New creates a worker-pool executor. A non-positive worker count runs
// stages one at a time.
func New(g graph.Graph, s scheduler.Scheduler, r *registry.Registry, workers int) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{graph: g, scheduler: s, registry: r, workers: workers}
}

// Report returns the outcome of the last Execute call, or nil before one.
func (e *WorkerPool) Report() *Report {
	return e.report
}

// Execute runs every stage of the graph and returns an error naming the
// stages that failed, wrapping the first root-cause error.
func (e *WorkerPool) Execute(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	stages := e.graph.AllStages(ctx)
	readyChan := make(chan *stage.Stage, len(stages))
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.wg.Add(len(stages))

	logger.Debug("Initializing executor, finding root stages...")
	roots := e.scheduler.Roots(runCtx)
	for _, s := range roots {
		readyChan <- s
	}
	logger.Debug("Found all root stages.", "count", len(roots))

	logger.Debug("Starting worker pool.", "workers", e.workers)
	for i := 0; i < e.workers; i++ {
		go e.worker(runCtx, readyChan, cancel, i)
	}

	logger.Info("Waiting for all stages to complete...")
	e.wg.Wait()
	logger.Info("All stages completed.")
	close(readyChan)

	e.report = newReport(stages)
	if err := e.report.Err(); err != nil {
		return err
	}
	return ctx.Err()
}

func (e *WorkerPool) worker(ctx context.Context, readyChan chan *stage.Stage, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for s := range readyChan {
		workerLogger := logger.With("workerID", workerID, "stage", s.ID())
		stageCtx := ctxlog.WithLogger(ctx, workerLogger)

		if ctx.Err() != nil {
			e.skip(stageCtx, s, fmt.Errorf("%w: %w", ErrSkipped, ctx.Err()))
			continue
		}

		workerLogger.Debug("Worker picked up stage for execution.")
		if err := e.runStage(stageCtx, s); err != nil {
			workerLogger.Error("Stage execution failed.", "error", err)
			if markErr := e.graph.MarkFailed(stageCtx, s, err); markErr != nil {
				workerLogger.Error("Failed to record stage failure.", "error", markErr)
			}
			cancel()
			e.skipDependents(stageCtx, s)
			e.wg.Done()
			continue
		}

		workerLogger.Debug("Stage execution succeeded.")
		ready, err := e.scheduler.Complete(stageCtx, s)
		if err != nil {
			workerLogger.Error("Failed to unlock dependents.", "error", err)
			cancel()
			e.skipDependents(stageCtx, s)
		}
		for _, next := range ready {
			readyChan <- next
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

// runStage executes one stage, or replays its recorded outputs when an
// earlier attempt of the same execution already completed it.
func (e *WorkerPool) runStage(ctx context.Context, s *stage.Stage) (err error) {
	logger := ctxlog.FromContext(ctx)

	recorded, ok, err := e.graph.RecordedOutputs(ctx, *s.Address())
	if err != nil {
		return fmt.Errorf("reading recorded outputs: %w", err)
	}
	if ok {
		logger.Info("Stage already completed in an earlier attempt, reusing outputs.")
		return e.graph.MarkCompleted(ctx, s, recorded)
	}

	handler, err := e.registry.Lookup(s.Type)
	if err != nil {
		return err
	}
	if err := e.graph.MarkRunning(ctx, s); err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler for stage type '%s' panicked: %v", s.Type, r)
		}
	}()

	outputs, err := handler(ctx, s.Context())
	if err != nil {
		return err
	}
	return e.graph.MarkCompleted(ctx, s, outputs)
}

// skip marks a stage that will not run and propagates to its dependents.
func (e *WorkerPool) skip(ctx context.Context, s *stage.Stage, reason error) {
	marked, err := e.graph.MarkSkipped(ctx, s, reason)
	if err != nil {
		ctxlog.FromContext(ctx).Error("Failed to record skipped stage.", "stage", s.ID(), "error", err)
	}
	if !marked {
		return
	}
	e.skipDependents(ctx, s)
	e.wg.Done()
}

// skipDependents recursively marks all downstream stages as failed.
func (e *WorkerPool) skipDependents(ctx context.Context, s *stage.Stage) {
	logger := ctxlog.FromContext(ctx)
	dependents, err := e.graph.Dependents(ctx, *s.Address())
	if err != nil {
		logger.Error("Failed to get dependents for skipped stage.", "stage", s.ID(), "error", err)
		return
	}
	for _, dependent := range dependents {
		logger.Warn("Skipping dependent stage due to upstream failure.", "dependent", dependent.ID(), "failed_dependency", s.ID())
		e.skip(ctx, dependent, fmt.Errorf("%w due to failure in dependency '%s'", ErrSkipped, s.ID()))
	}
}

// StageResult is the final state of one stage.
type StageResult struct {
	ID      string
	Type    string
	State   stage.State
	Err     error
	Outputs map[string]any
}

// Report summarises a run in stage insertion order.
type Report struct {
	Stages []StageResult
}

func newReport(stages []*stage.Stage) *Report {
	r := &Report{Stages: make([]StageResult, 0, len(stages))}
	for _, s := range stages {
		r.Stages = append(r.Stages, StageResult{
			ID:      s.ID(),
			Type:    s.Type,
			State:   s.GetState(),
			Err:     s.Err(),
			Outputs: s.OutputMap(),
		})
	}
	return r
}

// Result returns the result for a stage ID.
func (r *Report) Result(id string) (StageResult, bool) {
	for _, res := range r.Stages {
		if res.ID == id {
			return res, true
		}
	}
	return StageResult{}, false
}

// Err returns the root-cause error of the run, or nil if every stage
// succeeded. Skipped and cancelled stages are symptoms and are not named.
func (r *Report) Err() error {
	var failed []string
	var rootCause error
	for _, res := range r.Stages {
		if res.State != stage.Failed || res.Err == nil {
			continue
		}
		if errors.Is(res.Err, ErrSkipped) || errors.Is(res.Err, context.Canceled) {
			continue
		}
		failed = append(failed, res.ID)
		if rootCause == nil {
			rootCause = res.Err
		}
	}
	if rootCause != nil {
		return fmt.Errorf("execution failed for %s: %w", strings.Join(failed, ", "), rootCause)
	}
	return nil
}
