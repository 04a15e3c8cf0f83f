package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vk/buildgrid/internal/ctxlog"
)

// Option configures Execute.
type Option func(*executor)

// WithWorkers bounds the number of tasks running at once.
func WithWorkers(n int) Option {
	return func(e *executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithContinueOnFailure keeps unrelated branches running after a
// recoverable failure.
func WithContinueOnFailure(enabled bool) Option {
	return func(e *executor) { e.continueOnFailure = enabled }
}

// WithStatusTable makes Execute record state in table, so that callers can
// observe the run while it progresses.
func WithStatusTable(table *StatusTable) Option {
	return func(e *executor) { e.table = table }
}

// WithRerun ignores up-to-date checks.
func WithRerun(enabled bool) Option {
	return func(e *executor) { e.rerun = enabled }
}

// WithClock overrides the time source used for task timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *executor) { e.now = now }
}

type executor struct {
	graph             *Graph
	table             *StatusTable
	workers           int
	continueOnFailure bool
	rerun             bool
	now               func() time.Time

	dependents map[string][]string
	depCount   map[string]*atomic.Int32
	wg         sync.WaitGroup

	halted   atomic.Pointer[string]
	failMu   sync.Mutex
	firstErr error
	firstID  string
}

// Execute runs every task of g and returns a report. The returned error is
// the first task failure, verbatim, or the context error if the run was
// cancelled without any failure.
func Execute(ctx context.Context, g *Graph, opts ...Option) (*Report, error) {
	logger := ctxlog.FromContext(ctx)

	order, err := g.Order()
	if err != nil {
		return nil, err
	}

	e := &executor{
		graph:      g,
		table:      NewStatusTable(),
		workers:    runtime.NumCPU(),
		now:        time.Now,
		dependents: g.dependents(),
		depCount:   make(map[string]*atomic.Int32, len(order)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.table.reset(order)

	if len(order) == 0 {
		logger.Warn("No tasks to execute.")
		return e.report(ctx), nil
	}

	// Tasks still queued when the run is cancelled are skipped right away,
	// not when a worker gets to them.
	stopCancelHook := context.AfterFunc(ctx, func() {
		if n := e.table.skipPending(ReasonCancelled, "run cancelled", e.now()); n > 0 {
			logger.Warn("Run cancelled, skipping pending tasks.", "count", n)
		}
	})
	defer stopCancelHook()

	readyChan := make(chan string, len(order))
	rootCount := 0
	for _, id := range order {
		n := &atomic.Int32{}
		n.Store(int32(len(g.tasks[id].Predecessors)))
		e.depCount[id] = n
	}
	for _, id := range order {
		if e.depCount[id].Load() == 0 {
			readyChan <- id
			rootCount++
		}
	}
	logger.Debug("Found all root tasks.", "count", rootCount)

	e.wg.Add(len(order))
	workers := min(e.workers, len(order))
	logger.Debug("Starting worker pool.", "workers", workers)
	for i := 0; i < workers; i++ {
		go e.worker(ctx, readyChan, i)
	}

	e.wg.Wait()
	close(readyChan)

	report := e.report(ctx)
	return report, report.Err
}

// worker is the core processing loop for a single concurrent worker. Every
// task passes through exactly one worker once its predecessors are terminal,
// whether it runs or is skipped, so dependents are always released.
func (e *executor) worker(ctx context.Context, readyChan chan string, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for id := range readyChan {
		taskCtx := ctxlog.With(ctx, "task", id)
		e.process(taskCtx, id)

		for _, dependent := range e.dependents[id] {
			if e.depCount[dependent].Add(-1) == 0 {
				readyChan <- dependent
			}
		}
		e.wg.Done()
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (e *executor) process(ctx context.Context, id string) {
	logger := ctxlog.FromContext(ctx)
	t := e.graph.tasks[id]

	if ctx.Err() != nil {
		logger.Warn("Run cancelled, skipping task.")
		e.skip(id, ReasonCancelled, "run cancelled")
		return
	}
	for _, pred := range t.Predecessors {
		st, _ := e.table.Get(pred)
		if st.Status == StatusFailed || (st.Status == StatusSkipped && st.Reason == ReasonBlocked) {
			logger.Warn("Skipping task due to upstream failure.", "dependency", pred)
			e.skip(id, ReasonBlocked, "blocked by "+pred)
			return
		}
	}
	if culprit := e.halted.Load(); culprit != nil {
		logger.Debug("Run halted, skipping task.", "failed_task", *culprit)
		e.skip(id, ReasonHalted, "halted after failure of "+*culprit)
		return
	}

	if err := e.table.transition(id, TaskState{Status: StatusRunning, Started: e.now()}); err != nil {
		if e.cancelledWhilePending(id) {
			logger.Debug("Task skipped by cancellation before it started.")
			return
		}
		logger.Error("Unexpected task state.", "error", err)
		return
	}

	if t.Check != nil && !e.rerun {
		upToDate, err := t.Check.UpToDate(ctx)
		switch {
		case err != nil:
			logger.Warn("Up-to-date check failed, running task.", "error", err)
		case upToDate:
			logger.Info("⏭️ Task up to date.")
			e.finish(id, StatusSkipped, ReasonUpToDate, "", nil)
			return
		}
	}

	logger.Info("▶️ Starting task.")
	err := e.runAction(ctx, t)
	if err != nil {
		reason := ReasonNone
		var timeoutErr *TimeoutError
		if errors.As(err, &timeoutErr) {
			reason = ReasonTimeout
		}
		logger.Error("Task failed.", "error", err)
		e.finish(id, StatusFailed, reason, err.Error(), err)
		e.recordFailure(ctx, id, err)
		return
	}

	if t.Check != nil {
		if err := t.Check.Record(ctx); err != nil {
			logger.Warn("Failed to record task fingerprint.", "error", err)
		}
	}
	e.finish(id, StatusSucceeded, ReasonNone, "", nil)
	logger.Info("✅ Finished task.")
}

// runAction runs the task's action detached from the run's cancellation, so
// a stop request lets it finish. Only the task's own timeout interrupts it.
func (e *executor) runAction(ctx context.Context, t *Task) error {
	if t.Action == nil {
		return nil
	}

	actx := context.WithoutCancel(ctx)
	if t.Timeout > 0 {
		var cancel context.CancelFunc
		actx, cancel = context.WithTimeout(actx, t.Timeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &PanicError{Task: t.ID, Value: r}
			}
		}()
		done <- t.Action(actx)
	}()

	select {
	case err := <-done:
		if err != nil && t.Timeout > 0 && errors.Is(actx.Err(), context.DeadlineExceeded) {
			return &TimeoutError{Task: t.ID, Timeout: t.Timeout}
		}
		return err
	case <-actx.Done():
		return &TimeoutError{Task: t.ID, Timeout: t.Timeout}
	}
}

func (e *executor) skip(id string, reason Reason, detail string) {
	e.finish(id, StatusSkipped, reason, detail, nil)
}

func (e *executor) finish(id string, status Status, reason Reason, detail string, err error) {
	now := e.now()
	if werr := e.table.transition(id, TaskState{Status: status, Reason: reason, Detail: detail, Err: err, Finished: now}); werr != nil {
		if status == StatusSkipped && e.cancelledWhilePending(id) {
			return
		}
		panic(fmt.Sprintf("scheduler: %v", werr))
	}
}

// cancelledWhilePending reports whether the cancel hook already skipped id.
func (e *executor) cancelledWhilePending(id string) bool {
	st, _ := e.table.Get(id)
	return st.Status == StatusSkipped && st.Reason == ReasonCancelled && st.Started.IsZero()
}

func (e *executor) recordFailure(ctx context.Context, id string, err error) {
	e.failMu.Lock()
	if e.firstErr == nil {
		e.firstErr = err
		e.firstID = id
	}
	e.failMu.Unlock()

	if IsFatal(err) || !e.continueOnFailure {
		if e.halted.CompareAndSwap(nil, &id) {
			ctxlog.FromContext(ctx).Warn("Halting run after task failure.", "fatal", IsFatal(err))
		}
	}
}

func (e *executor) report(ctx context.Context) *Report {
	r := &Report{Verdict: VerdictSucceeded}
	for _, st := range e.table.Snapshot() {
		r.Tasks = append(r.Tasks, st)
		if st.Status == StatusFailed {
			r.Verdict = VerdictFailed
		}
		if st.Reason == ReasonCancelled {
			r.Cancelled = true
		}
	}
	e.failMu.Lock()
	r.FailedTask, r.Err = e.firstID, e.firstErr
	e.failMu.Unlock()
	if r.Err == nil && r.Cancelled {
		r.Err = ctx.Err()
	}
	return r
}
