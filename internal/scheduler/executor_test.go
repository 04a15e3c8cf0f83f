package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder captures the order in which actions run.
type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) action(id string, err error) Action {
	return func(ctx context.Context) error {
		r.mu.Lock()
		r.order = append(r.order, id)
		r.mu.Unlock()
		return err
	}
}

func (r *recorder) ran() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

type fakeCheck struct {
	upToDate bool
	recorded atomic.Int32
}

func (c *fakeCheck) UpToDate(context.Context) (bool, error) { return c.upToDate, nil }
func (c *fakeCheck) Record(context.Context) error {
	c.recorded.Add(1)
	return nil
}

type fatalErr struct{}

func (fatalErr) Error() string { return "tool could not start" }
func (fatalErr) Fatal() bool   { return true }

func mustGraph(t *testing.T, tasks ...Task) *Graph {
	t.Helper()
	g := NewGraph()
	for _, task := range tasks {
		require.NoError(t, g.Add(task))
	}
	return g
}

func requireState(t *testing.T, r *Report, id string, status Status, reason Reason) {
	t.Helper()
	st, ok := r.Task(id)
	require.True(t, ok, "task %s missing from report", id)
	assert.Equal(t, status, st.Status, "status of %s", id)
	assert.Equal(t, reason, st.Reason, "reason of %s", id)
}

func TestExecute_RespectsDependencyOrder(t *testing.T) {
	// --- Arrange ---
	rec := &recorder{}
	g := mustGraph(t,
		Task{ID: ":app:jar", Predecessors: []string{":lib:models:jar"}, Action: rec.action(":app:jar", nil)},
		Task{ID: ":lib:models:jar", Predecessors: []string{":lib:util:jar"}, Action: rec.action(":lib:models:jar", nil)},
		Task{ID: ":lib:util:jar", Action: rec.action(":lib:util:jar", nil)},
	)

	// --- Act ---
	report, err := Execute(context.Background(), g, WithWorkers(4))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, VerdictSucceeded, report.Verdict)
	assert.Equal(t, []string{":lib:util:jar", ":lib:models:jar", ":app:jar"}, rec.ran())
	assert.Equal(t, 3, report.Count(StatusSucceeded))
	ids := make([]string, 0, len(report.Tasks))
	for _, st := range report.Tasks {
		ids = append(ids, st.ID)
	}
	assert.Equal(t, []string{":lib:util:jar", ":lib:models:jar", ":app:jar"}, ids, "report follows topological order")
}

func TestExecute_IndependentTasksRunInParallel(t *testing.T) {
	var started sync.WaitGroup
	started.Add(2)
	rendezvous := func(ctx context.Context) error {
		started.Done()
		done := make(chan struct{})
		go func() { started.Wait(); close(done) }()
		select {
		case <-done:
			return nil
		case <-time.After(5 * time.Second):
			return errors.New("peer task never started")
		}
	}
	g := mustGraph(t,
		Task{ID: "a", Action: rendezvous},
		Task{ID: "b", Action: rendezvous},
	)

	report, err := Execute(context.Background(), g, WithWorkers(2))

	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(StatusSucceeded))
}

func TestExecute_UpToDate(t *testing.T) {
	rec := &recorder{}
	fresh := &fakeCheck{upToDate: true}
	stale := &fakeCheck{}
	g := mustGraph(t,
		Task{ID: "compile", Action: rec.action("compile", nil), Check: fresh},
		Task{ID: "jar", Predecessors: []string{"compile"}, Action: rec.action("jar", nil), Check: stale},
	)

	report, err := Execute(context.Background(), g)

	require.NoError(t, err)
	requireState(t, report, "compile", StatusSkipped, ReasonUpToDate)
	requireState(t, report, "jar", StatusSucceeded, ReasonNone)
	assert.Equal(t, []string{"jar"}, rec.ran())
	assert.EqualValues(t, 0, fresh.recorded.Load())
	assert.EqualValues(t, 1, stale.recorded.Load())
	assert.Equal(t, VerdictSucceeded, report.Verdict)

	t.Run("rerun ignores the check", func(t *testing.T) {
		rec := &recorder{}
		g := mustGraph(t, Task{ID: "compile", Action: rec.action("compile", nil), Check: &fakeCheck{upToDate: true}})

		_, err := Execute(context.Background(), g, WithRerun(true))

		require.NoError(t, err)
		assert.Equal(t, []string{"compile"}, rec.ran())
	})
}

func TestExecute_FailureBlocksDependents(t *testing.T) {
	// --- Arrange ---
	boom := errors.New("checkstyle found 3 violation(s)")
	rec := &recorder{}
	g := mustGraph(t,
		Task{ID: "a", Action: rec.action("a", boom)},
		Task{ID: "b", Predecessors: []string{"a"}, Action: rec.action("b", nil)},
		Task{ID: "c", Predecessors: []string{"b"}, Action: rec.action("c", nil)},
	)

	// --- Act ---
	report, err := Execute(context.Background(), g, WithContinueOnFailure(true))

	// --- Assert ---
	assert.Same(t, boom, err, "first failure is returned verbatim")
	assert.Equal(t, VerdictFailed, report.Verdict)
	assert.Equal(t, "a", report.FailedTask)
	requireState(t, report, "a", StatusFailed, ReasonNone)
	requireState(t, report, "b", StatusSkipped, ReasonBlocked)
	requireState(t, report, "c", StatusSkipped, ReasonBlocked)
	st, _ := report.Task("c")
	assert.Equal(t, "blocked by b", st.Detail)
	assert.Equal(t, []string{"a"}, rec.ran())
}

func TestExecute_ContinueOnFailure(t *testing.T) {
	boom := errors.New("gate failed")

	build := func(rec *recorder) *Graph {
		return mustGraph(t,
			Task{ID: "a-gate", Action: rec.action("a-gate", boom)},
			Task{ID: "a-check", Predecessors: []string{"a-gate"}, Action: rec.action("a-check", nil)},
			Task{ID: "z-jar", Action: rec.action("z-jar", nil)},
		)
	}

	t.Run("disabled halts unrelated tasks", func(t *testing.T) {
		rec := &recorder{}

		report, err := Execute(context.Background(), build(rec), WithWorkers(1))

		assert.Same(t, boom, err)
		requireState(t, report, "a-check", StatusSkipped, ReasonBlocked)
		requireState(t, report, "z-jar", StatusSkipped, ReasonHalted)
		assert.Equal(t, []string{"a-gate"}, rec.ran())
	})

	t.Run("enabled keeps unrelated branches running", func(t *testing.T) {
		rec := &recorder{}

		report, err := Execute(context.Background(), build(rec), WithWorkers(1), WithContinueOnFailure(true))

		assert.Same(t, boom, err)
		assert.Equal(t, VerdictFailed, report.Verdict)
		requireState(t, report, "a-check", StatusSkipped, ReasonBlocked)
		requireState(t, report, "z-jar", StatusSucceeded, ReasonNone)
	})

	t.Run("fatal errors halt even when enabled", func(t *testing.T) {
		rec := &recorder{}
		g := mustGraph(t,
			Task{ID: "a", Action: rec.action("a", fmt.Errorf("pmd: %w", fatalErr{}))},
			Task{ID: "b", Action: rec.action("b", nil)},
		)

		report, err := Execute(context.Background(), g, WithWorkers(1), WithContinueOnFailure(true))

		require.Error(t, err)
		assert.True(t, IsFatal(err))
		requireState(t, report, "b", StatusSkipped, ReasonHalted)
	})
}

func TestExecute_Cancellation(t *testing.T) {
	// --- Arrange ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	running := make(chan struct{})
	release := make(chan struct{})
	var sawCancel atomic.Bool
	rec := &recorder{}
	g := mustGraph(t,
		Task{ID: "a", Action: func(actx context.Context) error {
			close(running)
			<-release
			sawCancel.Store(actx.Err() != nil)
			return nil
		}},
		Task{ID: "b", Predecessors: []string{"a"}, Action: rec.action("b", nil)},
		Task{ID: "c", Action: rec.action("c", nil)},
	)

	// --- Act ---
	go func() {
		<-running
		cancel()
		close(release)
	}()
	report, err := Execute(ctx, g, WithWorkers(1))

	// --- Assert ---
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, report.Cancelled)
	assert.False(t, sawCancel.Load(), "running tasks finish undisturbed")
	requireState(t, report, "a", StatusSucceeded, ReasonNone)
	requireState(t, report, "b", StatusSkipped, ReasonCancelled)
	requireState(t, report, "c", StatusSkipped, ReasonCancelled)
	assert.Empty(t, rec.ran())
	assert.Equal(t, VerdictSucceeded, report.Verdict, "no task failed")
}

func TestExecute_CancellationSkipsQueuedTasksImmediately(t *testing.T) {
	// --- Arrange ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	table := NewStatusTable()
	running := make(chan struct{})
	release := make(chan struct{})
	g := mustGraph(t,
		Task{ID: "a-slow", Action: func(context.Context) error {
			close(running)
			<-release
			return nil
		}},
		Task{ID: "b-queued"},
		Task{ID: "c-after", Predecessors: []string{"a-slow"}},
	)

	// --- Act ---
	done := make(chan *Report, 1)
	go func() {
		report, _ := Execute(ctx, g, WithWorkers(1), WithStatusTable(table))
		done <- report
	}()
	<-running
	cancel()

	// --- Assert ---
	require.Eventually(t, func() bool {
		st, _ := table.Get("b-queued")
		return st.Status == StatusSkipped
	}, time.Second, 5*time.Millisecond, "queued task skipped while the slow task still runs")

	slow, _ := table.Get("a-slow")
	assert.Equal(t, StatusRunning, slow.Status)
	for _, id := range []string{"b-queued", "c-after"} {
		st, _ := table.Get(id)
		assert.Equal(t, StatusSkipped, st.Status, id)
		assert.Equal(t, ReasonCancelled, st.Reason, id)
	}

	close(release)
	report := <-done
	require.NotNil(t, report)
	assert.True(t, report.Cancelled)
	requireState(t, report, "a-slow", StatusSucceeded, ReasonNone)
	requireState(t, report, "b-queued", StatusSkipped, ReasonCancelled)
	requireState(t, report, "c-after", StatusSkipped, ReasonCancelled)
}

func TestExecute_Timeout(t *testing.T) {
	t.Run("cooperative action", func(t *testing.T) {
		g := mustGraph(t,
			Task{ID: "slow", Timeout: 20 * time.Millisecond, Action: func(ctx context.Context) error {
				<-ctx.Done()
				return ctx.Err()
			}},
			Task{ID: "after", Predecessors: []string{"slow"}},
		)

		report, err := Execute(context.Background(), g)

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		assert.Equal(t, "slow", timeoutErr.Task)
		requireState(t, report, "slow", StatusFailed, ReasonTimeout)
		requireState(t, report, "after", StatusSkipped, ReasonBlocked)
	})

	t.Run("action ignoring its context", func(t *testing.T) {
		g := mustGraph(t, Task{ID: "stuck", Timeout: 20 * time.Millisecond, Action: func(context.Context) error {
			time.Sleep(300 * time.Millisecond)
			return nil
		}})

		report, err := Execute(context.Background(), g)

		var timeoutErr *TimeoutError
		require.ErrorAs(t, err, &timeoutErr)
		requireState(t, report, "stuck", StatusFailed, ReasonTimeout)
	})
}

func TestExecute_PanicBecomesFailure(t *testing.T) {
	g := mustGraph(t, Task{ID: "p", Action: func(context.Context) error { panic("kaboom") }})

	report, err := Execute(context.Background(), g)

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "kaboom", panicErr.Value)
	requireState(t, report, "p", StatusFailed, ReasonNone)
}

func TestExecute_InjectedStatusTable(t *testing.T) {
	table := NewStatusTable()
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGraph(t,
		Task{ID: "lifecycle"},
		Task{ID: "work", Action: func(context.Context) error {
			st, ok := table.Get("work")
			if !ok || st.Status != StatusRunning {
				return errors.New("table does not show the task as running")
			}
			return nil
		}},
	)

	_, err := Execute(context.Background(), g, WithStatusTable(table), WithClock(func() time.Time { return clock }))

	require.NoError(t, err)
	for _, st := range table.Snapshot() {
		assert.Equal(t, StatusSucceeded, st.Status, st.ID)
		assert.Equal(t, clock, st.Finished)
	}
}

func TestExecute_EmptyAndInvalidGraphs(t *testing.T) {
	report, err := Execute(context.Background(), NewGraph())
	require.NoError(t, err)
	assert.Equal(t, VerdictSucceeded, report.Verdict)
	assert.Empty(t, report.Tasks)

	g := mustGraph(t, Task{ID: "a", Predecessors: []string{"ghost"}})
	_, err = Execute(context.Background(), g)
	var unknown *UnknownTaskError
	assert.ErrorAs(t, err, &unknown)
}
