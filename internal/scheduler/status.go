package scheduler

import (
	"fmt"
	"sync"
	"time"
)

// TaskState is a point-in-time view of one task.
type TaskState struct {
	ID       string
	Status   Status
	Reason   Reason
	Detail   string
	Err      error
	Started  time.Time
	Finished time.Time
}

// Duration is the time spent running, zero if the task never ran.
func (s TaskState) Duration() time.Duration {
	if s.Started.IsZero() || s.Finished.IsZero() {
		return 0
	}
	return s.Finished.Sub(s.Started)
}

type entry struct {
	mu    sync.Mutex
	state TaskState
}

// StatusTable holds the state of every task in a run. Each entry has its
// own lock, so transitions on different tasks never contend.
type StatusTable struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]*entry
}

// NewStatusTable returns an empty table.
func NewStatusTable() *StatusTable {
	return &StatusTable{entries: make(map[string]*entry)}
}

// reset registers ids as Pending, discarding earlier state.
func (t *StatusTable) reset(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.order = append([]string(nil), ids...)
	t.entries = make(map[string]*entry, len(ids))
	for _, id := range ids {
		t.entries[id] = &entry{state: TaskState{ID: id, Status: StatusPending}}
	}
}

func (t *StatusTable) entry(id string) (*entry, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[id]
	if !ok {
		return nil, &UnknownTaskError{ID: id}
	}
	return e, nil
}

// Get returns the current state of id.
func (t *StatusTable) Get(id string) (TaskState, bool) {
	e, err := t.entry(id)
	if err != nil {
		return TaskState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// Snapshot returns every task's state in registration order.
func (t *StatusTable) Snapshot() []TaskState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]TaskState, 0, len(t.order))
	for _, id := range t.order {
		e := t.entries[id]
		e.mu.Lock()
		out = append(out, e.state)
		e.mu.Unlock()
	}
	return out
}

// skipPending moves every Pending task to Skipped with reason and returns
// how many it moved.
func (t *StatusTable) skipPending(reason Reason, detail string, at time.Time) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := 0
	for _, id := range t.order {
		e := t.entries[id]
		e.mu.Lock()
		if e.state.Status == StatusPending {
			e.state.Status = StatusSkipped
			e.state.Reason = reason
			e.state.Detail = detail
			e.state.Finished = at
			n++
		}
		e.mu.Unlock()
	}
	return n
}

var allowed = map[Status][]Status{
	StatusPending: {StatusRunning, StatusSkipped},
	StatusRunning: {StatusSucceeded, StatusFailed, StatusSkipped},
}

// transition atomically moves id to next.Status if the current status
// permits it. Fields left zero in next keep their current value except
// Reason, Detail and Err, which are replaced.
func (t *StatusTable) transition(id string, next TaskState) error {
	e, err := t.entry(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.state.Status
	ok := false
	for _, s := range allowed[cur] {
		if s == next.Status {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("task %s: invalid transition %s -> %s", id, cur, next.Status)
	}

	e.state.Status = next.Status
	e.state.Reason = next.Reason
	e.state.Detail = next.Detail
	e.state.Err = next.Err
	if !next.Started.IsZero() {
		e.state.Started = next.Started
	}
	if !next.Finished.IsZero() {
		e.state.Finished = next.Finished
	}
	return nil
}
