package fingerprint

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"
)

// Check is the up-to-date predicate of one task.
type Check struct {
	store *Store
	task  string
	spec  func() Spec
	runID string
	now   func() time.Time
}

// CheckOption configures a Check.
type CheckOption func(*Check)

// WithRunID stamps recorded entries with the run that produced them.
func WithRunID(id string) CheckOption {
	return func(c *Check) { c.runID = id }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CheckOption {
	return func(c *Check) { c.now = now }
}

// NewCheck builds a predicate for task. spec is evaluated lazily, so file
// lists may depend on work done by predecessors.
func (s *Store) NewCheck(task string, spec func() Spec, opts ...CheckOption) *Check {
	c := &Check{store: s, task: task, spec: spec, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UpToDate reports whether the task's inputs, outputs and configuration
// still match the last successful run and every output exists.
func (c *Check) UpToDate(ctx context.Context) (bool, error) {
	prev, ok := c.store.Get(c.task)
	if !ok {
		return false, nil
	}
	spec := c.spec()
	for _, out := range spec.Outputs {
		if _, err := os.Stat(out); errors.Is(err, fs.ErrNotExist) {
			return false, nil
		} else if err != nil {
			return false, err
		}
	}
	digest, err := Compute(spec)
	if err != nil {
		return false, err
	}
	return digest == prev.Digest, nil
}

// Record stores the current fingerprint after a successful run.
func (c *Check) Record(ctx context.Context) error {
	digest, err := Compute(c.spec())
	if err != nil {
		return err
	}
	c.store.Put(c.task, Entry{Digest: digest, RecordedAt: c.now().UTC(), RunID: c.runID})
	return nil
}
