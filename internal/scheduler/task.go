package scheduler

import (
	"context"
	"time"
)

// Action performs a task's work.
type Action func(ctx context.Context) error

// UpToDateCheck decides whether a task can be skipped. Record is called
// after the task succeeds.
type UpToDateCheck interface {
	UpToDate(ctx context.Context) (bool, error)
	Record(ctx context.Context) error
}

// Task is one unit of work in the graph.
type Task struct {
	ID           string
	Predecessors []string
	// Action may be nil for lifecycle tasks that only aggregate others.
	Action Action
	// Check may be nil, in which case the task always runs.
	Check UpToDateCheck
	// Timeout bounds the action. Zero means no limit. An action that ignores
	// its context is abandoned, not stopped: it keeps running after the task
	// is reported failed, so actions writing files must check ctx.Err()
	// before publishing them.
	Timeout     time.Duration
	Group       string
	Description string
}

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusSkipped
}

// Reason qualifies Skipped and Failed states.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonUpToDate  Reason = "up-to-date"
	ReasonBlocked   Reason = "blocked"
	ReasonHalted    Reason = "halted"
	ReasonCancelled Reason = "cancelled"
	ReasonTimeout   Reason = "timeout"
)
