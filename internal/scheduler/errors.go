package scheduler

import (
	"errors"
	"fmt"
	"time"
)

// fatal is implemented by errors that must halt the whole run.
type fatal interface {
	Fatal() bool
}

// IsFatal reports whether any error in err's chain declares itself fatal.
func IsFatal(err error) bool {
	var f fatal
	return errors.As(err, &f) && f.Fatal()
}

// DuplicateTaskError is returned when a task ID is added twice.
type DuplicateTaskError struct {
	ID string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("task %q is already defined", e.ID)
}

// UnknownTaskError is returned for references to tasks that do not exist.
type UnknownTaskError struct {
	ID       string
	Referrer string
}

func (e *UnknownTaskError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("task %q depends on unknown task %q", e.Referrer, e.ID)
	}
	return fmt.Sprintf("unknown task %q", e.ID)
}

// TimeoutError reports a task whose action exceeded its timeout.
type TimeoutError struct {
	Task    string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("task %s timed out after %s", e.Task, e.Timeout)
}

// PanicError wraps a panic raised by a task action.
type PanicError struct {
	Task  string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}
