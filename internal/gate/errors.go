package gate

import (
	"fmt"
)

// ToolInvocationError means the analysis could not run at all: a missing
// or malformed rule file, an unreadable suppression file, a tool that
// cannot start or whose output cannot be parsed. It is fatal regardless of
// IgnoreFailures.
type ToolInvocationError struct {
	Tool   string
	Module string
	Err    error
}

func (e *ToolInvocationError) Error() string {
	if e.Module == "" {
		return fmt.Sprintf("%s: tool invocation failed: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s on %s: tool invocation failed: %v", e.Tool, e.Module, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

// Fatal marks the error as one that halts the whole run.
func (e *ToolInvocationError) Fatal() bool { return true }

// ThresholdError reports a gate whose violation count exceeded its
// threshold while IgnoreFailures was off. It is recoverable: independent
// work may continue.
type ThresholdError struct {
	Tool        string
	Module      string
	SourceSet   string
	Count       int
	MaxWarnings int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("%s found %d violation(s) in %s (%s), maximum allowed is %d",
		e.Tool, e.Count, e.Module, e.SourceSet, e.MaxWarnings)
}
