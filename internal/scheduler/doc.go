// Package scheduler executes a graph of build tasks.
//
// Each task moves through a small state machine:
//
//	Pending -> Running -> Succeeded | Failed | Skipped
//	Pending -> Skipped
//
// A task starts only after every predecessor has Succeeded or was Skipped
// as up to date. Independent chains run in parallel on a bounded worker
// pool; within a chain the dependency order is always respected.
//
// A failed task blocks its dependents. Without ContinueOnFailure the first
// failure also halts every task that has not started yet; with it,
// unrelated branches keep going. Errors that report Fatal() == true halt
// the run regardless. Cancelling the context skips whatever is still
// pending while running tasks are allowed to finish.
//
// All mutable execution state lives in a StatusTable, which callers may
// inject to observe a run while it is in progress.
package scheduler
