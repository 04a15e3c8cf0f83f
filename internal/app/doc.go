// Package app wires the build together: it owns the logger, loads the
// build file through a config.Loader, builds the task plan and executes
// the requested targets on the scheduler. An optional HTTP server exposes
// liveness and the live task status table.
package app
