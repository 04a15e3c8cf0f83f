// Package dag provides a small, concurrency-safe directed graph keyed by
// string identifiers. It is shared by the module graph and the task
// scheduler: both register vertices, connect them with dependency edges,
// and rely on this package for cycle detection and a reproducible
// topological order.
package dag
