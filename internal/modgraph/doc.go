// Package modgraph holds the project's module graph: every module keyed by
// its path-like identifier (`:lib:models`) together with the modules it
// depends on.
//
// The graph is assembled once from the build configuration and is read-only
// after Freeze. Its topological order drives the order in which module
// artifacts are produced and the layout of the runtime classpath.
package modgraph
