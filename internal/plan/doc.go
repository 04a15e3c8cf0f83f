// Package plan turns a loaded build model into a scheduler task graph.
//
// Every module gets a jar task and one task per quality gate and source
// set; the application module additionally drives launch script
// generation, the install tree and the distribution archives. Lifecycle
// tasks (`:check`, `:assemble`, `:build`) only aggregate others.
package plan
