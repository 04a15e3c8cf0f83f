// Package config defines the format-agnostic model of a project build file
// and the Loader interface that produces it.
//
// The Model is the single source of truth for the build planner. Concrete
// loaders, such as the HCL one, live in separate packages and return a
// Model whose paths are already absolute and whose defaults are applied.
package config
