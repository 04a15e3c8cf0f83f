// Package hcl implements config.Loader for `buildgrid.hcl` build files.
//
// Loading happens in two phases. The single `project` block is decoded
// first, without variables. Its values, together with the project root
// directory, become the `project.*` variables of the evaluation context
// used to decode every other block, which may also call the cty standard
// library functions (upper, join, format and friends).
package hcl
