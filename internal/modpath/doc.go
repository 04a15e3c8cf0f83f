// internal/modpath/doc.go

/*
Package modpath provides a structured representation for module and task
paths, based on the canonical format `:segment:segment`.

A module path names a project module, e.g. `:lib:models`. A task path is a
module path followed by a task name, e.g. `:lib:models:jar`. The root path
`:` owns project-wide tasks such as `:build`.

This package enforces the identifier schema and centralizes all formatting
and parsing logic.
*/
package modpath
