// Package testutil holds fixtures shared by package tests: a concurrency
// safe log buffer and a writer for small on-disk projects.
package testutil
