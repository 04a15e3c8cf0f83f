// Package cli implements the buildgrid command line: cobra commands over
// app.App, exit code classification and the end-of-run summary.
package cli
