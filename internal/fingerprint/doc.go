// Package fingerprint decides whether a task's work can be skipped.
//
// A fingerprint is a blake3 digest over a task's input files, output files
// and configuration string. Digests of successful runs are kept in a YAML
// state file under the build directory; a task whose current digest equals
// the recorded one, and whose outputs all exist, is up to date.
package fingerprint
