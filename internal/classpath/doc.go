// Package classpath computes the runtime classpath of an application module.
//
// The module graph supplies the project modules; third-party libraries are
// already-resolved local files declared on each module. Nothing is fetched.
package classpath
