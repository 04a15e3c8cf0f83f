package modgraph

import (
	"fmt"
	"strings"
)

// DuplicateModuleError is returned when a module identifier is registered twice.
type DuplicateModuleError struct {
	ID string
}

func (e *DuplicateModuleError) Error() string {
	return fmt.Sprintf("module %q is already registered", e.ID)
}

// UnknownModuleError is returned when an identifier does not name a
// registered module. Referrer is set when the identifier came from another
// module's dependency list.
type UnknownModuleError struct {
	ID       string
	Referrer string
}

func (e *UnknownModuleError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("module %q depends on unknown module %q", e.Referrer, e.ID)
	}
	return fmt.Sprintf("unknown module %q", e.ID)
}

// CyclicDependencyError names one dependency cycle. Cycle lists the modules
// in dependency order and repeats the first module at the end.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return "cyclic module dependency: " + strings.Join(e.Cycle, " -> ")
}
