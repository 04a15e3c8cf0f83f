package modgraph

import "slices"

// SourceSet is a named group of sources inside a module, e.g. `main`.
type SourceSet struct {
	Name string
	Dir  string
}

// Module is one buildable unit of the project.
type Module struct {
	// ID is the path-like identifier, e.g. `:lib:models`.
	ID string
	// Dependencies lists the modules this one depends on, in declaration order.
	Dependencies []string
	// RootDir is the module's root directory.
	RootDir string
	// SourceSets are checked by quality gates.
	SourceSets []SourceSet
	// OutputDir holds compiled output packaged into the module jar.
	OutputDir string
	// Libraries are already-resolved third-party files on the runtime classpath.
	Libraries []string
	// JarName is the file name of the module artifact.
	JarName string
}

func (m *Module) clone() *Module {
	c := *m
	c.Dependencies = slices.Clone(m.Dependencies)
	c.SourceSets = slices.Clone(m.SourceSets)
	c.Libraries = slices.Clone(m.Libraries)
	return &c
}

// SourceSet returns the named source set.
func (m *Module) SourceSet(name string) (SourceSet, bool) {
	for _, s := range m.SourceSets {
		if s.Name == name {
			return s, true
		}
	}
	return SourceSet{}, false
}
