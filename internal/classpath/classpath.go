package classpath

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/modgraph"
)

// Artifact is one classpath element.
type Artifact struct {
	// Name is the file name inside the distribution's lib directory.
	Name string
	// Path is where the file lives on disk.
	Path string
	// Module is set for project module jars and empty for libraries.
	Module string
}

// Resolver produces the ordered runtime classpath for a module.
type Resolver interface {
	Resolve(ctx context.Context, module string) ([]Artifact, error)
}

// ConflictError reports two different files that would share a lib name.
type ConflictError struct {
	Name  string
	Paths [2]string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("classpath conflict: %s provided by both %s and %s", e.Name, e.Paths[0], e.Paths[1])
}

// Local resolves the classpath from the module graph and local library files.
type Local struct {
	Graph *modgraph.Graph
	// JarPath locates the packaged jar of a module.
	JarPath func(m *modgraph.Module) string
}

var _ Resolver = (*Local)(nil)

// Resolve returns the module's jar, then its own libraries, then for each
// transitive dependency (dependents before the modules they use) its jar
// and libraries. Duplicates are dropped after their first occurrence.
func (l *Local) Resolve(ctx context.Context, module string) ([]Artifact, error) {
	closure, err := l.Graph.Closure(module)
	if err != nil {
		return nil, err
	}
	slices.Reverse(closure)

	var (
		out    []Artifact
		byName = make(map[string]string)
	)
	add := func(a Artifact) error {
		if prev, ok := byName[a.Name]; ok {
			if filepath.Clean(prev) != filepath.Clean(a.Path) {
				return &ConflictError{Name: a.Name, Paths: [2]string{prev, a.Path}}
			}
			return nil
		}
		byName[a.Name] = a.Path
		out = append(out, a)
		return nil
	}

	for _, id := range closure {
		m, err := l.Graph.Module(id)
		if err != nil {
			return nil, err
		}
		jar := l.JarPath(m)
		if err := add(Artifact{Name: filepath.Base(jar), Path: jar, Module: id}); err != nil {
			return nil, err
		}
		for _, lib := range m.Libraries {
			if err := add(Artifact{Name: filepath.Base(lib), Path: lib}); err != nil {
				return nil, err
			}
		}
	}

	ctxlog.FromContext(ctx).Debug("Resolved runtime classpath", "module", module, "entries", len(out))
	return out, nil
}

// Names returns the lib file names of artifacts in order.
func Names(artifacts []Artifact) []string {
	out := make([]string, len(artifacts))
	for i, a := range artifacts {
		out[i] = a.Name
	}
	return out
}
