// internal/modpath/path.go
package modpath

import (
	"fmt"
	"slices"
	"strings"
)

// String serializes the Path into its canonical representation.
func (p Path) String() string {
	return Separator + strings.Join(p.Segments, Separator)
}

// IsRoot reports whether p is the project root.
func (p Path) IsRoot() bool {
	return len(p.Segments) == 0
}

// Name returns the last segment, or an empty string for the root.
func (p Path) Name() string {
	if p.IsRoot() {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}

// Parent returns the enclosing path. The parent of the root is the root.
func (p Path) Parent() Path {
	if p.IsRoot() {
		return p
	}
	return Path{Segments: slices.Clone(p.Segments[:len(p.Segments)-1])}
}

// Child appends a segment. It panics on an invalid segment, since children
// are built from identifiers the caller controls.
func (p Path) Child(name string) Path {
	if !segmentRegex.MatchString(name) || !isValidSegmentName(name) {
		panic(fmt.Sprintf("modpath: invalid segment %q", name))
	}
	segments := make([]string, 0, len(p.Segments)+1)
	segments = append(segments, p.Segments...)
	return Path{Segments: append(segments, name)}
}

// Equal checks two paths for segment-wise equality.
func (p Path) Equal(other Path) bool {
	return slices.Equal(p.Segments, other.Segments)
}

// Slug flattens the path into a file-name friendly form, e.g.
// `:lib:models` becomes `lib-models`. The root becomes `root`.
func (p Path) Slug() string {
	if p.IsRoot() {
		return "root"
	}
	return strings.Join(p.Segments, "-")
}

// Task joins a module identifier and a task name into a task path string.
func Task(module Path, name string) string {
	return module.Child(name).String()
}
