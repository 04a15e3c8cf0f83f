// internal/modpath/types.go
package modpath

// Separator joins path segments and prefixes every absolute path.
const Separator = ":"

// Path is the structured representation of a module or task identifier.
// The zero value is the root path.
type Path struct {
	Segments []string
}

// Root returns the root path `:`.
func Root() Path {
	return Path{}
}
