// internal/modpath/parser.go
package modpath

import (
	"fmt"
	"regexp"
	"strings"
)

// segmentRegex validates a single path segment, e.g. `models` or `lib-core`.
var segmentRegex = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// isValidSegmentName checks for undesirable but technically valid names.
func isValidSegmentName(name string) bool {
	if name == "." || name == ".." || name == "-" {
		return false
	}
	return true
}

// Parse creates a Path from its canonical string representation. The input
// must start with the separator; `:` alone yields the root path.
func Parse(raw string) (Path, error) {
	if raw == "" {
		return Path{}, fmt.Errorf("path cannot be empty")
	}
	if !strings.HasPrefix(raw, Separator) {
		return Path{}, fmt.Errorf("path %q must start with %q", raw, Separator)
	}
	if raw == Separator {
		return Root(), nil
	}

	var p Path
	for _, segment := range strings.Split(raw[len(Separator):], Separator) {
		if segment == "" {
			return Path{}, fmt.Errorf("path %q contains empty segment", raw)
		}
		if !segmentRegex.MatchString(segment) {
			return Path{}, fmt.Errorf("invalid path segment format: %q", segment)
		}
		if !isValidSegmentName(segment) {
			return Path{}, fmt.Errorf("invalid segment name: %q", segment)
		}
		p.Segments = append(p.Segments, segment)
	}
	return p, nil
}

// ParseModule parses a module identifier. Module identifiers need at least
// one segment.
func ParseModule(raw string) (Path, error) {
	p, err := Parse(raw)
	if err != nil {
		return Path{}, fmt.Errorf("invalid module identifier: %w", err)
	}
	if p.IsRoot() {
		return Path{}, fmt.Errorf("invalid module identifier: %q names the project root", raw)
	}
	return p, nil
}

// MustParse is like Parse but panics on invalid input. Intended for constants.
func MustParse(raw string) Path {
	p, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return p
}
