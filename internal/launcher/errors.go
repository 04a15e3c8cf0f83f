package launcher

import (
	"fmt"
	"strings"
)

// UnresolvedPlaceholderError lists placeholders that had no substitution.
type UnresolvedPlaceholderError struct {
	Platform Platform
	Names    []string
}

func (e *UnresolvedPlaceholderError) Error() string {
	msg := "unresolved template placeholder(s): " + strings.Join(e.Names, ", ")
	if e.Platform != "" {
		return fmt.Sprintf("%s template: %s", e.Platform, msg)
	}
	return msg
}

// Fatal marks the error as one that halts the whole run.
func (e *UnresolvedPlaceholderError) Fatal() bool { return true }
