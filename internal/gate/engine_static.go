package gate

import (
	"bytes"
	"context"

	"github.com/vk/buildgrid/internal/fsutil"
)

// runRegexRules evaluates every compiled rule line by line. A rule reports
// at most one violation per line, at the column of its first match.
func runRegexRules(ctx context.Context, wc *workingCopy, parallelism int, rules []compiledRule) ([]Violation, error) {
	return scanFiles(ctx, wc, parallelism, func(rel string, content []byte) []Violation {
		var out []Violation
		for i, line := range splitLines(content) {
			for _, r := range rules {
				if len(r.files) > 0 && !fsutil.Matches(r.files, rel) {
					continue
				}
				loc := r.re.FindIndex(line)
				if loc == nil {
					continue
				}
				out = append(out, Violation{
					File:     rel,
					Line:     i + 1,
					Column:   loc[0] + 1,
					Severity: r.severity,
					Rule:     r.id,
					Message:  r.message,
				})
			}
		}
		return out
	})
}

// splitLines splits content into lines without their terminators. A
// trailing newline does not produce an empty final line.
func splitLines(content []byte) [][]byte {
	if len(content) == 0 {
		return nil
	}
	lines := bytes.Split(content, []byte("\n"))
	if len(lines[len(lines)-1]) == 0 {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = bytes.TrimSuffix(l, []byte("\r"))
	}
	return lines
}
