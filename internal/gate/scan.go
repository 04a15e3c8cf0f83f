package gate

import (
	"context"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"
)

// fileScanner inspects the content of one file.
type fileScanner func(rel string, content []byte) []Violation

// scanFiles runs fn over every file of the working copy on a bounded pool.
// The result is sorted by file, line, column and rule.
func scanFiles(ctx context.Context, wc *workingCopy, parallelism int, fn fileScanner) ([]Violation, error) {
	perFile := make([][]Violation, len(wc.files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, rel := range wc.files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(wc.path(rel))
			if err != nil {
				return err
			}
			perFile[i] = fn(rel, content)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []Violation
	for _, vs := range perFile {
		all = append(all, vs...)
	}
	sortViolations(all)
	return all, nil
}

func sortViolations(vs []Violation) {
	sort.SliceStable(vs, func(i, j int) bool {
		a, b := vs[i], vs[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Column != b.Column {
			return a.Column < b.Column
		}
		return a.Rule < b.Rule
	})
}
