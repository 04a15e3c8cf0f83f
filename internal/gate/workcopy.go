package gate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/buildgrid/internal/fsutil"
)

// workingCopy is a private snapshot of the files a gate inspects. Engines
// only ever read from it, so concurrent gates never share mutable state.
type workingCopy struct {
	dir   string
	files []string
}

func newWorkingCopy(parent, srcDir string, includes []string) (*workingCopy, error) {
	files, err := fsutil.FindFiles(srcDir, includes)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", srcDir, err)
	}

	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, err
		}
	}
	dir, err := os.MkdirTemp(parent, "gate-*")
	if err != nil {
		return nil, fmt.Errorf("creating working copy: %w", err)
	}

	for _, rel := range files {
		src := filepath.Join(srcDir, filepath.FromSlash(rel))
		dst := filepath.Join(dir, filepath.FromSlash(rel))
		if err := fsutil.CopyFile(src, dst, 0o644); err != nil {
			os.RemoveAll(dir)
			return nil, err
		}
	}
	return &workingCopy{dir: dir, files: files}, nil
}

func (w *workingCopy) path(rel string) string {
	return filepath.Join(w.dir, filepath.FromSlash(rel))
}

func (w *workingCopy) cleanup() error {
	return os.RemoveAll(w.dir)
}
