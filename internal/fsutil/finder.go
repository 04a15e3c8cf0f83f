// Package fsutil provides file system utility functions.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// FindFiles recursively searches rootPath for regular files matching any of
// the include patterns and returns their slash-separated paths relative to
// rootPath, sorted. An empty pattern list matches every file. A missing root
// yields no files and no error.
func FindFiles(rootPath string, includes []string) ([]string, error) {
	if _, err := os.Stat(rootPath); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(rootPath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if Matches(includes, rel) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether rel matches any pattern. Patterns without a slash
// are matched against the base name (`*.java`); patterns with a slash are
// matched against the whole relative path. A `**/` prefix matches at any
// depth.
func Matches(patterns []string, rel string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if matchOne(p, rel) {
			return true
		}
	}
	return false
}

func matchOne(pattern, rel string) bool {
	pattern = strings.TrimPrefix(pattern, "**/")
	if !strings.Contains(pattern, "/") {
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	}
	// Try the pattern against every suffix of the path so that a relative
	// pattern such as `gradle/*.kts` matches below any directory.
	segments := strings.Split(rel, "/")
	for i := range segments {
		if ok, _ := path.Match(pattern, strings.Join(segments[i:], "/")); ok {
			return true
		}
	}
	return false
}

// CopyFile copies src to dst, creating parent directories as needed.
func CopyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying %s: %w", src, err)
	}
	return out.Close()
}
