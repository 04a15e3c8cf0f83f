package fingerprint

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/blake3"
)

// Spec lists what a task reads and writes. Paths may name files or
// directories; directories contribute every regular file below them.
type Spec struct {
	Inputs  []string
	Outputs []string
	// Config captures task settings that are not files, e.g. the resolved
	// template substitutions.
	Config string
}

// Compute returns the hex digest of spec. Missing paths are hashed as
// absent, so creating or deleting one changes the digest.
func Compute(spec Spec) (string, error) {
	hasher := blake3.New()
	fmt.Fprintf(hasher, "config\x00%d\x00%s\x00", len(spec.Config), spec.Config)

	for _, group := range []struct {
		kind  string
		paths []string
	}{{"in", spec.Inputs}, {"out", spec.Outputs}} {
		paths := append([]string(nil), group.paths...)
		sort.Strings(paths)
		for _, p := range paths {
			if err := hashPath(hasher, group.kind, p); err != nil {
				return "", err
			}
		}
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

func hashPath(w io.Writer, kind, root string) error {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(w, "%s\x00%s\x00absent\x00", kind, root)
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return hashFile(w, kind, root, root)
	}

	var files []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(files)

	fmt.Fprintf(w, "%s\x00%s\x00dir\x00%d\x00", kind, root, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		if err != nil {
			return err
		}
		if err := hashFile(w, kind, filepath.ToSlash(rel), f); err != nil {
			return err
		}
	}
	return nil
}

func hashFile(w io.Writer, kind, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	content := blake3.New()
	if _, err := io.Copy(content, f); err != nil {
		return fmt.Errorf("hashing %s: %w", path, err)
	}
	fmt.Fprintf(w, "%s\x00%s\x00%x\x00", kind, name, content.Sum(nil))
	return nil
}

// FileDigest returns the hex blake3 digest of a single file's content.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}
