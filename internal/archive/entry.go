package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"time"
)

// Epoch is the modification time stamped on every entry. Zip cannot
// represent dates before 1980.
var Epoch = time.Date(1980, time.February, 1, 0, 0, 0, 0, time.UTC)

// Entry is one archive member. Exactly one of Source or Data supplies the
// contents of a regular file; directories have neither.
type Entry struct {
	// Name is the slash-separated path inside the archive.
	Name   string
	Mode   fs.FileMode
	Dir    bool
	Source string
	Data   []byte
}

func (e Entry) open() ([]byte, error) {
	if e.Source == "" {
		return e.Data, nil
	}
	return os.ReadFile(e.Source)
}

// normalizeMode maps any mode onto 0755 or 0644 (directories are always 0755).
func normalizeMode(dir bool, m fs.FileMode) fs.FileMode {
	if dir || m.Perm()&0o111 != 0 {
		return 0o755
	}
	return 0o644
}

// Collect walks root and returns one entry per file and directory below it,
// named under prefix. Symlinks are followed only at the root.
func Collect(root, prefix string) ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return fmt.Errorf("symlink %s is not supported in archives", p)
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		e := Entry{
			Name: path.Join(prefix, filepath.ToSlash(rel)),
			Mode: normalizeMode(d.IsDir(), info.Mode()),
			Dir:  d.IsDir(),
		}
		if !d.IsDir() {
			e.Source = p
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// prepare sorts entries, adds missing parent directories and rejects
// duplicate names.
func prepare(entries []Entry) ([]Entry, error) {
	byName := make(map[string]Entry, len(entries))
	for _, e := range entries {
		name := path.Clean(e.Name)
		if name == "." || name == "/" || path.IsAbs(name) || name == ".." || len(name) > 2 && name[:3] == "../" {
			return nil, fmt.Errorf("invalid archive entry name %q", e.Name)
		}
		if _, dup := byName[name]; dup {
			return nil, fmt.Errorf("duplicate archive entry %q", name)
		}
		e.Name = name
		e.Mode = normalizeMode(e.Dir, e.Mode)
		byName[name] = e
	}
	for name := range byName {
		for dir := path.Dir(name); dir != "."; dir = path.Dir(dir) {
			if existing, ok := byName[dir]; ok {
				if !existing.Dir {
					return nil, fmt.Errorf("archive entry %q is both a file and a directory", dir)
				}
				continue
			}
			byName[dir] = Entry{Name: dir, Dir: true, Mode: 0o755}
		}
	}

	out := make([]Entry, 0, len(byName))
	for _, e := range byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
