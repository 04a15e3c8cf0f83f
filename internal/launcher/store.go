package launcher

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ArtifactStore abstracts reading and writing generated artifacts.
// Delete of a missing path is not an error.
type ArtifactStore interface {
	Read(path string) ([]byte, error)
	Write(path string, data []byte, perm fs.FileMode) error
	Delete(path string) error
}

// FileStore is an ArtifactStore on the local file system. Relative paths
// are resolved against Root.
type FileStore struct {
	Root string
}

// NewFileStore returns a store rooted at root.
func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

func (s *FileStore) resolve(path string) string {
	if filepath.IsAbs(path) || s.Root == "" {
		return path
	}
	return filepath.Join(s.Root, path)
}

func (s *FileStore) Read(path string) ([]byte, error) {
	return os.ReadFile(s.resolve(path))
}

// Write replaces path through a temporary file in the same directory.
func (s *FileStore) Write(path string, data []byte, perm fs.FileMode) error {
	full := s.resolve(path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return err
	}
	// WriteFile honours the umask; scripts must end up with perm exactly.
	if err := os.Chmod(tmp, perm); err != nil {
		return err
	}
	return os.Rename(tmp, full)
}

func (s *FileStore) Delete(path string) error {
	err := os.Remove(s.resolve(path))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// MemStore is an in-memory ArtifactStore.
type MemStore struct {
	mu    sync.RWMutex
	files map[string]memFile
}

type memFile struct {
	data []byte
	perm fs.FileMode
}

// NewMemStore returns an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string]memFile)}
}

func (s *MemStore) Read(path string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[filepath.Clean(path)]
	if !ok {
		return nil, fmt.Errorf("read %s: %w", path, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

func (s *MemStore) Write(path string, data []byte, perm fs.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filepath.Clean(path)] = memFile{data: append([]byte(nil), data...), perm: perm}
	return nil
}

func (s *MemStore) Delete(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, filepath.Clean(path))
	return nil
}

// Perm returns the mode path was written with.
func (s *MemStore) Perm(path string) (fs.FileMode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[filepath.Clean(path)]
	return f.perm, ok
}

// Paths lists stored paths in lexical order.
func (s *MemStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.files))
	for p := range s.files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
