package fingerprint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const stateVersion = 1

// Entry is the recorded fingerprint of a task's last successful run.
type Entry struct {
	Digest     string    `yaml:"digest"`
	RecordedAt time.Time `yaml:"recorded_at"`
	RunID      string    `yaml:"run_id,omitempty"`
}

type stateFile struct {
	Version int              `yaml:"version"`
	Tasks   map[string]Entry `yaml:"tasks"`
}

// Store holds fingerprints for one build directory. It is safe for
// concurrent use by tasks running in parallel.
type Store struct {
	mu      sync.Mutex
	path    string
	entries map[string]Entry
	dirty   bool
}

// Open loads the state file at path. A missing file yields an empty store;
// a state file written by another version is discarded.
func Open(path string) (*Store, error) {
	s := &Store{path: path, entries: make(map[string]Entry)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading fingerprint state: %w", err)
	}

	var state stateFile
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parsing fingerprint state %s: %w", path, err)
	}
	if state.Version == stateVersion && state.Tasks != nil {
		s.entries = state.Tasks
	}
	return s, nil
}

// Get returns the recorded entry for task.
func (s *Store) Get(task string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[task]
	return e, ok
}

// Put records an entry for task.
func (s *Store) Put(task string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[task] = e
	s.dirty = true
}

// Forget drops the entry for task.
func (s *Store) Forget(task string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[task]; ok {
		delete(s.entries, task)
		s.dirty = true
	}
}

// Reset drops every entry, e.g. after the build directory was cleaned.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) > 0 {
		s.entries = make(map[string]Entry)
		s.dirty = true
	}
}

// Save writes the state file if anything changed since Open. The write goes
// through a temporary file so a crash never leaves a truncated state.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty {
		return nil
	}
	data, err := yaml.Marshal(stateFile{Version: stateVersion, Tasks: s.entries})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
