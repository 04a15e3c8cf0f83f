package fingerprint

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCompute(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "classes")
	write(t, filepath.Join(in, "A.class"), "a")
	write(t, filepath.Join(in, "pkg", "B.class"), "b")
	spec := Spec{Inputs: []string{in}, Outputs: []string{filepath.Join(dir, "out.jar")}, Config: "v1"}

	first, err := Compute(spec)
	require.NoError(t, err)
	again, err := Compute(spec)
	require.NoError(t, err)
	assert.Equal(t, first, again, "digest must be stable")
	assert.Len(t, first, 64)

	t.Run("content change", func(t *testing.T) {
		write(t, filepath.Join(in, "pkg", "B.class"), "b2")
		t.Cleanup(func() { write(t, filepath.Join(in, "pkg", "B.class"), "b") })
		changed, err := Compute(spec)
		require.NoError(t, err)
		assert.NotEqual(t, first, changed)
	})

	t.Run("output appears", func(t *testing.T) {
		write(t, filepath.Join(dir, "out.jar"), "jar")
		t.Cleanup(func() { os.Remove(filepath.Join(dir, "out.jar")) })
		changed, err := Compute(spec)
		require.NoError(t, err)
		assert.NotEqual(t, first, changed)
	})

	t.Run("config change", func(t *testing.T) {
		other := spec
		other.Config = "v2"
		changed, err := Compute(other)
		require.NoError(t, err)
		assert.NotEqual(t, first, changed)
	})

	t.Run("input order is irrelevant", func(t *testing.T) {
		a := filepath.Join(dir, "x.txt")
		b := filepath.Join(dir, "y.txt")
		write(t, a, "x")
		write(t, b, "y")
		d1, err := Compute(Spec{Inputs: []string{a, b}})
		require.NoError(t, err)
		d2, err := Compute(Spec{Inputs: []string{b, a}})
		require.NoError(t, err)
		assert.Equal(t, d1, d2)
	})
}

func TestStore_SaveAndOpen(t *testing.T) {
	// --- Arrange ---
	path := filepath.Join(t.TempDir(), ".buildgrid", "fingerprints.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	// --- Act ---
	s.Put(":app:jar", Entry{Digest: "abc", RecordedAt: at, RunID: "run-1"})
	require.NoError(t, s.Save())
	reopened, err := Open(path)
	require.NoError(t, err)

	// --- Assert ---
	e, ok := reopened.Get(":app:jar")
	require.True(t, ok)
	assert.Equal(t, "abc", e.Digest)
	assert.Equal(t, "run-1", e.RunID)
	assert.True(t, at.Equal(e.RecordedAt))

	reopened.Forget(":app:jar")
	require.NoError(t, reopened.Save())
	final, err := Open(path)
	require.NoError(t, err)
	_, ok = final.Get(":app:jar")
	assert.False(t, ok)
}

func TestStore_Reset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	s, err := Open(path)
	require.NoError(t, err)
	s.Put(":app:jar", Entry{Digest: "abc"})
	require.NoError(t, s.Save())

	s.Reset()
	require.NoError(t, s.Save())

	reopened, err := Open(path)
	require.NoError(t, err)
	_, ok := reopened.Get(":app:jar")
	assert.False(t, ok)
}

func TestStore_IgnoresOtherVersions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	write(t, path, "version: 99\ntasks:\n  \":app:jar\":\n    digest: old\n")

	s, err := Open(path)
	require.NoError(t, err)
	_, ok := s.Get(":app:jar")
	assert.False(t, ok)
}

func TestStore_CorruptStateIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	write(t, path, "version: [")

	_, err := Open(path)
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := filepath.Join(dir, "Main.class")
	out := filepath.Join(dir, "app.jar")
	write(t, src, "v1")

	store, err := Open(filepath.Join(dir, "state.yaml"))
	require.NoError(t, err)
	check := store.NewCheck(":app:jar", func() Spec {
		return Spec{Inputs: []string{src}, Outputs: []string{out}}
	}, WithRunID("r1"), WithClock(func() time.Time { return time.Unix(0, 0) }))

	upToDate, err := check.UpToDate(ctx)
	require.NoError(t, err)
	assert.False(t, upToDate, "never recorded")

	write(t, out, "jar")
	require.NoError(t, check.Record(ctx))
	upToDate, err = check.UpToDate(ctx)
	require.NoError(t, err)
	assert.True(t, upToDate)

	e, _ := store.Get(":app:jar")
	assert.Equal(t, "r1", e.RunID)

	write(t, src, "v2")
	upToDate, err = check.UpToDate(ctx)
	require.NoError(t, err)
	assert.False(t, upToDate, "input changed")

	require.NoError(t, check.Record(ctx))
	require.NoError(t, os.Remove(out))
	upToDate, err = check.UpToDate(ctx)
	require.NoError(t, err)
	assert.False(t, upToDate, "output missing")
}
