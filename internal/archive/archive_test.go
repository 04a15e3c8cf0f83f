package archive

import (
	"archive/tar"
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "pet"), []byte("#!/bin/sh\n"), 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "pet.jar"), []byte("jar"), 0o600))
	return root
}

func TestCollect(t *testing.T) {
	entries, err := Collect(fixtureTree(t), "pet-1.0")
	require.NoError(t, err)

	byName := map[string]Entry{}
	for _, e := range entries {
		byName[e.Name] = e
	}
	require.Len(t, byName, 4)
	assert.True(t, byName["pet-1.0/bin"].Dir)
	assert.Equal(t, os.FileMode(0o755), byName["pet-1.0/bin/pet"].Mode)
	assert.Equal(t, os.FileMode(0o644), byName["pet-1.0/lib/pet.jar"].Mode)
	assert.Equal(t, os.FileMode(0o755), byName["pet-1.0/lib"].Mode)
}

func TestWriteIsReproducible(t *testing.T) {
	for _, format := range Formats() {
		t.Run(string(format), func(t *testing.T) {
			// --- Arrange ---
			a, err := Collect(fixtureTree(t), "pet")
			require.NoError(t, err)
			b, err := Collect(fixtureTree(t), "pet")
			require.NoError(t, err)
			// Reverse one input to prove ordering does not leak through.
			for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
				b[i], b[j] = b[j], b[i]
			}

			// --- Act ---
			var first, second bytes.Buffer
			require.NoError(t, Write(&first, format, a))
			require.NoError(t, Write(&second, format, b))

			// --- Assert ---
			assert.Equal(t, first.Bytes(), second.Bytes())
		})
	}
}

func TestWriteZip(t *testing.T) {
	// --- Arrange ---
	entries := []Entry{
		{Name: "META-INF/MANIFEST.MF", Data: []byte("Manifest-Version: 1.0\n")},
		{Name: "org/example/Main.class", Data: []byte{0xca, 0xfe}},
	}

	// --- Act ---
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Zip, entries))

	// --- Assert ---
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		assert.True(t, f.Modified.Equal(Epoch), f.Name)
	}
	assert.Equal(t, []string{"META-INF/", "META-INF/MANIFEST.MF", "org/", "org/example/", "org/example/Main.class"}, names)

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "Manifest-Version: 1.0\n", string(data))
}

func TestWriteTgz(t *testing.T) {
	entries, err := Collect(fixtureTree(t), "pet")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Tgz, entries))

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	tr := tar.NewReader(gz)
	modes := map[string]int64{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		modes[hdr.Name] = hdr.Mode
		assert.True(t, hdr.ModTime.Equal(Epoch))
	}
	assert.Equal(t, map[string]int64{
		"pet/":            0o755,
		"pet/bin/":        0o755,
		"pet/bin/pet":     0o755,
		"pet/lib/":        0o755,
		"pet/lib/pet.jar": 0o644,
	}, modes)
}

func TestWriteRejectsBadEntries(t *testing.T) {
	cases := []struct {
		name    string
		entries []Entry
		want    string
	}{
		{"duplicate", []Entry{{Name: "a"}, {Name: "./a"}}, "duplicate"},
		{"escape", []Entry{{Name: "../a"}}, "invalid"},
		{"absolute", []Entry{{Name: "/a"}}, "invalid"},
		{"file as dir", []Entry{{Name: "a"}, {Name: "a/b"}}, "both a file and a directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Write(io.Discard, Tar, tc.entries)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWriteFile(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "distributions", "pet-1.0.zip")

	require.NoError(t, WriteFile(context.Background(), dest, Zip, []Entry{{Name: "a.txt", Data: []byte("a")}}))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(dest), ".*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	t.Run("expired context publishes nothing", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 0)
		defer cancel()
		late := filepath.Join(filepath.Dir(dest), "late.zip")

		err := WriteFile(ctx, late, Zip, []Entry{{Name: "a.txt", Data: []byte("a")}})

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.NoFileExists(t, late)
		leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(dest), ".*"))
		require.NoError(t, err)
		assert.Empty(t, leftovers)
	})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("tar.gz")
	require.NoError(t, err)
	assert.Equal(t, Tgz, f)

	_, err = ParseFormat("rar")
	assert.Error(t, err)
}
