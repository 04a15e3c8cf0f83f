package distribution

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/buildgrid/internal/archive"
	"github.com/vk/buildgrid/internal/classpath"
)

func writeFile(t *testing.T, path, content string, perm os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
}

func installFixture(t *testing.T) InstallRequest {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "scripts", "pet"), "#!/bin/sh\n", 0o644)
	writeFile(t, filepath.Join(root, "scripts", "pet.bat"), "@echo off\r\n", 0o644)
	writeFile(t, filepath.Join(root, "libs", "pet.jar"), "app", 0o644)
	writeFile(t, filepath.Join(root, "vendor", "gson.jar"), "gson", 0o644)

	return InstallRequest{
		InstallDir: filepath.Join(root, "install"),
		Name:       "pet",
		Version:    "1.0",
		MainClass:  "org.example.pet.Main",
		Platforms:  []string{"unix", "windows"},
		ScriptsDir: filepath.Join(root, "scripts"),
		Classpath: []classpath.Artifact{
			{Name: "pet.jar", Path: filepath.Join(root, "libs", "pet.jar"), Module: ":app"},
			{Name: "gson.jar", Path: filepath.Join(root, "vendor", "gson.jar")},
		},
	}
}

func TestInstall(t *testing.T) {
	// --- Arrange ---
	req := installFixture(t)
	writeFile(t, filepath.Join(req.Dir(), "lib", "stale.jar"), "old", 0o644)

	// --- Act ---
	m, err := Install(context.Background(), req)

	// --- Assert ---
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(req.Dir(), "bin", "pet"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	_, err = os.Stat(filepath.Join(req.Dir(), "lib", "stale.jar"))
	assert.True(t, os.IsNotExist(err), "previous install must be replaced")

	var paths []string
	for _, f := range m.Files {
		paths = append(paths, f.Path)
		assert.Len(t, f.Blake3, 64)
	}
	assert.Equal(t, []string{"bin/pet", "bin/pet.bat", "lib/gson.jar", "lib/pet.jar"}, paths)

	read, err := ReadManifest(req.Dir())
	require.NoError(t, err)
	assert.Equal(t, m, read)
	assert.Equal(t, "org.example.pet.Main", read.MainClass)
}

func TestInstallErrors(t *testing.T) {
	t.Run("missing library", func(t *testing.T) {
		req := installFixture(t)
		req.Classpath = append(req.Classpath, classpath.Artifact{Name: "nope.jar", Path: "/does/not/exist.jar"})

		_, err := Install(context.Background(), req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "/does/not/exist.jar")
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := Install(context.Background(), InstallRequest{})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "distribution name is required")
	})
}

func TestArchive(t *testing.T) {
	// --- Arrange ---
	ctx := context.Background()
	req := installFixture(t)
	_, err := Install(ctx, req)
	require.NoError(t, err)
	areq := ArchiveRequest{
		InstallDir: req.Dir(),
		Name:       "pet",
		Version:    "1.0",
		DestDir:    filepath.Join(t.TempDir(), "distributions"),
	}

	// --- Act ---
	path, err := Archive(ctx, areq, archive.Zip)

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(areq.DestDir, "pet-1.0.zip"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := map[string]os.FileMode{}
	for _, f := range zr.File {
		names[f.Name] = f.Mode().Perm()
	}
	assert.Equal(t, os.FileMode(0o755), names["pet-1.0/bin/pet"])
	assert.Contains(t, names, "pet-1.0/lib/gson.jar")
	assert.Contains(t, names, "pet-1.0/"+ManifestName)

	again, err := Archive(ctx, areq, archive.Zip)
	require.NoError(t, err)
	second, err := os.ReadFile(again)
	require.NoError(t, err)
	assert.Equal(t, data, second)
}
