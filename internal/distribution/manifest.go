package distribution

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/vk/buildgrid/internal/fingerprint"
	"gopkg.in/yaml.v3"
)

// ManifestName is the manifest's file name inside the install tree.
const ManifestName = "distribution.yaml"

// Manifest describes an installed distribution.
type Manifest struct {
	Name      string         `yaml:"name"`
	Version   string         `yaml:"version,omitempty"`
	MainClass string         `yaml:"main_class"`
	Platforms []string       `yaml:"platforms,omitempty"`
	Files     []ManifestFile `yaml:"files"`
}

// ManifestFile is one installed file with its blake3 checksum.
type ManifestFile struct {
	Path   string `yaml:"path"`
	Size   int64  `yaml:"size"`
	Blake3 string `yaml:"blake3"`
}

// ReadManifest loads the manifest of the tree rooted at dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("malformed %s: %w", ManifestName, err)
	}
	return &m, nil
}

// collectFiles lists every regular file under dir except the manifest.
func collectFiles(dir string) ([]ManifestFile, error) {
	var files []ManifestFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == ManifestName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		sum, err := fingerprint.FileDigest(p)
		if err != nil {
			return err
		}
		files = append(files, ManifestFile{Path: rel, Size: info.Size(), Blake3: sum})
		return nil
	})
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestName), data, 0o644)
}
