package launcher

import (
	"embed"
	"fmt"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultTemplate returns the stock template for p.
func DefaultTemplate(p Platform) (string, error) {
	if _, ok := platforms[p]; !ok {
		return "", fmt.Errorf("no default template for platform %q", p)
	}
	data, err := templateFS.ReadFile("templates/" + string(p) + ".tmpl")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// LoadTemplate returns the override at path if set, or the stock template.
func LoadTemplate(store ArtifactStore, p Platform, path string) (string, error) {
	if path == "" {
		return DefaultTemplate(p)
	}
	data, err := store.Read(path)
	if err != nil {
		return "", fmt.Errorf("reading %s template: %w", p, err)
	}
	return string(data), nil
}
