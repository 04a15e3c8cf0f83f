package plan

import (
	"path/filepath"
	"strings"
)

// Layout names the directories below the project build directory.
type Layout struct {
	BuildDir string
}

func (l Layout) Libs() string          { return filepath.Join(l.BuildDir, "libs") }
func (l Layout) Scripts() string       { return filepath.Join(l.BuildDir, "scripts") }
func (l Layout) Reports() string       { return filepath.Join(l.BuildDir, "reports") }
func (l Layout) Install() string       { return filepath.Join(l.BuildDir, "install") }
func (l Layout) Distributions() string { return filepath.Join(l.BuildDir, "distributions") }
func (l Layout) GateWork() string      { return filepath.Join(l.BuildDir, "tmp", "gates") }

// State is the fingerprint state file.
func (l Layout) State() string { return filepath.Join(l.BuildDir, ".buildgrid", "state.yaml") }

// GateResult is where the last result of gate task id is kept, e.g.
// `.buildgrid/gates/app_checkstyleMain.yaml`.
func (l Layout) GateResult(id string) string {
	name := strings.ReplaceAll(strings.TrimPrefix(id, ":"), ":", "_")
	return filepath.Join(l.BuildDir, ".buildgrid", "gates", name+".yaml")
}

// ExtractedTemplate is where the stock unix template is written for editing.
func (l Layout) ExtractedTemplate() string {
	return filepath.Join(l.BuildDir, "template-unix.txt")
}
