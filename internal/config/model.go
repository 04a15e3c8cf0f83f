package config

import "time"

// Defaults applied by loaders when the build file leaves a value unset.
const (
	DefaultBuildDir      = "build"
	DefaultMainSourceDir = "src/main/java"
	DefaultTestSourceDir = "src/test/java"
	DefaultOutputDir     = "build/classes"
	DefaultGateKind      = "static_analysis"
)

// DefaultPlatforms are the launch script flavours generated when a
// distribution names none.
func DefaultPlatforms() []string { return []string{"unix", "windows"} }

// DefaultFormats are the archive formats built when a distribution names none.
func DefaultFormats() []string { return []string{"zip", "tar"} }

// Model is the resolved representation of a project build file.
type Model struct {
	// RootDir is the project root; every path below is absolute.
	RootDir      string
	Project      *Project
	Modules      []*Module
	Gates        []*Gate
	Application  *Application
	Distribution *Distribution
}

// Project holds project-wide settings.
type Project struct {
	Name     string
	Version  string
	BuildDir string
}

// Module is the format-agnostic representation of a `module` block.
type Module struct {
	ID         string
	Dir        string
	DependsOn  []string
	SourceSets []*SourceSet
	OutputDir  string
	Libraries  []string
	JarName    string
}

// SourceSet is a named source directory of a module.
type SourceSet struct {
	Name string
	Dir  string
}

// Gate is the format-agnostic representation of a `gate` block.
type Gate struct {
	Name           string
	Kind           string
	RuleFile       string
	IgnoreFailures bool
	MaxWarnings    int
	Includes       []string
	// Suppressions maps a source set name to its suppression file. The
	// empty key applies to source sets without their own entry.
	Suppressions map[string]string
	// SourceSets restricts the gate; empty means every source set.
	SourceSets []string
	Timeout    time.Duration
	Report     bool

	// External analyser settings, static_analysis only.
	Command      []string
	OutputFormat string
	Pattern      string
}

// SuppressionFor returns the suppression file that applies to sourceSet.
func (g *Gate) SuppressionFor(sourceSet string) string {
	if f, ok := g.Suppressions[sourceSet]; ok {
		return f
	}
	return g.Suppressions[""]
}

// AppliesTo reports whether the gate checks sourceSet.
func (g *Gate) AppliesTo(sourceSet string) bool {
	if len(g.SourceSets) == 0 {
		return true
	}
	for _, s := range g.SourceSets {
		if s == sourceSet {
			return true
		}
	}
	return false
}

// Application is the runnable entry point packaged into the distribution.
type Application struct {
	Name      string
	Module    string
	MainClass string
	JvmArgs   []string
}

// Distribution configures launch scripts and archives.
type Distribution struct {
	Platforms []string
	Exclude   []string
	// Templates maps a platform to a template override file.
	Templates map[string]string
	Formats   []string
}
