package hcl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/modpath"
)

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// resolve makes p absolute against base.
func resolve(base, p string) string {
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, filepath.FromSlash(p))
}

func resolveAll(base string, ps []string) []string {
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = resolve(base, p)
	}
	return out
}

// translateModule converts a module block. Unset values follow the usual
// layout: `:lib:models` lives in lib/models and keeps its sources in
// src/main/java and, when present, src/test/java.
func translateModule(model *config.Model, mb *moduleBlock) (*config.Module, error) {
	id, err := modpath.ParseModule(mb.ID)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", mb.ID, err)
	}

	dir := resolve(model.RootDir, orDefault(mb.Dir, strings.Join(id.Segments, "/")))
	m := &config.Module{
		ID:        id.String(),
		Dir:       dir,
		DependsOn: mb.DependsOn,
		OutputDir: resolve(dir, orDefault(mb.OutputDir, config.DefaultOutputDir)),
		Libraries: resolveAll(model.RootDir, mb.Libraries),
		JarName:   mb.JarName,
	}
	if m.JarName == "" {
		m.JarName = id.Name()
		if v := model.Project.Version; v != "" {
			m.JarName += "-" + v
		}
		m.JarName += ".jar"
	}

	for _, ss := range mb.SourceSets {
		m.SourceSets = append(m.SourceSets, &config.SourceSet{Name: ss.Name, Dir: resolve(dir, ss.Dir)})
	}
	if len(m.SourceSets) == 0 {
		m.SourceSets = append(m.SourceSets, &config.SourceSet{Name: "main", Dir: resolve(dir, config.DefaultMainSourceDir)})
		if info, err := os.Stat(resolve(dir, config.DefaultTestSourceDir)); err == nil && info.IsDir() {
			m.SourceSets = append(m.SourceSets, &config.SourceSet{Name: "test", Dir: resolve(dir, config.DefaultTestSourceDir)})
		}
	}
	return m, nil
}

func translateGate(rootDir string, gb *gateBlock) (*config.Gate, error) {
	g := &config.Gate{
		Name:           gb.Name,
		Kind:           orDefault(gb.Kind, config.DefaultGateKind),
		RuleFile:       resolve(rootDir, gb.RuleFile),
		IgnoreFailures: gb.IgnoreFailures,
		MaxWarnings:    gb.MaxWarnings,
		Includes:       gb.Includes,
		SourceSets:     gb.SourceSets,
		Report:         gb.Report == nil || *gb.Report,
		Command:        gb.Command,
		OutputFormat:   gb.OutputFormat,
		Pattern:        gb.Pattern,
		Suppressions:   make(map[string]string),
	}
	if gb.SuppressionFile != "" {
		g.Suppressions[""] = resolve(rootDir, gb.SuppressionFile)
	}
	for _, s := range gb.Suppressions {
		if _, dup := g.Suppressions[s.SourceSet]; dup {
			return nil, fmt.Errorf("gate %q: suppression for source set %q declared more than once", gb.Name, s.SourceSet)
		}
		g.Suppressions[s.SourceSet] = resolve(rootDir, s.File)
	}
	if gb.Timeout != "" {
		d, err := time.ParseDuration(gb.Timeout)
		if err != nil {
			return nil, fmt.Errorf("gate %q: invalid timeout: %w", gb.Name, err)
		}
		g.Timeout = d
	}
	return g, nil
}

func translateApplication(ab *applicationBlock) *config.Application {
	return &config.Application{
		Name:      ab.Name,
		Module:    ab.Module,
		MainClass: ab.MainClass,
		JvmArgs:   ab.JvmArgs,
	}
}

func translateDistribution(rootDir string, db *distributionBlock) (*config.Distribution, error) {
	d := &config.Distribution{
		Platforms: db.Platforms,
		Exclude:   db.Exclude,
		Formats:   db.Formats,
		Templates: make(map[string]string),
	}
	if len(d.Platforms) == 0 {
		d.Platforms = config.DefaultPlatforms()
	}
	if len(d.Formats) == 0 {
		d.Formats = config.DefaultFormats()
	}
	for _, t := range db.Templates {
		if _, dup := d.Templates[t.Platform]; dup {
			return nil, fmt.Errorf("distribution: template for platform %q declared more than once", t.Platform)
		}
		d.Templates[t.Platform] = resolve(rootDir, t.Path)
	}
	return d, nil
}
