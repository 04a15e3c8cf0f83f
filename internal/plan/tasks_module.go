package plan

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/vk/buildgrid/internal/archive"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fingerprint"
	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/modgraph"
	"github.com/vk/buildgrid/internal/modpath"
	"github.com/vk/buildgrid/internal/scheduler"
)

// gateTaskName is the task name of gate g on a source set, e.g.
// `checkstyleMain`.
func gateTaskName(gateName, sourceSet string) string {
	r := []rune(sourceSet)
	if len(r) > 0 {
		r[0] = unicode.ToUpper(r[0])
	}
	return gateName + string(r)
}

func (p *Plan) addModuleTasks() error {
	gates := make([]gate.Gate, len(p.model.Gates))
	for i, cg := range p.model.Gates {
		g, err := toGate(cg)
		if err != nil {
			return err
		}
		gates[i] = g
	}

	mods, err := p.modules.Modules()
	if err != nil {
		return err
	}
	for _, m := range mods {
		id := modpath.MustParse(m.ID)
		if err := p.addJarTask(id, m); err != nil {
			return err
		}

		var checks []string
		for i, cg := range p.model.Gates {
			for _, ss := range m.SourceSets {
				if !cg.AppliesTo(ss.Name) {
					continue
				}
				taskID, err := p.addGateTask(id, ss, cg, gates[i])
				if err != nil {
					return err
				}
				checks = append(checks, taskID)
			}
		}
		err := p.graph.Add(scheduler.Task{
			ID:           modpath.Task(id, "check"),
			Predecessors: checks,
			Group:        GroupVerification,
			Description:  fmt.Sprintf("Runs all quality gates of %s.", m.ID),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// toGate converts a configured gate into the runner's form. The
// suppression file is filled in per source set.
func toGate(cg *config.Gate) (gate.Gate, error) {
	if _, err := modpath.Parse(modpath.Separator + cg.Name); err != nil {
		return gate.Gate{}, fmt.Errorf("gate %q: invalid name: %w", cg.Name, err)
	}
	kind, err := gate.ParseKind(cg.Kind)
	if err != nil {
		return gate.Gate{}, fmt.Errorf("gate %q: %w", cg.Name, err)
	}

	var check gate.Check
	switch kind {
	case gate.KindStaticAnalysis:
		sa := gate.StaticAnalysis{Command: cg.Command, Pattern: cg.Pattern, OutputFormat: gate.OutputText}
		if cg.OutputFormat != "" {
			sa.OutputFormat = gate.OutputFormat(cg.OutputFormat)
		}
		if sa.OutputFormat != gate.OutputText && sa.OutputFormat != gate.OutputSARIF {
			return gate.Gate{}, fmt.Errorf("gate %q: unknown output_format %q", cg.Name, cg.OutputFormat)
		}
		check = sa
	case gate.KindFormatCheck:
		check = gate.FormatCheck{}
	}

	return gate.Gate{
		RuleSet: gate.RuleSet{
			Tool:           cg.Name,
			RuleFile:       cg.RuleFile,
			IgnoreFailures: cg.IgnoreFailures,
			MaxWarnings:    cg.MaxWarnings,
		},
		Check:    check,
		Includes: cg.Includes,
	}, nil
}

func (p *Plan) addGateTask(module modpath.Path, ss modgraph.SourceSet, cg *config.Gate, g gate.Gate) (string, error) {
	if _, err := modpath.Parse(modpath.Separator + ss.Name); err != nil {
		return "", fmt.Errorf("module %s: invalid source set name: %w", module, err)
	}
	taskID := modpath.Task(module, gateTaskName(cg.Name, ss.Name))
	g.SuppressionFile = cg.SuppressionFor(ss.Name)
	target := gate.Target{Module: module.String(), SourceSet: ss.Name, Dir: ss.Dir}

	runner := p.silent
	if cg.Report {
		runner = p.reporting
	}

	resultPath := p.layout.GateResult(taskID)
	spec := func() fingerprint.Spec {
		inputs := []string{ss.Dir, g.RuleFile}
		if g.SuppressionFile != "" {
			inputs = append(inputs, g.SuppressionFile)
		}
		return fingerprint.Spec{
			Inputs:  inputs,
			Outputs: []string{resultPath},
			Config: settings(struct {
				Gate    *config.Gate `yaml:"gate"`
				Target  gate.Target  `yaml:"target"`
				Kind    gate.Kind    `yaml:"kind"`
				Include []string     `yaml:"include"`
			}{cg, target, g.Check.Kind(), g.Includes}),
		}
	}

	return taskID, p.graph.Add(scheduler.Task{
		ID:          taskID,
		Timeout:     cg.Timeout,
		Group:       GroupVerification,
		Description: fmt.Sprintf("Runs %s on the %s sources of %s.", cg.Name, ss.Name, module),
		Check:       p.wrapGateCheck(taskID, p.check(taskID, spec)),
		Action: func(ctx context.Context) error {
			res, err := runner.Run(ctx, target, g)
			if err != nil {
				return err
			}
			p.recordResult(taskID, res)
			if err := writeGateResult(resultPath, res); err != nil {
				ctxlog.FromContext(ctx).Warn("Failed to store gate result.", "path", resultPath, "error", err)
			}
			return res.Err()
		},
	})
}

func (p *Plan) addJarTask(module modpath.Path, m *modgraph.Module) error {
	taskID := modpath.Task(module, "jar")
	preds := make([]string, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		preds = append(preds, modpath.Task(modpath.MustParse(dep), "jar"))
	}

	jar := p.jarPath(m)
	mainClass := ""
	if app := p.model.Application; app != nil && app.Module == m.ID {
		mainClass = app.MainClass
	}

	return p.graph.Add(scheduler.Task{
		ID:           taskID,
		Predecessors: preds,
		Group:        GroupBuild,
		Description:  fmt.Sprintf("Packages the classes of %s into %s.", m.ID, m.JarName),
		Check: p.check(taskID, func() fingerprint.Spec {
			return fingerprint.Spec{
				Inputs:  []string{m.OutputDir},
				Outputs: []string{jar},
				Config:  settings(map[string]string{"jar": m.JarName, "main_class": mainClass}),
			}
		}),
		Action: func(ctx context.Context) error {
			entries, err := collectIfExists(m.OutputDir)
			if err != nil {
				return err
			}
			entries = slices.DeleteFunc(entries, func(e archive.Entry) bool { return e.Name == manifestEntry })
			entries = append(entries, archive.Entry{
				Name: manifestEntry,
				Mode: 0o644,
				Data: []byte(jarManifest(mainClass)),
			})
			return archive.WriteFile(ctx, jar, archive.Zip, entries)
		},
	})
}

const manifestEntry = "META-INF/MANIFEST.MF"

func jarManifest(mainClass string) string {
	var b strings.Builder
	b.WriteString("Manifest-Version: 1.0\r\n")
	b.WriteString("Created-By: buildgrid\r\n")
	if mainClass != "" {
		b.WriteString("Main-Class: " + mainClass + "\r\n")
	}
	b.WriteString("\r\n")
	return b.String()
}
