package plan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"unicode"

	"github.com/vk/buildgrid/internal/archive"
	"github.com/vk/buildgrid/internal/classpath"
	"github.com/vk/buildgrid/internal/distribution"
	"github.com/vk/buildgrid/internal/fingerprint"
	"github.com/vk/buildgrid/internal/launcher"
	"github.com/vk/buildgrid/internal/modpath"
	"github.com/vk/buildgrid/internal/scheduler"
)

var (
	taskStartScripts    = rootTask("startScripts")
	taskInstallDist     = rootTask("installDist")
	taskAssemble        = rootTask("assemble")
	taskCheck           = rootTask("check")
	taskBuild           = rootTask("build")
	taskClean           = rootTask("clean")
	taskExtractTemplate = rootTask("extractTemplate")
)

// archiveTask names the task producing format, e.g. `:distZip`.
func archiveTask(f archive.Format) string {
	r := []rune(f.Ext())
	r[0] = unicode.ToUpper(r[0])
	return rootTask("dist" + string(r))
}

func collectIfExists(dir string) ([]archive.Entry, error) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return archive.Collect(dir, "")
}

// launchSettings are the parts of a launcher request that come from the
// build file, parsed once at plan time.
type launchSettings struct {
	platforms []launcher.Platform
	exclude   []launcher.Platform
	templates map[launcher.Platform]string
	formats   []archive.Format
}

func (p *Plan) parseDistribution() (*launchSettings, error) {
	d := p.model.Distribution
	ls := &launchSettings{templates: make(map[launcher.Platform]string)}
	for _, s := range d.Platforms {
		pl, err := launcher.ParsePlatform(s)
		if err != nil {
			return nil, fmt.Errorf("distribution: %w", err)
		}
		ls.platforms = append(ls.platforms, pl)
	}
	for _, s := range d.Exclude {
		pl, err := launcher.ParsePlatform(s)
		if err != nil {
			return nil, fmt.Errorf("distribution: %w", err)
		}
		ls.exclude = append(ls.exclude, pl)
	}
	for s, path := range d.Templates {
		pl, err := launcher.ParsePlatform(s)
		if err != nil {
			return nil, fmt.Errorf("distribution template: %w", err)
		}
		ls.templates[pl] = path
	}
	seen := make(map[archive.Format]bool)
	for _, s := range d.Formats {
		f, err := archive.ParseFormat(s)
		if err != nil {
			return nil, fmt.Errorf("distribution: %w", err)
		}
		if !seen[f] {
			seen[f] = true
			ls.formats = append(ls.formats, f)
		}
	}
	return ls, nil
}

// included lists the platforms that get a script, as strings.
func (ls *launchSettings) included() []string {
	var out []string
	for _, pl := range ls.platforms {
		excluded := false
		for _, ex := range ls.exclude {
			excluded = excluded || ex == pl
		}
		if !excluded {
			out = append(out, string(pl))
		}
	}
	return out
}

func (p *Plan) addDistributionTasks() error {
	app := p.model.Application
	if app == nil || p.model.Distribution == nil {
		return nil
	}
	ls, err := p.parseDistribution()
	if err != nil {
		return err
	}

	closure, err := p.modules.Closure(app.Module)
	if err != nil {
		return err
	}
	var jars []string
	for _, id := range closure {
		jars = append(jars, modpath.Task(modpath.MustParse(id), "jar"))
	}

	if err := p.addStartScripts(ls, jars); err != nil {
		return err
	}
	if err := p.addInstallDist(ls, jars); err != nil {
		return err
	}
	for _, f := range ls.formats {
		if err := p.addArchiveTask(f); err != nil {
			return err
		}
	}
	return nil
}

// resolveClasspath is only valid once the jar tasks have run.
func (p *Plan) resolveClasspath(ctx context.Context) ([]classpath.Artifact, error) {
	return p.resolver.Resolve(ctx, p.model.Application.Module)
}

func (p *Plan) addStartScripts(ls *launchSettings, jars []string) error {
	app := p.model.Application
	templatePaths := func() []string {
		var out []string
		for _, path := range ls.templates {
			out = append(out, path)
		}
		return out
	}

	return p.graph.Add(scheduler.Task{
		ID:           taskStartScripts,
		Predecessors: jars,
		Group:        GroupDistribution,
		Description:  "Creates the launch scripts of the application.",
		Check: p.check(taskStartScripts, func() fingerprint.Spec {
			cp, err := p.resolveClasspath(context.Background())
			names := classpath.Names(cp)
			if err != nil {
				names = []string{err.Error()}
			}
			return fingerprint.Spec{
				Inputs:  templatePaths(),
				Outputs: []string{p.layout.Scripts()},
				Config: settings(map[string]any{
					"application": app,
					"classpath":   names,
					"platforms":   ls.platforms,
					"exclude":     ls.exclude,
				}),
			}
		}),
		Action: func(ctx context.Context) error {
			cp, err := p.resolveClasspath(ctx)
			if err != nil {
				return err
			}
			store := launcher.NewFileStore("")
			templates := make(map[launcher.Platform]string, len(ls.templates))
			for pl, path := range ls.templates {
				t, err := launcher.LoadTemplate(store, pl, path)
				if err != nil {
					return err
				}
				templates[pl] = t
			}
			_, err = launcher.GenerateScripts(ctx, store, launcher.Request{
				OutputDir: p.layout.Scripts(),
				App:       launcher.Application{Name: app.Name, MainClass: app.MainClass, JvmArgs: app.JvmArgs},
				Classpath: classpath.Names(cp),
				Platforms: ls.platforms,
				Exclude:   ls.exclude,
				Templates: templates,
			})
			return err
		},
	})
}

func (p *Plan) installRequest(ls *launchSettings) distribution.InstallRequest {
	app := p.model.Application
	return distribution.InstallRequest{
		InstallDir: p.layout.Install(),
		Name:       app.Name,
		Version:    p.model.Project.Version,
		MainClass:  app.MainClass,
		Platforms:  ls.included(),
		ScriptsDir: p.layout.Scripts(),
	}
}

func (p *Plan) addInstallDist(ls *launchSettings, jars []string) error {
	req := p.installRequest(ls)
	return p.graph.Add(scheduler.Task{
		ID:           taskInstallDist,
		Predecessors: append([]string{taskStartScripts}, jars...),
		Group:        GroupDistribution,
		Description:  fmt.Sprintf("Installs the application into %s.", req.Dir()),
		Check: p.check(taskInstallDist, func() fingerprint.Spec {
			inputs := []string{p.layout.Scripts()}
			cp, _ := p.resolveClasspath(context.Background())
			for _, a := range cp {
				inputs = append(inputs, a.Path)
			}
			return fingerprint.Spec{
				Inputs:  inputs,
				Outputs: []string{req.Dir()},
				Config:  settings(map[string]any{"name": req.Name, "version": req.Version, "main_class": req.MainClass, "platforms": req.Platforms, "lib": classpath.Names(cp)}),
			}
		}),
		Action: func(ctx context.Context) error {
			cp, err := p.resolveClasspath(ctx)
			if err != nil {
				return err
			}
			r := req
			r.Classpath = cp
			_, err = distribution.Install(ctx, r)
			return err
		},
	})
}

func (p *Plan) archiveRequest() distribution.ArchiveRequest {
	app := p.model.Application
	return distribution.ArchiveRequest{
		InstallDir: distribution.InstallRequest{InstallDir: p.layout.Install(), Name: app.Name}.Dir(),
		Name:       app.Name,
		Version:    p.model.Project.Version,
		DestDir:    p.layout.Distributions(),
	}
}

func (p *Plan) addArchiveTask(f archive.Format) error {
	taskID := archiveTask(f)
	req := p.archiveRequest()
	p.archives = append(p.archives, taskID)
	return p.graph.Add(scheduler.Task{
		ID:           taskID,
		Predecessors: []string{taskInstallDist},
		Group:        GroupDistribution,
		Description:  fmt.Sprintf("Packs the distribution as %s.", req.Path(f)),
		Check: p.check(taskID, func() fingerprint.Spec {
			return fingerprint.Spec{
				Inputs:  []string{req.InstallDir},
				Outputs: []string{req.Path(f)},
				Config:  settings(map[string]string{"format": string(f), "base": req.BaseName()}),
			}
		}),
		Action: func(ctx context.Context) error {
			_, err := distribution.Archive(ctx, req, f)
			return err
		},
	})
}

func (p *Plan) addLifecycleTasks() error {
	assemble := slices.Clone(p.archives)
	var checks []string
	order, err := p.modules.TopologicalOrder()
	if err != nil {
		return err
	}
	for _, id := range order {
		mod := modpath.MustParse(id)
		assemble = append(assemble, modpath.Task(mod, "jar"))
		checks = append(checks, modpath.Task(mod, "check"))
	}

	tasks := []scheduler.Task{
		{ID: taskAssemble, Predecessors: assemble, Group: GroupBuild, Description: "Assembles every jar and distribution archive."},
		{ID: taskCheck, Predecessors: checks, Group: GroupVerification, Description: "Runs every quality gate."},
		{ID: taskBuild, Predecessors: []string{taskAssemble, taskCheck}, Group: GroupBuild, Description: "Assembles and checks the project."},
		{
			ID:          taskClean,
			Group:       GroupBuild,
			Description: "Deletes the build directory.",
			Action: func(ctx context.Context) error {
				if err := os.RemoveAll(p.layout.BuildDir); err != nil {
					return err
				}
				if p.store != nil {
					p.store.Reset()
				}
				return nil
			},
		},
		{
			ID:          taskExtractTemplate,
			Group:       GroupHelp,
			Description: "Writes the stock unix launch script template for customisation.",
			Action: func(ctx context.Context) error {
				tmpl, err := launcher.DefaultTemplate(launcher.Unix)
				if err != nil {
					return err
				}
				return launcher.NewFileStore("").Write(p.layout.ExtractedTemplate(), []byte(tmpl), 0o644)
			},
		},
	}
	for _, t := range tasks {
		if err := p.graph.Add(t); err != nil {
			return err
		}
	}
	return nil
}
