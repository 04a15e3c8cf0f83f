package launcher

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/vk/buildgrid/internal/ctxlog"
)

// Request describes one script generation.
type Request struct {
	// OutputDir is where scripts are written, relative to the store.
	OutputDir string
	App       Application
	// Classpath is the ordered list of library file names.
	Classpath []string
	// Platforms selects which scripts to produce. Empty means all.
	Platforms []Platform
	// Exclude removes platforms from the selection.
	Exclude []Platform
	// Templates overrides the stock template per platform.
	Templates map[Platform]string
	// Extra substitutions, applied over the standard set.
	Extra map[string]string
}

// GeneratedScript is one rendered launcher.
type GeneratedScript struct {
	Platform Platform
	Path     string
	Content  string
}

func (r Request) validate() error {
	var errs []error
	if r.OutputDir == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if r.App.Name == "" {
		errs = append(errs, errors.New("application name is required"))
	}
	if r.App.MainClass == "" {
		errs = append(errs, errors.New("main class is required"))
	}
	for _, p := range append(append([]Platform{}, r.Platforms...), r.Exclude...) {
		if _, ok := platforms[p]; !ok {
			errs = append(errs, fmt.Errorf("unsupported platform %q", p))
		}
	}
	return errors.Join(errs...)
}

// selected splits all platforms into included and excluded sets.
func (r Request) selected() (include, exclude []Platform) {
	want := make(map[Platform]bool)
	if len(r.Platforms) == 0 {
		for _, p := range Platforms() {
			want[p] = true
		}
	} else {
		for _, p := range r.Platforms {
			want[p] = true
		}
	}
	for _, p := range r.Exclude {
		want[p] = false
	}
	for _, p := range Platforms() {
		if want[p] {
			include = append(include, p)
		} else {
			exclude = append(exclude, p)
		}
	}
	return include, exclude
}

// GenerateScripts renders launchers for every included platform and writes
// them to store. All renders happen before the first write, so a bad
// template leaves the output directory untouched. Scripts of excluded
// platforms are deleted.
func GenerateScripts(ctx context.Context, store ArtifactStore, req Request) ([]GeneratedScript, error) {
	logger := ctxlog.FromContext(ctx).With("component", "launcher", "app", req.App.Name)

	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid launcher request: %w", err)
	}

	include, exclude := req.selected()
	scripts := make([]GeneratedScript, 0, len(include))
	for _, p := range include {
		tmpl, ok := req.Templates[p]
		if !ok {
			var err error
			if tmpl, err = DefaultTemplate(p); err != nil {
				return nil, err
			}
		}
		subs := Substitutions(req.App, req.Classpath, p)
		for k, v := range req.Extra {
			subs[k] = v
		}
		content, err := Render(tmpl, subs)
		if err != nil {
			var upe *UnresolvedPlaceholderError
			if errors.As(err, &upe) {
				upe.Platform = p
			}
			return nil, err
		}
		scripts = append(scripts, GeneratedScript{
			Platform: p,
			Path:     path.Join(req.OutputDir, p.ScriptName(req.App.Name)),
			Content:  p.normalizeLineEndings(content),
		})
	}

	for _, s := range scripts {
		if err := store.Write(s.Path, []byte(s.Content), s.Platform.Perm()); err != nil {
			return nil, fmt.Errorf("writing %s launcher: %w", s.Platform, err)
		}
		logger.Debug("Launcher written", "platform", s.Platform, "path", s.Path)
	}
	for _, p := range exclude {
		stale := path.Join(req.OutputDir, p.ScriptName(req.App.Name))
		if err := store.Delete(stale); err != nil {
			return nil, fmt.Errorf("removing %s launcher: %w", p, err)
		}
	}

	logger.Info("📝 Launch scripts generated", "count", len(scripts))
	return scripts, nil
}
