package distribution

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/buildgrid/internal/classpath"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fsutil"
	"golang.org/x/sync/errgroup"
)

const copyParallelism = 8

// InstallRequest describes one install tree.
type InstallRequest struct {
	// InstallDir is the parent; the tree goes to InstallDir/Name.
	InstallDir string
	Name       string
	Version    string
	MainClass  string
	Platforms  []string
	// ScriptsDir holds generated launch scripts, copied into bin/.
	ScriptsDir string
	Classpath  []classpath.Artifact
}

// Dir is the root of the install tree.
func (r InstallRequest) Dir() string {
	return filepath.Join(r.InstallDir, r.Name)
}

func (r InstallRequest) validate() error {
	var errs []error
	if r.InstallDir == "" {
		errs = append(errs, errors.New("install directory is required"))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("distribution name is required"))
	}
	if r.ScriptsDir == "" {
		errs = append(errs, errors.New("scripts directory is required"))
	}
	return errors.Join(errs...)
}

// Install replaces the install tree with bin/, lib/ and a manifest and
// returns the manifest it wrote.
func Install(ctx context.Context, req InstallRequest) (*Manifest, error) {
	logger := ctxlog.FromContext(ctx).With("component", "distribution", "name", req.Name)
	if err := req.validate(); err != nil {
		return nil, fmt.Errorf("invalid install request: %w", err)
	}

	root := req.Dir()
	if err := os.RemoveAll(root); err != nil {
		return nil, fmt.Errorf("clearing %s: %w", root, err)
	}

	scripts, err := os.ReadDir(req.ScriptsDir)
	if err != nil {
		return nil, fmt.Errorf("reading launch scripts: %w", err)
	}

	type copyJob struct {
		src, dst string
		perm     os.FileMode
	}
	var jobs []copyJob
	for _, s := range scripts {
		if !s.Type().IsRegular() {
			continue
		}
		jobs = append(jobs, copyJob{filepath.Join(req.ScriptsDir, s.Name()), filepath.Join(root, "bin", s.Name()), 0o755})
	}
	for _, a := range req.Classpath {
		jobs = append(jobs, copyJob{a.Path, filepath.Join(root, "lib", a.Name), 0o644})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(copyParallelism)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fsutil.CopyFile(j.src, j.dst, j.perm); err != nil {
				return fmt.Errorf("installing %s: %w", j.src, err)
			}
			return os.Chmod(j.dst, j.perm)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	files, err := collectFiles(root)
	if err != nil {
		return nil, err
	}
	m := &Manifest{
		Name:      req.Name,
		Version:   req.Version,
		MainClass: req.MainClass,
		Platforms: req.Platforms,
		Files:     files,
	}
	if err := writeManifest(root, m); err != nil {
		return nil, fmt.Errorf("writing manifest: %w", err)
	}

	logger.Info("📦 Distribution installed", "dir", root, "files", len(files))
	return m, nil
}
