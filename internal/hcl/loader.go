package hcl

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// DefaultFileName is the build file looked up in a project directory.
const DefaultFileName = "buildgrid.hcl"

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file named by paths. Directories contribute all
// .hcl files below them. The project root is the first path if it is a
// directory, or the directory containing it.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	if len(paths) == 0 {
		return nil, fmt.Errorf("no build file given")
	}
	rootDir, err := projectRoot(paths[0])
	if err != nil {
		return nil, err
	}

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(hclFiles) == 0 {
		return nil, fmt.Errorf("no .hcl build files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	// Phase one: find the project block.
	parser := hclparse.NewParser()
	var (
		project *hcl.Block
		bodies  []hcl.Body
	)
	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}
		content, remain, diags := hclFile.Body.PartialContent(projectSchema)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		for _, blk := range content.Blocks {
			if project != nil {
				return nil, fmt.Errorf("%s: project block already declared at %s", blk.DefRange, project.DefRange)
			}
			project = blk
		}
		bodies = append(bodies, remain)
	}
	if project == nil {
		return nil, fmt.Errorf("no project block found in %v", hclFiles)
	}

	var pb projectBlock
	if diags := gohcl.DecodeBody(project.Body, nil, &pb); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode project block: %w", diags)
	}
	model := &config.Model{
		RootDir: rootDir,
		Project: &config.Project{
			Name:     project.Labels[0],
			Version:  pb.Version,
			BuildDir: resolve(rootDir, orDefault(pb.BuildDir, config.DefaultBuildDir)),
		},
	}

	// Phase two: everything else, with project.* in scope.
	evalCtx, err := newEvalContext(projectVars{
		Name:     model.Project.Name,
		Version:  model.Project.Version,
		RootDir:  rootDir,
		BuildDir: model.Project.BuildDir,
	})
	if err != nil {
		return nil, fmt.Errorf("building evaluation context: %w", err)
	}

	for i, body := range bodies {
		var root fileRoot
		if diags := gohcl.DecodeBody(body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", hclFiles[i], diags)
		}
		if err := l.merge(model, &root); err != nil {
			return nil, fmt.Errorf("%s: %w", hclFiles[i], err)
		}
	}
	applyDefaults(model)

	if err := model.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build configuration: %w", err)
	}

	logger.Debug("HCL loading complete.", "modules", len(model.Modules), "gates", len(model.Gates))
	return model, nil
}

// merge translates one decoded file into the model.
func (l *Loader) merge(model *config.Model, root *fileRoot) error {
	for _, mb := range root.Modules {
		m, err := translateModule(model, mb)
		if err != nil {
			return err
		}
		model.Modules = append(model.Modules, m)
	}
	for _, gb := range root.Gates {
		g, err := translateGate(model.RootDir, gb)
		if err != nil {
			return err
		}
		model.Gates = append(model.Gates, g)
	}
	if root.Application != nil {
		if model.Application != nil {
			return fmt.Errorf("application block declared more than once")
		}
		model.Application = translateApplication(root.Application)
	}
	if root.Distribution != nil {
		if model.Distribution != nil {
			return fmt.Errorf("distribution block declared more than once")
		}
		d, err := translateDistribution(model.RootDir, root.Distribution)
		if err != nil {
			return err
		}
		model.Distribution = d
	}
	return nil
}

func applyDefaults(model *config.Model) {
	if model.Application != nil && model.Application.Name == "" {
		model.Application.Name = model.Project.Name
	}
}

func projectRoot(first string) (string, error) {
	abs, err := filepath.Abs(first)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("build file: %w", err)
	}
	if info.IsDir() {
		return abs, nil
	}
	return filepath.Dir(abs), nil
}

// findAllHCLFiles walks all given paths and returns a sorted, de-duplicated
// list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(allFiles)
	return allFiles, nil
}
