package plan

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vk/buildgrid/internal/classpath"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fingerprint"
	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/modgraph"
	"github.com/vk/buildgrid/internal/modpath"
	"github.com/vk/buildgrid/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// Task groups shown by the task listing.
const (
	GroupBuild        = "build"
	GroupVerification = "verification"
	GroupDistribution = "distribution"
	GroupHelp         = "help"
)

// Plan is the task graph of one project plus the state its tasks share.
type Plan struct {
	model    *config.Model
	modules  *modgraph.Graph
	layout   Layout
	graph    *scheduler.Graph
	resolver classpath.Resolver

	reporting *gate.Runner
	silent    *gate.Runner
	store     *fingerprint.Store
	runID     string

	archives []string

	mu      sync.Mutex
	results map[string]*gate.Result
}

// Option configures a Plan.
type Option func(*Plan)

// WithFingerprints enables up-to-date checks backed by store.
func WithFingerprints(store *fingerprint.Store) Option {
	return func(p *Plan) { p.store = store }
}

// WithRunID stamps recorded fingerprints with the run id.
func WithRunID(id string) Option {
	return func(p *Plan) { p.runID = id }
}

// WithResolver replaces the local classpath resolver.
func WithResolver(r classpath.Resolver) Option {
	return func(p *Plan) { p.resolver = r }
}

// Build validates the model, freezes the module graph and creates every
// task. Module graph errors are returned unwrapped.
func Build(ctx context.Context, model *config.Model, opts ...Option) (*Plan, error) {
	p := &Plan{
		model:   model,
		layout:  Layout{BuildDir: model.Project.BuildDir},
		graph:   scheduler.NewGraph(),
		results: make(map[string]*gate.Result),
	}
	for _, opt := range opts {
		opt(p)
	}

	modules, err := buildModuleGraph(model)
	if err != nil {
		return nil, err
	}
	p.modules = modules
	if p.resolver == nil {
		p.resolver = &classpath.Local{Graph: modules, JarPath: p.jarPath}
	}

	p.reporting = gate.NewRunner(gate.WithReportsDir(p.layout.Reports()), gate.WithWorkDir(p.layout.GateWork()))
	p.silent = gate.NewRunner(gate.WithWorkDir(p.layout.GateWork()))

	if err := p.addModuleTasks(); err != nil {
		return nil, err
	}
	if err := p.addDistributionTasks(); err != nil {
		return nil, err
	}
	if err := p.addLifecycleTasks(); err != nil {
		return nil, err
	}
	if err := p.graph.Validate(); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Debug("Build plan ready.", "modules", len(model.Modules), "tasks", p.graph.Len())
	return p, nil
}

func buildModuleGraph(model *config.Model) (*modgraph.Graph, error) {
	g := modgraph.New()
	for _, m := range model.Modules {
		mod := modgraph.Module{
			ID:           m.ID,
			Dependencies: m.DependsOn,
			RootDir:      m.Dir,
			OutputDir:    m.OutputDir,
			Libraries:    m.Libraries,
			JarName:      m.JarName,
		}
		for _, ss := range m.SourceSets {
			mod.SourceSets = append(mod.SourceSets, modgraph.SourceSet{Name: ss.Name, Dir: ss.Dir})
		}
		if err := g.AddModule(mod); err != nil {
			return nil, err
		}
	}
	if err := g.Freeze(); err != nil {
		return nil, err
	}
	return g, nil
}

// Graph is the full task graph.
func (p *Plan) Graph() *scheduler.Graph { return p.graph }

// Modules is the frozen module graph.
func (p *Plan) Modules() *modgraph.Graph { return p.modules }

// Layout is the build directory layout.
func (p *Plan) Layout() Layout { return p.layout }

func (p *Plan) jarPath(m *modgraph.Module) string {
	return filepath.Join(p.layout.Libs(), m.JarName)
}

// GateResults returns the results of gates that ran, ordered by module,
// tool and source set.
func (p *Plan) GateResults() []*gate.Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*gate.Result, 0, len(p.results))
	for _, r := range p.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Tool != b.Tool {
			return a.Tool < b.Tool
		}
		return a.SourceSet < b.SourceSet
	})
	return out
}

func (p *Plan) recordResult(id string, r *gate.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results[id] = r
}

// check returns an up-to-date predicate, or nil when fingerprints are off.
func (p *Plan) check(id string, spec func() fingerprint.Spec) scheduler.UpToDateCheck {
	if p.store == nil {
		return nil
	}
	return p.store.NewCheck(id, spec, fingerprint.WithRunID(p.runID))
}

// settings renders task configuration for fingerprints.
func settings(v any) string {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}

func rootTask(name string) string {
	return modpath.Task(modpath.Root(), name)
}
