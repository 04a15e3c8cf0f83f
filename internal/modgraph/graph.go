package modgraph

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/buildgrid/internal/dag"
	"github.com/vk/buildgrid/internal/modpath"
)

// ErrFrozen is returned by AddModule once the graph is read-only.
var ErrFrozen = errors.New("module graph is frozen")

// Graph is the set of project modules and their dependency relation.
type Graph struct {
	mu      sync.RWMutex
	modules map[string]*Module
	frozen  bool
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{modules: make(map[string]*Module)}
}

// AddModule registers a module. Dependencies may name modules that are
// registered later; they are resolved by Validate and TopologicalOrder.
func (g *Graph) AddModule(m Module) error {
	if _, err := modpath.ParseModule(m.ID); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.frozen {
		return ErrFrozen
	}
	if _, ok := g.modules[m.ID]; ok {
		return &DuplicateModuleError{ID: m.ID}
	}
	g.modules[m.ID] = m.clone()
	return nil
}

// Freeze validates the graph and makes it read-only.
func (g *Graph) Freeze() error {
	if _, err := g.TopologicalOrder(); err != nil {
		return err
	}
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
	return nil
}

// Module returns a copy of the registered module.
func (g *Graph) Module(id string) (*Module, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.modules[id]
	if !ok {
		return nil, &UnknownModuleError{ID: id}
	}
	return m.clone(), nil
}

// DependenciesOf returns the declared, non-transitive dependencies of id.
func (g *Graph) DependenciesOf(id string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	m, ok := g.modules[id]
	if !ok {
		return nil, &UnknownModuleError{ID: id}
	}
	return slices.Clone(m.Dependencies), nil
}

// Validate checks that every dependency names a registered module.
func (g *Graph) Validate() error {
	_, err := g.build()
	return err
}

// TopologicalOrder returns every module identifier after all of its
// transitive dependencies. Ties are broken by identifier so the order is
// reproducible. A cycle yields *CyclicDependencyError and no order.
func (g *Graph) TopologicalOrder() ([]string, error) {
	d, err := g.build()
	if err != nil {
		return nil, err
	}
	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, cycleError(err)
	}
	return order, nil
}

// Closure returns id and its transitive dependencies in topological order.
func (g *Graph) Closure(id string) ([]string, error) {
	d, err := g.build()
	if err != nil {
		return nil, err
	}
	if !d.HasNode(id) {
		return nil, &UnknownModuleError{ID: id}
	}
	members, err := d.Closure(id)
	if err != nil {
		return nil, err
	}
	order, err := d.TopologicalOrder()
	if err != nil {
		return nil, cycleError(err)
	}
	keep := make(map[string]bool, len(members))
	for _, m := range members {
		keep[m] = true
	}
	return slices.DeleteFunc(order, func(m string) bool { return !keep[m] }), nil
}

// Modules returns copies of all modules in topological order.
func (g *Graph) Modules() ([]*Module, error) {
	order, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	out := make([]*Module, 0, len(order))
	for _, id := range order {
		m, err := g.Module(id)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// build projects the modules onto a dag.Graph. Edges point from a
// dependency to the module that needs it.
func (g *Graph) build() (*dag.Graph, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	d := dag.New()
	for id := range g.modules {
		d.AddNode(id)
	}

	ids := make([]string, 0, len(g.modules))
	for id := range g.modules {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		for _, dep := range g.modules[id].Dependencies {
			if dep == id {
				return nil, &CyclicDependencyError{Cycle: []string{id, id}}
			}
			if _, ok := g.modules[dep]; !ok {
				return nil, &UnknownModuleError{ID: dep, Referrer: id}
			}
			if err := d.AddEdge(dep, id); err != nil {
				return nil, fmt.Errorf("linking %s to %s: %w", id, dep, err)
			}
		}
	}
	return d, nil
}

// cycleError converts a dag cycle, which follows dependents, into a module
// cycle that follows dependencies.
func cycleError(err error) error {
	var ce *dag.CycleError
	if !errors.As(err, &ce) {
		return err
	}
	cycle := slices.Clone(ce.Path)
	slices.Reverse(cycle)
	return &CyclicDependencyError{Cycle: cycle}
}
