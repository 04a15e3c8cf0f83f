package scheduler

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/buildgrid/internal/dag"
)

// Graph is an immutable-by-convention set of tasks. Build it with Add, then
// hand it to Execute.
type Graph struct {
	tasks map[string]*Task
}

// NewGraph returns an empty task graph.
func NewGraph() *Graph {
	return &Graph{tasks: make(map[string]*Task)}
}

// Add registers a task. Predecessors may be added later.
func (g *Graph) Add(t Task) error {
	if t.ID == "" {
		return errors.New("task id cannot be empty")
	}
	if _, ok := g.tasks[t.ID]; ok {
		return &DuplicateTaskError{ID: t.ID}
	}
	var preds []string
	for _, p := range t.Predecessors {
		if !slices.Contains(preds, p) {
			preds = append(preds, p)
		}
	}
	t.Predecessors = preds
	g.tasks[t.ID] = &t
	return nil
}

// Task returns the task with the given ID.
func (g *Graph) Task(id string) (*Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Len returns the number of tasks.
func (g *Graph) Len() int {
	return len(g.tasks)
}

// IDs returns all task IDs in lexical order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.tasks))
	for id := range g.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Validate checks predecessor references and acyclicity.
func (g *Graph) Validate() error {
	_, err := g.build()
	return err
}

// Order returns the task IDs in topological order, ties broken lexically.
func (g *Graph) Order() ([]string, error) {
	d, err := g.build()
	if err != nil {
		return nil, err
	}
	return d.TopologicalOrder()
}

// Select returns a new graph holding the given tasks and everything they
// transitively depend on.
func (g *Graph) Select(ids ...string) (*Graph, error) {
	d, err := g.build()
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if !d.HasNode(id) {
			return nil, &UnknownTaskError{ID: id}
		}
	}
	closure, err := d.Closure(ids...)
	if err != nil {
		return nil, err
	}
	sub := NewGraph()
	for _, id := range closure {
		sub.tasks[id] = g.tasks[id]
	}
	return sub, nil
}

// RunFirst makes id a predecessor of every other task without
// predecessors, so nothing else starts before id has finished. Affected
// tasks are copied; graphs sharing them through Select are not changed.
func (g *Graph) RunFirst(id string) error {
	first, ok := g.tasks[id]
	if !ok {
		return &UnknownTaskError{ID: id}
	}
	if len(first.Predecessors) > 0 {
		return fmt.Errorf("task %s cannot run first: it has predecessors", id)
	}
	for other, t := range g.tasks {
		if other == id || len(t.Predecessors) > 0 {
			continue
		}
		cp := *t
		cp.Predecessors = []string{id}
		g.tasks[other] = &cp
	}
	return nil
}

func (g *Graph) build() (*dag.Graph, error) {
	d := dag.New()
	ids := g.IDs()
	for _, id := range ids {
		d.AddNode(id)
	}
	for _, id := range ids {
		for _, pred := range g.tasks[id].Predecessors {
			if _, ok := g.tasks[pred]; !ok {
				return nil, &UnknownTaskError{ID: pred, Referrer: id}
			}
			if err := d.AddEdge(pred, id); err != nil {
				return nil, fmt.Errorf("task %s: %w", id, err)
			}
		}
	}
	if err := d.DetectCycles(); err != nil {
		return nil, fmt.Errorf("task graph: %w", err)
	}
	return d, nil
}

// dependents maps each task to the tasks that list it as a predecessor.
func (g *Graph) dependents() map[string][]string {
	out := make(map[string][]string, len(g.tasks))
	for _, id := range g.IDs() {
		for _, pred := range g.tasks[id].Predecessors {
			out[pred] = append(out[pred], id)
		}
	}
	return out
}
