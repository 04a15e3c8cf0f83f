package plan

import (
	"slices"
	"strings"

	"github.com/vk/buildgrid/internal/modpath"
	"github.com/vk/buildgrid/internal/scheduler"
)

// Resolve maps target names to task ids. A name starting with `:` must be
// an exact task path; a bare name matches every task whose last segment
// equals it, so `jar` selects the jar task of every module.
func (p *Plan) Resolve(targets ...string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}

	ids := p.graph.IDs()
	for _, target := range targets {
		if strings.HasPrefix(target, modpath.Separator) {
			if _, ok := p.graph.Task(target); !ok {
				return nil, &scheduler.UnknownTaskError{ID: target}
			}
			add(target)
			continue
		}
		matched := false
		for _, id := range ids {
			if id[strings.LastIndex(id, modpath.Separator)+1:] == target {
				add(id)
				matched = true
			}
		}
		if !matched {
			return nil, &scheduler.UnknownTaskError{ID: target}
		}
	}
	return out, nil
}

// Select resolves targets and prunes the graph to them and everything
// they depend on. When :clean is selected with other tasks it runs before
// all of them.
func (p *Plan) Select(targets ...string) (*scheduler.Graph, error) {
	ids, err := p.Resolve(targets...)
	if err != nil {
		return nil, err
	}
	g, err := p.graph.Select(ids...)
	if err != nil {
		return nil, err
	}
	if len(ids) > 1 && slices.Contains(ids, taskClean) {
		if err := g.RunFirst(taskClean); err != nil {
			return nil, err
		}
	}
	return g, nil
}
