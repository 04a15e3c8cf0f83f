package config

import (
	"errors"
	"fmt"
)

// Validate reports structural problems that do not need the module graph.
// All problems are returned joined.
func (m *Model) Validate() error {
	var errs []error
	if m.Project == nil || m.Project.Name == "" {
		errs = append(errs, errors.New("project: name is required"))
	}

	modules := make(map[string]bool, len(m.Modules))
	for _, mod := range m.Modules {
		if modules[mod.ID] {
			errs = append(errs, fmt.Errorf("module %q: declared more than once", mod.ID))
		}
		modules[mod.ID] = true
		seen := make(map[string]bool)
		for _, ss := range mod.SourceSets {
			if seen[ss.Name] {
				errs = append(errs, fmt.Errorf("module %q: source set %q declared more than once", mod.ID, ss.Name))
			}
			seen[ss.Name] = true
		}
	}

	gates := make(map[string]bool, len(m.Gates))
	for _, g := range m.Gates {
		if gates[g.Name] {
			errs = append(errs, fmt.Errorf("gate %q: declared more than once", g.Name))
		}
		gates[g.Name] = true
		if g.RuleFile == "" && len(g.Command) == 0 {
			errs = append(errs, fmt.Errorf("gate %q: rule_file or command is required", g.Name))
		}
		if g.MaxWarnings < 0 {
			errs = append(errs, fmt.Errorf("gate %q: max_warnings must be >= 0, got %d", g.Name, g.MaxWarnings))
		}
		if g.Timeout < 0 {
			errs = append(errs, fmt.Errorf("gate %q: timeout must not be negative", g.Name))
		}
	}

	if a := m.Application; a != nil {
		if a.Name == "" {
			errs = append(errs, errors.New("application: name is required"))
		}
		if a.MainClass == "" {
			errs = append(errs, errors.New("application: main_class is required"))
		}
		if !modules[a.Module] {
			errs = append(errs, fmt.Errorf("application: unknown module %q", a.Module))
		}
	}
	if m.Distribution != nil && m.Application == nil {
		errs = append(errs, errors.New("distribution: requires an application block"))
	}
	return errors.Join(errs...)
}

// Module returns the module with the given id, or nil.
func (m *Model) Module(id string) *Module {
	for _, mod := range m.Modules {
		if mod.ID == id {
			return mod
		}
	}
	return nil
}
