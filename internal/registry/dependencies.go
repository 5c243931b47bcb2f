package registry

import (
	errUtils "github.com/dotcommander/lintcompose/internal/errors"
)

// visit states for the dependency DFS.
const (
	white = iota // unvisited
	gray         // on the current path
	black        // fully explored
)

// ResolveDependencies returns the provider registered under namespace together
// with its transitive dependencies, dependencies first. Siblings keep their
// declaration order.
//
// Cycles are found with three-color DFS marking: reaching a gray node means a
// back edge, and the error carries the full path, e.g. a -> b -> a.
func (r *Registry) ResolveDependencies(namespace string) ([]Provider, error) {
	if _, ok := r.providers[namespace]; !ok {
		return nil, &errUtils.UnknownProviderError{Namespace: namespace}
	}

	state := make(map[string]int)
	var path []string
	var order []Provider

	var visit func(ns, requiredBy string) error
	visit = func(ns, requiredBy string) error {
		p, ok := r.providers[ns]
		if !ok {
			return &errUtils.UnknownProviderError{Namespace: ns, RequiredBy: requiredBy}
		}

		state[ns] = gray
		path = append(path, ns)

		for _, dep := range p.DependsOn {
			switch state[dep] {
			case white:
				if err := visit(dep, ns); err != nil {
					return err
				}
			case gray:
				return errUtils.NewCyclicDependency(extractCycle(path, dep))
			}
			// black: already emitted
		}

		state[ns] = black
		path = path[:len(path)-1]
		order = append(order, p.clone())
		return nil
	}

	if err := visit(namespace, ""); err != nil {
		return nil, err
	}
	return order, nil
}

// extractCycle returns the slice of path starting at target, closed with target.
func extractCycle(path []string, target string) []string {
	start := 0
	for i, ns := range path {
		if ns == target {
			start = i
			break
		}
	}
	cycle := make([]string, len(path)-start+1)
	copy(cycle, path[start:])
	cycle[len(cycle)-1] = target
	return cycle
}
