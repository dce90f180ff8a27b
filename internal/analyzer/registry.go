package analyzer

import "fmt"

// Registry is an explicitly constructed, ordered analyzer collection.
// It is built once at process start and passed by reference into the
// orchestrator, so concurrent orchestrators never share mutable state.
type Registry struct {
	order  []Analyzer
	byName map[string]Analyzer
}

// NewRegistry builds a registry from the given analyzers, preserving
// declaration order. Duplicate names are a construction error.
func NewRegistry(analyzers ...Analyzer) (*Registry, error) {
	r := &Registry{
		order:  make([]Analyzer, 0, len(analyzers)),
		byName: make(map[string]Analyzer, len(analyzers)),
	}
	for _, a := range analyzers {
		if _, exists := r.byName[a.Name()]; exists {
			return nil, fmt.Errorf("duplicate analyzer %q", a.Name())
		}
		r.byName[a.Name()] = a
		r.order = append(r.order, a)
	}
	return r, nil
}

// Resolve returns the named analyzers in registry declaration order.
// An empty name set selects every registered analyzer. Unknown names
// are an error so typos surface before any API call is spent.
func (r *Registry) Resolve(names []string) ([]Analyzer, error) {
	if len(names) == 0 {
		out := make([]Analyzer, len(r.order))
		copy(out, r.order)
		return out, nil
	}

	want := make(map[string]bool, len(names))
	for _, n := range names {
		if _, ok := r.byName[n]; !ok {
			return nil, fmt.Errorf("unknown analyzer %q", n)
		}
		want[n] = true
	}

	out := make([]Analyzer, 0, len(want))
	for _, a := range r.order {
		if want[a.Name()] {
			out = append(out, a)
		}
	}
	return out, nil
}

// Names lists registered analyzer names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	for i, a := range r.order {
		names[i] = a.Name()
	}
	return names
}
