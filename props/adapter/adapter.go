// Package adapter holds named transforms that derive a prop value from one
// or more evaluated prop source inputs.
package adapter

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jacerider/neo-alchemist/props/propshape"
)

var (
	ErrUnknownAdapter = errors.New("unknown adapter")
	ErrMissingInput   = errors.New("missing adapter input")
)

// Transform computes the adapter output from its named inputs.
type Transform func(inputs map[string]any) (any, error)

// Adapter is a pure transform with declared input and output schemas.
type Adapter struct {
	ID        string
	Label     string
	Inputs    map[string]map[string]any
	Required  []string
	Output    map[string]any
	Transform Transform
}

// Adapt runs the transform after checking that every required input is set.
func (a *Adapter) Adapt(inputs map[string]any) (any, error) {
	for _, name := range a.Required {
		if v, ok := inputs[name]; !ok || v == nil {
			return nil, fmt.Errorf("%w: %s requires %q", ErrMissingInput, a.ID, name)
		}
	}
	for name := range inputs {
		if _, ok := a.Inputs[name]; !ok {
			return nil, fmt.Errorf("adapter %s has no input %q", a.ID, name)
		}
	}
	out, err := a.Transform(inputs)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", a.ID, err)
	}
	return out, nil
}

// OutputShape normalizes the output schema.
func (a *Adapter) OutputShape(resolver propshape.Resolver) (*propshape.Shape, error) {
	return propshape.Normalize(a.Output, resolver)
}

// InputNames lists the inputs in lexical order.
func (a *Adapter) InputNames() []string {
	names := make([]string, 0, len(a.Inputs))
	for name := range a.Inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry holds adapters by ID.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]*Adapter
}

// NewRegistry creates a registry holding the given adapters.
func NewRegistry(adapters ...*Adapter) *Registry {
	r := &Registry{adapters: make(map[string]*Adapter, len(adapters))}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// Register adds or replaces an adapter.
func (r *Registry) Register(a *Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.ID] = a
}

// Get returns the adapter with the given ID.
func (r *Registry) Get(id string) (*Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdapter, id)
	}
	return a, nil
}

// IDs lists the registered adapter IDs in lexical order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.adapters))
	for id := range r.adapters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ByOutputShape returns the adapters whose output normalizes to the shape,
// ordered by ID.
func (r *Registry) ByOutputShape(shape *propshape.Shape, resolver propshape.Resolver) ([]*Adapter, error) {
	var matched []*Adapter
	for _, id := range r.IDs() {
		a, err := r.Get(id)
		if err != nil {
			return nil, err
		}
		out, err := a.OutputShape(resolver)
		if err != nil {
			return nil, fmt.Errorf("adapter %s output: %w", id, err)
		}
		if out.Equal(shape) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}
