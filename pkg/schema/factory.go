package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory creates an empty value for an object field.
type Factory func() any

// FactoryRegistry maps factory ids to constructors so object fields can name
// the type they create.
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewFactoryRegistry creates an empty registry.
func NewFactoryRegistry() *FactoryRegistry {
	return &FactoryRegistry{factories: make(map[string]Factory)}
}

// DefaultFactories is the process-wide registry consulted when a widget is
// not given an explicit registry.
var DefaultFactories = NewFactoryRegistry()

// Register associates id with factory. Duplicate ids return an error.
func (r *FactoryRegistry) Register(id string, factory Factory) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("schema: factory id is required")
	}
	if factory == nil {
		return fmt.Errorf("schema: factory %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[id]; exists {
		return fmt.Errorf("schema: factory %q already registered", id)
	}
	r.factories[id] = factory
	return nil
}

// MustRegister panics on registration failure.
func (r *FactoryRegistry) MustRegister(id string, factory Factory) {
	if err := r.Register(id, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered under id.
func (r *FactoryRegistry) Lookup(id string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.factories[strings.TrimSpace(id)]
	return factory, ok
}

// IDs returns the registered ids sorted.
func (r *FactoryRegistry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.factories))
	for id := range r.factories {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
