package form

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// ViewType selects between input and display widgets.
type ViewType string

const (
	InputView   ViewType = "input"
	DisplayView ViewType = "display"
)

// Matcher decides whether a widget factory should handle field.
type Matcher func(field schema.Field) bool

// MatchKind matches fields of any of the given kinds.
func MatchKind(kinds ...schema.Kind) Matcher {
	return func(field schema.Field) bool {
		for _, kind := range kinds {
			if field.Kind() == kind {
				return true
			}
		}
		return false
	}
}

type rule struct {
	name     string
	priority int
	match    Matcher
	factory  Factory
	order    int
}

// Registry selects widget factories for fields. Higher priority wins; ties
// fall back to registration order. Named factories can also be looked up
// directly.
type Registry struct {
	mu    sync.RWMutex
	rules map[ViewType][]rule
	named map[string]Factory
	seq   int
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[ViewType][]rule),
		named: make(map[string]Factory),
	}
}

// DefaultRegistry is used by the set-up helpers when no registry is given.
// Widget packages register their factories here.
var DefaultRegistry = NewRegistry()

// Register adds factory for view under name. Registering the same name for
// the same view again replaces the earlier rule.
func (r *Registry) Register(view ViewType, name string, priority int, matcher Matcher, factory Factory) {
	if r == nil || matcher == nil || factory == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rules := r.rules[view]
	for i := range rules {
		if rules[i].name == name {
			rules = append(rules[:i], rules[i+1:]...)
			break
		}
	}
	r.seq++
	r.rules[view] = append(rules, rule{
		name:     name,
		priority: priority,
		match:    matcher,
		factory:  factory,
		order:    r.seq,
	})
	r.named[name] = factory
}

// RegisterNamed makes factory available through Named without matching any
// field.
func (r *Registry) RegisterNamed(name string, factory Factory) {
	name = strings.TrimSpace(name)
	if r == nil || name == "" || factory == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.named[name] = factory
}

// RegisterKind registers factory for every field of kind at priority 0.
func (r *Registry) RegisterKind(view ViewType, kind schema.Kind, name string, factory Factory) {
	r.Register(view, name, 0, MatchKind(kind), factory)
}

// Resolve returns the name and factory of the best rule matching field.
func (r *Registry) Resolve(field schema.Field, view ViewType) (string, Factory, bool) {
	if r == nil || field == nil {
		return "", nil, false
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules[view]...)
	r.mu.RUnlock()
	if len(rules) == 0 {
		return "", nil, false
	}
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name, entry.factory, true
		}
	}
	return "", nil, false
}

// Named returns the factory registered under name for any view.
func (r *Registry) Named(name string) (Factory, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	factory, ok := r.named[strings.TrimSpace(name)]
	return factory, ok
}

// Widget creates the widget resolved for field.
func (r *Registry) Widget(field schema.Field, req *Request, view ViewType) (Widget, error) {
	if field == nil {
		return nil, fmt.Errorf("%w: nil field", ErrNoWidget)
	}
	_, factory, ok := r.Resolve(field, view)
	if !ok {
		return nil, fmt.Errorf("%w: %s %q (%s)", ErrNoWidget, view, field.Name(), field.Kind())
	}
	return factory(field, req)
}
