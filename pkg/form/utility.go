package form

import (
	"errors"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Widgets is an ordered set of widgets keyed by field name.
type Widgets struct {
	names   []string
	fields  map[string]schema.Field
	widgets map[string]Widget
}

// NewWidgets returns an empty collection.
func NewWidgets() *Widgets {
	return &Widgets{
		fields:  make(map[string]schema.Field),
		widgets: make(map[string]Widget),
	}
}

// Put stores w under its field name, keeping the first insertion order.
func (ws *Widgets) Put(w Widget) {
	if w == nil || w.Field() == nil {
		return
	}
	name := w.Field().Name()
	if _, exists := ws.widgets[name]; !exists {
		ws.names = append(ws.names, name)
	}
	ws.fields[name] = w.Field()
	ws.widgets[name] = w
}

// Get returns the widget for field name.
func (ws *Widgets) Get(name string) (Widget, bool) {
	if ws == nil {
		return nil, false
	}
	w, ok := ws.widgets[name]
	return w, ok
}

// Input returns the widget for name when it accepts input.
func (ws *Widgets) Input(name string) (InputWidget, bool) {
	w, ok := ws.Get(name)
	if !ok {
		return nil, false
	}
	in, ok := w.(InputWidget)
	return in, ok
}

// Names returns field names in order.
func (ws *Widgets) Names() []string {
	if ws == nil {
		return nil
	}
	return append([]string(nil), ws.names...)
}

// All returns the widgets in order.
func (ws *Widgets) All() []Widget {
	if ws == nil {
		return nil
	}
	out := make([]Widget, 0, len(ws.names))
	for _, name := range ws.names {
		out = append(out, ws.widgets[name])
	}
	return out
}

// Len returns the number of widgets.
func (ws *Widgets) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.names)
}

func (ws *Widgets) selected(names []string) []string {
	if len(names) == 0 {
		return ws.Names()
	}
	return names
}

type setUpConfig struct {
	prefix       string
	names        []string
	initial      map[string]any
	registry     *Registry
	overrides    map[string]Factory
	ignoreSticky bool
}

// SetUpOption configures the set-up helpers.
type SetUpOption func(*setUpConfig)

// WithPrefix sets the prefix of every created widget.
func WithPrefix(prefix string) SetUpOption {
	return func(c *setUpConfig) { c.prefix = prefix }
}

// WithNames restricts and orders the fields to set up.
func WithNames(names ...string) SetUpOption {
	return func(c *setUpConfig) { c.names = append([]string(nil), names...) }
}

// WithInitial supplies rendered values keyed by field name.
func WithInitial(values map[string]any) SetUpOption {
	return func(c *setUpConfig) { c.initial = values }
}

// WithRegistry selects the registry used to resolve widget factories.
func WithRegistry(r *Registry) SetUpOption {
	return func(c *setUpConfig) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithWidget forces factory for the named field.
func WithWidget(name string, factory Factory) SetUpOption {
	return func(c *setUpConfig) {
		if factory == nil {
			return
		}
		if c.overrides == nil {
			c.overrides = make(map[string]Factory)
		}
		c.overrides[name] = factory
	}
}

// WithWidgets forces several per-field factories at once.
func WithWidgets(factories map[string]Factory) SetUpOption {
	return func(c *setUpConfig) {
		for name, factory := range factories {
			WithWidget(name, factory)(c)
		}
	}
}

// IgnoreStickyValues makes rendered values win over submitted input.
func IgnoreStickyValues() SetUpOption {
	return func(c *setUpConfig) { c.ignoreSticky = true }
}

func newSetUpConfig(opts []SetUpOption) *setUpConfig {
	cfg := &setUpConfig{registry: DefaultRegistry}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	return cfg
}

// SetUpWidgets creates a widget of view type for each selected field of s.
// Initial values are rendered unless the widget already has input.
func SetUpWidgets(s *schema.Schema, req *Request, view ViewType, opts ...SetUpOption) (*Widgets, error) {
	cfg := newSetUpConfig(opts)
	fields, err := s.Subset(cfg.names)
	if err != nil {
		return nil, err
	}
	ws := NewWidgets()
	for _, field := range fields {
		value, ok := cfg.initial[field.Name()]
		w, err := setUpWidget(cfg, field, req, view, value, ok)
		if err != nil {
			return nil, err
		}
		ws.Put(w)
	}
	return ws, nil
}

// SetUpEditWidgets creates input widgets for writable fields and display
// widgets for read-only ones, rendering the current values of source.
func SetUpEditWidgets(s *schema.Schema, req *Request, source any, opts ...SetUpOption) (*Widgets, error) {
	return setUpSourceWidgets(s, req, source, false, opts)
}

// SetUpDisplayWidgets creates display widgets rendering the values of
// source.
func SetUpDisplayWidgets(s *schema.Schema, req *Request, source any, opts ...SetUpOption) (*Widgets, error) {
	return setUpSourceWidgets(s, req, source, true, opts)
}

func setUpSourceWidgets(s *schema.Schema, req *Request, source any, display bool, opts []SetUpOption) (*Widgets, error) {
	cfg := newSetUpConfig(opts)
	fields, err := s.Subset(cfg.names)
	if err != nil {
		return nil, err
	}
	ws := NewWidgets()
	for _, field := range fields {
		view := InputView
		if display || field.Readonly() {
			view = DisplayView
		}
		value, ok := cfg.initial[field.Name()]
		if !ok && source != nil {
			got, err := field.Get(source)
			switch {
			case err == nil:
				value, ok = got, true
			case !errors.Is(err, schema.ErrNoSuchField):
				return nil, err
			}
		}
		w, err := setUpWidget(cfg, field, req, view, value, ok)
		if err != nil {
			return nil, err
		}
		ws.Put(w)
	}
	return ws, nil
}

func setUpWidget(cfg *setUpConfig, field schema.Field, req *Request, view ViewType, value any, hasValue bool) (Widget, error) {
	var (
		w   Widget
		err error
	)
	if factory, ok := cfg.overrides[field.Name()]; ok {
		w, err = factory(field, req)
	} else {
		w, err = cfg.registry.Widget(field, req, view)
	}
	if err != nil {
		return nil, err
	}
	if cfg.prefix != "" {
		w.SetPrefix(cfg.prefix)
	}
	if hasValue && (cfg.ignoreSticky || !hasStickyValue(w)) {
		w.SetRenderedValue(value)
	}
	return w, nil
}

func hasStickyValue(w Widget) bool {
	in, ok := w.(InputWidget)
	return ok && in.HasInput()
}

// GetWidgetsData collects the converted input of every input widget that
// received input. Required fields without input are reported as missing.
// Failures are returned together as a *WidgetsError carrying the values
// that did convert.
func GetWidgetsData(ws *Widgets, names ...string) (map[string]any, error) {
	result := make(map[string]any)
	var errs []error
	for _, name := range ws.selected(names) {
		w, ok := ws.Input(name)
		if !ok {
			continue
		}
		switch {
		case w.HasInput():
			value, err := w.GetInputValue()
			if err != nil {
				errs = append(errs, err)
				continue
			}
			result[name] = value
		case w.Required():
			errs = append(errs, NewMissingInputError(name, w.Label(), nil))
		}
	}
	if len(errs) > 0 {
		return nil, NewWidgetsError(errs, result)
	}
	return result, nil
}

// ApplyWidgetsChanges applies the input of every input widget that received
// input onto target. It reports whether anything changed; all failures are
// returned together as a *WidgetsError.
func ApplyWidgetsChanges(ws *Widgets, target any, names ...string) (bool, error) {
	changed := false
	var errs []error
	for _, name := range ws.selected(names) {
		w, ok := ws.Input(name)
		if !ok || !w.HasInput() {
			continue
		}
		applied, err := w.ApplyChanges(target)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		changed = applied || changed
	}
	if len(errs) > 0 {
		return false, NewWidgetsError(errs, nil)
	}
	return changed, nil
}

// ViewHasInput reports whether any selected input widget received input.
func ViewHasInput(ws *Widgets, names ...string) bool {
	for _, name := range ws.selected(names) {
		if w, ok := ws.Input(name); ok && w.HasInput() {
			return true
		}
	}
	return false
}
