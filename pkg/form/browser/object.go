package browser

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// ObjectWidget edits an object field through one sub-widget per field of the
// nested schema. Sub-widgets are named under the object widget's name, so
// "field.address" owns "field.address.street".
type ObjectWidget struct {
	Widget
	// Factory creates the nested value when the content has none.
	Factory  schema.Factory
	Registry *form.Registry

	schema   *schema.Schema
	names    []string
	custom   map[string]form.Factory
	subs     *form.Widgets
	setupErr error
}

func newObject(field schema.Field, req *form.Request) (ObjectWidget, error) {
	obj, ok := field.(*schema.Object)
	if !ok {
		return ObjectWidget{}, fmt.Errorf("browser: object widget needs an object field, got %T", field)
	}
	if obj.Schema() == nil {
		return ObjectWidget{}, fmt.Errorf("browser: object field %q has no schema", field.Name())
	}
	return ObjectWidget{
		Widget: newWidget(field, req),
		schema: obj.Schema(),
		names:  obj.Schema().FieldNamesInOrder(),
		custom: make(map[string]form.Factory),
	}, nil
}

// NewObjectWidget creates an object widget. args may hold the value factory
// as a schema.Factory or func() any.
func NewObjectWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	base, err := newObject(field, req)
	if err != nil {
		return nil, err
	}
	w := &ObjectWidget{}
	*w = base
	for _, arg := range args {
		switch fn := arg.(type) {
		case schema.Factory:
			w.Factory = fn
		case func() any:
			w.Factory = fn
		}
	}
	w.setUp()
	return w, nil
}

// SetAttribute accepts "<field>_widget" attributes naming the factory of a
// sub-widget, as a form.Factory, form.Constructor or
// *form.CustomWidgetFactory. Other names set exported fields.
func (w *ObjectWidget) SetAttribute(name string, value any) error {
	field, ok := strings.CutSuffix(name, "_widget")
	if !ok {
		if err := form.AssignField(w, name, value); err != nil {
			return err
		}
		w.setUp()
		return nil
	}
	var factory form.Factory
	switch f := value.(type) {
	case form.Factory:
		factory = f
	case form.Constructor:
		factory = form.FactoryOf(f)
	case func(schema.Field, *form.Request, ...any) (form.Widget, error):
		factory = form.FactoryOf(f)
	case *form.CustomWidgetFactory:
		factory = f.Factory()
	default:
		return fmt.Errorf("browser: %s: unsupported widget factory %T", name, value)
	}
	if _, ok := w.schema.Lookup(field); !ok {
		return fmt.Errorf("browser: %s: %q is not a field of %q", name, field, w.Field().Name())
	}
	w.custom[field] = factory
	w.setUp()
	return nil
}

func (w *ObjectWidget) setUp() {
	opts := []form.SetUpOption{
		form.WithPrefix(w.Name()),
		form.WithNames(w.names...),
		form.WithWidgets(w.custom),
		form.WithRegistry(w.Registry),
	}
	w.subs, w.setupErr = form.SetUpEditWidgets(w.schema, w.Request(), nil, opts...)
	if w.setupErr != nil {
		logger.WithError(w.setupErr).WithField("field", w.Field().Name()).Warn("browser: object sub-widgets")
		w.subs = form.NewWidgets()
	}
}

// SetPrefix rebinds the widget and rebuilds its sub-widgets under the new
// name.
func (w *ObjectWidget) SetPrefix(prefix string) {
	w.Widget.SetPrefix(prefix)
	w.setUp()
}

// SetRenderedValue rebuilds the sub-widgets and renders the matching
// attributes of value in each.
func (w *ObjectWidget) SetRenderedValue(value any) {
	w.Widget.SetRenderedValue(value)
	w.setUp()
	for _, sub := range w.subs.All() {
		sub.SetRenderedValue(sub.Field().Query(value, nil))
	}
}

// SubWidgets returns the sub-widgets in schema order.
func (w *ObjectWidget) SubWidgets() []form.Widget {
	return w.subs.All()
}

// SubWidget returns the sub-widget for the named nested field.
func (w *ObjectWidget) SubWidget(name string) (form.Widget, bool) {
	return w.subs.Get(name)
}

// HasInput reports whether any sub-widget received input.
func (w *ObjectWidget) HasInput() bool {
	return form.ViewHasInput(w.subs, w.names...)
}

// HasValidInput reports whether any sub-widget received valid input.
func (w *ObjectWidget) HasValidInput() bool {
	for _, name := range w.names {
		if sub, ok := w.subs.Input(name); ok && sub.HasValidInput() {
			return true
		}
	}
	return false
}

func (w *ObjectWidget) Validate() error { return form.Validate(w) }

// Error is always empty: sub-widget rows show their own errors.
func (w *ObjectWidget) Error() string { return "" }

func (w *ObjectWidget) newValue() any {
	if w.Factory != nil {
		return w.Factory()
	}
	return map[string]any{}
}

// GetInputValue builds a new value with Factory and sets every nested field
// from its sub-widget. All sub-widget failures are reported together.
func (w *ObjectWidget) GetInputValue() (any, error) {
	field := w.Field()
	if w.setupErr != nil {
		return nil, w.setupErr
	}
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	data, err := form.GetWidgetsData(w.subs, w.names...)
	if err != nil {
		return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	value := w.newValue()
	target, store := addressable(value)
	for _, name := range w.names {
		v, ok := data[name]
		if !ok {
			continue
		}
		sub, _ := w.subs.Get(name)
		if err := sub.Field().Set(target, v); err != nil {
			return nil, fmt.Errorf("browser: set %s.%s: %w", field.Name(), name, err)
		}
	}
	return store(), nil
}

// ApplyChanges applies the sub-widget input onto the nested value of
// content, creating it with Factory when absent. The nested value is
// written back only when a sub-widget changed it.
func (w *ObjectWidget) ApplyChanges(content any) (bool, error) {
	field := w.Field()
	if w.setupErr != nil {
		return false, w.setupErr
	}
	value := field.Query(content, nil)
	if value == nil || reflect.ValueOf(value).Kind() == reflect.Ptr && reflect.ValueOf(value).IsNil() {
		value = w.newValue()
	}
	target, store := addressable(value)
	changed, err := form.ApplyWidgetsChanges(w.subs, target, w.names...)
	if err != nil {
		return false, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	if changed {
		if err := field.Set(content, store()); err != nil {
			return false, err
		}
	}
	return changed, nil
}

// addressable returns a settable target for value and a function yielding
// the value to store. Struct values are copied behind a pointer.
func addressable(value any) (any, func() any) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Struct {
		return value, func() any { return value }
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return ptr.Interface(), func() any { return ptr.Elem().Interface() }
}

func (w *ObjectWidget) legend() string {
	title := w.Field().Title()
	if title == "" {
		return w.Field().Name()
	}
	return w.Request().Translate(title)
}

func (w *ObjectWidget) rows() []string {
	rows := make([]string, 0, w.subs.Len())
	for _, sub := range w.subs.All() {
		rows = append(rows, Row(sub))
	}
	return rows
}

// Render renders the sub-widget rows inside a fieldset.
func (w *ObjectWidget) Render() string {
	parts := []string{"<fieldset><legend>" + escape(w.legend()) + "</legend>"}
	parts = append(parts, w.rows()...)
	parts = append(parts, "</fieldset>")
	return strings.Join(parts, "\n")
}

// Hidden renders every sub-widget as hidden inputs.
func (w *ObjectWidget) Hidden() string {
	var b strings.Builder
	for _, sub := range w.subs.All() {
		b.WriteString(HiddenOf(sub))
	}
	return b.String()
}

// SchemaWidget is an ObjectWidget whose factory is looked up by the field's
// factory id and whose markup comes from a template.
type SchemaWidget struct {
	ObjectWidget
	Renderer template.TemplateRenderer
	Template string
}

// NewSchemaWidget creates a schema widget. args may hold the
// *schema.FactoryRegistry to look the factory id up in; it defaults to
// schema.DefaultFactories.
func NewSchemaWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	base, err := newObject(field, req)
	if err != nil {
		return nil, err
	}
	factories := schema.DefaultFactories
	for _, arg := range args {
		if r, ok := arg.(*schema.FactoryRegistry); ok && r != nil {
			factories = r
		}
	}
	w := &SchemaWidget{ObjectWidget: base, Template: ObjectTemplate}
	if id := field.(*schema.Object).FactoryID(); id != "" {
		factory, ok := factories.Lookup(id)
		if !ok {
			return nil, fmt.Errorf("browser: object field %q: unknown factory %q", field.Name(), id)
		}
		w.Factory = factory
	}
	w.setUp()
	return w, nil
}

// SetAttribute handles Renderer and Template itself and defers the rest to
// the object widget.
func (w *SchemaWidget) SetAttribute(name string, value any) error {
	switch strings.ToLower(strings.ReplaceAll(name, "_", "")) {
	case "renderer", "template":
		return form.AssignField(w, name, value)
	}
	return w.ObjectWidget.SetAttribute(name, value)
}

// LegendTitle is the fieldset legend: the field title, or its name.
func (w *SchemaWidget) LegendTitle() string { return w.legend() }

func (w *SchemaWidget) Render() string {
	rows := make([]any, 0, w.subs.Len())
	for _, row := range w.rows() {
		rows = append(rows, row)
	}
	return renderTemplate(w.Renderer, w.Template, map[string]any{
		"name":   w.Name(),
		"legend": w.LegendTitle(),
		"rows":   rows,
	})
}
