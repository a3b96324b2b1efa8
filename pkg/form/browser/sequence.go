package browser

import (
	"fmt"
	"strconv"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/render/template"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// SequenceWidget edits a list, tuple or set field through one sub-widget per
// item. The form carries "<name>.count" plus the items named "<name>.N.";
// "<name>.add" appends an empty item and "<name>.remove" drops every item
// whose "<name>.remove_N" box is checked.
type SequenceWidget struct {
	Widget
	// Subwidget creates item widgets. It defaults to the registry input
	// widget for the value type.
	Subwidget form.Factory
	Registry  *form.Registry
	Renderer  template.TemplateRenderer
	Template  string

	valueType schema.Field
	items     map[int]form.Widget
}

// NewSequenceWidget creates a sequence widget. args may hold a form.Factory
// or *form.CustomWidgetFactory for the items.
func NewSequenceWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	coll, ok := field.(*schema.Collection)
	if !ok {
		return nil, fmt.Errorf("browser: sequence widget needs a collection field, got %T", field)
	}
	if coll.ValueType() == nil {
		return nil, fmt.Errorf("browser: collection %q has no value type", field.Name())
	}
	w := &SequenceWidget{
		Widget:    newWidget(field, req),
		Template:  SequenceTemplate,
		valueType: coll.ValueType(),
	}
	for _, arg := range args {
		switch sub := arg.(type) {
		case form.Factory:
			w.Subwidget = sub
		case *form.CustomWidgetFactory:
			w.Subwidget = sub.Factory()
		}
	}
	return w, nil
}

// NewTupleSequenceWidget and NewListSequenceWidget exist so registrations
// read by kind.
func NewTupleSequenceWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	return NewSequenceWidget(field, req, args...)
}

func NewListSequenceWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	return NewSequenceWidget(field, req, args...)
}

func (w *SequenceWidget) SetPrefix(prefix string) {
	w.Widget.SetPrefix(prefix)
	w.items = nil
}

func (w *SequenceWidget) countName() string  { return w.Name() + ".count" }
func (w *SequenceWidget) addName() string    { return w.Name() + ".add" }
func (w *SequenceWidget) removeName() string { return w.Name() + ".remove" }

// HasInput reports whether the count marker was submitted.
func (w *SequenceWidget) HasInput() bool {
	return w.Request().Has(w.countName())
}

func (w *SequenceWidget) item(i int) (form.Widget, error) {
	if w.items == nil {
		w.items = make(map[int]form.Widget)
	}
	if sub, ok := w.items[i]; ok {
		return sub, nil
	}
	var (
		sub form.Widget
		err error
	)
	switch {
	case w.Subwidget != nil:
		sub, err = w.Subwidget(w.valueType, w.Request())
	case w.Registry != nil:
		sub, err = w.Registry.Widget(w.valueType, w.Request(), form.InputView)
	default:
		sub, err = form.DefaultRegistry.Widget(w.valueType, w.Request(), form.InputView)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: item widget for %q: %w", w.Field().Name(), err)
	}
	sub.SetPrefix(fmt.Sprintf("%s.%d.", w.Name(), i))
	w.items[i] = sub
	return sub, nil
}

// MaxSequenceItems caps the "<name>.count" a sequence widget accepts from
// a request. A field's max length lowers it further.
var MaxSequenceItems = 1000

func (w *SequenceWidget) count() (int, error) {
	n, err := strconv.Atoi(w.Request().Get(w.countName()))
	if err != nil || n < 0 {
		return 0, nil
	}
	limit := MaxSequenceItems
	if bounded, ok := w.Field().(schema.LengthBounded); ok {
		if maxLen, hasMax := bounded.MaxLength(); hasMax && maxLen < limit {
			limit = maxLen
		}
	}
	if n > limit {
		return 0, form.NewWidgetInputError(w.Field().Name(), w.Label(),
			form.NewConversionError("Invalid sequence count", fmt.Errorf("%d items exceed the limit of %d", n, limit)))
	}
	return n, nil
}

// generate rebuilds the sequence from the request. Items without valid
// input stay nil.
func (w *SequenceWidget) generate() ([]any, error) {
	count, err := w.count()
	if err != nil {
		return nil, err
	}
	sequence := make([]any, count)
	req := w.Request()
	removing := req.Has(w.removeName())
	for i := count - 1; i >= 0; i-- {
		sub, err := w.item(i)
		if err != nil {
			return nil, err
		}
		if in, ok := sub.(form.InputWidget); ok && in.HasValidInput() {
			value, err := in.GetInputValue()
			if err != nil {
				return nil, err
			}
			sequence[i] = value
		}
		if removing && req.Has(fmt.Sprintf("%s.remove_%d", w.Name(), i)) {
			sequence = append(sequence[:i], sequence[i+1:]...)
		}
	}
	if req.Has(w.addName()) {
		sequence = append(sequence, nil)
	}
	return sequence, nil
}

func (w *SequenceWidget) GetInputValue() (any, error) {
	value, err := w.inputValue()
	w.setInputError(err)
	return value, err
}

func (w *SequenceWidget) inputValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	sequence, err := w.generate()
	if err != nil {
		if form.IsInputError(err) {
			return nil, err
		}
		return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	if err := field.Validate(sequence); err != nil {
		return nil, wrapValidation(field, w.Label(), err)
	}
	return sequence, nil
}

func (w *SequenceWidget) Validate() error { return form.Validate(w) }

func (w *SequenceWidget) HasValidInput() bool { return form.HasValidInput(w) }

func (w *SequenceWidget) ApplyChanges(content any) (bool, error) {
	return form.ApplyChanges(w, content)
}

func (w *SequenceWidget) SetRenderedValue(value any) {
	w.Widget.SetRenderedValue(value)
	w.items = nil
}

func (w *SequenceWidget) renderedSequence() []any {
	var sequence []any
	if value, ok := w.RenderedValue(); ok {
		items, _ := schema.Items(value)
		sequence = append(sequence, items...)
	} else if w.HasInput() {
		sequence, _ = w.generate()
	} else if def := w.Field().Default(); def != nil {
		items, _ := schema.Items(def)
		sequence = append(sequence, items...)
	}
	if bounded, ok := w.Field().(schema.LengthBounded); ok {
		for len(sequence) < bounded.MinLength() {
			sequence = append(sequence, nil)
		}
	}
	return sequence
}

// bind prepares the item widgets for rendering. A nil entry keeps whatever
// the item widget received so invalid input is shown back.
func (w *SequenceWidget) bind(sequence []any) []form.Widget {
	subs := make([]form.Widget, 0, len(sequence))
	for i, value := range sequence {
		sub, err := w.item(i)
		if err != nil {
			logger.WithError(err).Warn("browser: skipping sequence item")
			continue
		}
		if in, ok := sub.(form.InputWidget); value != nil || !ok || !in.HasInput() {
			sub.SetRenderedValue(value)
		}
		subs = append(subs, sub)
	}
	return subs
}

func (w *SequenceWidget) marker(n int) string {
	return RenderElement("input", Attrs{"type": "hidden", "name": w.countName(), "value": n})
}

func (w *SequenceWidget) addLabel() string {
	title := w.valueType.Title()
	if title == "" {
		title = w.Field().Title()
	}
	return w.Request().Translate("Add ${title}", map[string]any{"title": w.Request().Translate(title)})
}

func (w *SequenceWidget) Render() string {
	sequence := w.renderedSequence()
	subs := w.bind(sequence)

	minLength, maxLength, hasMax := 0, 0, false
	if bounded, ok := w.Field().(schema.LengthBounded); ok {
		minLength = bounded.MinLength()
		maxLength, hasMax = bounded.MaxLength()
	}
	items := make([]any, 0, len(subs))
	for i, sub := range subs {
		items = append(items, map[string]any{
			"index":  i,
			"widget": sub.Render(),
			"error":  ErrorOf(sub),
		})
	}
	return renderTemplate(w.Renderer, w.Template, map[string]any{
		"name":         w.Name(),
		"items":        items,
		"need_add":     !hasMax || len(sequence) < maxLength,
		"need_delete":  len(sequence) > 0 && len(sequence) > minLength,
		"add_label":    w.addLabel(),
		"remove_label": w.Request().Translate("Remove selected items"),
		"marker":       w.marker(len(sequence)),
	})
}

func (w *SequenceWidget) Hidden() string {
	sequence := w.renderedSequence()
	out := w.marker(len(sequence))
	for _, sub := range w.bind(sequence) {
		out += HiddenOf(sub)
	}
	return out
}
