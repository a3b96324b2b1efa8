package form_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/i18n"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// lineWidget is a minimal input widget over text fields.
type lineWidget struct {
	form.Base
	Size  int
	Extra string
}

func newLineWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	return &lineWidget{Base: form.NewBase(field, req), Size: 20}, nil
}

func (w *lineWidget) HasInput() bool { return w.Request().Has(w.Name()) }

func (w *lineWidget) GetInputValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	raw := w.Request().Get(w.Name())
	var value any = raw
	if raw == "" {
		value = field.MissingValue()
	}
	if schema.IsMissing(field.MissingValue(), value) {
		if !field.Required() {
			return value, nil
		}
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	if err := field.Validate(value); err != nil {
		return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	return value, nil
}

func (w *lineWidget) Validate() error      { return form.Validate(w) }
func (w *lineWidget) HasValidInput() bool  { return form.HasValidInput(w) }
func (w *lineWidget) ApplyChanges(c any) (bool, error) {
	return form.ApplyChanges(w, c)
}

func (w *lineWidget) Render() string {
	value, _ := w.RenderedValue()
	return `<input name="` + w.Name() + `" value="` + toString(value) + `" />`
}

type labelWidget struct {
	form.Base
}

func (w *labelWidget) DisplayOnly() {}

func (w *labelWidget) Render() string {
	value, _ := w.RenderedValue()
	return toString(value)
}

func toString(v any) string {
	s, _ := v.(string)
	return s
}

func testRegistry() *form.Registry {
	reg := form.NewRegistry()
	reg.Register(form.InputView, "line", 0, form.MatchKind(schema.KindTextLine), form.FactoryOf(newLineWidget))
	reg.Register(form.DisplayView, "label", 0, form.MatchKind(schema.KindTextLine), func(field schema.Field, req *form.Request) (form.Widget, error) {
		return &labelWidget{Base: form.NewBase(field, req)}, nil
	})
	return reg
}

type content struct {
	Foo string
	Bar string
	Baz string
}

func testSchema() *schema.Schema {
	return schema.New("Content",
		schema.NewTextLine("foo", schema.Title("Foo"), schema.Description("Foo hint")),
		schema.NewTextLine("bar", schema.Title("Bar"), schema.Required(false), schema.Missing("")),
		schema.NewTextLine("baz", schema.Title("Baz"), schema.Readonly()),
	)
}

func TestBaseWidgetNaming(t *testing.T) {
	field := schema.NewTextLine("Test", schema.Title("My Test Context"), schema.Description("A test context."))
	w := form.NewBase(field, form.NewRequest(nil))

	if w.Name() != "field.Test" {
		t.Fatalf("unexpected default name %q", w.Name())
	}
	if w.Label() != "My Test Context" || w.Hint() != "A test context." {
		t.Fatalf("unexpected label/hint %q / %q", w.Label(), w.Hint())
	}
	if !w.Visible() {
		t.Fatalf("widgets are visible by default")
	}

	w.SetPrefix("newprefix")
	if w.Name() != "newprefix.Test" {
		t.Fatalf("expected dot appended to prefix, got %q", w.Name())
	}
	w.SetPrefix("spam.")
	if w.Name() != "spam.Test" {
		t.Fatalf("expected prefix kept, got %q", w.Name())
	}
	w.SetPrefix("")
	if w.Name() != "Test" {
		t.Fatalf("expected bare field name, got %q", w.Name())
	}

	if w.RenderedValueSet() {
		t.Fatalf("rendered value should start unset")
	}
	w.SetRenderedValue("Render Me")
	if got, ok := w.RenderedValue(); !ok || got != "Render Me" {
		t.Fatalf("unexpected rendered value %v", got)
	}
}

func TestLabelTranslation(t *testing.T) {
	catalog := i18n.NewCatalog()
	catalog.Add("es", map[string]string{"Foo": "Fu"})
	req := form.NewRequest(nil, form.WithLocale("es"), form.WithTranslator(catalog))
	w := form.NewBase(schema.NewTextLine("foo", schema.Title("Foo")), req)
	if w.Label() != "Fu" {
		t.Fatalf("expected translated label, got %q", w.Label())
	}
}

func TestInputSemantics(t *testing.T) {
	field := schema.NewTextLine("foo", schema.MinLength(2))
	req := form.NewRequest(url.Values{"field.foo": {"x"}})
	w, _ := newLineWidget(field, req)
	in := w.(*lineWidget)

	if err := in.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
	if in.HasValidInput() {
		t.Fatalf("expected invalid input")
	}

	req.Set("field.foo", "Foo Bar")
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.HasValidInput() {
		t.Fatalf("expected valid input")
	}
}

func TestApplyChangesOnlyWhenDifferent(t *testing.T) {
	field := schema.NewTextLine("foo")
	target := &content{Foo: "same"}
	req := form.NewRequest(url.Values{"field.foo": {"same"}})
	w, _ := newLineWidget(field, req)
	in := w.(*lineWidget)

	changed, err := in.ApplyChanges(target)
	if err != nil || changed {
		t.Fatalf("expected no-op, got changed=%v err=%v", changed, err)
	}

	req.Set("field.foo", "other")
	changed, err = in.ApplyChanges(target)
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if target.Foo != "other" {
		t.Fatalf("content not updated: %q", target.Foo)
	}
}

func TestRequiredEmptyInputIsMissing(t *testing.T) {
	field := schema.NewTextLine("foo", schema.Missing(""))
	target := &content{Foo: "keep"}
	w, _ := newLineWidget(field, form.NewRequest(url.Values{"field.foo": {""}}))
	in := w.(*lineWidget)

	changed, err := in.ApplyChanges(target)
	var missing *form.MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected missing input error, got %v", err)
	}
	if changed || target.Foo != "keep" {
		t.Fatalf("required empty input must never be applied")
	}
	if missing.Doc() != "Required input is missing." {
		t.Fatalf("unexpected doc %q", missing.Doc())
	}
	if !form.IsInputError(err) {
		t.Fatalf("missing input should be an input error")
	}
}

func TestCustomWidgetFactory(t *testing.T) {
	factory := form.NewCustomWidgetFactory(newLineWidget).
		With("size", 30).
		With("extra", `style="color: red"`)

	w, err := factory.New(schema.NewTextLine("foo"), form.NewRequest(nil))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	lw, ok := w.(*lineWidget)
	if !ok {
		t.Fatalf("expected *lineWidget, got %T", w)
	}
	if lw.Size != 30 || lw.Extra != `style="color: red"` {
		t.Fatalf("attributes not applied: %+v", lw)
	}

	bad := form.NewCustomWidgetFactory(newLineWidget).With("nope", 1)
	if _, err := bad.New(schema.NewTextLine("foo"), nil); err == nil {
		t.Fatalf("expected unknown attribute error")
	}
}

func TestSetUpEditWidgets(t *testing.T) {
	source := &content{Foo: "foo value", Bar: "bar value", Baz: "baz value"}
	req := form.NewRequest(url.Values{"field.foo": {"typed"}})

	ws, err := form.SetUpEditWidgets(testSchema(), req, source, form.WithRegistry(testRegistry()))
	if err != nil {
		t.Fatalf("set up: %v", err)
	}
	if diff := cmp.Diff([]string{"foo", "bar", "baz"}, ws.Names()); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	foo, _ := ws.Get("foo")
	if foo.(*lineWidget).RenderedValueSet() {
		t.Fatalf("sticky input must not be overridden")
	}
	bar, _ := ws.Get("bar")
	if got, _ := bar.(*lineWidget).RenderedValue(); got != "bar value" {
		t.Fatalf("expected source value, got %v", got)
	}
	baz, _ := ws.Get("baz")
	if _, ok := baz.(form.DisplayWidget); !ok {
		t.Fatalf("read-only field should get a display widget, got %T", baz)
	}

	ws, err = form.SetUpEditWidgets(testSchema(), req, source,
		form.WithRegistry(testRegistry()), form.IgnoreStickyValues(), form.WithPrefix("edit"))
	if err != nil {
		t.Fatalf("set up: %v", err)
	}
	foo, _ = ws.Get("foo")
	if got, _ := foo.(*lineWidget).RenderedValue(); got != "foo value" {
		t.Fatalf("expected rendered value to win, got %v", got)
	}
	if foo.Name() != "edit.foo" {
		t.Fatalf("unexpected prefixed name %q", foo.Name())
	}
}

func TestSetUpWidgetOverride(t *testing.T) {
	custom := form.NewCustomWidgetFactory(newLineWidget).With("size", 5)
	ws, err := form.SetUpWidgets(testSchema(), form.NewRequest(nil), form.InputView,
		form.WithRegistry(testRegistry()),
		form.WithNames("bar", "foo"),
		form.WithWidget("foo", custom.Factory()),
		form.WithInitial(map[string]any{"bar": "initial"}),
	)
	if err != nil {
		t.Fatalf("set up: %v", err)
	}
	if diff := cmp.Diff([]string{"bar", "foo"}, ws.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	foo, _ := ws.Get("foo")
	if foo.(*lineWidget).Size != 5 {
		t.Fatalf("override factory not used")
	}
	bar, _ := ws.Get("bar")
	if !strings.Contains(bar.Render(), `value="initial"`) {
		t.Fatalf("initial value not rendered: %s", bar.Render())
	}

	if _, err := form.SetUpWidgets(testSchema(), nil, form.InputView, form.WithRegistry(form.NewRegistry())); !errors.Is(err, form.ErrNoWidget) {
		t.Fatalf("expected no widget error, got %v", err)
	}
}

func TestGetWidgetsData(t *testing.T) {
	req := form.NewRequest(url.Values{"field.bar": {"bar input"}})
	ws, err := form.SetUpWidgets(testSchema(), req, form.InputView,
		form.WithRegistry(testRegistry()), form.WithNames("foo", "bar"))
	if err != nil {
		t.Fatalf("set up: %v", err)
	}

	_, err = form.GetWidgetsData(ws)
	werr, ok := form.AsWidgetsError(err)
	if !ok {
		t.Fatalf("expected widgets error, got %v", err)
	}
	if werr.Len() != 1 {
		t.Fatalf("expected one error, got %d", werr.Len())
	}
	if _, ok := werr.ByField()["foo"]; !ok {
		t.Fatalf("expected missing foo, got %v", werr)
	}
	if diff := cmp.Diff(map[string]any{"bar": "bar input"}, werr.WidgetsData); diff != "" {
		t.Fatalf("widgets data mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(werr.Error(), "MissingInputError: foo") {
		t.Fatalf("unexpected error text %q", werr.Error())
	}

	req.Set("field.foo", "foo input")
	data, err := form.GetWidgetsData(ws)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"foo": "foo input", "bar": "bar input"}, data); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyWidgetsChanges(t *testing.T) {
	target := &content{Foo: "initial foo", Bar: "initial bar"}

	// foo is absent: omitted values are skipped, not reported missing.
	req := form.NewRequest(url.Values{"field.bar": {"new bar"}})
	ws, _ := form.SetUpEditWidgets(testSchema(), req, target, form.WithRegistry(testRegistry()))
	changed, err := form.ApplyWidgetsChanges(ws, target)
	if err != nil || !changed {
		t.Fatalf("expected change, got changed=%v err=%v", changed, err)
	}
	if target.Bar != "new bar" || target.Foo != "initial foo" {
		t.Fatalf("unexpected content %+v", target)
	}
	if !form.ViewHasInput(ws) {
		t.Fatalf("expected view input")
	}

	changed, err = form.ApplyWidgetsChanges(ws, target)
	if err != nil || changed {
		t.Fatalf("unchanged input must be a no-op, got changed=%v err=%v", changed, err)
	}

	req = form.NewRequest(url.Values{"field.foo": {""}, "field.bar": {"x"}})
	ws, _ = form.SetUpEditWidgets(testSchema(), req, target, form.WithRegistry(testRegistry()))
	_, err = form.ApplyWidgetsChanges(ws, target)
	werr, ok := form.AsWidgetsError(err)
	if !ok || werr.Len() != 1 {
		t.Fatalf("expected one aggregated error, got %v", err)
	}

	if form.ViewHasInput(ws, "baz") {
		t.Fatalf("display widgets never have input")
	}
}
