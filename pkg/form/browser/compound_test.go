package browser_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/form/browser"
	"github.com/goliatone/go-formbind/pkg/schema"
)

type address struct {
	Street string `form:"street"`
	City   string `form:"city"`
}

type person struct {
	Name string   `form:"name"`
	Home *address `form:"home"`
}

func addressSchema() *schema.Schema {
	return schema.New("address",
		schema.NewTextLine("street", schema.Title("Street")),
		schema.NewTextLine("city", schema.Title("City")),
	)
}

func homeField() *schema.Object {
	return schema.NewObject("home", addressSchema(), schema.Title("Home"))
}

func newAddress() any { return &address{} }

func TestObjectWidgetApplyChangesCreatesValue(t *testing.T) {
	req := newRequest("field.home.street=Main St", "field.home.city=Springfield")
	w := mustWidget(t, browser.NewObjectWidget, homeField(), req, newAddress)
	in := w.(form.InputWidget)

	content := &person{Name: "Ada"}
	changed, err := in.ApplyChanges(content)
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if !changed {
		t.Fatalf("expected a change")
	}
	if diff := cmp.Diff(&address{Street: "Main St", City: "Springfield"}, content.Home); diff != "" {
		t.Fatalf("nested value mismatch (-want +got):\n%s", diff)
	}

	previous := content.Home
	changed, err = in.ApplyChanges(content)
	if err != nil {
		t.Fatalf("second ApplyChanges: %v", err)
	}
	if changed {
		t.Fatalf("unchanged input reported a change")
	}
	if content.Home != previous {
		t.Fatalf("nested value replaced without changes")
	}
}

func TestObjectWidgetGetInputValue(t *testing.T) {
	req := newRequest("field.home.street=Main St", "field.home.city=Springfield")
	w := mustWidget(t, browser.NewObjectWidget, homeField(), req, newAddress)

	got, err := w.(form.InputWidget).GetInputValue()
	if err != nil {
		t.Fatalf("GetInputValue: %v", err)
	}
	if diff := cmp.Diff(&address{Street: "Main St", City: "Springfield"}, got); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}
}

func TestObjectWidgetPartialInput(t *testing.T) {
	req := newRequest("field.home.street=Main St")
	w := mustWidget(t, browser.NewObjectWidget, homeField(), req, newAddress)
	in := w.(form.InputWidget)

	if !in.HasInput() {
		t.Fatalf("expected input")
	}
	if !in.HasValidInput() {
		t.Fatalf("one valid sub-widget should count as valid input")
	}

	_, err := in.GetInputValue()
	var werr *form.WidgetsError
	if !errors.As(err, &werr) {
		t.Fatalf("expected *form.WidgetsError, got %v", err)
	}
	if werr.Len() != 1 {
		t.Fatalf("expected one sub-widget error, got %d", werr.Len())
	}
	if _, ok := werr.ByField()["city"]; !ok {
		t.Fatalf("expected the city error, got %v", werr.ByField())
	}
	if w.(*browser.ObjectWidget).Error() != "" {
		t.Fatalf("object widget should not report errors itself")
	}
}

func TestObjectWidgetNoInput(t *testing.T) {
	w := mustWidget(t, browser.NewObjectWidget, homeField(), newRequest())
	in := w.(form.InputWidget)
	if in.HasInput() || in.HasValidInput() {
		t.Fatalf("expected no input")
	}
	_, err := in.GetInputValue()
	var missing *form.MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *form.MissingInputError, got %v", err)
	}
}

func TestObjectWidgetSetPrefixRenamesSubWidgets(t *testing.T) {
	w := mustWidget(t, browser.NewObjectWidget, homeField(), newRequest())
	obj := w.(*browser.ObjectWidget)

	street, ok := obj.SubWidget("street")
	if !ok || street.Name() != "field.home.street" {
		t.Fatalf("unexpected sub-widget name before prefix change: %v", street)
	}

	w.SetPrefix("person")
	street, _ = obj.SubWidget("street")
	if street.Name() != "person.home.street" {
		t.Fatalf("expected person.home.street, got %q", street.Name())
	}
}

func TestObjectWidgetRender(t *testing.T) {
	w := mustWidget(t, browser.NewObjectWidget, homeField(), newRequest())
	w.SetRenderedValue(&address{Street: "Main St", City: "Springfield"})

	got := w.Render()
	assertContains(t, got,
		"<fieldset><legend>Home</legend>",
		`name="field.home.street"`,
		`value="Main St"`,
		`value="Springfield"`,
		"</fieldset>",
	)
	assertContains(t, browser.HiddenOf(w),
		`<input class="hiddenType" id="field.home.street" name="field.home.street" type="hidden" value="Main St" />`)
}

func TestObjectWidgetCustomSubWidget(t *testing.T) {
	w := mustWidget(t, browser.NewObjectWidget, homeField(), newRequest())
	obj := w.(*browser.ObjectWidget)

	custom := form.NewCustomWidgetFactory(browser.NewTextWidget).With("displayWidth", 40)
	if err := obj.SetAttribute("street_widget", custom); err != nil {
		t.Fatalf("SetAttribute: %v", err)
	}
	street, _ := obj.SubWidget("street")
	assertContains(t, street.Render(), `size="40"`)

	if err := obj.SetAttribute("zip_widget", custom); err == nil {
		t.Fatalf("expected an error for an unknown nested field")
	}
}

func TestSchemaWidget(t *testing.T) {
	factories := schema.NewFactoryRegistry()
	factories.MustRegister("address", newAddress)
	field := homeField().WithFactoryID("address")

	req := newRequest("field.home.street=Main St", "field.home.city=Springfield")
	w := mustWidget(t, browser.NewSchemaWidget, field, req, factories)

	content := &person{}
	changed, err := w.(form.InputWidget).ApplyChanges(content)
	if err != nil {
		t.Fatalf("ApplyChanges: %v", err)
	}
	if !changed || content.Home == nil || content.Home.City != "Springfield" {
		t.Fatalf("expected the registered factory to create the value, got %+v", content.Home)
	}

	assertContains(t, w.Render(),
		"<fieldset>",
		"<legend>Home</legend>",
		`name="field.home.city"`,
		"</fieldset>",
	)

	unknown := homeField().WithFactoryID("missing")
	if _, err := browser.NewSchemaWidget(unknown, req, factories); err == nil {
		t.Fatalf("expected an error for an unknown factory id")
	}
}

func tagsField(opts ...schema.Option) *schema.Collection {
	opts = append([]schema.Option{schema.Title("Tags")}, opts...)
	return schema.NewList("tags", schema.NewTextLine("tag", schema.Title("Tag")), opts...)
}

func TestSequenceWidgetGetInputValue(t *testing.T) {
	req := newRequest("field.tags.count=2", "field.tags.0.tag=a", "field.tags.1.tag=b")
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(), req)

	got, err := w.(form.InputWidget).GetInputValue()
	if err != nil {
		t.Fatalf("GetInputValue: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceWidgetRemove(t *testing.T) {
	req := newRequest(
		"field.tags.count=2",
		"field.tags.0.tag=a",
		"field.tags.1.tag=b",
		"field.tags.remove=",
		"field.tags.remove_0=on",
	)
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(), req)

	got, err := w.(form.InputWidget).GetInputValue()
	if err != nil {
		t.Fatalf("GetInputValue: %v", err)
	}
	if diff := cmp.Diff([]any{"b"}, got); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceWidgetRemoveNeedsButton(t *testing.T) {
	req := newRequest("field.tags.count=2", "field.tags.0.tag=a", "field.tags.1.tag=b", "field.tags.remove_0=on")
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(), req)

	got, err := w.(form.InputWidget).GetInputValue()
	if err != nil {
		t.Fatalf("GetInputValue: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b"}, got); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceWidgetAddRendersEmptyItem(t *testing.T) {
	req := newRequest("field.tags.count=2", "field.tags.0.tag=a", "field.tags.1.tag=b", "field.tags.add=")
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(schema.Required(false)), req)

	got := w.Render()
	assertContains(t, got,
		`<table border="0" class="sequenceWidget">`,
		`name="field.tags.0.tag"`,
		`name="field.tags.1.tag"`,
		`name="field.tags.2.tag"`,
		`name="field.tags.remove_2"`,
		`value="Add Tag"`,
		`<input class="hiddenType" name="field.tags.count" type="hidden" value="3" />`,
	)
}

func TestSequenceWidgetLengthBounds(t *testing.T) {
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(schema.MinLength(2), schema.MaxLength(2)), newRequest())

	got := w.Render()
	assertContains(t, got,
		`name="field.tags.0.tag"`,
		`name="field.tags.1.tag"`,
		`<input class="hiddenType" name="field.tags.count" type="hidden" value="2" />`,
	)
	for _, unwanted := range []string{`name="field.tags.add"`, `name="field.tags.remove"`} {
		if strings.Contains(got, unwanted) {
			t.Fatalf("%q should not render at the length limits:\n%s", unwanted, got)
		}
	}
}

func TestSequenceWidgetMissingInput(t *testing.T) {
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(), newRequest())
	_, err := w.(form.InputWidget).GetInputValue()
	var missing *form.MissingInputError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *form.MissingInputError, got %v", err)
	}
}

func TestSequenceWidgetHidden(t *testing.T) {
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(), newRequest())
	w.SetRenderedValue([]string{"x", "y"})

	assertContains(t, browser.HiddenOf(w),
		`<input class="hiddenType" name="field.tags.count" type="hidden" value="2" />`,
		`<input class="hiddenType" id="field.tags.0.tag" name="field.tags.0.tag" type="hidden" value="x" />`,
		`<input class="hiddenType" id="field.tags.1.tag" name="field.tags.1.tag" type="hidden" value="y" />`,
	)
}


func TestSequenceWidgetRejectsCountAboveLimit(t *testing.T) {
	cases := map[string]struct {
		field schema.Field
		count string
	}{
		"max length": {field: tagsField(schema.MaxLength(3)), count: "field.tags.count=35184372088832"},
		"item cap":   {field: tagsField(), count: "field.tags.count=1001"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := mustWidget(t, browser.NewSequenceWidget, tc.field, newRequest(tc.count))
			_, err := w.(form.InputWidget).GetInputValue()
			if !form.IsInputError(err) {
				t.Fatalf("expected an input error, got %v", err)
			}
			var conv *form.ConversionError
			if !errors.As(err, &conv) {
				t.Fatalf("expected *form.ConversionError, got %v", err)
			}
			// Rendering falls back to an empty sequence.
			assertContains(t, w.Render(), `<table border="0" class="sequenceWidget">`)
		})
	}
}

func TestSequenceWidgetCountAtLimit(t *testing.T) {
	req := newRequest("field.tags.count=3", "field.tags.0.tag=a", "field.tags.1.tag=b", "field.tags.2.tag=c")
	w := mustWidget(t, browser.NewSequenceWidget, tagsField(schema.MaxLength(3)), req)

	got, err := w.(form.InputWidget).GetInputValue()
	if err != nil {
		t.Fatalf("GetInputValue: %v", err)
	}
	if diff := cmp.Diff([]any{"a", "b", "c"}, got); diff != "" {
		t.Fatalf("sequence mismatch (-want +got):\n%s", diff)
	}
}
