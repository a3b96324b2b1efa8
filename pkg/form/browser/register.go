package browser

import (
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

func init() {
	Register(form.DefaultRegistry)
}

// Register adds the HTML widgets to r: input and display widgets by field
// kind, plus every widget by name for per-field overrides.
func Register(r *form.Registry) {
	input := func(name string, kinds []schema.Kind, ctor form.Constructor) {
		r.Register(form.InputView, name, 0, form.MatchKind(kinds...), form.FactoryOf(ctor))
	}
	display := func(name string, kinds []schema.Kind, ctor form.Constructor) {
		r.Register(form.DisplayView, name, 0, form.MatchKind(kinds...), form.FactoryOf(ctor))
	}
	kinds := func(k ...schema.Kind) []schema.Kind { return k }

	input("TextAreaWidget", kinds(schema.KindText), NewTextAreaWidget)
	input("TextWidget", kinds(schema.KindTextLine), NewTextWidget)
	input("PasswordWidget", kinds(schema.KindPassword), NewPasswordWidget)
	input("ASCIIWidget", kinds(schema.KindASCII), NewASCIIWidget)
	input("BytesAreaWidget", kinds(schema.KindBytes), NewBytesAreaWidget)
	input("BytesWidget", kinds(schema.KindBytesLine), NewBytesWidget)
	input("IntWidget", kinds(schema.KindInt), NewIntWidget)
	input("FloatWidget", kinds(schema.KindFloat), NewFloatWidget)
	input("CheckBoxWidget", kinds(schema.KindBool), NewCheckBoxWidget)
	input("DatetimeWidget", kinds(schema.KindDatetime), NewDatetimeWidget)
	input("DateWidget", kinds(schema.KindDate), NewDateWidget)
	input("DropdownWidget", kinds(schema.KindChoice), NewDropdownWidget)
	input("SequenceWidget", kinds(schema.KindList, schema.KindTuple, schema.KindSet), NewSequenceWidget)
	input("ObjectWidget", kinds(schema.KindObject), NewObjectWidget)
	input("FileWidget", kinds(schema.KindFile), NewFileWidget)

	r.Register(form.InputView, "OrderedMultiSelectWidget", 10,
		collectionOfChoice(schema.KindList, schema.KindTuple), form.FactoryOf(NewOrderedMultiSelectWidget))
	r.Register(form.InputView, "MultiSelectWidget", 10,
		collectionOfChoice(schema.KindSet), form.FactoryOf(NewMultiSelectWidget))
	r.Register(form.InputView, "SchemaWidget", 10, withFactoryID, form.FactoryOf(NewSchemaWidget))

	display("DisplayWidget", kinds(schema.KindText, schema.KindTextLine, schema.KindASCII,
		schema.KindInt, schema.KindFloat, schema.KindBool), NewDisplayWidget)
	display("BytesDisplayWidget", kinds(schema.KindBytes, schema.KindBytesLine), NewBytesDisplayWidget)
	display("DatetimeDisplayWidget", kinds(schema.KindDatetime), NewDatetimeDisplayWidget)
	display("DateDisplayWidget", kinds(schema.KindDate), NewDateDisplayWidget)
	display("ItemDisplayWidget", kinds(schema.KindChoice), NewItemDisplayWidget)
	r.Register(form.DisplayView, "ListDisplayWidget", 10,
		collectionOfChoice(schema.KindList, schema.KindTuple), form.FactoryOf(NewListDisplayWidget))
	r.Register(form.DisplayView, "SetDisplayWidget", 10,
		collectionOfChoice(schema.KindSet), form.FactoryOf(NewSetDisplayWidget))
	r.Register(form.DisplayView, "FallbackDisplayWidget", -100,
		func(schema.Field) bool { return true }, form.FactoryOf(NewDisplayWidget))

	for name, ctor := range map[string]form.Constructor{
		"SelectWidget":            NewSelectWidget,
		"RadioWidget":             NewRadioWidget,
		"MultiCheckBoxWidget":     NewMultiCheckBoxWidget,
		"BooleanRadioWidget":      NewBooleanRadioWidget,
		"BooleanSelectWidget":     NewBooleanSelectWidget,
		"BooleanDropdownWidget":   NewBooleanDropdownWidget,
		"TupleSequenceWidget":     NewTupleSequenceWidget,
		"ListSequenceWidget":      NewListSequenceWidget,
		"ItemsMultiDisplayWidget": NewItemsMultiDisplayWidget,
	} {
		r.RegisterNamed(name, form.FactoryOf(ctor))
	}
}

func collectionOfChoice(kinds ...schema.Kind) form.Matcher {
	byKind := form.MatchKind(kinds...)
	return func(field schema.Field) bool {
		coll, ok := field.(*schema.Collection)
		if !ok || !byKind(field) {
			return false
		}
		_, ok = coll.ValueType().(*schema.Choice)
		return ok
	}
}

func withFactoryID(field schema.Field) bool {
	obj, ok := field.(*schema.Object)
	return ok && obj.FactoryID() != ""
}
