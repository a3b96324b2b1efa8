package form

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Factory creates a widget for field bound to req.
type Factory func(field schema.Field, req *Request) (Widget, error)

// Constructor creates a widget taking extra positional arguments, such as a
// vocabulary for item widgets or labels for boolean radios.
type Constructor func(field schema.Field, req *Request, args ...any) (Widget, error)

// AttributeSetter lets widgets accept configuration attributes by name.
// Widgets without it are configured through their exported struct fields.
type AttributeSetter interface {
	SetAttribute(name string, value any) error
}

// CustomWidgetFactory decorates a constructor with fixed arguments and with
// attributes assigned to every widget it creates.
type CustomWidgetFactory struct {
	constructor Constructor
	args        []any
	attrs       map[string]any
}

// NewCustomWidgetFactory wraps ctor; args are passed after the field and
// request on every call.
func NewCustomWidgetFactory(ctor Constructor, args ...any) *CustomWidgetFactory {
	return &CustomWidgetFactory{
		constructor: ctor,
		args:        args,
		attrs:       make(map[string]any),
	}
}

// With records an attribute assigned to created widgets.
func (f *CustomWidgetFactory) With(name string, value any) *CustomWidgetFactory {
	f.attrs[name] = value
	return f
}

// Attributes returns a copy of the configured attributes.
func (f *CustomWidgetFactory) Attributes() map[string]any {
	out := make(map[string]any, len(f.attrs))
	for k, v := range f.attrs {
		out[k] = v
	}
	return out
}

// New creates and configures a widget.
func (f *CustomWidgetFactory) New(field schema.Field, req *Request) (Widget, error) {
	if f == nil || f.constructor == nil {
		return nil, fmt.Errorf("form: custom widget factory has no constructor")
	}
	w, err := f.constructor(field, req, f.args...)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(f.attrs))
	for name := range f.attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := SetAttribute(w, name, f.attrs[name]); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Factory adapts the custom factory to the Factory signature.
func (f *CustomWidgetFactory) Factory() Factory {
	return f.New
}

// FactoryOf adapts a constructor without extra arguments.
func FactoryOf(ctor Constructor) Factory {
	return func(field schema.Field, req *Request) (Widget, error) {
		return ctor(field, req)
	}
}

// SetAttribute assigns value to the attribute called name on w, through
// AttributeSetter when implemented or else the exported struct field whose
// name matches case-insensitively.
func SetAttribute(w any, name string, value any) error {
	if setter, ok := w.(AttributeSetter); ok {
		return setter.SetAttribute(name, value)
	}
	return AssignField(w, name, value)
}

// AssignField sets the exported struct field matching name on the struct
// pointed to by target.
func AssignField(target any, name string, value any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("form: cannot set attribute %q on %T", name, target)
	}
	rv = rv.Elem()
	want := strings.ReplaceAll(strings.TrimSpace(name), "_", "")
	for _, sf := range reflect.VisibleFields(rv.Type()) {
		if !sf.IsExported() || sf.Anonymous || !strings.EqualFold(sf.Name, want) {
			continue
		}
		fv, err := rv.FieldByIndexErr(sf.Index)
		if err != nil || !fv.CanSet() {
			break
		}
		if value == nil {
			fv.Set(reflect.Zero(fv.Type()))
			return nil
		}
		src := reflect.ValueOf(value)
		switch {
		case src.Type().AssignableTo(fv.Type()):
			fv.Set(src)
		case src.Type().ConvertibleTo(fv.Type()) && (fv.Kind() != reflect.String) == (src.Kind() != reflect.String):
			fv.Set(src.Convert(fv.Type()))
		default:
			return fmt.Errorf("form: attribute %q expects %s, got %T", name, fv.Type(), value)
		}
		return nil
	}
	return fmt.Errorf("form: %T has no attribute %q", target, name)
}
