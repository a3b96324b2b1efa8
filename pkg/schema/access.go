package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FieldGetter lets content objects expose field values without reflection.
type FieldGetter interface {
	GetField(name string) (any, bool)
}

// FieldSetter lets content objects accept field values without reflection.
type FieldSetter interface {
	SetField(name string, value any) error
}

// Struct fields are matched by `form:"name"` tag first, then by exact name,
// then case-insensitively.
const structTag = "form"

func getValue(content any, b *base) (any, error) {
	if isNil(content) {
		return nil, ErrNoSuchField
	}
	if b.getter != "" {
		return callGetter(content, b.getter)
	}
	if getter, ok := content.(FieldGetter); ok {
		value, found := getter.GetField(b.name)
		if !found {
			return nil, ErrNoSuchField
		}
		return value, nil
	}
	if m, ok := content.(map[string]any); ok {
		value, found := m[b.name]
		if !found {
			return nil, ErrNoSuchField
		}
		return value, nil
	}

	rv := reflect.ValueOf(content)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, ErrNoSuchField
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		value := rv.MapIndex(reflect.ValueOf(b.name).Convert(rv.Type().Key()))
		if !value.IsValid() {
			return nil, ErrNoSuchField
		}
		return value.Interface(), nil
	case reflect.Struct:
		fv, ok := structField(rv, b.name)
		if !ok {
			return nil, ErrNoSuchField
		}
		return fv.Interface(), nil
	}
	return nil, fmt.Errorf("schema: cannot read %q from %T: %w", b.name, content, ErrNoSuchField)
}

func setValue(content any, b *base, value any) error {
	if isNil(content) {
		return fmt.Errorf("schema: set %q on nil content: %w", b.name, ErrNoSuchField)
	}
	if b.setter != "" {
		return callSetter(content, b.setter, value)
	}
	if setter, ok := content.(FieldSetter); ok {
		return setter.SetField(b.name, value)
	}
	if m, ok := content.(map[string]any); ok {
		m[b.name] = value
		return nil
	}

	rv := reflect.ValueOf(content)
	if rv.Kind() == reflect.Map {
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("schema: cannot set %q on %T", b.name, content)
		}
		elem := reflect.New(rv.Type().Elem()).Elem()
		if err := assign(elem, value); err != nil {
			return fmt.Errorf("schema: set %q: %w", b.name, err)
		}
		rv.SetMapIndex(reflect.ValueOf(b.name).Convert(rv.Type().Key()), elem)
		return nil
	}
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("schema: set %q requires a pointer, got %T", b.name, content)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return fmt.Errorf("schema: cannot set %q on %T", b.name, content)
	}
	fv, ok := structField(rv, b.name)
	if !ok || !fv.CanSet() {
		return fmt.Errorf("schema: set %q on %T: %w", b.name, content, ErrNoSuchField)
	}
	if err := assign(fv, value); err != nil {
		return fmt.Errorf("schema: set %q: %w", b.name, err)
	}
	return nil
}

func structField(rv reflect.Value, name string) (reflect.Value, bool) {
	var exact, folded []int
	for _, sf := range reflect.VisibleFields(rv.Type()) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if tag := strings.Split(sf.Tag.Get(structTag), ",")[0]; tag != "" {
			if tag == "-" {
				continue
			}
			if tag == name {
				return fieldByIndex(rv, sf.Index)
			}
			continue
		}
		switch {
		case sf.Name == name && exact == nil:
			exact = sf.Index
		case strings.EqualFold(sf.Name, name) && folded == nil:
			folded = sf.Index
		}
	}
	if exact != nil {
		return fieldByIndex(rv, exact)
	}
	if folded != nil {
		return fieldByIndex(rv, folded)
	}
	return reflect.Value{}, false
}

func fieldByIndex(rv reflect.Value, index []int) (reflect.Value, bool) {
	fv, err := rv.FieldByIndexErr(index)
	if err != nil {
		return reflect.Value{}, false
	}
	return fv, true
}

func callGetter(content any, method string) (any, error) {
	fn := reflect.ValueOf(content).MethodByName(method)
	if !fn.IsValid() {
		return nil, fmt.Errorf("schema: %T has no getter %q: %w", content, method, ErrNoSuchField)
	}
	if fn.Type().NumIn() != 0 || fn.Type().NumOut() == 0 {
		return nil, fmt.Errorf("schema: getter %q has an unsupported signature", method)
	}
	out := fn.Call(nil)
	if len(out) > 1 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return nil, err
		}
	}
	return out[0].Interface(), nil
}

func callSetter(content any, method string, value any) error {
	fn := reflect.ValueOf(content).MethodByName(method)
	if !fn.IsValid() {
		return fmt.Errorf("schema: %T has no setter %q: %w", content, method, ErrNoSuchField)
	}
	if fn.Type().NumIn() != 1 {
		return fmt.Errorf("schema: setter %q has an unsupported signature", method)
	}
	arg := reflect.New(fn.Type().In(0)).Elem()
	if err := assign(arg, value); err != nil {
		return fmt.Errorf("schema: setter %q: %w", method, err)
	}
	out := fn.Call([]reflect.Value{arg})
	if len(out) > 0 {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}

var errUnassignable = errors.New("value is not assignable")

// assign stores value into dst, converting numeric widths, named string
// types, pointer wrapping and slice element types where needed.
func assign(dst reflect.Value, value any) error {
	if isNil(value) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	src := reflect.ValueOf(value)
	dt := dst.Type()
	switch {
	case src.Type().AssignableTo(dt):
		dst.Set(src)
		return nil
	case dt.Kind() == reflect.Ptr && src.Type().AssignableTo(dt.Elem()):
		ptr := reflect.New(dt.Elem())
		ptr.Elem().Set(src)
		dst.Set(ptr)
		return nil
	case dt.Kind() == reflect.Slice && isList(src) && dt.Elem().Kind() != reflect.Uint8:
		out := reflect.MakeSlice(dt, src.Len(), src.Len())
		for i := 0; i < src.Len(); i++ {
			if err := assign(out.Index(i), src.Index(i).Interface()); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case convertible(src.Type(), dt):
		dst.Set(src.Convert(dt))
		return nil
	}
	return fmt.Errorf("%w: %T into %s", errUnassignable, value, dt)
}

func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String {
		return from.Kind() == reflect.String || (from.Kind() == reflect.Slice && from.Elem().Kind() == reflect.Uint8)
	}
	if to == timeType || from == timeType {
		return to == from
	}
	return true
}
