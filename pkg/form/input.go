package form

import (
	"reflect"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Converter is the part of an input widget the shared input semantics need.
// Widgets implement the InputWidget methods by delegating to Validate,
// HasValidInput and ApplyChanges with themselves as the converter.
type Converter interface {
	Field() schema.Field
	GetInputValue() (any, error)
}

// Validate runs the conversion and discards the value.
func Validate(w Converter) error {
	_, err := w.GetInputValue()
	return err
}

// HasValidInput reports whether the conversion succeeds.
func HasValidInput(w Converter) bool {
	return Validate(w) == nil
}

// ApplyChanges writes the converted input onto content when it differs from
// the field's current value. Content that does not expose the field yet is
// always written. A missing value counts as unchanged when the content
// holds the zero value of a plain Go type, since that is how such content
// stores "no value".
func ApplyChanges(w Converter, content any) (bool, error) {
	value, err := w.GetInputValue()
	if err != nil {
		return false, err
	}
	field := w.Field()
	if current, err := field.Get(content); err == nil {
		if schema.Equal(current, value) || (schema.IsMissing(field.MissingValue(), value) && isZero(current)) {
			return false, nil
		}
	}
	if err := field.Set(content, value); err != nil {
		return false, err
	}
	return true, nil
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
