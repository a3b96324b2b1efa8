package browser

import (
	"fmt"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// SimpleInputWidget reads one request value, converts it and validates it
// against the field. Concrete widgets plug in their conversions through
// toField and toForm.
type SimpleInputWidget struct {
	Widget
	Tag  string
	Type string

	// toField converts submitted text to a field value. The default maps ""
	// to the field's missing value and keeps other input as is.
	toField func(input string) (any, error)
	// toForm formats a non-missing field value for the form.
	toForm func(value any) string
}

func newSimpleInput(field schema.Field, req *form.Request) SimpleInputWidget {
	return SimpleInputWidget{Widget: newWidget(field, req), Tag: "input", Type: "text"}
}

// HasInput reports whether the request carries a value under the widget
// name, even an empty one.
func (w *SimpleInputWidget) HasInput() bool {
	return w.Request().Has(w.Name())
}

// GetInputValue converts and validates the submitted value. Empty input on
// an optional field yields the missing value without validation. Failures
// are recorded for Error.
func (w *SimpleInputWidget) GetInputValue() (any, error) {
	value, err := w.inputValue()
	w.setInputError(err)
	return value, err
}

func (w *SimpleInputWidget) Validate() error { return form.Validate(w) }

func (w *SimpleInputWidget) HasValidInput() bool { return form.HasValidInput(w) }

func (w *SimpleInputWidget) ApplyChanges(content any) (bool, error) {
	return form.ApplyChanges(w, content)
}

func (w *SimpleInputWidget) inputValue() (any, error) {
	field := w.Field()
	input, ok := w.formInput()
	if !ok {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	value, err := w.convert(input)
	if err != nil {
		return nil, form.NewWidgetInputError(field.Name(), w.Label(), err)
	}
	if isMissing(field, value) && !field.Required() {
		return value, nil
	}
	if err := field.Validate(value); err != nil {
		return nil, wrapValidation(field, w.Label(), err)
	}
	return value, nil
}

func (w *SimpleInputWidget) convert(input string) (any, error) {
	if w.toField != nil {
		return w.toField(input)
	}
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	return input, nil
}

// formValue picks what the control shows: the rendered value when set,
// else the submitted input (raw when it does not convert), else the field
// default.
func (w *SimpleInputWidget) formValue() string {
	if value, ok := w.RenderedValue(); ok {
		return w.format(value)
	}
	if w.HasInput() {
		value, err := w.inputValue()
		if err != nil {
			raw, _ := w.formInput()
			return raw
		}
		return w.format(value)
	}
	return w.format(w.Field().Default())
}

func (w *SimpleInputWidget) format(value any) string {
	if isMissing(w.Field(), value) {
		return ""
	}
	if w.toForm != nil {
		return w.toForm(value)
	}
	return fmt.Sprint(value)
}

func (w *SimpleInputWidget) Render() string {
	return RenderElement(w.Tag, Attrs{
		"type":     w.Type,
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    w.formValue(),
		"cssClass": w.CSSClass,
		"style":    w.Style,
		"extra":    w.Extra,
	})
}

func (w *SimpleInputWidget) Hidden() string {
	return RenderElement(w.Tag, Attrs{
		"type":     "hidden",
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    w.formValue(),
		"cssClass": w.CSSClass,
		"extra":    w.Extra,
	})
}

func isMissing(field schema.Field, value any) bool {
	return value == nil || schema.IsMissing(field.MissingValue(), value)
}
