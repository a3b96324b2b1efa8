package browser

import (
	"fmt"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// CheckBoxWidget renders a checkbox plus a hidden "<name>.used" marker, so
// an unchecked box still counts as input.
type CheckBoxWidget struct {
	SimpleInputWidget
}

// NewCheckBoxWidget creates a checkbox widget.
func NewCheckBoxWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &CheckBoxWidget{SimpleInputWidget: newSimpleInput(field, req)}
	w.Type = "checkbox"
	w.toField = func(input string) (any, error) { return input == "on", nil }
	w.toForm = func(value any) string {
		if b, ok := value.(bool); ok && b {
			return "on"
		}
		return ""
	}
	return w, nil
}

// Required is always false: an unchecked box is a valid answer.
func (w *CheckBoxWidget) Required() bool { return false }

func (w *CheckBoxWidget) usedName() string { return w.Name() + ".used" }

func (w *CheckBoxWidget) HasInput() bool {
	return w.Request().Has(w.usedName()) || w.Request().Has(w.Name())
}

func (w *CheckBoxWidget) GetInputValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		err := form.NewMissingInputError(field.Name(), w.Label(), nil)
		w.setInputError(err)
		return nil, err
	}
	value := w.Request().Get(w.Name()) == "on"
	if err := field.Validate(value); err != nil {
		err = wrapValidation(field, w.Label(), err)
		w.setInputError(err)
		return nil, err
	}
	w.setInputError(nil)
	return value, nil
}

func (w *CheckBoxWidget) Validate() error { return form.Validate(w) }

func (w *CheckBoxWidget) HasValidInput() bool { return form.HasValidInput(w) }

func (w *CheckBoxWidget) ApplyChanges(content any) (bool, error) {
	return form.ApplyChanges(w, content)
}

func (w *CheckBoxWidget) checked() bool {
	if value, ok := w.RenderedValue(); ok {
		b, _ := value.(bool)
		return b
	}
	if w.HasInput() {
		return w.Request().Get(w.Name()) == "on"
	}
	b, _ := w.Field().Default().(bool)
	return b
}

func (w *CheckBoxWidget) Render() string {
	attrs := Attrs{
		"type":     w.Type,
		"name":     w.Name(),
		"id":       w.Name(),
		"cssClass": w.CSSClass,
		"extra":    w.Extra,
		"value":    "on",
	}
	if w.checked() {
		attrs["checked"] = "checked"
	}
	used := RenderElement(w.Tag, Attrs{"type": "hidden", "name": w.usedName(), "id": w.usedName(), "value": ""})
	return used + " " + RenderElement(w.Tag, attrs)
}

func (w *CheckBoxWidget) Hidden() string {
	value := ""
	if w.checked() {
		value = "on"
	}
	return RenderElement(w.Tag, Attrs{
		"type":     "hidden",
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    value,
		"cssClass": w.CSSClass,
		"extra":    w.Extra,
	})
}

// booleanVocabulary maps true and false to the given labels. args may hold
// the two labels, true first; they default to "on" and "off".
func booleanVocabulary(args []any) (schema.Vocabulary, error) {
	labels := [2]string{"on", "off"}
	for i := 0; i < len(args) && i < 2; i++ {
		label, ok := args[i].(string)
		if !ok {
			return nil, fmt.Errorf("browser: boolean label must be a string, got %T", args[i])
		}
		labels[i] = label
	}
	vocab, err := schema.NewSimpleVocabulary(
		schema.Term{Value: true, Token: "true", Title: labels[0]},
		schema.Term{Value: false, Token: "false", Title: labels[1]},
	)
	if err != nil {
		return nil, err
	}
	return vocab, nil
}

// NewBooleanRadioWidget creates a pair of radio buttons for a boolean.
func NewBooleanRadioWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	vocab, err := booleanVocabulary(args)
	if err != nil {
		return nil, err
	}
	w, err := NewRadioWidget(field, req, vocab)
	if err != nil {
		return nil, err
	}
	w.(*RadioWidget).Orientation = "horizontal"
	return w, nil
}

// NewBooleanSelectWidget creates a two-row select list for a boolean.
func NewBooleanSelectWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	vocab, err := booleanVocabulary(args)
	if err != nil {
		return nil, err
	}
	w, err := NewSelectWidget(field, req, vocab)
	if err != nil {
		return nil, err
	}
	w.(*SelectWidget).Size = 2
	return w, nil
}

// NewBooleanDropdownWidget creates a dropdown for a boolean.
func NewBooleanDropdownWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	vocab, err := booleanVocabulary(args)
	if err != nil {
		return nil, err
	}
	return NewDropdownWidget(field, req, vocab)
}
