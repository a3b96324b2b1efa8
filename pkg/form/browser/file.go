package browser

import (
	"fmt"
	"io"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// FileWidget reads an uploaded file into a byte slice. A hidden
// "<name>.used" marker tells an empty upload apart from a form that never
// showed the control.
type FileWidget struct {
	TextWidget
}

// NewFileWidget creates a file upload widget.
func NewFileWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &FileWidget{TextWidget: newText(field, req)}
	w.Type = "file"
	return w, nil
}

func (w *FileWidget) usedName() string { return w.Name() + ".used" }

func (w *FileWidget) HasInput() bool {
	return w.Request().Has(w.usedName()) || w.Request().Has(w.Name())
}

func (w *FileWidget) GetInputValue() (any, error) {
	value, err := w.fileValue()
	w.setInputError(err)
	return value, err
}

func (w *FileWidget) fileValue() (any, error) {
	field := w.Field()
	if !w.HasInput() {
		return nil, form.NewMissingInputError(field.Name(), w.Label(), nil)
	}
	value, err := w.readUpload()
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

// readUpload returns the uploaded bytes, or the missing value when nothing
// was uploaded.
func (w *FileWidget) readUpload() (any, error) {
	header, ok := w.Request().File(w.Name())
	if !ok {
		return w.Field().MissingValue(), nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, form.NewConversionError("Form input is not a file object", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, form.NewConversionError("Form input is not a file object", fmt.Errorf("read %q: %w", header.Filename, err))
	}
	if len(data) == 0 && header.Filename == "" {
		return w.Field().MissingValue(), nil
	}
	return data, nil
}

func (w *FileWidget) Validate() error { return form.Validate(w) }

func (w *FileWidget) HasValidInput() bool { return form.HasValidInput(w) }

// ApplyChanges keeps the stored content when no file was uploaded.
func (w *FileWidget) ApplyChanges(content any) (bool, error) {
	if _, uploaded := w.Request().File(w.Name()); !uploaded {
		if current, err := w.Field().Get(content); err == nil && !isMissing(w.Field(), current) {
			return false, nil
		}
	}
	return form.ApplyChanges(w, content)
}

func (w *FileWidget) Render() string {
	attrs := Attrs{
		"type":     w.Type,
		"name":     w.Name(),
		"id":       w.Name(),
		"cssClass": w.CSSClass,
		"size":     w.DisplayWidth,
		"extra":    w.Extra,
	}
	if w.DisplayMaxWidth > 0 {
		attrs["maxlength"] = w.DisplayMaxWidth
	}
	used := RenderElement(w.Tag, Attrs{"type": "hidden", "name": w.usedName(), "id": w.usedName(), "value": ""})
	return used + " " + RenderElement(w.Tag, attrs)
}

// Hidden renders only the marker: uploads cannot be carried in hidden
// inputs.
func (w *FileWidget) Hidden() string {
	return RenderElement(w.Tag, Attrs{"type": "hidden", "name": w.usedName(), "id": w.usedName(), "value": ""})
}
