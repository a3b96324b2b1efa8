package browser

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Layouts accepted by the date and time widgets, tried in order.
var (
	DatetimeLayouts = []string{
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006/01/02 15:04:05",
		"2006-01-02",
	}
	DateLayouts = []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02 15:04:05",
		time.RFC3339,
	}
)

const (
	datetimeFormLayout = "2006-01-02 15:04:05"
	dateFormLayout     = "2006-01-02"
)

// TextWidget renders a single-line text input.
type TextWidget struct {
	SimpleInputWidget
	DisplayWidth    int
	DisplayMaxWidth int
	// ConvertMissingValue maps empty input to the field's missing value.
	ConvertMissingValue bool
}

func newText(field schema.Field, req *form.Request) TextWidget {
	return TextWidget{
		SimpleInputWidget:   newSimpleInput(field, req),
		DisplayWidth:        20,
		ConvertMissingValue: true,
	}
}

// NewTextWidget creates a text input widget.
func NewTextWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &TextWidget{}
	*w = newText(field, req)
	w.toField = w.textToField
	return w, nil
}

func (w *TextWidget) textToField(input string) (any, error) {
	if w.ConvertMissingValue && input == "" {
		return w.Field().MissingValue(), nil
	}
	return input, nil
}

func (w *TextWidget) Render() string {
	attrs := Attrs{
		"type":     w.Type,
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    w.formValue(),
		"cssClass": w.CSSClass,
		"style":    w.Style,
		"size":     w.DisplayWidth,
		"extra":    w.Extra,
	}
	if w.DisplayMaxWidth > 0 {
		attrs["maxlength"] = w.DisplayMaxWidth
	}
	return RenderElement(w.Tag, attrs)
}

// TextAreaWidget renders a multi-line textarea. Line endings are
// normalised to "\n" on input and "\r\n" on output.
type TextAreaWidget struct {
	SimpleInputWidget
	Width  int
	Height int
}

func newTextArea(field schema.Field, req *form.Request) TextAreaWidget {
	return TextAreaWidget{SimpleInputWidget: newSimpleInput(field, req), Width: 60, Height: 15}
}

// NewTextAreaWidget creates a textarea widget.
func NewTextAreaWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &TextAreaWidget{}
	*w = newTextArea(field, req)
	w.toField = w.textAreaToField
	w.toForm = textAreaToForm
	return w, nil
}

func (w *TextAreaWidget) textAreaToField(input string) (any, error) {
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	return strings.ReplaceAll(input, "\r\n", "\n"), nil
}

func textAreaToForm(value any) string {
	s := toText(value)
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\n", "\r\n")
}

func (w *TextAreaWidget) Render() string {
	return RenderElement("textarea", Attrs{
		"name":     w.Name(),
		"id":       w.Name(),
		"cssClass": w.CSSClass,
		"rows":     w.Height,
		"cols":     w.Width,
		"style":    w.Style,
		"contents": escape(w.formValue()),
		"extra":    w.Extra,
	})
}

// BytesWidget is a text input for byte strings. Input must be ASCII.
type BytesWidget struct {
	TextWidget
}

// NewBytesWidget creates a byte string input widget.
func NewBytesWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &BytesWidget{TextWidget: newText(field, req)}
	w.toField = w.bytesToField
	w.toForm = toText
	return w, nil
}

func (w *BytesWidget) bytesToField(input string) (any, error) {
	value, err := w.textToField(input)
	if err != nil {
		return nil, err
	}
	return asciiBytes(value)
}

// BytesAreaWidget is a textarea for byte strings. Input must be ASCII.
type BytesAreaWidget struct {
	TextAreaWidget
}

// NewBytesAreaWidget creates a byte string textarea widget.
func NewBytesAreaWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &BytesAreaWidget{TextAreaWidget: newTextArea(field, req)}
	w.toField = w.bytesAreaToField
	w.toForm = textAreaToForm
	return w, nil
}

func (w *BytesAreaWidget) bytesAreaToField(input string) (any, error) {
	value, err := w.textAreaToField(input)
	if err != nil {
		return nil, err
	}
	return asciiBytes(value)
}

// ASCIIWidget is a text input restricted to 7-bit characters. Values stay
// strings.
type ASCIIWidget struct {
	TextWidget
}

// NewASCIIWidget creates an ASCII text input widget.
func NewASCIIWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &ASCIIWidget{TextWidget: newText(field, req)}
	w.toField = w.asciiToField
	return w, nil
}

func (w *ASCIIWidget) asciiToField(input string) (any, error) {
	value, err := w.textToField(input)
	if err != nil {
		return nil, err
	}
	if s, ok := value.(string); ok && !isASCII(s) {
		return nil, form.NewConversionError("Invalid textual data", fmt.Errorf("non-ASCII input %q", s))
	}
	return value, nil
}

// PasswordWidget never renders the stored value. Empty input leaves an
// existing password unchanged.
type PasswordWidget struct {
	TextWidget
}

// NewPasswordWidget creates a password input widget.
func NewPasswordWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &PasswordWidget{TextWidget: newText(field, req)}
	w.Type = "password"
	w.toField = w.textToField
	return w, nil
}

func (w *PasswordWidget) Render() string {
	attrs := Attrs{
		"type":     w.Type,
		"name":     w.Name(),
		"id":       w.Name(),
		"value":    "",
		"cssClass": w.CSSClass,
		"style":    w.Style,
		"size":     w.DisplayWidth,
		"extra":    w.Extra,
	}
	if w.DisplayMaxWidth > 0 {
		attrs["maxlength"] = w.DisplayMaxWidth
	}
	return RenderElement(w.Tag, attrs)
}

// Hidden renders nothing: passwords are never echoed back.
func (w *PasswordWidget) Hidden() string { return "" }

// ApplyChanges keeps the stored password when the input is empty.
func (w *PasswordWidget) ApplyChanges(content any) (bool, error) {
	if input, _ := w.formInput(); input == "" {
		if current, err := w.Field().Get(content); err == nil && !isMissing(w.Field(), current) && toText(current) != "" {
			return false, nil
		}
	}
	return form.ApplyChanges(w, content)
}

// IntWidget is a text input for integers.
type IntWidget struct {
	TextWidget
}

// NewIntWidget creates an integer input widget.
func NewIntWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &IntWidget{TextWidget: newText(field, req)}
	w.DisplayWidth = 10
	w.toField = w.intToField
	return w, nil
}

func (w *IntWidget) intToField(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	n, err := strconv.Atoi(input)
	if err != nil {
		return nil, form.NewConversionError("Invalid integer data", err)
	}
	return n, nil
}

// FloatWidget is a text input for floating point numbers.
type FloatWidget struct {
	TextWidget
}

// NewFloatWidget creates a floating point input widget.
func NewFloatWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &FloatWidget{TextWidget: newText(field, req)}
	w.DisplayWidth = 10
	w.toField = w.floatToField
	w.toForm = func(value any) string {
		if f, ok := value.(float64); ok {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return fmt.Sprint(value)
	}
	return w, nil
}

func (w *FloatWidget) floatToField(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	f, err := strconv.ParseFloat(input, 64)
	if err != nil {
		return nil, form.NewConversionError("Invalid floating point data", err)
	}
	return f, nil
}

// DatetimeWidget is a text input for timestamps.
type DatetimeWidget struct {
	TextWidget
	// Location interprets input without a zone. Defaults to UTC.
	Location *time.Location
}

// NewDatetimeWidget creates a timestamp input widget.
func NewDatetimeWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &DatetimeWidget{TextWidget: newText(field, req)}
	w.toField = w.datetimeToField
	w.toForm = func(value any) string { return formatTime(value, datetimeFormLayout) }
	return w, nil
}

func (w *DatetimeWidget) datetimeToField(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	t, err := parseTime(input, DatetimeLayouts, w.Location)
	if err != nil {
		return nil, form.NewConversionError("Invalid datetime data", err)
	}
	return t, nil
}

// DateWidget is a text input for calendar dates.
type DateWidget struct {
	TextWidget
	Location *time.Location
}

// NewDateWidget creates a date input widget.
func NewDateWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &DateWidget{TextWidget: newText(field, req)}
	w.toField = w.dateToField
	w.toForm = func(value any) string { return formatTime(value, dateFormLayout) }
	return w, nil
}

func (w *DateWidget) dateToField(input string) (any, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return w.Field().MissingValue(), nil
	}
	t, err := parseTime(input, DateLayouts, w.Location)
	if err != nil {
		return nil, form.NewConversionError("Invalid datetime data", err)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location()), nil
}

func parseTime(input string, layouts []string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	var firstErr error
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, input, loc)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func formatTime(value any, layout string) string {
	if t, ok := value.(time.Time); ok {
		return t.Format(layout)
	}
	return fmt.Sprint(value)
}

func toText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	}
	return fmt.Sprint(value)
}

func asciiBytes(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if !isASCII(s) {
		return nil, form.NewConversionError("Invalid textual data", fmt.Errorf("non-ASCII input %q", s))
	}
	return []byte(s), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
