package browser

import (
	"strings"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// Widget is the HTML widget base. Concrete widgets embed it and add Render.
type Widget struct {
	form.Base
	CSSClass string
	Extra    string
	Style    string

	inputErr error
}

func newWidget(field schema.Field, req *form.Request) Widget {
	return Widget{Base: form.NewBase(field, req)}
}

// InputError returns the error recorded by the last GetInputValue call.
func (w *Widget) InputError() error { return w.inputErr }

func (w *Widget) setInputError(err error) {
	if err != nil && !form.IsInputError(err) {
		return
	}
	w.inputErr = err
}

// ClearError forgets the recorded input error.
func (w *Widget) ClearError() { w.inputErr = nil }

// Error renders the recorded input error, or "".
func (w *Widget) Error() string {
	if w.inputErr == nil {
		return ""
	}
	return Snippet(w.inputErr, w.Request())
}

func (w *Widget) formInput() (string, bool) {
	req := w.Request()
	if !req.Has(w.Name()) {
		return "", false
	}
	return req.Get(w.Name()), true
}

// Hidden renders a widget as hidden inputs carrying its current value.
type Hidden interface {
	Hidden() string
}

// ErrorRenderer renders the recorded input error of a widget.
type ErrorRenderer interface {
	Error() string
}

// HiddenOf renders w as hidden inputs, or "" when it cannot.
func HiddenOf(w form.Widget) string {
	if h, ok := w.(Hidden); ok {
		return h.Hidden()
	}
	return ""
}

// ErrorOf renders the recorded input error of w, or "".
func ErrorOf(w form.Widget) string {
	if e, ok := w.(ErrorRenderer); ok {
		return e.Error()
	}
	return ""
}

// Row renders the label, control, error and hint of w as one form row.
func Row(w form.Widget) string {
	var b strings.Builder
	b.WriteString(`<div class="row">` + "\n")
	label := RenderElement("label", Attrs{"for": w.Name(), "contents": escape(w.Label())})
	if in, ok := w.(form.InputWidget); ok && in.Required() {
		label += `<span class="required">*</span>`
	}
	b.WriteString(RenderElement("div", Attrs{"cssClass": "label", "contents": label}) + "\n")
	b.WriteString(RenderElement("div", Attrs{"cssClass": "field", "contents": w.Render()}) + "\n")
	if msg := ErrorOf(w); msg != "" {
		b.WriteString(RenderElement("div", Attrs{"cssClass": "error", "contents": msg}) + "\n")
	}
	if hint := sanitizeHint(w.Hint()); hint != "" {
		b.WriteString(RenderElement("div", Attrs{"cssClass": "hint", "contents": hint}) + "\n")
	}
	b.WriteString("</div>")
	return b.String()
}

// Snippet renders err as an inline error message: the translated doc
// message of the error, escaped, in a span.
func Snippet(err error, req *form.Request) string {
	if err == nil {
		return ""
	}
	doc := err.Error()
	if inputErr, ok := form.AsInputError(err); ok {
		doc = inputErr.Doc()
	} else if d, ok := err.(interface{ Doc() string }); ok {
		doc = d.Doc()
	}
	return `<span class="error">` + escape(req.Translate(doc)) + `</span>`
}

// wrapValidation turns a required-value validation failure into a missing
// input error and wraps every other failure as a widget input error.
func wrapValidation(field schema.Field, label string, err error) error {
	if verr, ok := schema.AsValidationError(err); ok && verr.Code == schema.CodeRequiredMissing {
		return form.NewMissingInputError(field.Name(), label, err)
	}
	return form.NewWidgetInputError(field.Name(), label, err)
}
