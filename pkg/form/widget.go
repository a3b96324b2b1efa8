package form

import (
	"strings"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// DefaultPrefix is prepended to field names to build widget names.
const DefaultPrefix = "field."

// Widget is a UI control bound to one schema field and one request.
type Widget interface {
	// Name is the form name: prefix plus field name.
	Name() string
	Label() string
	Hint() string
	Visible() bool
	Field() schema.Field
	Request() *Request
	// SetPrefix rebinds the widget under a new name prefix. A missing
	// trailing dot is added.
	SetPrefix(prefix string)
	// SetRenderedValue sets the value to display. It takes precedence over
	// submitted input.
	SetRenderedValue(value any)
	Render() string
}

// InputWidget is a widget that reads, validates and applies submitted input.
type InputWidget interface {
	Widget
	Required() bool
	// HasInput reports whether the request carries input for the widget,
	// valid or not.
	HasInput() bool
	// GetInputValue converts and validates the submitted input.
	GetInputValue() (any, error)
	Validate() error
	HasValidInput() bool
	// ApplyChanges writes the input value onto content when it differs from
	// the current value and reports whether it wrote.
	ApplyChanges(content any) (bool, error)
}

// DisplayWidget is a widget that only renders a value.
type DisplayWidget interface {
	Widget
	DisplayOnly()
}

// Base carries the state shared by every widget. Concrete widgets embed it.
type Base struct {
	field   schema.Field
	request *Request
	prefix  string
	name    string
	visible bool

	data    any
	dataSet bool
}

// NewBase binds field to req under DefaultPrefix.
func NewBase(field schema.Field, req *Request) Base {
	b := Base{field: field, request: req, visible: true}
	b.SetPrefix(DefaultPrefix)
	return b
}

func (b *Base) Name() string { return b.name }

// Prefix returns the current name prefix, including the trailing dot.
func (b *Base) Prefix() string { return b.prefix }

func (b *Base) Field() schema.Field { return b.field }

func (b *Base) Request() *Request { return b.request }

// Label is the translated field title.
func (b *Base) Label() string {
	if b.field == nil {
		return ""
	}
	return b.request.Translate(b.field.Title())
}

// Hint is the translated field description.
func (b *Base) Hint() string {
	if b.field == nil {
		return ""
	}
	return b.request.Translate(b.field.Description())
}

func (b *Base) Visible() bool { return b.visible }

// SetVisible toggles whether views render the widget.
func (b *Base) SetVisible(visible bool) { b.visible = visible }

// Required mirrors the bound field.
func (b *Base) Required() bool {
	return b.field != nil && b.field.Required()
}

func (b *Base) SetPrefix(prefix string) {
	if prefix != "" && !strings.HasSuffix(prefix, ".") {
		prefix += "."
	}
	b.prefix = prefix
	name := ""
	if b.field != nil {
		name = b.field.Name()
	}
	b.name = prefix + name
}

func (b *Base) SetRenderedValue(value any) {
	b.data = value
	b.dataSet = true
}

// RenderedValue returns the value set with SetRenderedValue.
func (b *Base) RenderedValue() (any, bool) {
	return b.data, b.dataSet
}

// RenderedValueSet reports whether SetRenderedValue was called.
func (b *Base) RenderedValueSet() bool { return b.dataSet }

// ResetRenderedValue forgets the rendered value so request input shows
// again.
func (b *Base) ResetRenderedValue() {
	b.data = nil
	b.dataSet = false
}
