package browser

import (
	"time"

	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// DisplayWidget renders a value as escaped text.
type DisplayWidget struct {
	Widget
	format func(value any) string
}

// NewDisplayWidget creates a text display widget.
func NewDisplayWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	return &DisplayWidget{Widget: newWidget(field, req)}, nil
}

func (w *DisplayWidget) DisplayOnly() {}

// Required is always false: display widgets take no input.
func (w *DisplayWidget) Required() bool { return false }

// value returns the rendered value, falling back to the field default.
func (w *DisplayWidget) value() (any, bool) {
	value, ok := w.RenderedValue()
	if !ok {
		value = w.Field().Default()
	}
	if isMissing(w.Field(), value) {
		return nil, false
	}
	return value, true
}

func (w *DisplayWidget) Render() string {
	value, ok := w.value()
	if !ok {
		return ""
	}
	if w.format != nil {
		return w.format(value)
	}
	return escape(toText(value))
}

// BytesDisplayWidget renders byte strings as text.
type BytesDisplayWidget struct {
	DisplayWidget
}

// NewBytesDisplayWidget creates a byte string display widget.
func NewBytesDisplayWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	return &BytesDisplayWidget{DisplayWidget: DisplayWidget{Widget: newWidget(field, req)}}, nil
}

// DatetimeDisplayWidget renders a timestamp in a "dateTime" span.
type DatetimeDisplayWidget struct {
	DisplayWidget
	Layout string
}

// NewDatetimeDisplayWidget creates a timestamp display widget.
func NewDatetimeDisplayWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &DatetimeDisplayWidget{DisplayWidget: DisplayWidget{Widget: newWidget(field, req)}, Layout: "Jan 2, 2006 3:04:05 PM"}
	w.CSSClass = "dateTime"
	w.format = w.formatSpan
	return w, nil
}

func (w *DatetimeDisplayWidget) formatSpan(value any) string {
	return timeSpan(value, w.Layout, w.CSSClass)
}

// DateDisplayWidget renders a calendar date in a "date" span.
type DateDisplayWidget struct {
	DisplayWidget
	Layout string
}

// NewDateDisplayWidget creates a date display widget.
func NewDateDisplayWidget(field schema.Field, req *form.Request, _ ...any) (form.Widget, error) {
	w := &DateDisplayWidget{DisplayWidget: DisplayWidget{Widget: newWidget(field, req)}, Layout: "Jan 2, 2006"}
	w.CSSClass = "date"
	w.format = w.formatSpan
	return w, nil
}

func (w *DateDisplayWidget) formatSpan(value any) string {
	return timeSpan(value, w.Layout, w.CSSClass)
}

func timeSpan(value any, layout, cssClass string) string {
	text := toText(value)
	if t, ok := value.(time.Time); ok {
		text = t.Format(layout)
	}
	return RenderElement("span", Attrs{"cssClass": cssClass, "contents": escape(text)})
}
