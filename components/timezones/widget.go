package timezones

import (
	"github.com/goliatone/go-formbind/pkg/form"
	"github.com/goliatone/go-formbind/pkg/form/browser"
	"github.com/goliatone/go-formbind/pkg/schema"
)

// WidgetName is the registry name of the time zone dropdown.
const WidgetName = "TimezoneWidget"

// NewWidget renders a dropdown over the default catalog. It works for
// choice fields and for text line fields holding a zone name; a vocabulary
// in args replaces the catalog.
func NewWidget(field schema.Field, req *form.Request, args ...any) (form.Widget, error) {
	catalog, err := Default()
	if err != nil {
		return nil, err
	}
	return browser.NewDropdownWidget(field, req, append(args, catalog)...)
}

// Register makes the dropdown available by name, for per-field overrides.
func Register(r *form.Registry) {
	r.RegisterNamed(WidgetName, form.FactoryOf(NewWidget))
}
