// Package form binds schema fields to submitted requests through widgets.
//
// A widget is named after its field under a prefix ("field." by default),
// converts request input into a typed value, validates it against the field
// and applies it to a content object only when the value changed. The
// set-up helpers build one widget per schema field using a Registry, and
// GetWidgetsData / ApplyWidgetsChanges process a whole form at once,
// collecting every failure into a WidgetsError instead of stopping at the
// first.
package form
