package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/goliatone/go-formbind/pkg/schema"
)

var (
	// ErrNoWidget is returned when no factory matches a field.
	ErrNoWidget = errors.New("form: no widget registered for field")
	// ErrNoInput is returned by widgets asked for a value they were not sent.
	ErrNoInput = errors.New("form: no input")
)

// InputError is a user-correctable error tied to one widget. Doc returns the
// message shown next to the control; callers translate it.
type InputError interface {
	error
	Doc() string
	Field() string
}

// WidgetInputError reports that the input of one widget was rejected.
type WidgetInputError struct {
	FieldName   string
	WidgetTitle string
	// Err is the underlying validation or conversion failure.
	Err error
}

// NewWidgetInputError wraps err for the widget bound to fieldName.
func NewWidgetInputError(fieldName, title string, err error) *WidgetInputError {
	return &WidgetInputError{FieldName: fieldName, WidgetTitle: title, Err: err}
}

func (e *WidgetInputError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: invalid input", e.FieldName)
	}
	return fmt.Sprintf("%s: %v", e.FieldName, e.Err)
}

func (e *WidgetInputError) Unwrap() error { return e.Err }

func (e *WidgetInputError) Field() string { return e.FieldName }

// Doc returns the doc message of the wrapped error.
func (e *WidgetInputError) Doc() string {
	return docOf(e.Err)
}

// MissingInputError reports that required data was not supplied.
type MissingInputError struct {
	WidgetInputError
}

// NewMissingInputError builds a missing input error. A nil err wraps
// schema.ErrRequiredMissing.
func NewMissingInputError(fieldName, title string, err error) *MissingInputError {
	if err == nil {
		err = &schema.ValidationError{Code: schema.CodeRequiredMissing, Field: fieldName}
	}
	return &MissingInputError{WidgetInputError{FieldName: fieldName, WidgetTitle: title, Err: err}}
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("%s: required data was not supplied", e.FieldName)
}

// ConversionError reports that submitted text could not be converted to the
// field type. ErrorName is the message shown to the user.
type ConversionError struct {
	ErrorName string
	Original  error
}

// NewConversionError records a failed conversion.
func NewConversionError(name string, original error) *ConversionError {
	return &ConversionError{ErrorName: name, Original: original}
}

func (e *ConversionError) Error() string {
	if e.Original == nil {
		return e.ErrorName
	}
	return fmt.Sprintf("%s: %v", e.ErrorName, e.Original)
}

func (e *ConversionError) Unwrap() error { return e.Original }

func (e *ConversionError) Doc() string { return e.ErrorName }

// IsInputError reports whether err is a user-correctable input error: a
// widget input error, a conversion error or a field validation error.
func IsInputError(err error) bool {
	if err == nil {
		return false
	}
	var inputErr InputError
	if errors.As(err, &inputErr) {
		return true
	}
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return true
	}
	_, ok := schema.AsValidationError(err)
	return ok
}

// AsInputError extracts the widget input error from err.
func AsInputError(err error) (InputError, bool) {
	var inputErr InputError
	if errors.As(err, &inputErr) {
		return inputErr, true
	}
	return nil, false
}

func docOf(err error) string {
	if err == nil {
		return ""
	}
	var doc interface{ Doc() string }
	if errors.As(err, &doc) {
		return doc.Doc()
	}
	return err.Error()
}

// ErrorContainer collects several errors without stopping at the first one.
type ErrorContainer struct {
	errs *multierror.Error
}

// Append adds errors, skipping nils.
func (c *ErrorContainer) Append(errs ...error) {
	for _, err := range errs {
		if err == nil {
			continue
		}
		if c.errs == nil {
			c.errs = &multierror.Error{ErrorFormat: formatErrors}
		}
		c.errs = multierror.Append(c.errs, err)
	}
}

// Len returns the number of collected errors.
func (c *ErrorContainer) Len() int {
	if c == nil || c.errs == nil {
		return 0
	}
	return c.errs.Len()
}

// Errors returns the collected errors in order.
func (c *ErrorContainer) Errors() []error {
	if c == nil || c.errs == nil {
		return nil
	}
	return append([]error(nil), c.errs.Errors...)
}

// Error prints one "Type: message" line per collected error.
func (c *ErrorContainer) Error() string {
	if c == nil || c.errs == nil {
		return ""
	}
	return c.errs.Error()
}

func (c *ErrorContainer) Unwrap() []error { return c.Errors() }

// WidgetsError aggregates the failures of several widgets processed in one
// submission. WidgetsData holds the values that did convert, keyed by field
// name.
type WidgetsError struct {
	ErrorContainer
	WidgetsData map[string]any
}

// NewWidgetsError builds a WidgetsError from errs.
func NewWidgetsError(errs []error, data map[string]any) *WidgetsError {
	werr := &WidgetsError{WidgetsData: data}
	werr.Append(errs...)
	if werr.WidgetsData == nil {
		werr.WidgetsData = map[string]any{}
	}
	return werr
}

// ByField indexes the collected input errors by field name.
func (e *WidgetsError) ByField() map[string]InputError {
	out := make(map[string]InputError, e.Len())
	for _, err := range e.Errors() {
		if inputErr, ok := AsInputError(err); ok {
			out[inputErr.Field()] = inputErr
		}
	}
	return out
}

// AsWidgetsError extracts a WidgetsError from err.
func AsWidgetsError(err error) (*WidgetsError, bool) {
	var werr *WidgetsError
	if errors.As(err, &werr) && werr != nil {
		return werr, true
	}
	return nil, false
}

func formatErrors(errs []error) string {
	lines := make([]string, 0, len(errs))
	for _, err := range errs {
		lines = append(lines, fmt.Sprintf("%s: %v", typeName(err), err))
	}
	return strings.Join(lines, "\n")
}

func typeName(err error) string {
	t := reflect.TypeOf(err)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return "error"
	}
	return t.Name()
}
