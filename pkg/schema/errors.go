package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Validation error codes. Each code maps onto a translatable doc message that
// widgets render next to the offending control.
const (
	CodeRequiredMissing        = "required_missing"
	CodeWrongType              = "wrong_type"
	CodeTooShort               = "too_short"
	CodeTooLong                = "too_long"
	CodeTooSmall               = "too_small"
	CodeTooBig                 = "too_big"
	CodeInvalidValue           = "invalid_value"
	CodeConstraintNotSatisfied = "constraint_not_satisfied"
	CodeNotUnique              = "not_unique"
	CodeWrongContainedType     = "wrong_contained_type"
)

var docs = map[string]string{
	CodeRequiredMissing:        "Required input is missing.",
	CodeWrongType:              "Object is of wrong type.",
	CodeTooShort:               "Value is too short",
	CodeTooLong:                "Value is too long",
	CodeTooSmall:               "Value is too small",
	CodeTooBig:                 "Value is too big",
	CodeInvalidValue:           "Invalid value",
	CodeConstraintNotSatisfied: "Constraint not satisfied",
	CodeNotUnique:              "One or more entries of sequence are not unique.",
	CodeWrongContainedType:     "Wrong contained type",
}

// Sentinels usable with errors.Is; matching compares codes only.
var (
	ErrRequiredMissing        = &ValidationError{Code: CodeRequiredMissing}
	ErrWrongType              = &ValidationError{Code: CodeWrongType}
	ErrTooShort               = &ValidationError{Code: CodeTooShort}
	ErrTooLong                = &ValidationError{Code: CodeTooLong}
	ErrTooSmall               = &ValidationError{Code: CodeTooSmall}
	ErrTooBig                 = &ValidationError{Code: CodeTooBig}
	ErrInvalidValue           = &ValidationError{Code: CodeInvalidValue}
	ErrConstraintNotSatisfied = &ValidationError{Code: CodeConstraintNotSatisfied}
	ErrNotUnique              = &ValidationError{Code: CodeNotUnique}
	ErrWrongContainedType     = &ValidationError{Code: CodeWrongContainedType}
)

var (
	// ErrReadonly is returned when Set targets a read-only field.
	ErrReadonly = errors.New("schema: field is read-only")
	// ErrNoSuchField is returned when content does not expose the field.
	ErrNoSuchField = errors.New("schema: content has no such field")
)

// ValidationError reports a value rejected by a field constraint.
type ValidationError struct {
	Code  string
	Field string
	Value any
	// Bound holds the violated limit for length and range errors.
	Bound any
	// Errors lists nested failures for container and object fields.
	Errors []error
}

func newError(code, field string, value any) *ValidationError {
	return &ValidationError{Code: code, Field: field, Value: value}
}

// Doc returns the user facing message for the error code. Callers translate
// the returned string as a message id.
func (e *ValidationError) Doc() string {
	if e == nil {
		return ""
	}
	if doc, ok := docs[e.Code]; ok {
		return doc
	}
	return e.Code
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Code)
	if e.Field != "" {
		fmt.Fprintf(&b, " on %q", e.Field)
	}
	if e.Bound != nil {
		fmt.Fprintf(&b, " (limit %v)", e.Bound)
	}
	if len(e.Errors) > 0 {
		parts := make([]string, 0, len(e.Errors))
		for _, nested := range e.Errors {
			parts = append(parts, nested.Error())
		}
		b.WriteString(": ")
		b.WriteString(strings.Join(parts, "; "))
	}
	return b.String()
}

// Is matches any ValidationError carrying the same code.
func (e *ValidationError) Is(target error) bool {
	var other *ValidationError
	if !errors.As(target, &other) || other == nil || e == nil {
		return false
	}
	return other.Code == e.Code
}

// AsValidationError extracts a ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) && verr != nil {
		return verr, true
	}
	return nil, false
}
