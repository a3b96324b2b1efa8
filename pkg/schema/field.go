package schema

import (
	"strings"
)

// Kind identifies the data shape of a field. Widget registries dispatch on it.
type Kind string

const (
	KindText      Kind = "text"
	KindTextLine  Kind = "textline"
	KindPassword  Kind = "password"
	KindASCII     Kind = "ascii"
	KindBytes     Kind = "bytes"
	KindBytesLine Kind = "bytesline"
	KindInt       Kind = "int"
	KindFloat     Kind = "float"
	KindBool      Kind = "bool"
	KindDatetime  Kind = "datetime"
	KindDate      Kind = "date"
	KindChoice    Kind = "choice"
	KindList      Kind = "list"
	KindTuple     Kind = "tuple"
	KindSet       Kind = "set"
	KindObject    Kind = "object"
	KindFile      Kind = "file"
)

// Field declares a named data attribute, its constraints, and how its value is
// read from and written to content objects.
type Field interface {
	Name() string
	Title() string
	Description() string
	Kind() Kind
	Required() bool
	Readonly() bool
	Default() any
	MissingValue() any
	// Validate returns a *ValidationError when value violates the field.
	Validate(value any) error
	Get(content any) (any, error)
	// Query returns def when content does not expose the field.
	Query(content any, def any) any
	Set(content any, value any) error
}

// Option configures field properties at construction time.
type Option func(*base)

// Title sets the human readable field title.
func Title(title string) Option {
	return func(b *base) { b.title = title }
}

// Description sets the field description used as widget hint.
func Description(desc string) Option {
	return func(b *base) { b.description = desc }
}

// Required toggles whether a non-missing value must be supplied. Fields are
// required unless configured otherwise.
func Required(required bool) Option {
	return func(b *base) { b.required = required }
}

// Readonly marks the field read-only; Set returns ErrReadonly.
func Readonly() Option {
	return func(b *base) { b.readonly = true }
}

// Default sets the value offered when content has none.
func Default(value any) Option {
	return func(b *base) { b.defaultValue = value }
}

// Missing sets the value that stands for "no input". It is accepted by
// Validate for optional fields.
func Missing(value any) Option {
	return func(b *base) {
		b.missing = value
		b.missingSet = true
	}
}

// Constraint adds a predicate; a false result fails validation with
// ConstraintNotSatisfied.
func Constraint(fn func(value any) bool) Option {
	return func(b *base) { b.constraint = fn }
}

// MinLength sets the minimum length for text and sequence fields.
func MinLength(n int) Option {
	return func(b *base) { b.minLength = n }
}

// MaxLength sets the maximum length for text and sequence fields.
func MaxLength(n int) Option {
	return func(b *base) {
		b.maxLength = n
		b.hasMaxLength = true
	}
}

// Min sets the lower bound for orderable fields.
func Min(value any) Option {
	return func(b *base) { b.min = value }
}

// Max sets the upper bound for orderable fields.
func Max(value any) Option {
	return func(b *base) { b.max = value }
}

// Unique requires sequence entries to be distinct.
func Unique() Option {
	return func(b *base) { b.unique = true }
}

// Accessors routes Get and Set through named methods on the content object
// instead of attribute access.
func Accessors(getter, setter string) Option {
	return func(b *base) {
		b.getter = strings.TrimSpace(getter)
		b.setter = strings.TrimSpace(setter)
	}
}

type base struct {
	name         string
	title        string
	description  string
	kind         Kind
	required     bool
	readonly     bool
	defaultValue any
	missing      any
	missingSet   bool
	constraint   func(any) bool

	minLength    int
	maxLength    int
	hasMaxLength bool
	min          any
	max          any
	unique       bool

	getter string
	setter string
}

func newBase(kind Kind, name string, opts []Option) base {
	b := base{
		name:     strings.TrimSpace(name),
		kind:     kind,
		required: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&b)
	}
	return b
}

func (b *base) Name() string        { return b.name }
func (b *base) Title() string       { return b.title }
func (b *base) Description() string { return b.description }
func (b *base) Kind() Kind          { return b.kind }
func (b *base) Required() bool      { return b.required }
func (b *base) Readonly() bool      { return b.readonly }
func (b *base) Default() any        { return b.defaultValue }
func (b *base) MissingValue() any   { return b.missing }

// MinLength reports the configured minimum length.
func (b *base) MinLength() int { return b.minLength }

// MaxLength reports the configured maximum length, if any.
func (b *base) MaxLength() (int, bool) { return b.maxLength, b.hasMaxLength }

// Min reports the lower bound, or nil.
func (b *base) Min() any { return b.min }

// Max reports the upper bound, or nil.
func (b *base) Max() any { return b.max }

func (b *base) Get(content any) (any, error) {
	return getValue(content, b)
}

func (b *base) Query(content any, def any) any {
	value, err := getValue(content, b)
	if err != nil {
		return def
	}
	return value
}

func (b *base) Set(content any, value any) error {
	if b.readonly {
		return ErrReadonly
	}
	return setValue(content, b, value)
}

// check runs the shared validation: missing handling followed by the
// kind-specific checks in typed and the common constraint.
func (b *base) check(value any, typed func(any) error) error {
	if IsMissing(b.missing, value) {
		if b.required {
			return newError(CodeRequiredMissing, b.name, value)
		}
		return nil
	}
	if typed != nil {
		if err := typed(value); err != nil {
			return err
		}
	}
	if b.constraint != nil && !b.constraint(value) {
		return newError(CodeConstraintNotSatisfied, b.name, value)
	}
	return nil
}

func (b *base) checkLength(value any, n int) error {
	if n < b.minLength {
		err := newError(CodeTooShort, b.name, value)
		err.Bound = b.minLength
		return err
	}
	if b.hasMaxLength && n > b.maxLength {
		err := newError(CodeTooLong, b.name, value)
		err.Bound = b.maxLength
		return err
	}
	return nil
}

func (b *base) checkRange(value any) error {
	if b.min != nil {
		if cmp, ok := compare(value, b.min); ok && cmp < 0 {
			err := newError(CodeTooSmall, b.name, value)
			err.Bound = b.min
			return err
		}
	}
	if b.max != nil {
		if cmp, ok := compare(value, b.max); ok && cmp > 0 {
			err := newError(CodeTooBig, b.name, value)
			err.Bound = b.max
			return err
		}
	}
	return nil
}

// IsMissing reports whether value stands for "no input" given the field's
// missing value. A nil value is always missing.
func IsMissing(missing, value any) bool {
	if value == nil {
		return true
	}
	if missing == nil {
		return false
	}
	return Equal(missing, value)
}
