package schema

import (
	"reflect"
	"strings"
	"time"
	"unicode/utf8"
)

// Text holds unicode strings. The same type backs single-line, password and
// ASCII-only variants; Kind tells them apart.
type Text struct {
	base
}

// NewText constructs a multi-line text field.
func NewText(name string, opts ...Option) *Text {
	return &Text{base: newBase(KindText, name, opts)}
}

// NewTextLine constructs a text field that rejects line breaks.
func NewTextLine(name string, opts ...Option) *Text {
	return &Text{base: newBase(KindTextLine, name, opts)}
}

// NewPassword constructs a single-line text field rendered as a password.
func NewPassword(name string, opts ...Option) *Text {
	return &Text{base: newBase(KindPassword, name, opts)}
}

// NewASCII constructs a text field limited to 7-bit characters.
func NewASCII(name string, opts ...Option) *Text {
	return &Text{base: newBase(KindASCII, name, opts)}
}

func (f *Text) Validate(value any) error {
	return f.check(value, func(v any) error {
		s, ok := stringValue(v)
		if !ok {
			return newError(CodeWrongType, f.name, v)
		}
		switch f.kind {
		case KindTextLine, KindPassword:
			if strings.ContainsAny(s, "\r\n") {
				return newError(CodeConstraintNotSatisfied, f.name, v)
			}
		case KindASCII:
			for i := 0; i < len(s); i++ {
				if s[i] > 127 {
					return newError(CodeInvalidValue, f.name, v)
				}
			}
		}
		return f.checkLength(v, utf8.RuneCountInString(s))
	})
}

// Bytes holds raw byte strings. File uploads use the same type with KindFile.
type Bytes struct {
	base
}

// NewBytes constructs a multi-line byte field.
func NewBytes(name string, opts ...Option) *Bytes {
	return &Bytes{base: newBase(KindBytes, name, opts)}
}

// NewBytesLine constructs a byte field that rejects line breaks.
func NewBytesLine(name string, opts ...Option) *Bytes {
	return &Bytes{base: newBase(KindBytesLine, name, opts)}
}

// NewFile constructs a field whose value is uploaded file content.
func NewFile(name string, opts ...Option) *Bytes {
	return &Bytes{base: newBase(KindFile, name, opts)}
}

func (f *Bytes) Validate(value any) error {
	return f.check(value, func(v any) error {
		b, ok := v.([]byte)
		if !ok {
			return newError(CodeWrongType, f.name, v)
		}
		if f.kind == KindBytesLine && strings.ContainsAny(string(b), "\r\n") {
			return newError(CodeConstraintNotSatisfied, f.name, v)
		}
		return f.checkLength(v, len(b))
	})
}

// Int holds integers of any width.
type Int struct {
	base
}

// NewInt constructs an integer field.
func NewInt(name string, opts ...Option) *Int {
	return &Int{base: newBase(KindInt, name, opts)}
}

func (f *Int) Validate(value any) error {
	return f.check(value, func(v any) error {
		if !isInteger(v) {
			return newError(CodeWrongType, f.name, v)
		}
		return f.checkRange(v)
	})
}

// Float holds floating point numbers. Integers are accepted as well.
type Float struct {
	base
}

// NewFloat constructs a floating point field.
func NewFloat(name string, opts ...Option) *Float {
	return &Float{base: newBase(KindFloat, name, opts)}
}

func (f *Float) Validate(value any) error {
	return f.check(value, func(v any) error {
		if !isNumber(v) {
			return newError(CodeWrongType, f.name, v)
		}
		return f.checkRange(v)
	})
}

// Bool holds a boolean flag.
type Bool struct {
	base
}

// NewBool constructs a boolean field.
func NewBool(name string, opts ...Option) *Bool {
	return &Bool{base: newBase(KindBool, name, opts)}
}

func (f *Bool) Validate(value any) error {
	return f.check(value, func(v any) error {
		if _, ok := v.(bool); !ok {
			return newError(CodeWrongType, f.name, v)
		}
		return nil
	})
}

// Datetime holds time.Time values. Date fields share the type and ignore the
// clock portion when rendering.
type Datetime struct {
	base
}

// NewDatetime constructs a date and time field.
func NewDatetime(name string, opts ...Option) *Datetime {
	return &Datetime{base: newBase(KindDatetime, name, opts)}
}

// NewDate constructs a calendar date field.
func NewDate(name string, opts ...Option) *Datetime {
	return &Datetime{base: newBase(KindDate, name, opts)}
}

func (f *Datetime) Validate(value any) error {
	return f.check(value, func(v any) error {
		if _, ok := v.(time.Time); !ok {
			return newError(CodeWrongType, f.name, v)
		}
		return f.checkRange(v)
	})
}

// Choice restricts values to the terms of a vocabulary.
type Choice struct {
	base
	vocabulary Vocabulary
}

// NewChoice constructs a field whose values must belong to vocab.
func NewChoice(name string, vocab Vocabulary, opts ...Option) *Choice {
	return &Choice{base: newBase(KindChoice, name, opts), vocabulary: vocab}
}

// Vocabulary returns the allowed terms.
func (f *Choice) Vocabulary() Vocabulary { return f.vocabulary }

func (f *Choice) Validate(value any) error {
	return f.check(value, func(v any) error {
		if f.vocabulary == nil || !f.vocabulary.Contains(v) {
			return newError(CodeConstraintNotSatisfied, f.name, v)
		}
		return nil
	})
}

// Collection holds a sequence of values validated by a value type. List,
// Tuple and Set differ in Kind; Set always enforces uniqueness.
type Collection struct {
	base
	valueType Field
}

// NewList constructs an ordered, mutable sequence field.
func NewList(name string, valueType Field, opts ...Option) *Collection {
	return &Collection{base: newBase(KindList, name, opts), valueType: valueType}
}

// NewTuple constructs an ordered sequence field.
func NewTuple(name string, valueType Field, opts ...Option) *Collection {
	return &Collection{base: newBase(KindTuple, name, opts), valueType: valueType}
}

// NewSet constructs an unordered sequence field of distinct values.
func NewSet(name string, valueType Field, opts ...Option) *Collection {
	c := &Collection{base: newBase(KindSet, name, opts), valueType: valueType}
	c.unique = true
	return c
}

// ValueType returns the field describing each entry.
func (f *Collection) ValueType() Field { return f.valueType }

// IsUnique reports whether entries must be distinct.
func (f *Collection) IsUnique() bool { return f.unique }

func (f *Collection) Validate(value any) error {
	return f.check(value, func(v any) error {
		items, ok := Items(v)
		if !ok {
			return newError(CodeWrongType, f.name, v)
		}
		if err := f.checkLength(v, len(items)); err != nil {
			return err
		}
		if f.valueType != nil {
			var nested []error
			for _, item := range items {
				if err := f.valueType.Validate(item); err != nil {
					nested = append(nested, err)
				}
			}
			if len(nested) > 0 {
				err := newError(CodeWrongContainedType, f.name, v)
				err.Errors = nested
				return err
			}
		}
		if f.unique {
			for i := range items {
				for j := i + 1; j < len(items); j++ {
					if Equal(items[i], items[j]) {
						return newError(CodeNotUnique, f.name, v)
					}
				}
			}
		}
		return nil
	})
}

// Object holds a compound value described by a nested schema.
type Object struct {
	base
	schema    *Schema
	factoryID string
}

// NewObject constructs a compound field over s.
func NewObject(name string, s *Schema, opts ...Option) *Object {
	return &Object{base: newBase(KindObject, name, opts), schema: s}
}

// WithFactoryID names the registered factory that creates new values.
func (f *Object) WithFactoryID(id string) *Object {
	f.factoryID = strings.TrimSpace(id)
	return f
}

// Schema returns the nested schema.
func (f *Object) Schema() *Schema { return f.schema }

// FactoryID returns the registered factory id, if any.
func (f *Object) FactoryID() string { return f.factoryID }

func (f *Object) Validate(value any) error {
	return f.check(value, func(v any) error {
		if f.schema == nil {
			return nil
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Ptr && rv.IsNil() {
			return newError(CodeWrongType, f.name, v)
		}
		var nested []error
		for _, field := range f.schema.Fields() {
			if err := field.Validate(field.Query(v, nil)); err != nil {
				nested = append(nested, err)
			}
		}
		if len(nested) > 0 {
			err := newError(CodeWrongContainedType, f.name, v)
			err.Errors = nested
			return err
		}
		return nil
	})
}

// Vocabularies is implemented by fields offering a fixed set of terms.
type Vocabularies interface {
	Vocabulary() Vocabulary
}

// LengthBounded is implemented by fields exposing length limits.
type LengthBounded interface {
	MinLength() int
	MaxLength() (int, bool)
}
