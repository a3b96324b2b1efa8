package schema

import (
	"fmt"
	"strings"
)

// Schema is a named, ordered set of fields describing a content type.
type Schema struct {
	name   string
	title  string
	fields []Field
	index  map[string]int
}

// New constructs a schema from fields in declaration order. Later fields with
// a duplicate name replace earlier ones in place.
func New(name string, fields ...Field) *Schema {
	s := &Schema{
		name:  strings.TrimSpace(name),
		index: make(map[string]int, len(fields)),
	}
	for _, field := range fields {
		s.add(field)
	}
	return s
}

// Name returns the schema name.
func (s *Schema) Name() string { return s.name }

// Title returns the display title, falling back to the name.
func (s *Schema) Title() string {
	if s.title != "" {
		return s.title
	}
	return s.name
}

// SetTitle sets the display title.
func (s *Schema) SetTitle(title string) { s.title = title }

// Add appends a field, rejecting duplicates.
func (s *Schema) Add(field Field) error {
	if field == nil || field.Name() == "" {
		return fmt.Errorf("schema %q: field name is required", s.name)
	}
	if _, exists := s.index[field.Name()]; exists {
		return fmt.Errorf("schema %q: duplicate field %q", s.name, field.Name())
	}
	s.add(field)
	return nil
}

func (s *Schema) add(field Field) {
	if field == nil {
		return
	}
	if idx, exists := s.index[field.Name()]; exists {
		s.fields[idx] = field
		return
	}
	s.index[field.Name()] = len(s.fields)
	s.fields = append(s.fields, field)
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// FieldNamesInOrder returns field names in declaration order.
func (s *Schema) FieldNamesInOrder() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, field := range s.fields {
		names[i] = field.Name()
	}
	return names
}

// Lookup finds a field by name.
func (s *Schema) Lookup(name string) (Field, bool) {
	if s == nil {
		return nil, false
	}
	idx, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.fields[idx], true
}

// Subset returns the named fields in the requested order. Unknown names
// produce an error; an empty names slice selects every field.
func (s *Schema) Subset(names []string) ([]Field, error) {
	if len(names) == 0 {
		return s.Fields(), nil
	}
	out := make([]Field, 0, len(names))
	for _, name := range names {
		field, ok := s.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("schema %q: unknown field %q", s.name, name)
		}
		out = append(out, field)
	}
	return out, nil
}
