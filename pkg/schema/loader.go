package schema

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Store holds schemas loaded from schema documents, keyed by name.
type Store struct {
	schemas map[string]*Schema
}

// Schema returns the named schema.
func (s *Store) Schema(name string) (*Schema, bool) {
	if s == nil {
		return nil, false
	}
	sc, ok := s.schemas[name]
	return sc, ok
}

// Names returns the loaded schema names sorted.
func (s *Store) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.schemas))
	for name := range s.schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type documentFile struct {
	Schemas map[string]SchemaDefinition `json:"schemas" yaml:"schemas"`
}

// SchemaDefinition is the document form of a schema.
type SchemaDefinition struct {
	Title  string            `json:"title" yaml:"title"`
	Fields []FieldDefinition `json:"fields" yaml:"fields"`
}

// TermDefinition is the document form of a vocabulary term.
type TermDefinition struct {
	Value any    `json:"value" yaml:"value"`
	Token string `json:"token" yaml:"token"`
	Title string `json:"title" yaml:"title"`
}

// FieldDefinition is the document form of a field. Type holds the field
// kind; object fields name their nested schema in Schema.
type FieldDefinition struct {
	Name        string           `json:"name" yaml:"name"`
	Type        string           `json:"type" yaml:"type"`
	Title       string           `json:"title" yaml:"title"`
	Description string           `json:"description" yaml:"description"`
	Required    *bool            `json:"required" yaml:"required"`
	Readonly    bool             `json:"readonly" yaml:"readonly"`
	Default     any              `json:"default" yaml:"default"`
	Missing     any              `json:"missing" yaml:"missing"`
	MinLength   *int             `json:"minLength" yaml:"minLength"`
	MaxLength   *int             `json:"maxLength" yaml:"maxLength"`
	Min         any              `json:"min" yaml:"min"`
	Max         any              `json:"max" yaml:"max"`
	Unique      bool             `json:"unique" yaml:"unique"`
	Values      []any            `json:"values" yaml:"values"`
	Terms       []TermDefinition `json:"terms" yaml:"terms"`
	ValueType   *FieldDefinition `json:"valueType" yaml:"valueType"`
	Schema      string           `json:"schema" yaml:"schema"`
	Factory     string           `json:"factory" yaml:"factory"`
	Getter      string           `json:"getter" yaml:"getter"`
	Setter      string           `json:"setter" yaml:"setter"`
}

// LoadFS walks fsys and parses every JSON or YAML schema document. Object
// fields may reference schemas declared in any file.
func LoadFS(fsys fs.FS) (*Store, error) {
	raw := make(map[string]SchemaDefinition)
	sources := make(map[string]string)
	if fsys == nil {
		return &Store{schemas: map[string]*Schema{}}, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		for name, sc := range doc.Schemas {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("schema: file %s defines an empty schema name", path)
			}
			if prev, exists := sources[name]; exists {
				return fmt.Errorf("schema: duplicate schema %q (files %s and %s)", name, prev, path)
			}
			sources[name] = path
			raw[name] = sc
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return build(raw)
}

// Parse reads a single JSON or YAML schema document.
func Parse(data []byte, source string) (*Store, error) {
	doc, err := parseDocument(data, source)
	if err != nil {
		return nil, err
	}
	return build(doc.Schemas)
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("schema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// Build turns schema definitions into schemas. Object fields may reference
// any definition by name, including their own.
func Build(defs map[string]SchemaDefinition) (*Store, error) {
	return build(defs)
}

func build(raw map[string]SchemaDefinition) (*Store, error) {
	store := &Store{schemas: make(map[string]*Schema, len(raw))}
	// Shells first so object fields can reference any schema, including
	// themselves.
	for name, sc := range raw {
		shell := New(name)
		shell.SetTitle(sc.Title)
		store.schemas[name] = shell
	}
	for name, sc := range raw {
		target := store.schemas[name]
		for idx, def := range sc.Fields {
			field, err := buildField(def, store)
			if err != nil {
				return nil, fmt.Errorf("schema %q field %d: %w", name, idx, err)
			}
			if err := target.Add(field); err != nil {
				return nil, err
			}
		}
	}
	return store, nil
}

func buildField(def FieldDefinition, store *Store) (Field, error) {
	name := strings.TrimSpace(def.Name)
	kind := Kind(strings.ToLower(strings.TrimSpace(def.Type)))
	if kind == "" {
		kind = KindTextLine
	}

	opts := []Option{
		Title(def.Title),
		Description(def.Description),
	}
	if def.Required != nil {
		opts = append(opts, Required(*def.Required))
	}
	if def.Readonly {
		opts = append(opts, Readonly())
	}
	if def.Missing != nil {
		opts = append(opts, Missing(def.Missing))
	}
	if def.MinLength != nil {
		opts = append(opts, MinLength(*def.MinLength))
	}
	if def.MaxLength != nil {
		opts = append(opts, MaxLength(*def.MaxLength))
	}
	if def.Unique {
		opts = append(opts, Unique())
	}
	if def.Getter != "" || def.Setter != "" {
		opts = append(opts, Accessors(def.Getter, def.Setter))
	}
	bounds, err := boundOptions(kind, def)
	if err != nil {
		return nil, err
	}
	opts = append(opts, bounds...)
	if def.Default != nil {
		value, err := coerceLiteral(kind, def.Default)
		if err != nil {
			return nil, fmt.Errorf("default: %w", err)
		}
		opts = append(opts, Default(value))
	}

	switch kind {
	case KindText:
		return NewText(name, opts...), nil
	case KindTextLine:
		return NewTextLine(name, opts...), nil
	case KindPassword:
		return NewPassword(name, opts...), nil
	case KindASCII:
		return NewASCII(name, opts...), nil
	case KindBytes:
		return NewBytes(name, opts...), nil
	case KindBytesLine:
		return NewBytesLine(name, opts...), nil
	case KindFile:
		return NewFile(name, opts...), nil
	case KindInt:
		return NewInt(name, opts...), nil
	case KindFloat:
		return NewFloat(name, opts...), nil
	case KindBool:
		return NewBool(name, opts...), nil
	case KindDatetime:
		return NewDatetime(name, opts...), nil
	case KindDate:
		return NewDate(name, opts...), nil
	case KindChoice:
		vocab, err := buildVocabulary(def)
		if err != nil {
			return nil, err
		}
		return NewChoice(name, vocab, opts...), nil
	case KindList, KindTuple, KindSet:
		var valueType Field
		if def.ValueType != nil {
			valueType, err = buildField(*def.ValueType, store)
			if err != nil {
				return nil, fmt.Errorf("value type: %w", err)
			}
		}
		switch kind {
		case KindList:
			return NewList(name, valueType, opts...), nil
		case KindTuple:
			return NewTuple(name, valueType, opts...), nil
		}
		return NewSet(name, valueType, opts...), nil
	case KindObject:
		nested, ok := store.Schema(strings.TrimSpace(def.Schema))
		if !ok {
			return nil, fmt.Errorf("object field %q references unknown schema %q", name, def.Schema)
		}
		return NewObject(name, nested, opts...).WithFactoryID(def.Factory), nil
	}
	return nil, fmt.Errorf("unsupported field type %q", def.Type)
}

func buildVocabulary(def FieldDefinition) (Vocabulary, error) {
	if len(def.Terms) > 0 {
		terms := make([]Term, 0, len(def.Terms))
		for _, t := range def.Terms {
			terms = append(terms, Term{Value: t.Value, Token: t.Token, Title: t.Title})
		}
		return NewSimpleVocabulary(terms...)
	}
	return VocabularyFromValues(def.Values...), nil
}

func boundOptions(kind Kind, def FieldDefinition) ([]Option, error) {
	var opts []Option
	if def.Min != nil {
		value, err := coerceLiteral(kind, def.Min)
		if err != nil {
			return nil, fmt.Errorf("min: %w", err)
		}
		opts = append(opts, Min(value))
	}
	if def.Max != nil {
		value, err := coerceLiteral(kind, def.Max)
		if err != nil {
			return nil, fmt.Errorf("max: %w", err)
		}
		opts = append(opts, Max(value))
	}
	return opts, nil
}

// coerceLiteral converts decoded JSON/YAML scalars into the Go type the field
// kind validates against.
func coerceLiteral(kind Kind, value any) (any, error) {
	switch kind {
	case KindInt:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case uint64:
			return int64(v), nil
		case float64:
			return int64(v), nil
		}
	case KindFloat:
		if isNumber(value) {
			return toFloat(value), nil
		}
	case KindDatetime, KindDate:
		switch v := value.(type) {
		case time.Time:
			return v, nil
		case string:
			layout := time.RFC3339
			if kind == KindDate {
				layout = time.DateOnly
			}
			parsed, err := time.Parse(layout, v)
			if err != nil {
				return nil, err
			}
			return parsed, nil
		}
	case KindBytes, KindBytesLine, KindFile:
		if s, ok := value.(string); ok {
			return []byte(s), nil
		}
	default:
		return value, nil
	}
	return nil, fmt.Errorf("cannot use %T as %s", value, kind)
}
