package openapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-formbind/pkg/schema"
)

// Vendor extensions read from schemas and properties.
const (
	// KindExtension forces the field kind of a property, e.g. "text" or
	// "ascii".
	KindExtension = "x-formbind-kind"
	// OrderExtension lists property names in display order. Unlisted
	// properties follow in name order.
	OrderExtension = "x-formbind-order"
	// FactoryExtension names the schema.Factory creating values of an
	// object schema.
	FactoryExtension = "x-formbind-factory"
	// WidgetExtension is a rendering hint; "textarea" makes a string
	// property a multi-line text field.
	WidgetExtension = "x-formbind-widget"
)

const componentPrefix = "#/components/schemas/"

// ErrNoSchemas is returned when a document declares no object schemas.
var ErrNoSchemas = errors.New("openapi: document declares no object schemas")

// Form is an operation whose request body is an object schema.
type Form struct {
	ID          string
	Method      string
	Path        string
	Summary     string
	Description string
	// SchemaName is the store key of the request body schema.
	SchemaName string
	Schema     *schema.Schema
}

// Catalog is the result of importing a document.
type Catalog struct {
	Schemas *schema.Store
	Forms   []Form
}

// Form returns the form for an operation id.
func (c *Catalog) Form(id string) (Form, bool) {
	if c == nil {
		return Form{}, false
	}
	for _, f := range c.Forms {
		if f.ID == id {
			return f, true
		}
	}
	return Form{}, false
}

// Importer converts OpenAPI documents into schemas.
type Importer struct {
	logger       logrus.FieldLogger
	validate     bool
	externalRefs bool
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(l logrus.FieldLogger) ImporterOption {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithValidation toggles document validation before import. It is on by
// default.
func WithValidation(enabled bool) ImporterOption {
	return func(i *Importer) { i.validate = enabled }
}

// WithExternalRefs allows $ref pointers to other documents.
func WithExternalRefs(enabled bool) ImporterOption {
	return func(i *Importer) { i.externalRefs = enabled }
}

// NewImporter constructs an importer.
func NewImporter(opts ...ImporterOption) *Importer {
	i := &Importer{logger: logrus.StandardLogger(), validate: true}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Import parses raw as an OpenAPI 3 document, JSON or YAML.
func (i *Importer) Import(ctx context.Context, raw []byte) (*Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi: document payload is empty")
	}
	loader := openapi3.NewLoader()
	loader.Context = ctx
	loader.IsExternalRefsAllowed = i.externalRefs
	doc, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	if i.validate {
		if err := doc.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: validate: %w", err)
		}
	}
	return i.convert(doc)
}

// Load reads src with loader and imports it.
func (i *Importer) Load(ctx context.Context, loader *Loader, src Source) (*Catalog, error) {
	raw, err := loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return i.Import(ctx, raw)
}

type conversion struct {
	logger logrus.FieldLogger
	defs   map[string]schema.SchemaDefinition
	active map[string]bool
}

func (i *Importer) convert(doc *openapi3.T) (*Catalog, error) {
	c := &conversion{
		logger: i.logger,
		defs:   make(map[string]schema.SchemaDefinition),
		active: make(map[string]bool),
	}

	if doc.Components != nil {
		names := make([]string, 0, len(doc.Components.Schemas))
		for name := range doc.Components.Schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := doc.Components.Schemas[name]
			if ref == nil || ref.Value == nil || !isObject(ref.Value) {
				continue
			}
			if err := c.define(name, ref.Value); err != nil {
				return nil, err
			}
		}
	}

	var forms []Form
	if doc.Paths != nil {
		paths := doc.Paths.Map()
		keys := make([]string, 0, len(paths))
		for path := range paths {
			keys = append(keys, path)
		}
		sort.Strings(keys)
		for _, path := range keys {
			item := paths[path]
			if item == nil {
				continue
			}
			ops := item.Operations()
			methods := make([]string, 0, len(ops))
			for method := range ops {
				methods = append(methods, method)
			}
			sort.Strings(methods)
			for _, method := range methods {
				form, ok, err := c.form(method, path, ops[method])
				if err != nil {
					return nil, err
				}
				if ok {
					forms = append(forms, form)
				}
			}
		}
	}

	if len(c.defs) == 0 {
		return nil, ErrNoSchemas
	}
	store, err := schema.Build(c.defs)
	if err != nil {
		return nil, fmt.Errorf("openapi: build schemas: %w", err)
	}
	for idx := range forms {
		forms[idx].Schema, _ = store.Schema(forms[idx].SchemaName)
	}
	c.logger.WithFields(logrus.Fields{
		"schemas": len(store.Names()),
		"forms":   len(forms),
	}).Debug("openapi: document imported")
	return &Catalog{Schemas: store, Forms: forms}, nil
}

func (c *conversion) form(method, path string, op *openapi3.Operation) (Form, bool, error) {
	if op == nil || op.RequestBody == nil || op.RequestBody.Value == nil {
		return Form{}, false, nil
	}
	body := requestSchema(op.RequestBody.Value.Content)
	if body == nil || body.Value == nil || !isObject(body.Value) {
		return Form{}, false, nil
	}
	id := op.OperationID
	if id == "" {
		id = strings.ToLower(method) + ":" + path
	}
	name, ok := componentName(body.Ref)
	if !ok {
		name = id
		if err := c.define(name, body.Value); err != nil {
			return Form{}, false, err
		}
	}
	return Form{
		ID:          id,
		Method:      strings.ToUpper(method),
		Path:        path,
		Summary:     op.Summary,
		Description: op.Description,
		SchemaName:  name,
	}, true, nil
}

func requestSchema(content openapi3.Content) *openapi3.SchemaRef {
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt != nil {
			return mt.Schema
		}
	}
	keys := make([]string, 0, len(content))
	for key := range content {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if mt := content[key]; mt != nil && mt.Schema != nil {
			return mt.Schema
		}
	}
	return nil
}

// define adds the object schema s under name, together with any inline
// object schemas among its properties.
func (c *conversion) define(name string, s *openapi3.Schema) error {
	if _, exists := c.defs[name]; exists {
		return nil
	}
	c.active[name] = true
	defer delete(c.active, name)
	c.defs[name] = schema.SchemaDefinition{Title: s.Title}

	props, required := flatten(s)
	fields := make([]schema.FieldDefinition, 0, len(props))
	for _, prop := range order(s, props) {
		def, ok, err := c.field(name, prop, props[prop], required[prop])
		if err != nil {
			return fmt.Errorf("openapi: schema %q property %q: %w", name, prop, err)
		}
		if ok {
			fields = append(fields, def)
		}
	}
	c.defs[name] = schema.SchemaDefinition{Title: s.Title, Fields: fields}
	return nil
}

func (c *conversion) field(owner, name string, ref *openapi3.SchemaRef, required bool) (schema.FieldDefinition, bool, error) {
	if ref == nil || ref.Value == nil {
		c.logger.WithFields(logrus.Fields{"schema": owner, "property": name}).Warn("openapi: unresolved property skipped")
		return schema.FieldDefinition{}, false, nil
	}
	s := ref.Value
	kind, ok := kindOf(s)
	if !ok {
		c.logger.WithFields(logrus.Fields{"schema": owner, "property": name, "type": typeOf(s)}).
			Warn("openapi: unsupported property type skipped")
		return schema.FieldDefinition{}, false, nil
	}
	req := required && !s.Nullable
	def := schema.FieldDefinition{
		Name:        name,
		Type:        string(kind),
		Title:       s.Title,
		Description: s.Description,
		Required:    &req,
		Readonly:    s.ReadOnly,
		Default:     s.Default,
	}

	switch kind {
	case schema.KindInt, schema.KindFloat:
		if s.Min != nil {
			def.Min = *s.Min
		}
		if s.Max != nil {
			def.Max = *s.Max
		}
	case schema.KindChoice:
		def.Values = enumValues(s)
	case schema.KindList, schema.KindSet:
		def.MinLength, def.MaxLength = bounds(s.MinItems, s.MaxItems)
		item, ok, err := c.field(owner, "", s.Items, true)
		if err != nil {
			return def, false, err
		}
		if !ok {
			return def, false, nil
		}
		def.ValueType = &item
	case schema.KindObject:
		nested, isRef := componentName(ref.Ref)
		if !isRef {
			nested = owner + "." + name
			if name == "" {
				nested = owner + ".item"
			}
		}
		// Object widgets nest their sub-widgets eagerly, so a schema
		// cannot contain itself.
		if c.active[nested] {
			c.logger.WithFields(logrus.Fields{"schema": owner, "property": name, "ref": nested}).
				Warn("openapi: recursive property skipped")
			return def, false, nil
		}
		if err := c.define(nested, s); err != nil {
			return def, false, err
		}
		def.Schema = nested
		def.Factory = extString(s.Extensions, FactoryExtension)
	default:
		def.MinLength, def.MaxLength = bounds(s.MinLength, s.MaxLength)
	}
	return def, true, nil
}

// flatten merges allOf members into the properties and required set of s.
func flatten(s *openapi3.Schema) (openapi3.Schemas, map[string]bool) {
	props := make(openapi3.Schemas)
	required := make(map[string]bool)
	var walk func(*openapi3.Schema)
	walk = func(node *openapi3.Schema) {
		for _, part := range node.AllOf {
			if part != nil && part.Value != nil {
				walk(part.Value)
			}
		}
		for key, value := range node.Properties {
			props[key] = value
		}
		for _, key := range node.Required {
			required[key] = true
		}
	}
	walk(s)
	return props, required
}

func order(s *openapi3.Schema, props openapi3.Schemas) []string {
	var out []string
	seen := make(map[string]bool, len(props))
	if listed, ok := s.Extensions[OrderExtension].([]any); ok {
		for _, entry := range listed {
			name, ok := entry.(string)
			if !ok || seen[name] {
				continue
			}
			if _, exists := props[name]; exists {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	rest := make([]string, 0, len(props))
	for name := range props {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func kindOf(s *openapi3.Schema) (schema.Kind, bool) {
	if forced := extString(s.Extensions, KindExtension); forced != "" {
		return schema.Kind(strings.ToLower(forced)), true
	}
	typ := typeOf(s)
	if len(s.Enum) > 0 && typ != "array" && typ != "object" {
		return schema.KindChoice, true
	}
	switch typ {
	case "string":
		switch s.Format {
		case "date-time":
			return schema.KindDatetime, true
		case "date":
			return schema.KindDate, true
		case "password":
			return schema.KindPassword, true
		case "binary":
			return schema.KindFile, true
		case "byte":
			return schema.KindBytesLine, true
		}
		if extString(s.Extensions, WidgetExtension) == "textarea" {
			return schema.KindText, true
		}
		return schema.KindTextLine, true
	case "integer":
		return schema.KindInt, true
	case "number":
		return schema.KindFloat, true
	case "boolean":
		return schema.KindBool, true
	case "array":
		if s.UniqueItems {
			return schema.KindSet, true
		}
		return schema.KindList, true
	case "object", "":
		if isObject(s) {
			return schema.KindObject, true
		}
	}
	return "", false
}

func typeOf(s *openapi3.Schema) string {
	if s.Type == nil {
		return ""
	}
	for _, typ := range s.Type.Slice() {
		if typ != "null" {
			return typ
		}
	}
	return ""
}

func isObject(s *openapi3.Schema) bool {
	typ := typeOf(s)
	if typ != "" && typ != "object" {
		return false
	}
	props, _ := flatten(s)
	return len(props) > 0
}

func enumValues(s *openapi3.Schema) []any {
	values := make([]any, 0, len(s.Enum))
	integer := typeOf(s) == "integer"
	for _, value := range s.Enum {
		if f, ok := value.(float64); ok && integer && f == math.Trunc(f) {
			value = int64(f)
		}
		values = append(values, value)
	}
	return values
}

func bounds(min uint64, max *uint64) (*int, *int) {
	var lo, hi *int
	if min > 0 {
		v := int(min)
		lo = &v
	}
	if max != nil {
		v := int(*max)
		hi = &v
	}
	return lo, hi
}

func componentName(ref string) (string, bool) {
	name, ok := strings.CutPrefix(ref, componentPrefix)
	return name, ok && name != ""
}

func extString(ext map[string]any, key string) string {
	value, _ := ext[key].(string)
	return strings.TrimSpace(value)
}
