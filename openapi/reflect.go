package openapi

import (
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Exampler can be implemented by types to provide an example value for the
// reflected schema.
//
//	func (u User) OpenAPIExample() any {
//	    return User{ID: "550e8400-e29b-41d4-a716-446655440000", Name: "Alice"}
//	}
//
// See: https://json-schema.org/draft/2020-12/json-schema-validation#section-9.5
type Exampler interface {
	OpenAPIExample() any
}

// Reflector derives schemas from Go types. Each named struct type maps to
// exactly one *Schema whose ID is the type name, so a type used by several
// routes is registered once and nested named types are extracted into their
// own components.
//
// See: https://spec.openapis.org/oas/v3.1.0#schema-object
type Reflector struct {
	mu        sync.Mutex
	types     map[reflect.Type]*Schema
	building  map[reflect.Type]bool
	typeNames map[reflect.Type]string // type -> chosen schema name
	nameTypes map[string]reflect.Type // schema name -> type that claimed it
}

// NewReflector creates a reflector with an empty type cache.
func NewReflector() *Reflector {
	return &Reflector{
		types:     make(map[reflect.Type]*Schema),
		building:  make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

var defaultReflector = NewReflector()

// SchemaOf returns the schema of v's type from a process-wide cache, so
// schemas declared in different packages share one *Schema per type. The
// cache holds schemas only; builder configuration is never global. Use a
// Reflector of your own for an isolated cache. Safe for concurrent use.
func SchemaOf(v any) *Schema {
	return defaultReflector.Reflect(v)
}

// Reflect returns the schema of v's type. A top-level pointer is unwrapped
// without making the schema nullable.
func (r *Reflector) Reflect(v any) *Schema {
	if v == nil {
		return nil
	}
	return r.ReflectType(reflect.TypeOf(v))
}

// ReflectType returns the schema of t.
func (r *Reflector) ReflectType(t reflect.Type) *Schema {
	r.mu.Lock()
	defer r.mu.Unlock()

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return r.schemaFor(t)
}

func (r *Reflector) schemaFor(t reflect.Type) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{}) {
		if name := r.schemaName(t); name != "" {
			s := r.namedStruct(t, name)
			if nullable {
				return &Schema{AnyOf: []*Schema{s, {Type: TypeString("null")}}}
			}
			return s
		}
	}

	s := r.inline(t)
	if nullable && s != nil {
		applyNullable(s)
	}
	return s
}

// namedStruct returns the shared schema of a named struct type. A type that
// refers to itself gets a $ref back to its component instead of a cycle.
func (r *Reflector) namedStruct(t reflect.Type, name string) *Schema {
	if s, ok := r.types[t]; ok {
		return s
	}
	if r.building[t] {
		return &Schema{Ref: componentRef(name)}
	}

	r.building[t] = true
	s := r.structSchema(t)
	delete(r.building, t)

	s.ID = name
	if ex, ok := reflect.New(t).Interface().(Exampler); ok {
		s.Example = ex.OpenAPIExample()
	}
	r.types[t] = s
	return s
}

// inline maps Go primitive and composite types to schemas.
//
// See: https://spec.openapis.org/oas/v3.1.0#data-types
func (r *Reflector) inline(t reflect.Type) *Schema {
	if t == reflect.TypeOf(time.Time{}) {
		return &Schema{Type: TypeString("string"), Format: "date-time"}
	}

	switch t.Kind() {
	case reflect.Bool:
		return &Schema{Type: TypeString("boolean")}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: TypeString("integer")}

	case reflect.Float32, reflect.Float64:
		return &Schema{Type: TypeString("number")}

	case reflect.String:
		return &Schema{Type: TypeString("string")}

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return &Schema{Type: TypeString("string"), Format: "byte"}
		}
		return &Schema{Type: TypeString("array"), Items: r.schemaFor(t.Elem())}

	case reflect.Array:
		return &Schema{Type: TypeString("array"), Items: r.schemaFor(t.Elem())}

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return &Schema{Type: TypeString("object")}
		}
		return &Schema{Type: TypeString("object"), AdditionalProperties: r.schemaFor(t.Elem())}

	case reflect.Struct:
		return r.structSchema(t)

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

// structSchema builds an object schema from exported struct fields.
func (r *Reflector) structSchema(t reflect.Type) *Schema {
	s := &Schema{
		Type:       TypeString("object"),
		Properties: make(map[string]*Schema),
	}
	r.collectFields(t, s, false)
	if len(s.Properties) == 0 {
		s.Properties = nil
	}
	return s
}

// collectFields adds the fields of t to s. Embedded structs without a json
// name are inlined. Behind a pointer all their fields become optional.
func (r *Reflector) collectFields(t reflect.Type, s *Schema, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		// encoding/json promotes the fields of embedded structs, even
		// unexported ones, unless they sit behind an unexported pointer.
		if field.Anonymous {
			if jsonName, _ := parseJSONTag(field.Tag.Get("json")); jsonName == "" {
				ft := field.Type
				isPtr := ft.Kind() == reflect.Pointer
				if isPtr {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					if !isPtr || field.IsExported() {
						r.collectFields(ft, s, allOptional || isPtr)
					}
					continue
				}
			}
		}
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}
		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fs := r.schemaFor(field.Type)
		if fs == nil {
			continue
		}

		if tag := field.Tag.Get("openapi"); tag != "" {
			// Shared component schemas are never mutated by a field tag.
			if fs.ID != "" || len(fs.AnyOf) > 0 || fs.Ref != "" {
				fs = &Schema{AllOf: []*Schema{fs}}
			}
			applyOpenAPITag(fs, tag)
		}
		if opts.stringEncode && fs.ID == "" && fs.Ref == "" && len(fs.AnyOf) == 0 && len(fs.AllOf) == 0 {
			applyStringEncoding(fs)
		}

		s.Properties[name] = fs
		if !opts.omitempty && !allOptional {
			s.Required = append(s.Required, name)
		}
	}
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applyOpenAPITag applies the comma-separated `openapi` struct tag, e.g.
// `openapi:"description=User name,minLength=1,maxLength=64"`.
//
// See: https://json-schema.org/draft/2020-12/json-schema-validation
func applyOpenAPITag(s *Schema, tag string) {
	for part := range strings.SplitSeq(tag, ",") {
		key, value, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "description":
			s.Description = value
		case "title":
			s.Title = value
		case "example":
			s.Example = parseTagValue(s, value)
		case "const":
			s.Const = parseTagValue(s, value)
		case "format":
			s.Format = value
		case "pattern":
			s.Pattern = value
		case "enum":
			values := strings.Split(value, "|")
			s.Enum = make([]any, len(values))
			for i, v := range values {
				s.Enum[i] = parseTagValue(s, v)
			}
		case "minimum":
			s.Minimum = parseFloat(value)
		case "maximum":
			s.Maximum = parseFloat(value)
		case "exclusiveMinimum":
			s.ExclusiveMinimum = parseFloat(value)
		case "exclusiveMaximum":
			s.ExclusiveMaximum = parseFloat(value)
		case "multipleOf":
			s.MultipleOf = parseFloat(value)
		case "minLength":
			s.MinLength = parseInt(value)
		case "maxLength":
			s.MaxLength = parseInt(value)
		case "minItems":
			s.MinItems = parseInt(value)
		case "maxItems":
			s.MaxItems = parseInt(value)
		case "minProperties":
			s.MinProperties = parseInt(value)
		case "maxProperties":
			s.MaxProperties = parseInt(value)
		case "uniqueItems":
			s.UniqueItems = true
		case "deprecated":
			s.Deprecated = true
		case "readOnly":
			s.ReadOnly = true
		case "writeOnly":
			s.WriteOnly = true
		case "nullable":
			s.Nullable = true
		}
	}
}

func parseFloat(value string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseInt(value string) *int {
	v, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}
	return &v
}

// parseTagValue converts a tag value to the Go type matching the schema
// type, falling back to the raw string.
func parseTagValue(s *Schema, value string) any {
	types := s.Type.Values()
	if len(types) == 0 {
		return value
	}

	switch types[0] {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique component name for a named type. A second
// type with the same simple name from another package is prefixed with its
// package name ("ApiUser"), then numbered if that still collides.
func (r *Reflector) schemaName(t reflect.Type) string {
	simple := sanitizeSchemaName(t.Name())
	if simple == "" || t.PkgPath() == "" {
		return ""
	}
	if name, ok := r.typeNames[t]; ok {
		return name
	}

	name := simple
	if existing, ok := r.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := r.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := r.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	r.typeNames[t] = name
	r.nameTypes[name] = t
	return name
}

// pkgPrefix capitalizes the last segment of a package path ("net/http" ->
// "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if pkgPath == "" {
		return ""
	}
	pkgPath = strings.NewReplacer("-", "_", ".", "_").Replace(pkgPath)
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName turns generic instantiation names into component keys:
// "Page[pkg.User]" becomes "PageUser" and "Page[[]pkg.User]" becomes
// "PageUserList".
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}

	base := name[:idx]
	inner := name[idx+1 : len(name)-1]

	isList := strings.HasPrefix(inner, "[]")
	inner = strings.TrimPrefix(inner, "[]")
	if dot := strings.LastIndexByte(inner, '.'); dot >= 0 {
		inner = inner[dot+1:]
	}

	result := base + inner
	if isList {
		result += "List"
	}
	return result
}

// applyNullable adds "null" to the type of an inline schema.
func applyNullable(s *Schema) {
	if s.Ref != "" {
		return
	}
	if types := s.Type.Values(); len(types) > 0 {
		s.Type = TypeArray(append(types, "null")...)
	}
}

// applyStringEncoding matches the encoding/json ",string" option, which
// writes numbers and booleans as JSON strings.
func applyStringEncoding(s *Schema) {
	types := s.Type.Values()
	if len(types) == 0 {
		return
	}
	if s.Type.Has("null") {
		s.Type = TypeArray("string", "null")
		return
	}
	s.Type = TypeString("string")
}
