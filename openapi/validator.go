package openapi

import (
	"encoding/json"
	"fmt"
	"math"
	"net/mail"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ErrorDetail is a single structural mismatch between a value and a schema.
// Path is a JSON pointer into the value; the root is "".
type ErrorDetail struct {
	Path    string
	Message string
}

// String renders the detail as "path: message".
func (e ErrorDetail) String() string {
	path := e.Path
	if path == "" {
		path = "/"
	}
	return path + ": " + e.Message
}

// Validator checks a value against a schema and returns every mismatch.
// An empty result means the value is valid.
type Validator interface {
	Validate(schema *Schema, value any) []ErrorDetail
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(schema *Schema, value any) []ErrorDetail

// Validate implements Validator.
func (f ValidatorFunc) Validate(schema *Schema, value any) []ErrorDetail {
	return f(schema, value)
}

// SchemaValidator implements the structural subset of JSON Schema needed to
// check examples: types, nullability, string/number/array/object
// constraints, enum, const, composition keywords and common formats.
// Schemas that only carry a $ref are not followed.
type SchemaValidator struct {
	patterns sync.Map // pattern -> *regexp.Regexp
}

// NewSchemaValidator creates a SchemaValidator.
func NewSchemaValidator() *SchemaValidator {
	return &SchemaValidator{}
}

var _ Validator = (*SchemaValidator)(nil)

// Validate implements Validator. The value is normalized through
// encoding/json first, so Go structs validate like their wire form.
func (v *SchemaValidator) Validate(schema *Schema, value any) []ErrorDetail {
	if schema == nil {
		return nil
	}
	normalized, err := normalizeJSON(value)
	if err != nil {
		return []ErrorDetail{{Message: fmt.Sprintf("value is not JSON-encodable: %v", err)}}
	}
	return v.validate(normalized, schema, "")
}

func (v *SchemaValidator) validate(data any, schema *Schema, path string) []ErrorDetail {
	if schema == nil {
		return nil
	}

	if data == nil {
		if schema.Type.IsEmpty() || schema.Nullable || schema.Type.Has("null") {
			return nil
		}
		return []ErrorDetail{{Path: path, Message: "value cannot be null"}}
	}

	var errs []ErrorDetail

	if typeErr := v.validateType(data, schema, path); typeErr != nil {
		return append(errs, *typeErr)
	}

	switch d := data.(type) {
	case string:
		errs = append(errs, v.validateString(d, schema, path)...)
	case float64:
		errs = append(errs, v.validateNumber(d, schema, path)...)
	case []any:
		errs = append(errs, v.validateArray(d, schema, path)...)
	case map[string]any:
		errs = append(errs, v.validateObject(d, schema, path)...)
	}

	if len(schema.Enum) > 0 && !containsJSON(schema.Enum, data) {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v is not one of the allowed values", data)})
	}
	if schema.Const != nil && !equalJSON(schema.Const, data) {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v does not equal const %v", data, schema.Const)})
	}

	errs = append(errs, v.validateComposition(data, schema, path)...)
	return errs
}

func (v *SchemaValidator) validateType(data any, schema *Schema, path string) *ErrorDetail {
	types := schema.Type.Values()
	if len(types) == 0 {
		return nil
	}

	got := jsonType(data)
	for _, want := range types {
		if want == got || (want == "number" && got == "integer") {
			return nil
		}
	}
	return &ErrorDetail{
		Path:    path,
		Message: fmt.Sprintf("expected type %s but got %s", strings.Join(types, " or "), got),
	}
}

func (v *SchemaValidator) validateString(s string, schema *Schema, path string) []ErrorDetail {
	var errs []ErrorDetail
	length := utf8.RuneCountInString(s)

	if schema.MinLength != nil && length < *schema.MinLength {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("string length %d is less than minimum %d", length, *schema.MinLength)})
	}
	if schema.MaxLength != nil && length > *schema.MaxLength {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("string length %d exceeds maximum %d", length, *schema.MaxLength)})
	}
	if schema.Pattern != "" {
		re, err := v.pattern(schema.Pattern)
		switch {
		case err != nil:
			errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("invalid pattern %q: %v", schema.Pattern, err)})
		case !re.MatchString(s):
			errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("string does not match pattern %q", schema.Pattern)})
		}
	}
	if schema.Format != "" {
		if msg := checkFormat(s, schema.Format); msg != "" {
			errs = append(errs, ErrorDetail{Path: path, Message: msg})
		}
	}
	return errs
}

func (v *SchemaValidator) validateNumber(n float64, schema *Schema, path string) []ErrorDetail {
	var errs []ErrorDetail

	if schema.Minimum != nil && n < *schema.Minimum {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v is less than minimum %v", n, *schema.Minimum)})
	}
	if schema.Maximum != nil && n > *schema.Maximum {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v exceeds maximum %v", n, *schema.Maximum)})
	}
	if schema.ExclusiveMinimum != nil && n <= *schema.ExclusiveMinimum {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v must be greater than %v", n, *schema.ExclusiveMinimum)})
	}
	if schema.ExclusiveMaximum != nil && n >= *schema.ExclusiveMaximum {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v must be less than %v", n, *schema.ExclusiveMaximum)})
	}
	if schema.MultipleOf != nil && *schema.MultipleOf != 0 {
		q := n / *schema.MultipleOf
		if math.Abs(q-math.Round(q)) > 1e-9 {
			errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value %v is not a multiple of %v", n, *schema.MultipleOf)})
		}
	}
	return errs
}

func (v *SchemaValidator) validateArray(arr []any, schema *Schema, path string) []ErrorDetail {
	var errs []ErrorDetail

	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("array has %d items, minimum is %d", len(arr), *schema.MinItems)})
	}
	if schema.MaxItems != nil && len(arr) > *schema.MaxItems {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("array has %d items, maximum is %d", len(arr), *schema.MaxItems)})
	}
	if schema.UniqueItems && hasDuplicates(arr) {
		errs = append(errs, ErrorDetail{Path: path, Message: "array items must be unique"})
	}
	if schema.Items != nil {
		for i, item := range arr {
			errs = append(errs, v.validate(item, schema.Items, path+"/"+strconv.Itoa(i))...)
		}
	}
	return errs
}

func (v *SchemaValidator) validateObject(obj map[string]any, schema *Schema, path string) []ErrorDetail {
	var errs []ErrorDetail

	for _, req := range schema.Required {
		if _, ok := obj[req]; !ok {
			errs = append(errs, ErrorDetail{Path: path + "/" + escapePointer(req), Message: fmt.Sprintf("required property %q is missing", req)})
		}
	}
	if schema.MinProperties != nil && len(obj) < *schema.MinProperties {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("object has %d properties, minimum is %d", len(obj), *schema.MinProperties)})
	}
	if schema.MaxProperties != nil && len(obj) > *schema.MaxProperties {
		errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("object has %d properties, maximum is %d", len(obj), *schema.MaxProperties)})
	}

	for _, name := range sortedKeys(obj) {
		propPath := path + "/" + escapePointer(name)
		if prop, ok := schema.Properties[name]; ok {
			errs = append(errs, v.validate(obj[name], prop, propPath)...)
		} else if schema.AdditionalProperties != nil {
			errs = append(errs, v.validate(obj[name], schema.AdditionalProperties, propPath)...)
		}
	}
	return errs
}

func (v *SchemaValidator) validateComposition(data any, schema *Schema, path string) []ErrorDetail {
	var errs []ErrorDetail

	for i, sub := range schema.AllOf {
		if subErrs := v.validate(data, sub, path); len(subErrs) > 0 {
			errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("allOf[%d] validation failed", i)})
			errs = append(errs, subErrs...)
		}
	}

	if len(schema.AnyOf) > 0 {
		matched := false
		for _, sub := range schema.AnyOf {
			if len(v.validate(data, sub, path)) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, ErrorDetail{Path: path, Message: "value does not match any of the anyOf schemas"})
		}
	}

	if len(schema.OneOf) > 0 {
		count := 0
		for _, sub := range schema.OneOf {
			if len(v.validate(data, sub, path)) == 0 {
				count++
			}
		}
		switch {
		case count == 0:
			errs = append(errs, ErrorDetail{Path: path, Message: "value does not match any of the oneOf schemas"})
		case count > 1:
			errs = append(errs, ErrorDetail{Path: path, Message: fmt.Sprintf("value matches %d oneOf schemas, expected exactly 1", count)})
		}
	}

	if schema.Not != nil && len(v.validate(data, schema.Not, path)) == 0 {
		errs = append(errs, ErrorDetail{Path: path, Message: "value must not match the \"not\" schema"})
	}
	return errs
}

func (v *SchemaValidator) pattern(p string) (*regexp.Regexp, error) {
	if cached, ok := v.patterns.Load(p); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, err
	}
	v.patterns.Store(p, re)
	return re, nil
}

// checkFormat returns a mismatch message for known formats. Unknown formats
// are accepted.
func checkFormat(s, format string) string {
	switch format {
	case "uuid":
		if _, err := uuid.Parse(s); err != nil || len(s) != 36 {
			return fmt.Sprintf("%q is not a valid UUID", s)
		}
	case "date":
		if _, err := time.Parse(time.DateOnly, s); err != nil {
			return fmt.Sprintf("%q is not a valid date (expected YYYY-MM-DD)", s)
		}
	case "date-time":
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return fmt.Sprintf("%q is not a valid date-time (expected RFC 3339)", s)
		}
	case "email":
		if addr, err := mail.ParseAddress(s); err != nil || addr.Address != s {
			return fmt.Sprintf("%q is not a valid email address", s)
		}
	case "uri":
		if u, err := url.Parse(s); err != nil || !u.IsAbs() {
			return fmt.Sprintf("%q is not a valid URI", s)
		}
	}
	return ""
}

// normalizeJSON converts a Go value into its generic JSON form
// (map[string]any, []any, float64, string, bool, nil).
func normalizeJSON(value any) (any, error) {
	switch value.(type) {
	case nil, bool, string, float64:
		return value, nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// jsonType returns the JSON Schema type name of a normalized value.
func jsonType(data any) string {
	switch d := data.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		if d == math.Trunc(d) && !math.IsInf(d, 0) {
			return "integer"
		}
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", data)
}

func equalJSON(a, b any) bool {
	na, err := normalizeJSON(a)
	if err != nil {
		return false
	}
	nb, err := normalizeJSON(b)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(na, nb)
}

func containsJSON(values []any, data any) bool {
	for _, allowed := range values {
		if equalJSON(allowed, data) {
			return true
		}
	}
	return false
}

func hasDuplicates(arr []any) bool {
	for i := range arr {
		for j := i + 1; j < len(arr); j++ {
			if reflect.DeepEqual(arr[i], arr[j]) {
				return true
			}
		}
	}
	return false
}

// escapePointer escapes a property name for use in a JSON pointer.
func escapePointer(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}
