package openapi

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// pathTokenRegexp matches route parameters in the form :name.
var pathTokenRegexp = regexp.MustCompile(`:(\w+)`)

// TranslatePath converts ":name" tokens to OpenAPI "{name}" templates.
// Paths without tokens are returned unchanged.
//
// See: https://spec.openapis.org/oas/v3.1.0#path-templating
func TranslatePath(path string) string {
	return pathTokenRegexp.ReplaceAllString(path, "{$1}")
}

// PathParameters derives the path parameters of a route path, left to right.
// When params declares a matching property its schema and description are
// used, otherwise the parameter is an unconstrained string. Path parameters
// are always required, whatever params says.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-object
func PathParameters(path string, params *Schema) []*Parameter {
	matches := pathTokenRegexp.FindAllStringSubmatch(path, -1)
	if len(matches) == 0 {
		return nil
	}

	out := make([]*Parameter, 0, len(matches))
	for _, m := range matches {
		name := m[1]
		param := &Parameter{
			Name:     name,
			In:       "path",
			Required: true,
			Schema:   &Schema{Type: TypeString("string")},
		}
		if params != nil {
			if prop, ok := params.Properties[name]; ok && prop != nil {
				param.Schema = prop
				param.Description = prop.Description
			}
		}
		out = append(out, param)
	}
	return out
}

// checkPathTemplate reports why a route path cannot be translated.
func checkPathTemplate(path string) error {
	if path == "" || path[0] != '/' {
		return errors.New("path must start with \"/\"")
	}
	if strings.ContainsAny(path, "{} \t\r\n?#") {
		return errors.New("path must not contain braces, whitespace, query or fragment")
	}

	// Every ':' must open a named token.
	stripped := pathTokenRegexp.ReplaceAllString(path, "")
	if strings.Contains(stripped, ":") {
		return errors.New("path contains an unnamed \":\" parameter")
	}

	seen := make(map[string]bool)
	for _, m := range pathTokenRegexp.FindAllStringSubmatch(path, -1) {
		if seen[m[1]] {
			return fmt.Errorf("duplicate path parameter %q", m[1])
		}
		seen[m[1]] = true
	}
	return nil
}

// joinPath concatenates a controller prefix and a route path.
func joinPath(prefix, path string) string {
	if prefix == "" {
		return path
	}
	prefix = strings.TrimRight(prefix, "/")
	if path == "/" {
		if prefix == "" {
			return "/"
		}
		return prefix
	}
	return prefix + path
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
