package openapi

import (
	"fmt"
	"strings"
)

// supportedMethods lists the HTTP methods a route may declare, in the order
// operations are reported.
var supportedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// AuthLevel flags the authentication requirement of a route. It is metadata
// only: the builder never implements an authentication protocol.
type AuthLevel string

const (
	// AuthNone marks a public route. The zero value behaves the same way.
	AuthNone AuthLevel = "none"
	// AuthOptional marks a route that accepts but does not require credentials.
	AuthOptional AuthLevel = "optional"
	// AuthRequired marks a route that requires credentials.
	AuthRequired AuthLevel = "required"
)

func (a AuthLevel) valid() bool {
	switch a {
	case "", AuthNone, AuthOptional, AuthRequired:
		return true
	}
	return false
}

// RouteConfig holds the descriptive and validation metadata of a route.
type RouteConfig struct {
	Summary     string
	Description string
	// OperationID overrides the route name used as the default operationId.
	OperationID string
	Deprecated  bool
	Auth        AuthLevel

	// Body is the application/json request body schema.
	Body *Schema
	// Query is an object schema; each property becomes a query parameter.
	Query *Schema
	// Params is an object schema describing path parameters.
	Params *Schema
}

// HeaderDef describes a response header.
type HeaderDef struct {
	Description string
	Schema      *Schema
	Required    bool
}

// ExampleDef is a named example value.
type ExampleDef struct {
	Value   any
	Summary string
}

// ResponseDef is the declared contract for one response status.
// A nil Schema produces a response without content.
type ResponseDef struct {
	Schema      *Schema
	Description string
	Headers     map[string]HeaderDef
	// Example is a single example value; nil means no example.
	Example  any
	Examples map[string]ExampleDef
}

// Route is one HTTP method + path with its validation and response contract.
// Path parameters are written as ":name" tokens.
type Route struct {
	Method    string
	Path      string
	Config    RouteConfig
	Responses map[int]*ResponseDef
}

// NewRoute parses a route definition of the form "METHOD /path/:param".
// Unparseable definitions return an error wrapping ErrInvalidRoute.
func NewRoute(def string, cfg RouteConfig) (*Route, error) {
	fields := strings.Fields(def)
	if len(fields) != 2 {
		return nil, &BuilderError{
			Component: ComponentRoute,
			Message:   fmt.Sprintf("route %q must have the form \"METHOD /path\"", def),
			Cause:     ErrInvalidRoute,
		}
	}

	r := &Route{
		Method: strings.ToUpper(fields[0]),
		Path:   fields[1],
		Config: cfg,
	}
	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// MustRoute is like NewRoute but panics on error. It is intended for
// package-level route tables.
func MustRoute(def string, cfg RouteConfig) *Route {
	r, err := NewRoute(def, cfg)
	if err != nil {
		panic(err)
	}
	return r
}

// Respond declares the response for a status code, replacing any previous one.
func (r *Route) Respond(status int, resp *ResponseDef) *Route {
	if r.Responses == nil {
		r.Responses = make(map[int]*ResponseDef)
	}
	if resp == nil {
		resp = &ResponseDef{}
	}
	r.Responses[status] = resp
	return r
}

// RespondWith declares a response carrying only a schema.
func (r *Route) RespondWith(status int, schema *Schema) *Route {
	return r.Respond(status, &ResponseDef{Schema: schema})
}

// RespondEmpty declares a response without content (e.g. 204).
func (r *Route) RespondEmpty(status int) *Route {
	return r.Respond(status, &ResponseDef{})
}

// validate checks the method, the path template and the auth level.
func (r *Route) validate() error {
	if !isSupportedMethod(r.Method) {
		return &BuilderError{
			Component: ComponentRoute,
			Method:    r.Method,
			Path:      r.Path,
			Message:   fmt.Sprintf("unsupported HTTP method %q", r.Method),
			Cause:     ErrInvalidRoute,
		}
	}
	if err := checkPathTemplate(r.Path); err != nil {
		return &BuilderError{
			Component: ComponentRoute,
			Method:    r.Method,
			Path:      r.Path,
			Message:   err.Error(),
			Cause:     ErrInvalidRoute,
		}
	}
	if !r.Config.Auth.valid() {
		return &BuilderError{
			Component: ComponentRoute,
			Method:    r.Method,
			Path:      r.Path,
			Message:   fmt.Sprintf("unknown auth level %q", r.Config.Auth),
			Cause:     ErrInvalidRoute,
		}
	}
	return nil
}

func isSupportedMethod(method string) bool {
	for _, m := range supportedMethods {
		if m == method {
			return true
		}
	}
	return false
}
