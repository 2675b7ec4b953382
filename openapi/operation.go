package openapi

import (
	"sort"
	"strconv"
)

const jsonContentType = "application/json"

// fallbackDescriptions are used for responses declared without a description.
var fallbackDescriptions = map[int]string{
	200: "Successful response",
	201: "Resource created",
	204: "No content",
	400: "Bad request",
	401: "Unauthorized",
	403: "Forbidden",
	404: "Not found",
	422: "Validation error",
	500: "Internal server error",
}

// responseDescription returns the fallback description for a status code.
func responseDescription(status int) string {
	if desc, ok := fallbackDescriptions[status]; ok {
		return desc
	}
	return "Response"
}

// operationSite identifies the route being assembled.
type operationSite struct {
	tag         string
	routeName   string
	operationID string
	method      string
	path        string // route path with ":name" tokens, prefix included
}

// buildOperation converts a route into an Operation Object, registering
// every schema it references.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object
func (b *Builder) buildOperation(site operationSite, route *Route) *Operation {
	cfg := route.Config
	op := &Operation{
		OperationID: site.operationID,
		Summary:     cfg.Summary,
		Description: cfg.Description,
		Tags:        []string{site.tag},
		Deprecated:  cfg.Deprecated,
	}

	op.Parameters = buildParameters(site.path, cfg)

	if cfg.Body != nil {
		op.RequestBody = &RequestBody{
			Description: cfg.Body.Description,
			Required:    true,
			Content: map[string]*MediaType{
				jsonContentType: {Schema: b.registry.Ref(cfg.Body)},
			},
		}
	}

	op.Responses = make(map[string]*Response, len(route.Responses)+1)
	for _, status := range sortedStatuses(route.Responses) {
		def := route.Responses[status]
		if def == nil {
			def = &ResponseDef{}
		}
		op.Responses[strconv.Itoa(status)] = b.buildResponse(site, status, def)
		b.validateExamples(site, status, def)
	}

	if cfg.Auth == AuthRequired {
		if _, declared := route.Responses[401]; !declared {
			op.Responses["401"] = unauthorizedResponse()
		}
	}

	op.Security = b.operationSecurity(cfg.Auth)
	return op
}

// buildParameters lists path parameters followed by query parameters.
//
// See: https://spec.openapis.org/oas/v3.1.0#parameter-object
func buildParameters(path string, cfg RouteConfig) []*Parameter {
	params := PathParameters(path, cfg.Params)

	if cfg.Query != nil {
		for _, name := range sortedKeys(cfg.Query.Properties) {
			prop := cfg.Query.Properties[name]
			param := &Parameter{
				Name:     name,
				In:       "query",
				Required: cfg.Query.IsRequired(name),
				Schema:   prop,
			}
			if prop != nil {
				param.Description = prop.Description
			}
			params = append(params, param)
		}
	}
	return params
}

// buildResponse converts one declared response.
//
// See: https://spec.openapis.org/oas/v3.1.0#response-object
func (b *Builder) buildResponse(site operationSite, status int, def *ResponseDef) *Response {
	desc := def.Description
	if desc == "" {
		if !b.cfg.SuppressDescriptionWarnings {
			d := warnf(DiagnosticMissingDescription,
				"response %d of operation %s has no description", status, site.operationID)
			d.OperationID = site.operationID
			d.Method = site.method
			d.Path = site.path
			d.Status = strconv.Itoa(status)
			b.sink.Report(d)
		}
		desc = responseDescription(status)
	}

	resp := &Response{Description: desc}

	if def.Schema != nil {
		mt := &MediaType{
			Schema:  b.registry.Ref(def.Schema),
			Example: def.Example,
		}
		if len(def.Examples) > 0 {
			mt.Examples = make(map[string]*Example, len(def.Examples))
			for name, ex := range def.Examples {
				mt.Examples[name] = &Example{Summary: ex.Summary, Value: ex.Value}
			}
		}
		resp.Content = map[string]*MediaType{jsonContentType: mt}
	}

	if len(def.Headers) > 0 {
		resp.Headers = make(map[string]*Header, len(def.Headers))
		for name, h := range def.Headers {
			resp.Headers[name] = &Header{
				Description: h.Description,
				Required:    h.Required,
				Schema:      h.Schema,
			}
		}
	}

	return resp
}

// unauthorizedResponse is injected for authenticated routes that do not
// declare a 401. Its schema is inline and never registered.
func unauthorizedResponse() *Response {
	return &Response{
		Description: responseDescription(401),
		Content: map[string]*MediaType{
			jsonContentType: {
				Schema: &Schema{
					Type: TypeString("object"),
					Properties: map[string]*Schema{
						"error":   {Type: TypeString("string")},
						"message": {Type: TypeString("string")},
					},
					Required: []string{"error"},
				},
			},
		},
	}
}

// operationSecurity returns the security requirement list of an operation.
// Public routes get an explicit empty list, which overrides any
// document-level requirement.
//
// See: https://spec.openapis.org/oas/v3.1.0#operation-object (security)
func (b *Builder) operationSecurity(auth AuthLevel) []SecurityRequirement {
	if auth == AuthRequired {
		return []SecurityRequirement{{b.securitySchemeName(): []string{}}}
	}
	return []SecurityRequirement{}
}

func sortedStatuses(responses map[int]*ResponseDef) []int {
	statuses := make([]int, 0, len(responses))
	for status := range responses {
		statuses = append(statuses, status)
	}
	sort.Ints(statuses)
	return statuses
}
