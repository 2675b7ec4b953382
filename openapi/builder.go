package openapi

import (
	"errors"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Builder accumulates controllers and produces an OpenAPI document.
//
// State only grows: every Finalize call reflects all controllers added so
// far. A Builder is not safe for concurrent use; independent builders share
// nothing.
type Builder struct {
	cfg       Config
	registry  *SchemaRegistry
	validator Validator
	sink      DiagnosticSink

	paths      map[string]*PathItem
	tags       []Tag
	tagIndex   map[string]int
	operations map[string]operationSite // operationId -> first declaration
}

// New creates a builder with the given configuration.
func New(cfg Config) *Builder {
	cfg = cfg.withDefaults()
	return &Builder{
		cfg:        cfg,
		registry:   NewSchemaRegistry(cfg.Sink),
		validator:  cfg.Validator,
		sink:       cfg.Sink,
		paths:      make(map[string]*PathItem),
		tagIndex:   make(map[string]int),
		operations: make(map[string]operationSite),
	}
}

// Registry returns the schema registry shared by all operations.
func (b *Builder) Registry() *SchemaRegistry {
	return b.registry
}

// AddControllers adds controllers in order, stopping at the first error.
func (b *Builder) AddControllers(controllers ...*Controller) error {
	for _, c := range controllers {
		if err := b.AddController(c); err != nil {
			return err
		}
	}
	return nil
}

// AddController registers the controller tag and assembles every route.
// Routes are checked before anything is recorded, so a rejected controller
// leaves the builder unchanged.
func (b *Builder) AddController(c *Controller) error {
	if err := checkController(c); err != nil {
		return err
	}

	b.addTag(Tag{Name: c.tag, Description: c.description})

	for _, nr := range c.routes {
		route := nr.route
		site := operationSite{
			tag:         c.tag,
			routeName:   nr.name,
			operationID: nr.name,
			method:      route.Method,
			path:        joinPath(c.prefix, route.Path),
		}
		if route.Config.OperationID != "" {
			site.operationID = route.Config.OperationID
		}

		op := b.buildOperation(site, route)
		b.addOperation(site, op)
	}
	return nil
}

// Finalize returns the document for everything added so far. Tags are
// sorted by name and the schema registry is flushed into
// components.schemas. Calling Finalize repeatedly without adding
// controllers produces equal documents.
func (b *Builder) Finalize() (*Document, error) {
	for _, path := range sortedKeys(b.paths) {
		for method, op := range b.paths[path].Operations() {
			if len(op.Responses) == 0 {
				return nil, &BuilderError{
					Component:   ComponentOperation,
					Method:      method,
					Path:        path,
					OperationID: op.OperationID,
					Cause:       ErrNoResponses,
				}
			}
		}
	}

	doc := &Document{
		OpenAPI: b.cfg.SpecVersion,
		Info: Info{
			Title:       b.cfg.Title,
			Description: b.cfg.Description,
			Version:     b.cfg.Version,
		},
		Paths: make(map[string]*PathItem, len(b.paths)),
		Components: &Components{
			Schemas:         b.registry.Schemas(),
			SecuritySchemes: map[string]*SecurityScheme{b.securitySchemeName(): b.securityScheme()},
		},
		Tags: b.sortedTags(),
	}
	if len(b.cfg.Servers) > 0 {
		doc.Servers = append([]Server(nil), b.cfg.Servers...)
	}
	for path, item := range b.paths {
		doc.Paths[path] = item.clone()
	}

	return doc, nil
}

// MustFinalize is like Finalize but panics on error.
func (b *Builder) MustFinalize() *Document {
	doc, err := b.Finalize()
	if err != nil {
		panic(err)
	}
	return doc
}

// addTag records a tag. A tag added again keeps its position and takes the
// later description.
func (b *Builder) addTag(tag Tag) {
	if i, ok := b.tagIndex[tag.Name]; ok {
		b.tags[i] = tag
		return
	}
	b.tagIndex[tag.Name] = len(b.tags)
	b.tags = append(b.tags, tag)
}

// sortedTags returns the tags ordered by name using the Unicode collation
// order.
func (b *Builder) sortedTags() []Tag {
	if len(b.tags) == 0 {
		return nil
	}
	tags := append([]Tag(nil), b.tags...)
	col := collate.New(language.Und)
	sort.SliceStable(tags, func(i, j int) bool {
		return col.CompareString(tags[i].Name, tags[j].Name) < 0
	})
	return tags
}

// addOperation stores the operation under its translated path and reports
// overwritten path+method pairs and reused operation IDs.
func (b *Builder) addOperation(site operationSite, op *Operation) {
	template := TranslatePath(site.path)

	item, ok := b.paths[template]
	if !ok {
		item = &PathItem{}
		b.paths[template] = item
	}

	if prev := item.Operation(site.method); prev != nil {
		d := warnf(DiagnosticDuplicateOperation,
			"%s %s is declared twice; operation %s replaces %s", site.method, template, op.OperationID, prev.OperationID)
		d.OperationID = op.OperationID
		d.Method = site.method
		d.Path = site.path
		b.sink.Report(d)
	}
	item.setOperation(site.method, op)

	if first, ok := b.operations[op.OperationID]; ok && (first.method != site.method || first.path != site.path) {
		d := warnf(DiagnosticDuplicateOperation,
			"operationId %s is used by %s %s and %s %s", op.OperationID, first.method, first.path, site.method, site.path)
		d.OperationID = op.OperationID
		d.Method = site.method
		d.Path = site.path
		b.sink.Report(d)
		return
	}
	b.operations[op.OperationID] = site
}

func (b *Builder) securitySchemeName() string {
	return b.cfg.SecurityScheme.Name
}

func (b *Builder) securityScheme() *SecurityScheme {
	s := b.cfg.SecurityScheme
	return &SecurityScheme{
		Type:         s.Type,
		Description:  s.Description,
		Scheme:       s.Scheme,
		BearerFormat: s.BearerFormat,
	}
}

// checkController rejects controllers the builder cannot turn into a
// complete set of operations.
func checkController(c *Controller) error {
	if c == nil {
		return &BuilderError{Component: ComponentController, Message: "nil controller", Cause: ErrInvalidController}
	}
	if c.tag == "" {
		return &BuilderError{Component: ComponentController, Message: "controller tag is empty", Cause: ErrInvalidController}
	}

	for _, nr := range c.routes {
		if nr.name == "" {
			return &BuilderError{Component: ComponentController, Tag: c.tag, Message: "route name is empty", Cause: ErrInvalidController}
		}
		if nr.route == nil {
			return &BuilderError{Component: ComponentRoute, Tag: c.tag, RouteName: nr.name, Message: "nil route", Cause: ErrInvalidRoute}
		}

		full := &Route{Method: nr.route.Method, Path: joinPath(c.prefix, nr.route.Path), Config: nr.route.Config}
		if err := full.validate(); err != nil {
			var be *BuilderError
			if errors.As(err, &be) {
				be.Tag = c.tag
				be.RouteName = nr.name
			}
			return err
		}

		if err := checkRouteSchemas(nr.route); err != nil {
			err.Tag = c.tag
			err.RouteName = nr.name
			err.Method = nr.route.Method
			err.Path = full.Path
			return err
		}

		if len(nr.route.Responses) == 0 {
			return &BuilderError{
				Component: ComponentOperation,
				Tag:       c.tag,
				RouteName: nr.name,
				Method:    nr.route.Method,
				Path:      full.Path,
				Message:   fmt.Sprintf("route %s declares no response", nr.name),
				Cause:     ErrNoResponses,
			}
		}
	}
	return nil
}

// checkRouteSchemas rejects schemas that contain themselves. The error is
// returned without route context.
func checkRouteSchemas(route *Route) *BuilderError {
	cyclic := func(where string) *BuilderError {
		return &BuilderError{
			Component: ComponentSchema,
			Message:   where + " schema refers to itself; point back with a $ref schema instead",
			Cause:     ErrSchemaCycle,
		}
	}

	cfg := route.Config
	if hasCycle(cfg.Params) {
		return cyclic("params")
	}
	if hasCycle(cfg.Query) {
		return cyclic("query")
	}
	if hasCycle(cfg.Body) {
		return cyclic("body")
	}
	for _, status := range sortedStatuses(route.Responses) {
		def := route.Responses[status]
		if def == nil {
			continue
		}
		if hasCycle(def.Schema) {
			return cyclic(fmt.Sprintf("response %d", status))
		}
		for _, name := range sortedKeys(def.Headers) {
			if hasCycle(def.Headers[name].Schema) {
				return cyclic(fmt.Sprintf("header %s of response %d", name, status))
			}
		}
	}
	return nil
}
