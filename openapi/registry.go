package openapi

import "strconv"

// SchemaRegistry deduplicates schemas by pointer identity and assigns the
// component names used in $ref URIs.
//
// See: https://spec.openapis.org/oas/v3.1.0#components-object (schemas)
type SchemaRegistry struct {
	schemas   map[string]*Schema // component name -> schema
	names     map[*Schema]string // schema identity -> component name
	anonymous map[*Schema]bool   // schemas named by the counter
	sink      DiagnosticSink
	walks     int
}

// NewSchemaRegistry creates an empty registry. Findings such as name
// conflicts are reported to sink; a nil sink discards them.
func NewSchemaRegistry(sink DiagnosticSink) *SchemaRegistry {
	if sink == nil {
		sink = DiagnosticFunc(func(Diagnostic) {})
	}
	return &SchemaRegistry{
		schemas:   make(map[string]*Schema),
		names:     make(map[*Schema]string),
		anonymous: make(map[*Schema]bool),
		sink:      sink,
	}
}

// Register stores the schema and returns its component name: the schema ID,
// else its title, else "Schema<n>". A schema registered before returns its
// existing name without being walked again. Nested schemas carrying an ID
// are extracted into their own components.
func (r *SchemaRegistry) Register(s *Schema) string {
	if name, ok := r.names[s]; ok {
		if r.anonymous[s] {
			d := warnf(DiagnosticAnonymousSchemaReuse,
				"anonymous schema %s is referenced more than once; set an ID to keep its name stable", name)
			d.Schema = name
			r.sink.Report(d)
		}
		return name
	}

	name := s.ID
	if name == "" {
		name = s.Title
	}
	if name == "" {
		name = r.nextAnonymousName()
		r.anonymous[s] = true
	}

	r.store(name, s)
	r.extractNested(s, make(map[*Schema]bool))
	return name
}

// Ref registers the schema and returns a reference schema pointing at it.
func (r *SchemaRegistry) Ref(s *Schema) *Schema {
	return &Schema{Ref: componentRef(r.Register(s))}
}

// Name returns the component name of a registered schema.
func (r *SchemaRegistry) Name(s *Schema) (string, bool) {
	name, ok := r.names[s]
	return name, ok
}

// Lookup returns the schema registered under a component name.
func (r *SchemaRegistry) Lookup(name string) (*Schema, bool) {
	s, ok := r.schemas[name]
	return s, ok
}

// Len returns the number of components.
func (r *SchemaRegistry) Len() int {
	return len(r.schemas)
}

// Walks returns how many top-level nested-schema walks were performed.
func (r *SchemaRegistry) Walks() int {
	return r.walks
}

// Schemas returns a copy of the component name -> schema map.
func (r *SchemaRegistry) Schemas() map[string]*Schema {
	out := make(map[string]*Schema, len(r.schemas))
	for name, s := range r.schemas {
		out[name] = s
	}
	return out
}

// store binds name to s. A different schema already holding the name loses
// the component slot.
func (r *SchemaRegistry) store(name string, s *Schema) {
	if prev, ok := r.schemas[name]; ok && prev != s {
		d := warnf(DiagnosticSchemaNameConflict,
			"schema name %q is claimed by two different schemas; the later one wins", name)
		d.Schema = name
		r.sink.Report(d)
	}
	r.schemas[name] = s
	r.names[s] = name
}

// extractNested walks every subschema of s and registers the ones carrying
// an ID under that ID.
func (r *SchemaRegistry) extractNested(s *Schema, visited map[*Schema]bool) {
	if len(visited) == 0 {
		r.walks++
	}
	visited[s] = true

	for _, child := range s.children() {
		if child == nil || visited[child] {
			continue
		}
		if child.ID != "" {
			if _, ok := r.names[child]; !ok {
				r.store(child.ID, child)
			}
		}
		r.extractNested(child, visited)
	}
}

func (r *SchemaRegistry) nextAnonymousName() string {
	for n := len(r.schemas) + 1; ; n++ {
		name := "Schema" + strconv.Itoa(n)
		if _, taken := r.schemas[name]; !taken {
			return name
		}
	}
}

// hasCycle reports whether s reaches itself through its subschemas.
// Recursive types must point back with a $ref schema instead.
func hasCycle(s *Schema) bool {
	const (
		onPath = 1
		done   = 2
	)
	state := make(map[*Schema]int)

	var visit func(n *Schema) bool
	visit = func(n *Schema) bool {
		switch state[n] {
		case onPath:
			return true
		case done:
			return false
		}
		state[n] = onPath
		for _, child := range n.children() {
			if child != nil && visit(child) {
				return true
			}
		}
		state[n] = done
		return false
	}
	return s != nil && visit(s)
}

// componentRef returns the $ref URI of a component schema.
func componentRef(name string) string {
	return "#/components/schemas/" + name
}
