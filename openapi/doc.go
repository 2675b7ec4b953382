// Package openapi builds OpenAPI documents from declarative route
// definitions grouped into controllers.
//
// Each route declares its method and path, its request body, query and path
// parameter schemas, and a response contract per status code. Controllers
// group routes under a tag and an optional path prefix. A Builder turns
// controllers into a single document: schemas are deduplicated by identity
// into components.schemas, ":name" path tokens become "{name}" templates,
// authenticated routes get a 401 response and a security requirement, and
// response examples are checked against their schemas.
//
// See: https://spec.openapis.org/oas/v3.1.0
//
// # Routes and Controllers
//
//	user := openapi.SchemaOf(User{})
//
//	users := openapi.NewController("Users").
//	    Description("User management").
//	    Prefix("/users")
//
//	users.Handle("getUser", openapi.MustRoute("GET /:id", openapi.RouteConfig{
//	    Summary: "Get a user",
//	    Auth:    openapi.AuthRequired,
//	}).Respond(http.StatusOK, &openapi.ResponseDef{
//	    Schema:      user,
//	    Description: "The user",
//	    Example:     User{ID: "42", Name: "Alice"},
//	}))
//
// The route name is the default operationId. RouteConfig.OperationID
// overrides it.
//
// # Building the Document
//
//	b := openapi.New(openapi.Config{Title: "My API", Version: "1.0.0"})
//	if err := b.AddController(users); err != nil {
//	    log.Fatal(err)
//	}
//	doc, err := b.Finalize()
//
// AddController rejects malformed routes and routes without responses with a
// *BuilderError and leaves the builder unchanged. Finalize can be called any
// number of times; it always reflects every controller added so far.
//
// # Schemas
//
// Schemas are plain *Schema values. The same pointer used by several routes
// is registered once. Its component name is the schema ID, else its title,
// else a generated "Schema<n>" name. Nested schemas carrying an ID are
// extracted into their own components.
//
// SchemaOf and Reflector derive schemas from Go types. Every named struct
// type yields one shared *Schema whose ID is the type name. SchemaOf caches
// schemas process-wide; NewReflector gives an isolated cache. Struct fields use
// their json tag for naming and an openapi tag for constraints:
//
//	type User struct {
//	    ID    string `json:"id" openapi:"format=uuid,readOnly"`
//	    Name  string `json:"name" openapi:"minLength=1,maxLength=64"`
//	    Email string `json:"email,omitempty" openapi:"format=email"`
//	}
//
// # Diagnostics
//
// Problems that do not make the document invalid are reported to
// Config.Sink and never interrupt the build: missing response descriptions,
// examples that do not match their schema, component name conflicts,
// duplicate operations and reused anonymous schemas. The default sink logs
// them through log/slog. Use a Collector to inspect them:
//
//	var diags openapi.Collector
//	b := openapi.New(openapi.Config{Sink: &diags})
//
// # Validation
//
// Examples are checked by Config.Validator. The default SchemaValidator
// covers the keywords the builder emits. NewJSONSchemaValidator delegates to
// a full JSON Schema 2020-12 implementation.
//
// # Serving
//
// Handle registers the JSON and YAML documents and an interactive docs page
// on any ServeMux:
//
//	mux := http.NewServeMux()
//	openapi.Handle(mux, "/docs", b, &openapi.HandleConfig{UI: openapi.DocsRedoc})
package openapi
