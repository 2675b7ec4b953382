package openapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuilder(cfg Config) (*Builder, *Collector) {
	diags := &Collector{}
	cfg.Sink = diags
	return New(cfg), diags
}

func userSchema() *Schema {
	return &Schema{
		ID:   "User",
		Type: TypeString("object"),
		Properties: map[string]*Schema{
			"id":   {Type: TypeString("string")},
			"name": {Type: TypeString("string")},
		},
		Required: []string{"id", "name"},
	}
}

func decodeJSON(t *testing.T, doc *Document) map[string]any {
	t.Helper()
	data, err := doc.JSON()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestNew(t *testing.T) {
	t.Run("zero config", func(t *testing.T) {
		b := New(Config{})
		assert.Equal(t, SpecVersion31, b.cfg.SpecVersion)
		assert.Equal(t, "bearerAuth", b.securitySchemeName())
		assert.IsType(t, &SchemaValidator{}, b.validator)
		assert.IsType(t, &LogSink{}, b.sink)

		doc, err := b.Finalize()
		require.NoError(t, err)
		assert.Equal(t, "3.1.0", doc.OpenAPI)
		assert.NotNil(t, doc.Paths)
		assert.Empty(t, doc.Paths)
		assert.Nil(t, doc.Tags)
		require.Contains(t, doc.Components.SecuritySchemes, "bearerAuth")
		assert.Equal(t, &SecurityScheme{Type: "http", Scheme: "bearer", BearerFormat: "JWT"},
			doc.Components.SecuritySchemes["bearerAuth"])
	})

	t.Run("custom security scheme", func(t *testing.T) {
		b := New(Config{SecurityScheme: &SecuritySchemeConfig{Name: "apiKey", Type: "apiKey", Description: "API key"}})
		doc := b.MustFinalize()
		require.Contains(t, doc.Components.SecuritySchemes, "apiKey")
		assert.Equal(t, "apiKey", doc.Components.SecuritySchemes["apiKey"].Type)
		assert.Equal(t, "API key", doc.Components.SecuritySchemes["apiKey"].Description)
	})

	t.Run("unnamed custom scheme keeps default name", func(t *testing.T) {
		b := New(Config{SecurityScheme: &SecuritySchemeConfig{Scheme: "basic"}})
		doc := b.MustFinalize()
		require.Contains(t, doc.Components.SecuritySchemes, "bearerAuth")
		assert.Equal(t, "http", doc.Components.SecuritySchemes["bearerAuth"].Type)
		assert.Equal(t, "basic", doc.Components.SecuritySchemes["bearerAuth"].Scheme)
	})

	t.Run("builders do not share config", func(t *testing.T) {
		servers := []Server{{URL: "https://a.example.com"}}
		b1 := New(Config{Servers: servers})
		b2 := New(Config{SpecVersion: SpecVersion30})
		servers[0].URL = "https://changed.example.com"

		assert.Equal(t, "https://a.example.com", b1.MustFinalize().Servers[0].URL)
		assert.Empty(t, b2.MustFinalize().Servers)
		assert.Equal(t, "3.0.3", b2.MustFinalize().OpenAPI)
	})
}

func TestBuilderEndToEnd(t *testing.T) {
	user := userSchema()
	users := NewController("Users").
		Handle("getUser", MustRoute("GET /users/:id", RouteConfig{Auth: AuthNone}).
			Respond(http.StatusOK, &ResponseDef{Schema: user, Description: "ok"}).
			Respond(http.StatusNotFound, nil))

	b, _ := newTestBuilder(Config{Title: "Users API", Version: "1.0.0"})
	require.NoError(t, b.AddController(users))

	doc, err := b.Finalize()
	require.NoError(t, err)

	item, ok := doc.Paths["/users/{id}"]
	require.True(t, ok)
	require.NotNil(t, item.Get)
	op := item.Get

	assert.Equal(t, "getUser", op.OperationID)
	assert.Equal(t, []string{"Users"}, op.Tags)

	require.Len(t, op.Responses, 2)
	require.Contains(t, op.Responses, "200")
	require.Contains(t, op.Responses, "404")
	assert.Equal(t, "ok", op.Responses["200"].Description)
	assert.Equal(t, "#/components/schemas/User", op.Responses["200"].Content[jsonContentType].Schema.Ref)
	assert.Equal(t, "Not found", op.Responses["404"].Description)
	assert.Nil(t, op.Responses["404"].Content)

	require.Len(t, op.Parameters, 1)
	assert.Equal(t, &Parameter{Name: "id", In: "path", Required: true, Schema: &Schema{Type: TypeString("string")}}, op.Parameters[0])

	assert.NotNil(t, op.Security)
	assert.Empty(t, op.Security)

	assert.Same(t, user, doc.Components.Schemas["User"])
	assert.Equal(t, []Tag{{Name: "Users"}}, doc.Tags)

	t.Run("wire form", func(t *testing.T) {
		raw := decodeJSON(t, doc)
		paths := raw["paths"].(map[string]any)
		get := paths["/users/{id}"].(map[string]any)["get"].(map[string]any)

		assert.Equal(t, []any{}, get["security"])

		responses := get["responses"].(map[string]any)
		assert.Len(t, responses, 2)
		assert.NotContains(t, responses["404"].(map[string]any), "content")

		params := get["parameters"].([]any)
		require.Len(t, params, 1)
		param := params[0].(map[string]any)
		assert.Equal(t, "id", param["name"])
		assert.Equal(t, "path", param["in"])
		assert.Equal(t, true, param["required"])
	})
}

func TestBuilderFinalizeIdempotent(t *testing.T) {
	b, _ := newTestBuilder(Config{Title: "API", Version: "1.0.0"})
	require.NoError(t, b.AddController(NewController("Users").
		Handle("getUser", MustRoute("GET /users/:id", RouteConfig{Auth: AuthRequired}).
			RespondWith(http.StatusOK, userSchema()))))

	first, err := b.Finalize()
	require.NoError(t, err)
	second, err := b.Finalize()
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second, cmp.AllowUnexported(SchemaType{})))

	firstJSON, err := first.JSON()
	require.NoError(t, err)
	secondJSON, err := second.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))

	t.Run("documents do not share maps", func(t *testing.T) {
		second.Paths["/users/{id}"].Get = nil
		op := first.Paths["/users/{id}"].Get
		delete(op.Responses, "200")
		op.Responses["401"].Description = "changed"
		op.Parameters[0].Name = "changed"
		op.Security[0]["bearerAuth"] = append(op.Security[0]["bearerAuth"], "admin")
		op.Tags[0] = "changed"
		delete(first.Paths, "/users/{id}")
		delete(first.Components.Schemas, "User")
		first.Tags[0].Name = "changed"

		third := b.MustFinalize()
		require.Contains(t, third.Paths, "/users/{id}")
		got := third.Paths["/users/{id}"].Get
		require.NotNil(t, got)
		assert.Contains(t, got.Responses, "200")
		assert.Equal(t, "Unauthorized", got.Responses["401"].Description)
		assert.Equal(t, "id", got.Parameters[0].Name)
		assert.Equal(t, []SecurityRequirement{{"bearerAuth": []string{}}}, got.Security)
		assert.Equal(t, []string{"Users"}, got.Tags)
		assert.Empty(t, cmp.Diff(second.Components, third.Components, cmp.AllowUnexported(SchemaType{})))
		assert.Contains(t, third.Components.Schemas, "User")
		assert.Equal(t, "Users", third.Tags[0].Name)
	})

	t.Run("later controllers are reflected", func(t *testing.T) {
		require.NoError(t, b.AddController(NewController("Health").
			Handle("health", MustRoute("GET /health", RouteConfig{}).RespondEmpty(http.StatusNoContent))))

		doc := b.MustFinalize()
		assert.Contains(t, doc.Paths, "/users/{id}")
		assert.Contains(t, doc.Paths, "/health")
		assert.Len(t, doc.Tags, 2)
	})
}

func TestBuilderSchemaDedup(t *testing.T) {
	user := userSchema()
	b, _ := newTestBuilder(Config{})
	require.NoError(t, b.AddController(NewController("Users").
		Handle("getUser", MustRoute("GET /users/:id", RouteConfig{}).RespondWith(http.StatusOK, user)).
		Handle("updateUser", MustRoute("PUT /users/:id", RouteConfig{Body: user}).RespondWith(http.StatusOK, user))))

	doc := b.MustFinalize()
	assert.Len(t, doc.Components.Schemas, 1)
	assert.Equal(t, 1, b.Registry().Walks())

	t.Run("identical shapes stay distinct", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Shapes").
			Handle("a", MustRoute("GET /a", RouteConfig{}).RespondWith(http.StatusOK, &Schema{Type: TypeString("string")})).
			Handle("b", MustRoute("GET /b", RouteConfig{}).RespondWith(http.StatusOK, &Schema{Type: TypeString("string")}))))

		doc := b.MustFinalize()
		assert.Len(t, doc.Components.Schemas, 2)
		assert.Contains(t, doc.Components.Schemas, "Schema1")
		assert.Contains(t, doc.Components.Schemas, "Schema2")
	})
}

func TestBuilderPathParams(t *testing.T) {
	t.Run("always required", func(t *testing.T) {
		idSchema := &Schema{Type: TypeString("string"), Format: "uuid", Description: "User identifier"}
		params := &Schema{
			Type:       TypeString("object"),
			Properties: map[string]*Schema{"id": idSchema},
		}

		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("getUser", MustRoute("GET /users/:id", RouteConfig{Params: params}).RespondEmpty(http.StatusOK))))

		op := b.MustFinalize().Paths["/users/{id}"].Get
		require.Len(t, op.Parameters, 1)
		assert.True(t, op.Parameters[0].Required)
		assert.Same(t, idSchema, op.Parameters[0].Schema)
		assert.Equal(t, "User identifier", op.Parameters[0].Description)
	})

	t.Run("multiple tokens and prefix", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Orgs").Prefix("/api/").
			Handle("getMember", MustRoute("GET /orgs/:org/members/:member", RouteConfig{}).RespondEmpty(http.StatusOK))))

		doc := b.MustFinalize()
		require.Contains(t, doc.Paths, "/api/orgs/{org}/members/{member}")
		op := doc.Paths["/api/orgs/{org}/members/{member}"].Get
		require.Len(t, op.Parameters, 2)
		assert.Equal(t, "org", op.Parameters[0].Name)
		assert.Equal(t, "member", op.Parameters[1].Name)
	})
}

func TestBuilderQueryAndBody(t *testing.T) {
	query := &Schema{
		Type: TypeString("object"),
		Properties: map[string]*Schema{
			"limit":  {Type: TypeString("integer"), Description: "Page size"},
			"cursor": {Type: TypeString("string")},
		},
		Required: []string{"limit"},
	}
	body := &Schema{ID: "CreateUser", Type: TypeString("object"), Description: "New user"}

	b, _ := newTestBuilder(Config{})
	require.NoError(t, b.AddController(NewController("Users").
		Handle("listUsers", MustRoute("GET /orgs/:org/users", RouteConfig{Query: query}).RespondEmpty(http.StatusOK)).
		Handle("createUser", MustRoute("POST /orgs/:org/users", RouteConfig{Body: body}).RespondEmpty(http.StatusCreated))))

	doc := b.MustFinalize()
	item := doc.Paths["/orgs/{org}/users"]
	require.NotNil(t, item)

	t.Run("path params precede sorted query params", func(t *testing.T) {
		params := item.Get.Parameters
		require.Len(t, params, 3)
		assert.Equal(t, "org", params[0].Name)
		assert.Equal(t, "path", params[0].In)

		assert.Equal(t, "cursor", params[1].Name)
		assert.Equal(t, "query", params[1].In)
		assert.False(t, params[1].Required)

		assert.Equal(t, "limit", params[2].Name)
		assert.True(t, params[2].Required)
		assert.Equal(t, "Page size", params[2].Description)
	})

	t.Run("request body", func(t *testing.T) {
		rb := item.Post.RequestBody
		require.NotNil(t, rb)
		assert.True(t, rb.Required)
		assert.Equal(t, "New user", rb.Description)
		assert.Equal(t, "#/components/schemas/CreateUser", rb.Content[jsonContentType].Schema.Ref)
		assert.Same(t, body, doc.Components.Schemas["CreateUser"])
	})

	t.Run("query schema is not registered", func(t *testing.T) {
		assert.Len(t, doc.Components.Schemas, 1)
	})
}

func TestBuilderAuth(t *testing.T) {
	t.Run("injects 401 for required auth", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("me", MustRoute("GET /me", RouteConfig{Auth: AuthRequired}).RespondWith(http.StatusOK, userSchema()))))

		doc := b.MustFinalize()
		op := doc.Paths["/me"].Get
		require.Len(t, op.Responses, 2)

		unauthorized := op.Responses["401"]
		require.NotNil(t, unauthorized)
		assert.Equal(t, "Unauthorized", unauthorized.Description)
		schema := unauthorized.Content[jsonContentType].Schema
		assert.Empty(t, schema.Ref)
		assert.Equal(t, []string{"error"}, schema.Required)
		assert.Contains(t, schema.Properties, "error")
		assert.Contains(t, schema.Properties, "message")

		assert.Equal(t, []SecurityRequirement{{"bearerAuth": []string{}}}, op.Security)
		assert.Len(t, doc.Components.Schemas, 1)
	})

	t.Run("keeps declared 401", func(t *testing.T) {
		errSchema := &Schema{ID: "Error", Type: TypeString("object")}
		declared := &ResponseDef{Schema: errSchema, Description: "Token expired"}

		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("me", MustRoute("GET /me", RouteConfig{Auth: AuthRequired}).
				RespondEmpty(http.StatusOK).
				Respond(http.StatusUnauthorized, declared))))

		op := b.MustFinalize().Paths["/me"].Get
		require.Len(t, op.Responses, 2)
		assert.Equal(t, "Token expired", op.Responses["401"].Description)
		assert.Equal(t, "#/components/schemas/Error", op.Responses["401"].Content[jsonContentType].Schema.Ref)
	})

	t.Run("optional and public routes", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Feed").
			Handle("feed", MustRoute("GET /feed", RouteConfig{Auth: AuthOptional}).RespondEmpty(http.StatusOK)).
			Handle("ping", MustRoute("GET /ping", RouteConfig{}).RespondEmpty(http.StatusOK))))

		doc := b.MustFinalize()
		for _, path := range []string{"/feed", "/ping"} {
			op := doc.Paths[path].Get
			assert.NotContains(t, op.Responses, "401", path)
			assert.NotNil(t, op.Security, path)
			assert.Empty(t, op.Security, path)
		}
	})

	t.Run("custom scheme name", func(t *testing.T) {
		b, _ := newTestBuilder(Config{SecurityScheme: &SecuritySchemeConfig{Name: "session", Type: "apiKey"}})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("me", MustRoute("GET /me", RouteConfig{Auth: AuthRequired}).RespondEmpty(http.StatusOK))))

		op := b.MustFinalize().Paths["/me"].Get
		assert.Equal(t, []SecurityRequirement{{"session": []string{}}}, op.Security)
	})
}

func TestBuilderExampleValidation(t *testing.T) {
	itemSchema := func() *Schema {
		return &Schema{
			ID:   "Item",
			Type: TypeString("object"),
			Properties: map[string]*Schema{
				"id":   {Type: TypeString("string")},
				"name": {Type: TypeString("string")},
			},
		}
	}
	build := func(cfg Config, def *ResponseDef) (*Builder, *Collector) {
		b, diags := newTestBuilder(cfg)
		require.NoError(t, b.AddController(NewController("Items").
			Handle("getItem", MustRoute("GET /items/:id", RouteConfig{}).Respond(http.StatusOK, def))))
		return b, diags
	}

	t.Run("mismatch is reported", func(t *testing.T) {
		b, diags := build(Config{}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     map[string]any{"id": 123, "name": "x"},
		})

		_, err := b.Finalize()
		require.NoError(t, err)

		mismatches := diags.Kind(DiagnosticExampleMismatch)
		require.Len(t, mismatches, 1)
		d := mismatches[0]
		assert.Equal(t, "getItem", d.OperationID)
		assert.Equal(t, "200", d.Status)
		require.Len(t, d.Errors, 1)
		assert.Equal(t, "/id", d.Errors[0].Path)
		assert.Contains(t, d.String(), "/id")
		assert.Contains(t, d.String(), "expected type string but got integer")
	})

	t.Run("matching example", func(t *testing.T) {
		_, diags := build(Config{}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     map[string]any{"id": "1", "name": "x"},
		})
		assert.Zero(t, diags.Len())
	})

	t.Run("struct example", func(t *testing.T) {
		type item struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		_, diags := build(Config{}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     item{ID: "1", Name: "x"},
		})
		assert.Zero(t, diags.Len())
	})

	t.Run("named examples", func(t *testing.T) {
		_, diags := build(Config{}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Examples: map[string]ExampleDef{
				"good": {Value: map[string]any{"id": "1"}},
				"bad":  {Value: map[string]any{"name": false}, Summary: "Broken"},
			},
		})

		mismatches := diags.Kind(DiagnosticExampleMismatch)
		require.Len(t, mismatches, 1)
		assert.Equal(t, "bad", mismatches[0].Example)
		require.Len(t, mismatches[0].Errors, 1)
		assert.Equal(t, "/name", mismatches[0].Errors[0].Path)
	})

	t.Run("examples are emitted verbatim", func(t *testing.T) {
		example := map[string]any{"id": 123}
		b, _ := build(Config{}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     example,
			Examples:    map[string]ExampleDef{"one": {Value: "raw", Summary: "Raw"}},
		})

		mt := b.MustFinalize().Paths["/items/{id}"].Get.Responses["200"].Content[jsonContentType]
		assert.Equal(t, example, mt.Example)
		assert.Equal(t, &Example{Summary: "Raw", Value: "raw"}, mt.Examples["one"])
	})

	t.Run("skipped when disabled", func(t *testing.T) {
		_, diags := build(Config{SkipExampleValidation: true}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     map[string]any{"id": 123},
		})
		assert.Zero(t, diags.Len())
	})

	t.Run("custom validator", func(t *testing.T) {
		var calls int
		v := ValidatorFunc(func(*Schema, any) []ErrorDetail {
			calls++
			return []ErrorDetail{{Message: "rejected"}}
		})
		_, diags := build(Config{Validator: v}, &ResponseDef{
			Schema:      itemSchema(),
			Description: "ok",
			Example:     map[string]any{"id": "1"},
		})
		assert.Equal(t, 1, calls)
		assert.Len(t, diags.Kind(DiagnosticExampleMismatch), 1)
	})
}

func TestBuilderResponses(t *testing.T) {
	t.Run("no content", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("deleteUser", MustRoute("DELETE /users/:id", RouteConfig{}).
				Respond(http.StatusNoContent, &ResponseDef{Description: "Deleted"}))))

		doc := b.MustFinalize()
		resp := doc.Paths["/users/{id}"].Delete.Responses["204"]
		assert.Equal(t, "Deleted", resp.Description)
		assert.Nil(t, resp.Content)

		raw := decodeJSON(t, doc)
		del := raw["paths"].(map[string]any)["/users/{id}"].(map[string]any)["delete"].(map[string]any)
		assert.NotContains(t, del["responses"].(map[string]any)["204"].(map[string]any), "content")
	})

	t.Run("missing description falls back with warning", func(t *testing.T) {
		b, diags := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("create", MustRoute("POST /users", RouteConfig{}).
				RespondEmpty(http.StatusCreated).
				RespondEmpty(http.StatusTeapot))))

		op := b.MustFinalize().Paths["/users"].Post
		assert.Equal(t, "Resource created", op.Responses["201"].Description)
		assert.Equal(t, "Response", op.Responses["418"].Description)

		warnings := diags.Kind(DiagnosticMissingDescription)
		require.Len(t, warnings, 2)
		assert.Equal(t, "201", warnings[0].Status)
		assert.Equal(t, "418", warnings[1].Status)
	})

	t.Run("suppressed description warnings", func(t *testing.T) {
		b, diags := newTestBuilder(Config{SuppressDescriptionWarnings: true})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("list", MustRoute("GET /users", RouteConfig{}).RespondEmpty(http.StatusOK))))

		assert.Equal(t, "Successful response", b.MustFinalize().Paths["/users"].Get.Responses["200"].Description)
		assert.Zero(t, diags.Len())
	})

	t.Run("headers", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("create", MustRoute("POST /users", RouteConfig{}).
				Respond(http.StatusCreated, &ResponseDef{
					Description: "Created",
					Headers: map[string]HeaderDef{
						"Location": {Description: "New resource", Required: true, Schema: &Schema{Type: TypeString("string")}},
					},
				}))))

		resp := b.MustFinalize().Paths["/users"].Post.Responses["201"]
		require.Contains(t, resp.Headers, "Location")
		assert.Equal(t, "New resource", resp.Headers["Location"].Description)
		assert.True(t, resp.Headers["Location"].Required)
	})
}

func TestBuilderTags(t *testing.T) {
	t.Run("sorted by name", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddControllers(
			NewController("Zebra").Handle("z", MustRoute("GET /z", RouteConfig{}).RespondEmpty(http.StatusOK)),
			NewController("Apple").Handle("a", MustRoute("GET /a", RouteConfig{}).RespondEmpty(http.StatusOK)),
		))

		assert.Equal(t, []Tag{{Name: "Apple"}, {Name: "Zebra"}}, b.MustFinalize().Tags)
	})

	t.Run("collation order", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		for _, tag := range []string{"Zebra", "banana", "Éclair", "Apple"} {
			require.NoError(t, b.AddController(NewController(tag).
				Handle("op"+tag, MustRoute("GET /"+tag, RouteConfig{}).RespondEmpty(http.StatusOK))))
		}

		var names []string
		for _, tag := range b.MustFinalize().Tags {
			names = append(names, tag.Name)
		}
		assert.Equal(t, []string{"Apple", "banana", "Éclair", "Zebra"}, names)
	})

	t.Run("later description wins", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddControllers(
			NewController("Users").Description("first").Handle("a", MustRoute("GET /a", RouteConfig{}).RespondEmpty(http.StatusOK)),
			NewController("Users").Description("second").Handle("b", MustRoute("GET /b", RouteConfig{}).RespondEmpty(http.StatusOK)),
		))

		assert.Equal(t, []Tag{{Name: "Users", Description: "second"}}, b.MustFinalize().Tags)
	})
}

func TestBuilderNestedExtraction(t *testing.T) {
	address := &Schema{ID: "Address", Type: TypeString("object")}
	order := &Schema{
		ID:   "CreateOrder",
		Type: TypeString("object"),
		Properties: map[string]*Schema{
			"shipping": address,
			"lines": {
				Type:  TypeString("array"),
				Items: &Schema{ID: "OrderLine", Type: TypeString("object")},
			},
		},
	}

	b, _ := newTestBuilder(Config{})
	require.NoError(t, b.AddController(NewController("Orders").
		Handle("createOrder", MustRoute("POST /orders", RouteConfig{Body: order}).RespondEmpty(http.StatusCreated))))

	schemas := b.MustFinalize().Components.Schemas
	assert.Len(t, schemas, 3)
	assert.Same(t, order, schemas["CreateOrder"])
	assert.Same(t, address, schemas["Address"])
	assert.Contains(t, schemas, "OrderLine")
}

func TestBuilderOperationIDs(t *testing.T) {
	t.Run("route name by default", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Users").
			Handle("listUsers", MustRoute("GET /users", RouteConfig{}).RespondEmpty(http.StatusOK)).
			Handle("createUser", MustRoute("POST /users", RouteConfig{OperationID: "users.create"}).RespondEmpty(http.StatusCreated))))

		item := b.MustFinalize().Paths["/users"]
		assert.Equal(t, "listUsers", item.Get.OperationID)
		assert.Equal(t, "users.create", item.Post.OperationID)
	})

	t.Run("duplicate path and method", func(t *testing.T) {
		b, diags := newTestBuilder(Config{})
		require.NoError(t, b.AddControllers(
			NewController("A").Handle("first", MustRoute("GET /x", RouteConfig{}).RespondEmpty(http.StatusOK)),
			NewController("B").Handle("second", MustRoute("GET /x", RouteConfig{}).RespondEmpty(http.StatusOK)),
		))

		assert.Equal(t, "second", b.MustFinalize().Paths["/x"].Get.OperationID)
		dups := diags.Kind(DiagnosticDuplicateOperation)
		require.Len(t, dups, 1)
		assert.Equal(t, "GET", dups[0].Method)
	})

	t.Run("reused operationId", func(t *testing.T) {
		b, diags := newTestBuilder(Config{})
		require.NoError(t, b.AddControllers(
			NewController("A").Handle("list", MustRoute("GET /a", RouteConfig{}).RespondEmpty(http.StatusOK)),
			NewController("B").Handle("list", MustRoute("GET /b", RouteConfig{}).RespondEmpty(http.StatusOK)),
		))

		dups := diags.Kind(DiagnosticDuplicateOperation)
		require.Len(t, dups, 1)
		assert.Equal(t, "list", dups[0].OperationID)
		assert.Equal(t, "/b", dups[0].Path)
	})
}

func TestBuilderAddControllerErrors(t *testing.T) {
	valid := func() *Route {
		return MustRoute("GET /ok", RouteConfig{}).RespondEmpty(http.StatusOK)
	}
	cyclic := func() *Schema {
		node := &Schema{ID: "Node", Type: TypeString("object")}
		node.Properties = map[string]*Schema{"next": node}
		return node
	}

	tests := []struct {
		name       string
		controller *Controller
		cause      error
	}{
		{
			name:       "nil controller",
			controller: nil,
			cause:      ErrInvalidController,
		},
		{
			name:       "empty tag",
			controller: NewController("").Handle("ok", valid()),
			cause:      ErrInvalidController,
		},
		{
			name:       "empty route name",
			controller: NewController("Users").Handle("", valid()),
			cause:      ErrInvalidController,
		},
		{
			name:       "nil route",
			controller: NewController("Users").Handle("ok", valid()).Handle("missing", nil),
			cause:      ErrInvalidRoute,
		},
		{
			name:       "unsupported method",
			controller: NewController("Users").Handle("ok", valid()).Handle("trace", &Route{Method: "TRACE", Path: "/x", Responses: map[int]*ResponseDef{200: {}}}),
			cause:      ErrInvalidRoute,
		},
		{
			name:       "path without slash",
			controller: NewController("Users").Handle("ok", valid()).Handle("bad", &Route{Method: "GET", Path: "users", Responses: map[int]*ResponseDef{200: {}}}),
			cause:      ErrInvalidRoute,
		},
		{
			name: "unknown auth level",
			controller: NewController("Users").Handle("ok", valid()).Handle("secret", &Route{
				Method:    "GET",
				Path:      "/secret",
				Config:    RouteConfig{Auth: AuthLevel("Required")},
				Responses: map[int]*ResponseDef{200: {}},
			}),
			cause: ErrInvalidRoute,
		},
		{
			name: "cyclic body schema",
			controller: NewController("Nodes").Handle("ok", valid()).Handle("create",
				MustRoute("POST /nodes", RouteConfig{Body: cyclic()}).RespondEmpty(http.StatusCreated)),
			cause: ErrSchemaCycle,
		},
		{
			name: "cyclic response schema",
			controller: NewController("Nodes").Handle("ok", valid()).Handle("get",
				MustRoute("GET /nodes/:id", RouteConfig{}).RespondWith(http.StatusOK, &Schema{
					Type:  TypeString("array"),
					Items: cyclic(),
				})),
			cause: ErrSchemaCycle,
		},
		{
			name: "cyclic header schema",
			controller: NewController("Nodes").Handle("ok", valid()).Handle("head",
				MustRoute("GET /nodes", RouteConfig{}).Respond(http.StatusOK, &ResponseDef{
					Description: "ok",
					Headers:     map[string]HeaderDef{"X-Node": {Schema: cyclic()}},
				})),
			cause: ErrSchemaCycle,
		},
		{
			name:       "no responses",
			controller: NewController("Users").Handle("ok", valid()).Handle("empty", MustRoute("GET /empty", RouteConfig{})),
			cause:      ErrNoResponses,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, diags := newTestBuilder(Config{})
			err := b.AddController(tt.controller)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.cause)

			var be *BuilderError
			require.True(t, errors.As(err, &be))

			doc := b.MustFinalize()
			assert.Empty(t, doc.Paths)
			assert.Empty(t, doc.Tags)
			assert.Empty(t, doc.Components.Schemas)
			assert.Zero(t, diags.Len())
		})
	}

	t.Run("error names the route", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		err := b.AddController(NewController("Users").Handle("empty", MustRoute("GET /empty", RouteConfig{})))

		var be *BuilderError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, "Users", be.Tag)
		assert.Equal(t, "empty", be.RouteName)
		assert.Contains(t, err.Error(), "Users.empty")
	})

	t.Run("cycle error names the schema", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		err := b.AddController(NewController("Nodes").Prefix("/api").Handle("create",
			MustRoute("POST /nodes", RouteConfig{Body: cyclic()}).RespondEmpty(http.StatusCreated)))

		var be *BuilderError
		require.True(t, errors.As(err, &be))
		assert.Equal(t, ComponentSchema, be.Component)
		assert.Equal(t, "create", be.RouteName)
		assert.Equal(t, "/api/nodes", be.Path)
		assert.Contains(t, err.Error(), "body schema refers to itself")
	})

	t.Run("recursive types with a back reference are accepted", func(t *testing.T) {
		node := &Schema{ID: "Node", Type: TypeString("object")}
		node.Properties = map[string]*Schema{
			"next": {AnyOf: []*Schema{{Ref: componentRef("Node")}, {Type: TypeString("null")}}},
		}

		b, _ := newTestBuilder(Config{})
		require.NoError(t, b.AddController(NewController("Nodes").Handle("get",
			MustRoute("GET /nodes/:id", RouteConfig{}).Respond(http.StatusOK, &ResponseDef{Schema: node, Description: "ok"}))))

		_, err := b.MustFinalize().JSON()
		assert.NoError(t, err)
	})

	t.Run("AddControllers stops at first error", func(t *testing.T) {
		b, _ := newTestBuilder(Config{})
		err := b.AddControllers(
			NewController("A").Handle("a", MustRoute("GET /a", RouteConfig{}).RespondEmpty(http.StatusOK)),
			NewController(""),
			NewController("C").Handle("c", MustRoute("GET /c", RouteConfig{}).RespondEmpty(http.StatusOK)),
		)
		require.ErrorIs(t, err, ErrInvalidController)

		doc := b.MustFinalize()
		assert.Contains(t, doc.Paths, "/a")
		assert.NotContains(t, doc.Paths, "/c")
	})
}

func TestBuilderFinalizeErrors(t *testing.T) {
	b, _ := newTestBuilder(Config{})
	b.paths["/broken"] = &PathItem{Get: &Operation{OperationID: "broken"}}

	doc, err := b.Finalize()
	require.ErrorIs(t, err, ErrNoResponses)
	assert.Nil(t, doc)

	var be *BuilderError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "broken", be.OperationID)
	assert.Equal(t, "GET", be.Method)

	assert.Panics(t, func() { b.MustFinalize() })
}

func TestBuilderDocumentYAML(t *testing.T) {
	b, _ := newTestBuilder(Config{Title: "API", Version: "1.0.0"})
	require.NoError(t, b.AddController(NewController("Users").
		Handle("getUser", MustRoute("GET /users/:id", RouteConfig{}).RespondWith(http.StatusOK, userSchema()))))

	data, err := b.MustFinalize().YAML()
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "openapi: 3.1.0")
	assert.Contains(t, out, "operationId: getUser")
	assert.Contains(t, out, "/users/{id}:")
	assert.Contains(t, out, "$ref: '#/components/schemas/User'")
	assert.Contains(t, out, "security: []")
}
