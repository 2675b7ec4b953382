package openapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"sync"
)

// ServeMux is the subset of *http.ServeMux used to register documentation
// endpoints. Any router with the same method works.
type ServeMux interface {
	Handle(pattern string, handler http.Handler)
}

// DocsUI selects which interactive documentation UI to serve.
type DocsUI int

const (
	DocsSwaggerUI DocsUI = iota
	DocsRapiDoc
	DocsRedoc
)

// HandleConfig configures the endpoints registered by Handle.
type HandleConfig struct {
	// UI selects the interactive docs UI (default: DocsSwaggerUI).
	UI DocsUI

	// Title overrides the HTML page title (default: Config.Title).
	Title string

	// JSONFilename is the path of the JSON document (default: "schema.json").
	// Relative names are joined with the base path; names starting with "/"
	// are used as-is. Set to "-" to disable.
	JSONFilename string

	// YAMLFilename is the path of the YAML document (default: "schema.yaml").
	// Same rules as JSONFilename.
	YAMLFilename string

	// DisableDocs disables the HTML docs page.
	DisableDocs bool

	// SwaggerUIConfig adds SwaggerUIBundle options next to url and dom_id,
	// e.g. {"docExpansion": "none"}. Only used with DocsSwaggerUI.
	//
	// See: https://swagger.io/docs/open-source-tools/swagger-ui/usage/configuration/
	SwaggerUIConfig map[string]any
}

func (cfg HandleConfig) jsonFilename() string {
	if cfg.JSONFilename == "" {
		return "schema.json"
	}
	return cfg.JSONFilename
}

func (cfg HandleConfig) yamlFilename() string {
	if cfg.YAMLFilename == "" {
		return "schema.yaml"
	}
	return cfg.YAMLFilename
}

// resolvePath joins a relative filename under basePath.
func resolvePath(basePath, filename string) string {
	if strings.HasPrefix(filename, "/") {
		return filename
	}
	return basePath + "/" + filename
}

// Handle registers the document endpoints under basePath:
//
//	<basePath>/            - interactive HTML docs (unless DisableDocs)
//	<JSONFilename path>    - document as JSON (unless "-")
//	<YAMLFilename path>    - document as YAML (unless "-")
//
// The document is finalized on the first request and cached, so every
// controller must be added before the server starts. Pass nil for the
// default config:
//
//	openapi.Handle(http.DefaultServeMux, "/docs", b, nil)
func Handle(mux ServeMux, basePath string, b *Builder, cfg *HandleConfig) {
	if cfg == nil {
		cfg = &HandleConfig{}
	}
	basePath = strings.TrimRight(basePath, "/")

	doc := &cachedDocument{builder: b}

	var jsonPath, yamlPath string
	if name := cfg.jsonFilename(); name != "-" {
		jsonPath = resolvePath(basePath, name)
		mux.Handle(jsonPath, doc.handler("application/json", (*Document).JSON))
	}
	if name := cfg.yamlFilename(); name != "-" {
		yamlPath = resolvePath(basePath, name)
		mux.Handle(yamlPath, doc.handler("application/x-yaml", (*Document).YAML))
	}

	if cfg.DisableDocs {
		return
	}
	specURL := jsonPath
	if specURL == "" {
		specURL = yamlPath
	}
	if specURL == "" {
		return
	}

	title := cfg.Title
	if title == "" {
		title = b.cfg.Title
	}
	page := docsHandler(docsPage(cfg, title, specURL))
	if basePath == "" {
		mux.Handle("/", page)
		return
	}
	mux.Handle(basePath, page)
	mux.Handle(basePath+"/", page)
}

// cachedDocument finalizes the builder once and shares the result between
// the JSON and YAML endpoints.
type cachedDocument struct {
	builder *Builder
	once    sync.Once
	doc     *Document
	err     error
}

func (c *cachedDocument) get() (*Document, error) {
	c.once.Do(func() {
		defer func() {
			if rv := recover(); rv != nil {
				c.err = fmt.Errorf("openapi: finalize: %v", rv)
			}
		}()
		c.doc, c.err = c.builder.Finalize()
	})
	return c.doc, c.err
}

func (c *cachedDocument) handler(contentType string, encode func(*Document) ([]byte, error)) http.Handler {
	var (
		once sync.Once
		data []byte
		err  error
	)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() {
			var doc *Document
			if doc, err = c.get(); err != nil {
				return
			}
			data, err = encode(doc)
		})
		if err != nil {
			http.Error(w, "failed to serialize OpenAPI document", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func docsHandler(page string) http.Handler {
	data := []byte(page)
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	})
}

func docsPage(cfg *HandleConfig, title, specURL string) string {
	switch cfg.UI {
	case DocsRapiDoc:
		return rapidocTemplate(title, specURL)
	case DocsRedoc:
		return redocTemplate(title, specURL)
	default:
		return swaggerUITemplate(title, specURL, cfg.SwaggerUIConfig)
	}
}

func swaggerUITemplate(title, specURL string, config map[string]any) string {
	var extra strings.Builder
	for _, k := range sortedKeys(config) {
		v, err := json.Marshal(config[k])
		if err != nil {
			continue
		}
		fmt.Fprintf(&extra, ", %q: %s", k, v)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist/swagger-ui.css">
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist/swagger-ui-bundle.js"></script>
<script>
SwaggerUIBundle({url: %q, dom_id: "#swagger-ui"%s});
</script>
</body>
</html>`, html.EscapeString(title), specURL, extra.String())
}

func rapidocTemplate(title, specURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
<script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
<rapi-doc spec-url=%q></rapi-doc>
</body>
</html>`, html.EscapeString(title), specURL)
}

func redocTemplate(title, specURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>%s</title>
</head>
<body>
<redoc spec-url=%q></redoc>
<script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`, html.EscapeString(title), specURL)
}
