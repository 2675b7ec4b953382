package openapi

// SecuritySchemeConfig describes the security scheme referenced by routes
// that require authentication.
//
// See: https://spec.openapis.org/oas/v3.1.0#security-scheme-object
type SecuritySchemeConfig struct {
	// Name is the key in components.securitySchemes (default: "bearerAuth").
	Name string
	// Type is the scheme type (default: "http").
	Type         string
	Scheme       string
	BearerFormat string
	Description  string
}

// Config configures a Builder. The zero value is usable: every field has a
// documented default. Independent builders never share configuration.
type Config struct {
	Title       string
	Description string
	Version     string
	Servers     []Server

	// SpecVersion is the "openapi" field of the document
	// (default: SpecVersion31).
	SpecVersion string

	// SecurityScheme is the scheme required by AuthRequired routes
	// (default: HTTP bearer with JWT format, named "bearerAuth").
	SecurityScheme *SecuritySchemeConfig

	// SuppressDescriptionWarnings disables the diagnostic reported for
	// responses declared without a description.
	SuppressDescriptionWarnings bool

	// SkipExampleValidation disables checking response examples against
	// their schemas.
	SkipExampleValidation bool

	// Validator checks examples (default: NewSchemaValidator()).
	Validator Validator

	// Sink receives advisory diagnostics (default: a LogSink writing to
	// slog.Default()).
	Sink DiagnosticSink
}

// DefaultSecurityScheme returns the bearer/JWT scheme used when Config
// leaves SecurityScheme unset.
func DefaultSecurityScheme() *SecuritySchemeConfig {
	return &SecuritySchemeConfig{
		Name:         "bearerAuth",
		Type:         "http",
		Scheme:       "bearer",
		BearerFormat: "JWT",
	}
}

// withDefaults returns a copy of the config with defaults applied.
func (c Config) withDefaults() Config {
	if c.SpecVersion == "" {
		c.SpecVersion = SpecVersion31
	}

	scheme := DefaultSecurityScheme()
	if c.SecurityScheme != nil {
		custom := *c.SecurityScheme
		if custom.Name == "" {
			custom.Name = scheme.Name
		}
		if custom.Type == "" {
			custom.Type = scheme.Type
		}
		scheme = &custom
	}
	c.SecurityScheme = scheme

	if len(c.Servers) > 0 {
		c.Servers = append([]Server(nil), c.Servers...)
	}
	if c.Validator == nil {
		c.Validator = NewSchemaValidator()
	}
	if c.Sink == nil {
		c.Sink = NewLogSink(NewSlogAdapter(nil))
	}
	return c
}
