package openapi

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// DiagnosticKind classifies an advisory finding.
type DiagnosticKind string

const (
	// DiagnosticMissingDescription reports a response declared without a description.
	DiagnosticMissingDescription DiagnosticKind = "missing_description"
	// DiagnosticExampleMismatch reports an example that does not satisfy its schema.
	DiagnosticExampleMismatch DiagnosticKind = "example_mismatch"
	// DiagnosticDuplicateOperation reports a path+method or operationId declared twice.
	DiagnosticDuplicateOperation DiagnosticKind = "duplicate_operation"
	// DiagnosticSchemaNameConflict reports two distinct schemas sharing a component name.
	DiagnosticSchemaNameConflict DiagnosticKind = "schema_name_conflict"
	// DiagnosticAnonymousSchemaReuse reports an unnamed schema referenced more than once.
	DiagnosticAnonymousSchemaReuse DiagnosticKind = "anonymous_schema_reuse"
)

// Diagnostic is an advisory finding. Diagnostics never stop document assembly.
type Diagnostic struct {
	Kind        DiagnosticKind
	Message     string
	OperationID string
	Method      string
	Path        string
	Status      string
	// Example is the name of the offending named example, if any.
	Example string
	// Schema is the component name involved, if any.
	Schema string
	Errors []ErrorDetail
}

// String renders the diagnostic as a single line.
func (d Diagnostic) String() string {
	var sb strings.Builder
	sb.WriteString(d.Message)

	var where []string
	if d.OperationID != "" {
		where = append(where, "operationId="+d.OperationID)
	}
	if d.Status != "" {
		where = append(where, "status="+d.Status)
	}
	if d.Example != "" {
		where = append(where, "example="+d.Example)
	}
	if d.Schema != "" {
		where = append(where, "schema="+d.Schema)
	}
	if len(where) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(where, ", "))
		sb.WriteString(")")
	}

	for _, e := range d.Errors {
		sb.WriteString("\n  ")
		sb.WriteString(e.String())
	}
	return sb.String()
}

// attrs returns the diagnostic as slog-style key-value pairs.
func (d Diagnostic) attrs() []any {
	attrs := []any{"kind", string(d.Kind)}
	if d.OperationID != "" {
		attrs = append(attrs, "operation_id", d.OperationID)
	}
	if d.Method != "" {
		attrs = append(attrs, "method", d.Method)
	}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	if d.Status != "" {
		attrs = append(attrs, "status", d.Status)
	}
	if d.Example != "" {
		attrs = append(attrs, "example", d.Example)
	}
	if d.Schema != "" {
		attrs = append(attrs, "schema", d.Schema)
	}
	if len(d.Errors) > 0 {
		errs := make([]string, len(d.Errors))
		for i, e := range d.Errors {
			errs[i] = e.String()
		}
		attrs = append(attrs, "errors", errs)
	}
	return attrs
}

// DiagnosticSink receives advisory findings from the builder.
type DiagnosticSink interface {
	Report(d Diagnostic)
}

// DiagnosticFunc adapts a function to the DiagnosticSink interface.
type DiagnosticFunc func(d Diagnostic)

// Report implements DiagnosticSink.
func (f DiagnosticFunc) Report(d Diagnostic) { f(d) }

// Collector is an append-only DiagnosticSink that keeps every finding.
// It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	items []Diagnostic
}

// Report implements DiagnosticSink.
func (c *Collector) Report(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append(c.items, d)
}

// Diagnostics returns a copy of the collected findings in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Kind returns the collected findings of the given kind.
func (c *Collector) Kind(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diagnostics() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of collected findings.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Logger is the structured logging interface used by LogSink. It follows the
// log/slog convention of alternating key-value attributes.
type Logger interface {
	Debug(msg string, attrs ...any)
	Info(msg string, attrs ...any)
	Warn(msg string, attrs ...any)
	Error(msg string, attrs ...any)
	With(attrs ...any) Logger
}

// NopLogger discards all output.
type NopLogger struct{}

// Debug implements Logger.
func (NopLogger) Debug(_ string, _ ...any) {}

// Info implements Logger.
func (NopLogger) Info(_ string, _ ...any) {}

// Warn implements Logger.
func (NopLogger) Warn(_ string, _ ...any) {}

// Error implements Logger.
func (NopLogger) Error(_ string, _ ...any) {}

// With implements Logger.
func (n NopLogger) With(_ ...any) Logger { return n }

var _ Logger = NopLogger{}

// SlogAdapter wraps a *slog.Logger to implement Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter. If logger is nil, slog.Default() is used.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// Debug implements Logger.
func (s *SlogAdapter) Debug(msg string, attrs ...any) { s.logger.Debug(msg, attrs...) }

// Info implements Logger.
func (s *SlogAdapter) Info(msg string, attrs ...any) { s.logger.Info(msg, attrs...) }

// Warn implements Logger.
func (s *SlogAdapter) Warn(msg string, attrs ...any) { s.logger.Warn(msg, attrs...) }

// Error implements Logger.
func (s *SlogAdapter) Error(msg string, attrs ...any) { s.logger.Error(msg, attrs...) }

// With implements Logger.
func (s *SlogAdapter) With(attrs ...any) Logger {
	return &SlogAdapter{logger: s.logger.With(attrs...)}
}

var _ Logger = (*SlogAdapter)(nil)

// LogSink writes every diagnostic as a warning to a Logger.
type LogSink struct {
	logger Logger
}

// NewLogSink creates a LogSink. If logger is nil, NopLogger is used.
func NewLogSink(logger Logger) *LogSink {
	if logger == nil {
		logger = NopLogger{}
	}
	return &LogSink{logger: logger}
}

// Report implements DiagnosticSink.
func (s *LogSink) Report(d Diagnostic) {
	s.logger.Warn(d.Message, d.attrs()...)
}

var _ DiagnosticSink = (*LogSink)(nil)

// warnf builds a diagnostic with a formatted message.
func warnf(kind DiagnosticKind, format string, args ...any) Diagnostic {
	return Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
