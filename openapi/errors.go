package openapi

import (
	"errors"
	"strings"
)

// Sentinel errors for use with errors.Is.
var (
	// ErrInvalidRoute indicates a route whose method or path cannot be parsed.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrNoResponses indicates an operation without any declared response.
	ErrNoResponses = errors.New("operation has no responses")

	// ErrInvalidController indicates a malformed controller definition.
	ErrInvalidController = errors.New("invalid controller")

	// ErrSchemaCycle indicates a schema that contains itself and cannot be
	// encoded.
	ErrSchemaCycle = errors.New("schema contains a cycle")
)

// ComponentType identifies the part of the input where an error occurred.
type ComponentType string

const (
	ComponentController ComponentType = "controller"
	ComponentRoute      ComponentType = "route"
	ComponentOperation  ComponentType = "operation"
	ComponentSchema     ComponentType = "schema"
)

// BuilderError is a fatal error raised while assembling a document. It
// carries enough location context to find the offending definition.
type BuilderError struct {
	Component   ComponentType
	Tag         string
	RouteName   string
	Method      string
	Path        string
	OperationID string
	Message     string
	Cause       error
}

// Error implements the error interface.
func (e *BuilderError) Error() string {
	var sb strings.Builder
	sb.WriteString("openapi")

	if e.Component != "" {
		sb.WriteString(": ")
		sb.WriteString(string(e.Component))
	}
	if e.Tag != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Tag)
		if e.RouteName != "" {
			sb.WriteString(".")
			sb.WriteString(e.RouteName)
		}
	}
	if e.Method != "" && e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Method)
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	} else if e.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Path)
	}
	if e.OperationID != "" {
		sb.WriteString(" [operationId: ")
		sb.WriteString(e.OperationID)
		sb.WriteString("]")
	}
	if e.Message != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *BuilderError) Unwrap() error {
	return e.Cause
}
