package load

import (
	"errors"
	"strings"
)

// ErrInvalidGraph indicates a content-type graph that violates its invariants.
var ErrInvalidGraph = errors.New("modelsbuilder: invalid content type graph")

// GraphError reports a structural problem in a content-type graph.
type GraphError struct {
	Type     string // Content type alias
	Property string // Property alias (if applicable)
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *GraphError) Error() string {
	var b strings.Builder
	b.WriteString("modelsbuilder: graph error")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(e.Type)
	}
	if e.Property != "" {
		b.WriteString(" property ")
		b.WriteString(e.Property)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *GraphError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrInvalidGraph.
func (e *GraphError) Is(target error) bool {
	return target == ErrInvalidGraph
}

// NewGraphError creates a new GraphError.
func NewGraphError(typeAlias, propertyAlias, message string) *GraphError {
	return &GraphError{Type: typeAlias, Property: propertyAlias, Message: message}
}

// IsGraphError reports whether the error is a GraphError.
func IsGraphError(err error) bool {
	var ge *GraphError
	return errors.As(err, &ge)
}
