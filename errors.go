package modelsbuilder

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for model creation.
var (
	// ErrUnknownContentType is returned when no model is registered for the
	// content type of an element.
	ErrUnknownContentType = errors.New("modelsbuilder: unknown content type")

	// ErrNoConstructor is returned when a model is registered without a
	// generated constructor.
	ErrNoConstructor = errors.New("modelsbuilder: model has no constructor")

	// ErrNilElement is returned when creating a model from a nil element.
	ErrNilElement = errors.New("modelsbuilder: nil element")
)

// UnknownContentTypeError reports an element whose content type has no model.
type UnknownContentTypeError struct {
	alias string
}

// Error returns the error string.
func (e *UnknownContentTypeError) Error() string {
	return fmt.Sprintf("modelsbuilder: no model for content type %q", e.alias)
}

// Is reports whether the target error matches UnknownContentTypeError.
func (e *UnknownContentTypeError) Is(err error) bool {
	return err == ErrUnknownContentType
}

// Alias returns the content type alias.
func (e *UnknownContentTypeError) Alias() string {
	return e.alias
}

// NewUnknownContentTypeError returns a new UnknownContentTypeError.
func NewUnknownContentTypeError(alias string) *UnknownContentTypeError {
	return &UnknownContentTypeError{alias: alias}
}

// IsUnknownContentType returns true if the error is an UnknownContentTypeError.
func IsUnknownContentType(err error) bool {
	if err == nil {
		return false
	}
	var e *UnknownContentTypeError
	return errors.As(err, &e) || errors.Is(err, ErrUnknownContentType)
}

// NoConstructorError reports a model whose constructor is hand-written or
// omitted, so it cannot be created from the registry.
type NoConstructorError struct {
	alias string
	name  string
}

// Error returns the error string.
func (e *NoConstructorError) Error() string {
	return fmt.Sprintf("modelsbuilder: model %s (%s) has no generated constructor", e.name, e.alias)
}

// Is reports whether the target error matches NoConstructorError.
func (e *NoConstructorError) Is(err error) bool {
	return err == ErrNoConstructor
}

// NewNoConstructorError returns a new NoConstructorError.
func NewNoConstructorError(alias, name string) *NoConstructorError {
	return &NoConstructorError{alias: alias, name: name}
}

// IsNoConstructor returns true if the error is a NoConstructorError.
func IsNoConstructor(err error) bool {
	if err == nil {
		return false
	}
	var e *NoConstructorError
	return errors.As(err, &e) || errors.Is(err, ErrNoConstructor)
}
