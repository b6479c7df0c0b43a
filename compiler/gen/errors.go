package gen

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Sentinel errors for common failure cases.
var (
	// ErrNameCollision indicates two generated declarations share a name.
	ErrNameCollision = errors.New("modelsbuilder: name collision")
	// ErrInvalidComposition indicates an element type composed from, or
	// inheriting, a non-element type.
	ErrInvalidComposition = errors.New("modelsbuilder: invalid composition")
	// ErrMissingConfig indicates a configuration error.
	ErrMissingConfig = errors.New("modelsbuilder: missing configuration")
	// ErrGenerationFailed indicates a code generation failure.
	ErrGenerationFailed = errors.New("modelsbuilder: code generation failed")
)

// NameCollisionError reports aliases mapping to the same target name.
// Type is empty for collisions between content types.
type NameCollisionError struct {
	Type    string
	Name    string
	Aliases []string
}

// Error implements the error interface.
func (e *NameCollisionError) Error() string {
	var b strings.Builder
	b.WriteString("modelsbuilder: name collision")
	if e.Type != "" {
		b.WriteString(" on type ")
		b.WriteString(strconv.Quote(e.Type))
	}
	fmt.Fprintf(&b, ": %s is the name of ", e.Name)
	for i, a := range e.Aliases {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Quote(a))
	}
	return b.String()
}

// Is reports whether the target matches the sentinel error for NameCollisionError.
func (e *NameCollisionError) Is(target error) bool {
	return target == ErrNameCollision
}

// NewNameCollisionError creates a new NameCollisionError.
func NewNameCollisionError(typeAlias, name string, aliases ...string) *NameCollisionError {
	return &NameCollisionError{
		Type:    typeAlias,
		Name:    name,
		Aliases: aliases,
	}
}

// InvalidCompositionError reports an element type whose parent or mixin
// is not an element type.
type InvalidCompositionError struct {
	Type     string
	Other    string
	Relation string // "parent" or "mixin"
}

// Error implements the error interface.
func (e *InvalidCompositionError) Error() string {
	return fmt.Sprintf("modelsbuilder: invalid composition: element type %q cannot use %q as %s", e.Type, e.Other, e.Relation)
}

// Is reports whether the target matches the sentinel error for InvalidCompositionError.
func (e *InvalidCompositionError) Is(target error) bool {
	return target == ErrInvalidComposition
}

// NewInvalidCompositionError creates a new InvalidCompositionError.
func NewInvalidCompositionError(typeAlias, other, relation string) *InvalidCompositionError {
	return &InvalidCompositionError{
		Type:     typeAlias,
		Other:    other,
		Relation: relation,
	}
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Option  string
	Value   any
	Message string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("modelsbuilder: config error for %q (value: %v): %s", e.Option, e.Value, e.Message)
	}
	return fmt.Sprintf("modelsbuilder: config error for %q: %s", e.Option, e.Message)
}

// Is reports whether the target matches the sentinel error for ConfigError.
func (e *ConfigError) Is(target error) bool {
	return target == ErrMissingConfig
}

// NewConfigError creates a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{
		Option:  option,
		Value:   value,
		Message: message,
	}
}

// GenerationError represents a code generation error.
type GenerationError struct {
	Phase   string // "model", "infos", "format"
	File    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	var b strings.Builder
	b.WriteString("modelsbuilder: generation error")
	if e.Phase != "" {
		b.WriteString(" in phase ")
		b.WriteString(e.Phase)
	}
	if e.File != "" {
		b.WriteString(" (file: ")
		b.WriteString(e.File)
		b.WriteString(")")
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
func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches the sentinel error for GenerationError.
func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

// NewGenerationError creates a new GenerationError.
func NewGenerationError(phase, file, message string, cause error) *GenerationError {
	return &GenerationError{
		Phase:   phase,
		File:    file,
		Message: message,
		Cause:   cause,
	}
}

// IsNameCollisionError reports whether the error is a NameCollisionError.
func IsNameCollisionError(err error) bool {
	var nameErr *NameCollisionError
	return errors.As(err, &nameErr)
}

// IsInvalidCompositionError reports whether the error is an InvalidCompositionError.
func IsInvalidCompositionError(err error) bool {
	var compErr *InvalidCompositionError
	return errors.As(err, &compErr)
}

// IsConfigError reports whether the error is a ConfigError.
func IsConfigError(err error) bool {
	var configErr *ConfigError
	return errors.As(err, &configErr)
}

// IsGenerationError reports whether the error is a GenerationError.
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
