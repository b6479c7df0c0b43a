package custom

import (
	"errors"
	"fmt"
)

// ErrConflict indicates two directives setting different values for the
// same key.
var ErrConflict = errors.New("modelsbuilder: conflicting customization")

// ConflictError reports a directive that conflicts with an earlier one.
type ConflictError struct {
	Key   string // Type key, or "type/property" for property directives
	Field string
	Old   any
	New   any
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("modelsbuilder: conflicting %s for %q: %v already set, got %v", e.Field, e.Key, e.Old, e.New)
}

// Is reports whether the target matches ErrConflict.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// NewConflictError creates a new ConflictError.
func NewConflictError(key, field string, oldValue, newValue any) *ConflictError {
	return &ConflictError{Key: key, Field: field, Old: oldValue, New: newValue}
}

// IsConflictError reports whether the error is a ConflictError.
func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
