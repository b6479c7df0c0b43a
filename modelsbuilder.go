// Package modelsbuilder is the runtime surface that generated content models
// compile against.
//
// Generated models embed Model (directly or through a parent model) and read
// their property values through Value. The actual value lookup, including
// culture/segment variation and fallback, is delegated to the Element the
// model wraps, which is supplied by the hosting content backend.
package modelsbuilder

import (
	"github.com/google/uuid"
)

// Element is a published content item as exposed by the backend.
type Element interface {
	// ContentTypeAlias returns the alias of the item's content type.
	ContentTypeAlias() string
	// Key returns the item's unique key.
	Key() uuid.UUID
	// Value resolves the value of a property. The boolean result
	// reports whether a value was found.
	Value(alias string, q Query) (any, bool)
}

// Modeled is implemented by every generated model.
type Modeled interface {
	Element() Element
}

// Model is the default root embedded by generated models.
type Model struct {
	element Element
}

// NewModel returns a Model wrapping the given element.
func NewModel(e Element) Model {
	return Model{element: e}
}

// Element returns the wrapped element.
func (m Model) Element() Element {
	return m.element
}

// ContentTypeAlias returns the alias of the wrapped element's content type,
// or an empty string if the model wraps nothing.
func (m Model) ContentTypeAlias() string {
	if m.element == nil {
		return ""
	}
	return m.element.ContentTypeAlias()
}

// Query carries the variation context and fallback policy of a value lookup.
type Query struct {
	Culture    string
	Segment    string
	Fallback   []Fallback
	Default    any
	HasDefault bool
}

// ValueOption configures a Query.
type ValueOption func(*Query)

// Culture sets the culture of the lookup.
func Culture(culture string) ValueOption {
	return func(q *Query) {
		q.Culture = culture
	}
}

// Segment sets the segment of the lookup.
func Segment(segment string) ValueOption {
	return func(q *Query) {
		q.Segment = segment
	}
}

// WithFallback appends fallback strategies, tried in order.
// FallbackNone entries are skipped.
func WithFallback(f ...Fallback) ValueOption {
	return func(q *Query) {
		for _, s := range f {
			if s != FallbackNone {
				q.Fallback = append(q.Fallback, s)
			}
		}
	}
}

// Default sets the value returned when nothing else resolves.
// It implies FallbackDefault.
func Default(v any) ValueOption {
	return func(q *Query) {
		q.Default = v
		q.HasDefault = true
	}
}

// NewQuery builds a Query from options.
func NewQuery(opts ...ValueOption) Query {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	return q
}

// Value reads the property with the given alias from a model. The zero value
// of T is returned when the property has no value, or when the value has an
// unexpected type.
func Value[T any](m Modeled, alias string, opts ...ValueOption) T {
	var zero T
	if m == nil || m.Element() == nil {
		return zero
	}
	q := NewQuery(opts...)
	if v, ok := m.Element().Value(alias, q); ok {
		if tv, ok := v.(T); ok {
			return tv
		}
		return zero
	}
	if q.HasDefault {
		if tv, ok := q.Default.(T); ok {
			return tv
		}
	}
	return zero
}

// ModelInfo describes a generated model.
type ModelInfo struct {
	Alias string
	Kind  Kind
	Key   uuid.UUID
	// Name is the Go type name of the model.
	Name string
	// New wraps an element into the model. It is nil when the model has no
	// generated constructor.
	New func(Element) Modeled
}

// Infos is a registry of generated models.
type Infos []ModelInfo

// Lookup returns the info of the model with the given content type alias.
func (is Infos) Lookup(alias string) (ModelInfo, bool) {
	for _, info := range is {
		if info.Alias == alias {
			return info, true
		}
	}
	return ModelInfo{}, false
}

// Create wraps an element into the model registered for its content type.
func (is Infos) Create(e Element) (Modeled, error) {
	if e == nil {
		return nil, ErrNilElement
	}
	info, ok := is.Lookup(e.ContentTypeAlias())
	if !ok {
		return nil, NewUnknownContentTypeError(e.ContentTypeAlias())
	}
	if info.New == nil {
		return nil, NewNoConstructorError(info.Alias, info.Name)
	}
	return info.New(e), nil
}
