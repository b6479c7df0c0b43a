// Package load provides the content-type graph consumed by the compiler and
// the sources it is loaded from.
package load

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/syssam/modelsbuilder"
)

// Graph is a snapshot of the content types of a backend. Types reference each
// other by id through explicit edge lists.
type Graph struct {
	Types []*ContentType `json:"types" yaml:"types" msgpack:"types"`

	byID map[int]*ContentType
}

// ContentType describes a content, media, member or element type.
type ContentType struct {
	ID          int                     `json:"id" yaml:"id" msgpack:"id"`
	Key         uuid.UUID               `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key,omitempty"`
	Alias       string                  `json:"alias" yaml:"alias" msgpack:"alias"`
	Name        string                  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	Kind        modelsbuilder.Kind      `json:"kind" yaml:"kind" msgpack:"kind"`
	ParentID    int                     `json:"parent,omitempty" yaml:"parent,omitempty" msgpack:"parent,omitempty"`
	MixinIDs    []int                   `json:"mixins,omitempty" yaml:"mixins,omitempty" msgpack:"mixins,omitempty"`
	Properties  []*PropertyType         `json:"properties,omitempty" yaml:"properties,omitempty" msgpack:"properties,omitempty"`
	Variations  modelsbuilder.Variation `json:"variations,omitempty" yaml:"variations,omitempty" msgpack:"variations,omitempty"`
}

// PropertyType describes a property of a content type.
type PropertyType struct {
	Alias       string                  `json:"alias" yaml:"alias" msgpack:"alias"`
	Name        string                  `json:"name,omitempty" yaml:"name,omitempty" msgpack:"name,omitempty"`
	Description string                  `json:"description,omitempty" yaml:"description,omitempty" msgpack:"description,omitempty"`
	Type        TypeRef                 `json:"type" yaml:"type" msgpack:"type"`
	Variations  modelsbuilder.Variation `json:"variations,omitempty" yaml:"variations,omitempty" msgpack:"variations,omitempty"`

	owner int
}

// Owner returns the id of the content type declaring the property.
// It is set by Graph.Validate.
func (p *PropertyType) Owner() int {
	return p.owner
}

// NewGraph returns a validated graph of the given types.
func NewGraph(types ...*ContentType) (*Graph, error) {
	g := &Graph{Types: types}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate indexes the graph and checks its structural invariants: unique
// ids, aliases unique per kind, no dangling references and unique property
// aliases per type. All violations are reported together.
func (g *Graph) Validate() error {
	g.byID = make(map[int]*ContentType, len(g.Types))
	var errs []error
	aliases := make(map[modelsbuilder.Kind]map[string]int)
	for _, t := range g.Types {
		if t.Kind == 0 {
			t.Kind = modelsbuilder.KindContent
		}
		if t.ID <= 0 {
			errs = append(errs, NewGraphError(t.Alias, "", fmt.Sprintf("invalid id %d", t.ID)))
			continue
		}
		if _, ok := g.byID[t.ID]; ok {
			errs = append(errs, NewGraphError(t.Alias, "", fmt.Sprintf("duplicate id %d", t.ID)))
			continue
		}
		g.byID[t.ID] = t
		if t.Alias == "" {
			errs = append(errs, NewGraphError("", "", fmt.Sprintf("type %d has no alias", t.ID)))
		}
		if aliases[t.Kind] == nil {
			aliases[t.Kind] = make(map[string]int)
		}
		if other, ok := aliases[t.Kind][t.Alias]; ok {
			errs = append(errs, NewGraphError(t.Alias, "", fmt.Sprintf("alias shared by types %d and %d", other, t.ID)))
		}
		aliases[t.Kind][t.Alias] = t.ID
		props := make(map[string]bool, len(t.Properties))
		for _, p := range t.Properties {
			p.owner = t.ID
			if p.Alias == "" {
				errs = append(errs, NewGraphError(t.Alias, "", "property without alias"))
				continue
			}
			if props[p.Alias] {
				errs = append(errs, NewGraphError(t.Alias, p.Alias, "duplicate property alias"))
			}
			props[p.Alias] = true
			if p.Type.IsZero() {
				errs = append(errs, NewGraphError(t.Alias, p.Alias, "missing value type"))
			}
		}
	}
	for _, t := range g.Types {
		if t.ParentID != 0 && g.byID[t.ParentID] == nil {
			errs = append(errs, NewGraphError(t.Alias, "", fmt.Sprintf("unknown parent %d", t.ParentID)))
		}
		for _, id := range t.MixinIDs {
			if g.byID[id] == nil {
				errs = append(errs, NewGraphError(t.Alias, "", fmt.Sprintf("unknown mixin %d", id)))
			}
		}
	}
	if len(errs) == 0 {
		errs = g.cycles()
	}
	return errors.Join(errs...)
}

// cycles reports types that reach themselves through parent and mixin
// edges.
func (g *Graph) cycles() []error {
	const (
		visiting = 1
		done     = 2
	)
	var (
		errs  []error
		state = make(map[int]int, len(g.Types))
		visit func(t *ContentType) bool
	)
	visit = func(t *ContentType) bool {
		switch state[t.ID] {
		case visiting:
			return true
		case done:
			return false
		}
		state[t.ID] = visiting
		next := t.MixinIDs
		if t.ParentID != 0 {
			next = append([]int{t.ParentID}, next...)
		}
		cyclic := false
		for _, id := range next {
			if visit(g.byID[id]) {
				cyclic = true
				break
			}
		}
		state[t.ID] = done
		return cyclic
	}
	for _, t := range g.Sorted() {
		if state[t.ID] == 0 && visit(t) {
			errs = append(errs, NewGraphError(t.Alias, "", "inheritance or composition cycle"))
		}
	}
	return errs
}

// Type returns the content type with the given id, or nil.
func (g *Graph) Type(id int) *ContentType {
	if g.byID == nil {
		g.byID = make(map[int]*ContentType, len(g.Types))
		for _, t := range g.Types {
			g.byID[t.ID] = t
		}
	}
	return g.byID[id]
}

// TypeByAlias returns the first content type with the given alias, or nil.
func (g *Graph) TypeByAlias(alias string) *ContentType {
	for _, t := range g.Types {
		if t.Alias == alias {
			return t
		}
	}
	return nil
}

// Owner returns the content type declaring p.
func (g *Graph) Owner(p *PropertyType) *ContentType {
	return g.Type(p.owner)
}

// Ancestors returns the parent chain of t, nearest first.
func (g *Graph) Ancestors(t *ContentType) []*ContentType {
	var chain []*ContentType
	for p := g.Type(t.ParentID); p != nil; p = g.Type(p.ParentID) {
		chain = append(chain, p)
	}
	return chain
}

// Sorted returns the types ordered by id.
func (g *Graph) Sorted() []*ContentType {
	types := slices.Clone(g.Types)
	slices.SortFunc(types, func(a, b *ContentType) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return types
}
