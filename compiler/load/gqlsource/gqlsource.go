// Package gqlsource loads content type graphs from GraphQL SDL documents.
//
// Object and interface types annotated with @contentType are content
// types, numbered in document order. The types an object implements are
// its mixins, and @parent names its parent by alias. Fields are properties:
//
//	type Product implements Seo @contentType(alias: "product") @parent(alias: "page") {
//		price: Float @property(type: "github.com/shopspring/decimal.Decimal")
//		related: [Product!]
//	}
//
// Without an explicit type, scalars map to Go builtins and references to
// other content types become model placeholders.
package gqlsource

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/syssam/modelsbuilder"
	"github.com/syssam/modelsbuilder/compiler/load"
)

// Directives declares the directives read by the source.
const Directives = `
directive @contentType(alias: String!, name: String, kind: String, key: String, variations: String) on OBJECT | INTERFACE
directive @parent(alias: String!) on OBJECT | INTERFACE
directive @property(alias: String, name: String, type: String, variations: String) on FIELD_DEFINITION
`

var scalars = map[string]string{
	"String":  "string",
	"ID":      "string",
	"Int":     "int",
	"Float":   "float64",
	"Boolean": "bool",
}

// Source loads the graph from SDL files.
type Source struct {
	Paths []string
}

var _ load.Source = (*Source)(nil)

// Load implements load.Source.
func (s *Source) Load(ctx context.Context) (*load.Graph, error) {
	sources := make([]*ast.Source, 0, len(s.Paths))
	for _, path := range s.Paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("gqlsource: %w", err)
		}
		sources = append(sources, &ast.Source{Name: path, Input: string(b)})
	}
	return Parse(sources...)
}

// Parse returns the graph described by the SDL sources.
func Parse(sources ...*ast.Source) (*load.Graph, error) {
	doc, err := parser.ParseSchemas(sources...)
	if err != nil {
		return nil, fmt.Errorf("gqlsource: %w", err)
	}
	c := &converter{byName: make(map[string]*load.ContentType)}
	for _, def := range doc.Definitions {
		if def.Kind != ast.Object && def.Kind != ast.Interface {
			continue
		}
		d := def.Directives.ForName("contentType")
		if d == nil {
			continue
		}
		t, err := c.contentType(def, d)
		if err != nil {
			return nil, err
		}
		c.types = append(c.types, t)
		c.defs = append(c.defs, def)
		c.byName[def.Name] = t
	}
	for i, t := range c.types {
		if err := c.link(t, c.defs[i]); err != nil {
			return nil, err
		}
	}
	return load.NewGraph(c.types...)
}

type converter struct {
	types  []*load.ContentType
	defs   []*ast.Definition
	byName map[string]*load.ContentType
}

func arg(d *ast.Directive, name string) string {
	if d == nil {
		return ""
	}
	if a := d.Arguments.ForName(name); a != nil && a.Value != nil {
		return a.Value.Raw
	}
	return ""
}

func (c *converter) contentType(def *ast.Definition, d *ast.Directive) (*load.ContentType, error) {
	t := &load.ContentType{
		ID:          len(c.types) + 1,
		Alias:       arg(d, "alias"),
		Name:        arg(d, "name"),
		Description: def.Description,
		Kind:        modelsbuilder.KindContent,
	}
	if t.Alias == "" {
		return nil, load.NewGraphError(def.Name, "", "@contentType without alias")
	}
	if t.Name == "" {
		t.Name = def.Name
	}
	var err error
	if k := arg(d, "kind"); k != "" {
		if t.Kind, err = modelsbuilder.ParseKind(k); err != nil {
			return nil, load.NewGraphError(t.Alias, "", err.Error())
		}
	}
	if k := arg(d, "key"); k != "" {
		if t.Key, err = uuid.Parse(k); err != nil {
			return nil, load.NewGraphError(t.Alias, "", "invalid key: "+err.Error())
		}
	}
	if t.Variations, err = modelsbuilder.ParseVariation(arg(d, "variations")); err != nil {
		return nil, load.NewGraphError(t.Alias, "", err.Error())
	}
	for _, f := range def.Fields {
		p, err := c.property(t, f)
		if err != nil {
			return nil, err
		}
		t.Properties = append(t.Properties, p)
	}
	return t, nil
}

func (c *converter) property(t *load.ContentType, f *ast.FieldDefinition) (*load.PropertyType, error) {
	d := f.Directives.ForName("property")
	p := &load.PropertyType{
		Alias:       arg(d, "alias"),
		Name:        arg(d, "name"),
		Description: f.Description,
	}
	if p.Alias == "" {
		p.Alias = f.Name
	}
	var err error
	if p.Variations, err = modelsbuilder.ParseVariation(arg(d, "variations")); err != nil {
		return nil, load.NewGraphError(t.Alias, p.Alias, err.Error())
	}
	if typ := arg(d, "type"); typ != "" {
		if p.Type, err = load.ParseTypeRef(typ); err != nil {
			return nil, load.NewGraphError(t.Alias, p.Alias, err.Error())
		}
	}
	// Without a type, the field type is mapped once every content type is
	// known.
	return p, nil
}

// link resolves parents, mixins and the field types referencing content
// types.
func (c *converter) link(t *load.ContentType, def *ast.Definition) error {
	if alias := arg(def.Directives.ForName("parent"), "alias"); alias != "" {
		for _, other := range c.types {
			if other.Alias == alias {
				t.ParentID = other.ID
				break
			}
		}
		if t.ParentID == 0 {
			return load.NewGraphError(t.Alias, "", fmt.Sprintf("unknown parent %q", alias))
		}
	}
	for _, name := range def.Interfaces {
		m, ok := c.byName[name]
		if !ok {
			return load.NewGraphError(t.Alias, "", fmt.Sprintf("implemented type %s is not a content type", name))
		}
		t.MixinIDs = append(t.MixinIDs, m.ID)
	}
	for i, f := range def.Fields {
		p := t.Properties[i]
		if !p.Type.IsZero() {
			continue
		}
		ref, err := c.typeRef(f.Type)
		if err != nil {
			return load.NewGraphError(t.Alias, p.Alias, err.Error())
		}
		p.Type = ref
	}
	return nil
}

func (c *converter) typeRef(t *ast.Type) (load.TypeRef, error) {
	if t.Elem != nil {
		elem, err := c.typeRef(t.Elem)
		if err != nil {
			return load.TypeRef{}, err
		}
		return load.SliceOf(elem), nil
	}
	if b, ok := scalars[t.NamedType]; ok {
		return load.Builtin(b), nil
	}
	if m, ok := c.byName[t.NamedType]; ok {
		return load.ModelOf(m.Alias), nil
	}
	return load.TypeRef{}, fmt.Errorf("no Go type for GraphQL type %s", t.NamedType)
}
