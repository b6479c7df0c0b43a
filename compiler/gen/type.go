package gen

import (
	"slices"

	"github.com/syssam/modelsbuilder"
	"github.com/syssam/modelsbuilder/compiler/load"

	"github.com/google/uuid"
)

const (
	// Reserved is the name of the method every model gets from its root.
	// Properties cannot use it.
	Reserved = "Element"
	// InfosVar is the name of the generated models registry.
	InfosVar = "Infos"
)

type (
	// Graph is the code model of one generation run: the content types
	// that produce Go declarations, sorted by name.
	Graph struct {
		*Config
		// Package is the import path of the generated package.
		Package string
		// PackageName is the package clause of generated files.
		PackageName string
		Types       []*Type
		source      *load.Graph
	}

	// Type is the code model of one content type.
	Type struct {
		cfg *Config
		def *load.ContentType
		pkg string

		ID          int
		Key         uuid.UUID
		Alias       string
		Kind        modelsbuilder.Kind
		Description string
		Variations  modelsbuilder.Variation

		// Name is the Go name of the model.
		Name string
		// IsCustomName reports whether Name differs from the name derived
		// from the alias.
		IsCustomName bool

		// Parent is the content type the model inherits from.
		Parent *Type
		// Mixins are the content types the model composes.
		Mixins []*Type

		// Base is the type embedded by the model struct. It is nil when
		// a hand-written declaration takes over and embeds nothing.
		Base *load.TypeRef
		// OmitBase reports whether the struct declaration is hand-written.
		OmitBase bool
		// OmitConstructor reports whether no constructor is generated.
		OmitConstructor bool
		// handConstructor reports whether hand-written code declares the
		// constructor.
		handConstructor bool
		// DeclaredInterfaces are the interfaces hand-written code asserts
		// the model implements.
		DeclaredInterfaces []load.TypeRef

		// IsMixin reports whether another model composes this one, or one
		// of its descendants.
		IsMixin bool
		// IsParent reports whether another model inherits from this one.
		IsParent bool

		// LocalMixins are the mixins whose interfaces the model asserts.
		LocalMixins []*Type
		// ExpandedMixins are the mixins whose properties the model
		// implements.
		ExpandedMixins []*Type

		// Properties are the properties the content type declares.
		Properties []*Property
		// ExpandedProperties are Properties and the properties of
		// ExpandedMixins.
		ExpandedProperties []*Property
	}

	// Property is the code model of one property type.
	Property struct {
		def *load.PropertyType

		Owner       *Type
		Alias       string
		Description string
		Variations  modelsbuilder.Variation
		// Name is the Go name of the accessor.
		Name         string
		IsCustomName bool
		// Type is the value type of the property.
		Type load.TypeRef
		// Errors are generation errors. A property with errors is written
		// as a comment.
		Errors []string
	}
)

// Type returns the model of the content type with the given alias, or nil.
func (g *Graph) Type(alias string) *Type {
	for _, t := range g.Types {
		if t.Alias == alias {
			return t
		}
	}
	return nil
}

// Names returns the Go names of the declarations the graph generates.
func (g *Graph) Names() []string {
	names := []string{InfosVar}
	for _, t := range g.Types {
		names = append(names, t.AliasConst())
		if !t.OmitBase {
			names = append(names, t.Name)
		}
		if !t.OmitConstructor {
			names = append(names, t.ConstructorName())
		}
		if t.IsMixin {
			names = append(names, t.InterfaceName())
		}
		if g.MemberStyle == StylePropertyAndStatic || g.MemberStyle == StyleStatic {
			for _, p := range t.Properties {
				names = append(names, p.StaticName())
			}
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Source returns the content type graph the model was built from.
func (g *Graph) Source() *load.Graph {
	return g.source
}

// InterfaceName returns the name of the interface of a mixin.
func (t *Type) InterfaceName() string {
	return t.cfg.interfaceName(t.Name)
}

// AliasConst returns the name of the constant holding the alias.
func (t *Type) AliasConst() string {
	return t.Name + "Alias"
}

// ConstructorName returns the name of the model constructor.
func (t *Type) ConstructorName() string {
	return "New" + t.Name
}

// FileName returns the name of the file the model is written to.
func (t *Type) FileName() string {
	return snake(t.Name) + t.cfg.FileSuffix
}

// BaseDeclaration returns the type embedded by the generated struct, or nil
// when the struct is hand-written.
func (t *Type) BaseDeclaration() *load.TypeRef {
	if t.OmitBase {
		return nil
	}
	return t.Base
}

// BaseField returns the name of the embedded field, or "".
func (t *Type) BaseField() string {
	if t.Base == nil {
		return ""
	}
	r := *t.Base
	if r.Kind == load.RefPointer {
		r = r.Args[0]
	}
	if r.Kind != load.RefNamed {
		return ""
	}
	return r.Name
}

// IsElement reports whether the content type is an element type.
func (t *Type) IsElement() bool {
	return t.Kind == modelsbuilder.KindElement
}

// Ancestors returns the parent chain of the model, nearest first.
func (t *Type) Ancestors() []*Type {
	var out []*Type
	for p := t.Parent; p != nil; p = p.Parent {
		out = append(out, p)
	}
	return out
}

// Asserted reports whether hand-written code asserts the model implements
// the interface of m.
func (t *Type) Asserted(m *Type) bool {
	want := load.Named(t.pkg, m.InterfaceName()).String()
	return slices.ContainsFunc(t.DeclaredInterfaces, func(r load.TypeRef) bool { return r.String() == want })
}

// StaticName returns the name of the package function reading the
// property.
func (p *Property) StaticName() string {
	return "Get" + p.Owner.Name + p.Name
}

// HasErrors reports whether the property has generation errors.
func (p *Property) HasErrors() bool {
	return len(p.Errors) > 0
}
