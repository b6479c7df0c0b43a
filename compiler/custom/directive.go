// Package custom holds the customizations applied on top of a content-type
// graph: ignored and renamed types and properties, base overrides, declared
// interfaces and hand-written constructors.
//
// Customizations are collected as Directives from configuration and from
// hand-written source, accumulated by a Builder and frozen into Options.
package custom

import (
	"fmt"

	"github.com/syssam/modelsbuilder/compiler/load"
)

// Directive is a single customization. The set of directives is closed.
//
// Type keys identify a content type by alias or by target name.
// Property directives with an empty type key apply to every type.
type Directive interface {
	fmt.Stringer
	directive()
}

type (
	// IgnoreType excludes a content type, and every type inheriting from
	// it, from generation.
	IgnoreType struct {
		Type string
	}

	// RenameType overrides the target name of a content type.
	RenameType struct {
		Type string
		Name string
	}

	// BaseOverride replaces the generated base of a content type. With Omit
	// set the generated type declaration is left to hand-written code.
	BaseOverride struct {
		Type string
		Base load.TypeRef
		Omit bool
	}

	// DeclareInterface records an interface the hand-written code already
	// asserts for a type.
	DeclareInterface struct {
		Type      string
		Interface load.TypeRef
	}

	// HasConstructor records a hand-written constructor for a type.
	HasConstructor struct {
		Type string
	}

	// IgnoreProperty excludes a property because it is hand-implemented.
	IgnoreProperty struct {
		Type     string
		Property string
	}

	// RenameProperty overrides the target name of a property.
	RenameProperty struct {
		Type     string
		Property string
		Name     string
	}

	// Namespace overrides the import path of the generated package.
	Namespace struct {
		Path string
	}
)

func (IgnoreType) directive()       {}
func (RenameType) directive()       {}
func (BaseOverride) directive()     {}
func (DeclareInterface) directive() {}
func (HasConstructor) directive()   {}
func (IgnoreProperty) directive()   {}
func (RenameProperty) directive()   {}
func (Namespace) directive()        {}

func (d IgnoreType) String() string { return "ignore-type " + d.Type }
func (d RenameType) String() string { return "rename-type " + d.Type + " " + d.Name }
func (d BaseOverride) String() string {
	if d.Omit {
		return "base-omit " + d.Type + " " + d.Base.String()
	}
	return "base " + d.Type + " " + d.Base.String()
}
func (d DeclareInterface) String() string { return "interface " + d.Type + " " + d.Interface.String() }
func (d HasConstructor) String() string   { return "constructor " + d.Type }
func (d IgnoreProperty) String() string   { return "ignore-property " + scope(d.Type) + " " + d.Property }
func (d RenameProperty) String() string {
	return "rename-property " + scope(d.Type) + " " + d.Property + " " + d.Name
}
func (d Namespace) String() string { return "namespace " + d.Path }

func scope(typ string) string {
	if typ == "" {
		return "*"
	}
	return typ
}
