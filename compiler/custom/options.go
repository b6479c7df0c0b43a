package custom

import (
	"errors"
	"slices"
	"strings"

	"github.com/syssam/modelsbuilder/compiler/load"
)

// TypeOptions are the customizations of one content type.
type TypeOptions struct {
	Name           string
	Ignored        bool
	Base           *load.TypeRef
	OmitBase       bool
	Interfaces     []load.TypeRef
	HasConstructor bool
}

// PropertyOptions are the customizations of one property.
type PropertyOptions struct {
	Name    string
	Ignored bool
}

type propKey struct {
	typ, property string
}

func (k propKey) String() string {
	return scope(k.typ) + "/" + k.property
}

// Builder accumulates directives. Every key is write-once: a directive that
// sets a different value for an already set key is recorded as a conflict
// and reported by Build. Repeating an identical directive is allowed.
type Builder struct {
	types      map[string]*TypeOptions
	props      map[propKey]*PropertyOptions
	namespace  string
	directives []Directive
	errs       []error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		types: make(map[string]*TypeOptions),
		props: make(map[propKey]*PropertyOptions),
	}
}

// Add records directives.
func (b *Builder) Add(ds ...Directive) {
	for _, d := range ds {
		b.directives = append(b.directives, d)
		b.add(d)
	}
}

func (b *Builder) add(d Directive) {
	switch d := d.(type) {
	case IgnoreType:
		b.typ(d.Type).Ignored = true
	case RenameType:
		t := b.typ(d.Type)
		b.setString(d.Type, "type name", &t.Name, d.Name)
	case BaseOverride:
		t := b.typ(d.Type)
		switch {
		case t.Base == nil:
			base := d.Base
			t.Base, t.OmitBase = &base, d.Omit
		case t.Base.String() != d.Base.String():
			b.errs = append(b.errs, NewConflictError(d.Type, "base", t.Base.String(), d.Base.String()))
		case t.OmitBase != d.Omit:
			b.errs = append(b.errs, NewConflictError(d.Type, "base omission", t.OmitBase, d.Omit))
		}
	case DeclareInterface:
		t := b.typ(d.Type)
		if !slices.ContainsFunc(t.Interfaces, func(r load.TypeRef) bool { return r.String() == d.Interface.String() }) {
			t.Interfaces = append(t.Interfaces, d.Interface)
		}
	case HasConstructor:
		b.typ(d.Type).HasConstructor = true
	case IgnoreProperty:
		b.prop(d.Type, d.Property).Ignored = true
	case RenameProperty:
		p := b.prop(d.Type, d.Property)
		b.setString(propKey{d.Type, d.Property}.String(), "property name", &p.Name, d.Name)
	case Namespace:
		b.setString("", "namespace", &b.namespace, d.Path)
	}
}

func (b *Builder) setString(key, field string, dst *string, v string) {
	switch {
	case *dst == "":
		*dst = v
	case *dst != v:
		b.errs = append(b.errs, NewConflictError(key, field, *dst, v))
	}
}

func (b *Builder) typ(key string) *TypeOptions {
	t, ok := b.types[key]
	if !ok {
		t = &TypeOptions{}
		b.types[key] = t
	}
	return t
}

func (b *Builder) prop(typ, property string) *PropertyOptions {
	k := propKey{typ, property}
	p, ok := b.props[k]
	if !ok {
		p = &PropertyOptions{}
		b.props[k] = p
	}
	return p
}

// Directives returns the directives added so far.
func (b *Builder) Directives() []Directive {
	return slices.Clone(b.directives)
}

// Build returns an immutable snapshot of the accumulated options, or every
// conflict found.
func (b *Builder) Build() (*Options, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}
	o := &Options{
		types:      make(map[string]TypeOptions, len(b.types)),
		props:      make(map[propKey]PropertyOptions, len(b.props)),
		namespace:  b.namespace,
		directives: slices.Clone(b.directives),
	}
	for k, t := range b.types {
		c := *t
		c.Interfaces = slices.Clone(t.Interfaces)
		slices.SortFunc(c.Interfaces, func(a, b load.TypeRef) int {
			return strings.Compare(a.String(), b.String())
		})
		o.types[k] = c
	}
	for k, p := range b.props {
		o.props[k] = *p
	}
	return o, nil
}

// Options is an immutable set of customizations. The zero value and nil
// hold no customization.
type Options struct {
	types      map[string]TypeOptions
	props      map[propKey]PropertyOptions
	namespace  string
	directives []Directive
}

// Type returns the customizations of a content type identified by any of
// the given keys (typically its alias and its target name). Values found
// under earlier keys take precedence, interfaces are merged.
func (o *Options) Type(keys ...string) TypeOptions {
	var merged TypeOptions
	if o == nil {
		return merged
	}
	for _, k := range keys {
		if k == "" {
			continue
		}
		t, ok := o.types[k]
		if !ok {
			continue
		}
		if merged.Name == "" {
			merged.Name = t.Name
		}
		merged.Ignored = merged.Ignored || t.Ignored
		if merged.Base == nil && t.Base != nil {
			merged.Base, merged.OmitBase = t.Base, t.OmitBase
		}
		merged.HasConstructor = merged.HasConstructor || t.HasConstructor
		for _, i := range t.Interfaces {
			if !slices.ContainsFunc(merged.Interfaces, func(r load.TypeRef) bool { return r.String() == i.String() }) {
				merged.Interfaces = append(merged.Interfaces, i)
			}
		}
	}
	return merged
}

// Property returns the customizations of the property with the given alias
// on a content type identified by any of typeKeys, falling back to global
// property customizations.
func (o *Options) Property(alias string, typeKeys ...string) PropertyOptions {
	var merged PropertyOptions
	if o == nil {
		return merged
	}
	keys := slices.DeleteFunc(slices.Clone(typeKeys), func(k string) bool { return k == "" })
	for _, k := range append(keys, "") {
		p, ok := o.props[propKey{k, alias}]
		if !ok {
			continue
		}
		if merged.Name == "" {
			merged.Name = p.Name
		}
		merged.Ignored = merged.Ignored || p.Ignored
	}
	return merged
}

// Namespace returns the overridden import path of the generated package.
func (o *Options) Namespace() string {
	if o == nil {
		return ""
	}
	return o.namespace
}

// Directives returns the directives the options were built from.
func (o *Options) Directives() []Directive {
	if o == nil {
		return nil
	}
	return slices.Clone(o.directives)
}
