package gen

import (
	"cmp"
	"errors"
	"fmt"
	"go/token"
	"log/slog"
	"maps"
	"slices"

	"github.com/syssam/modelsbuilder/compiler/custom"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// Build returns the code model of the content types in src, customized by
// opts. Colliding names and invalid compositions are reported together in
// the returned error, and no model is returned then.
//
// The model is built in stages: names, bases, ignored types, ignored
// properties, mixin and parent tags, property value types, validation,
// composition, property expansion and ordering.
func Build(cfg *Config, src *load.Graph, opts *custom.Options) (*Graph, error) {
	if cfg == nil {
		return nil, NewConfigError("Config", nil, "config cannot be nil")
	}
	pkg := cfg.Package
	if ns := opts.Namespace(); ns != "" {
		pkg = ns
	}
	if pkg == "" {
		return nil, NewConfigError("Package", nil, "package cannot be empty")
	}
	if src == nil {
		src = &load.Graph{}
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	b := &builder{
		cfg:  cfg,
		pkg:  pkg,
		src:  src,
		opts: opts,
		log:  cfg.logger().With("package", pkg),
		byID: make(map[int]*Type, len(src.Types)),
	}
	b.names()
	b.bases()
	b.ignoreTypes()
	b.ignoreProperties()
	b.tag()
	b.resolveValues()
	if err := b.check(); err != nil {
		return nil, err
	}
	b.compose()
	if err := b.expand(); err != nil {
		return nil, err
	}
	b.sort()
	name := cfg.PackageName
	if name == "" {
		name = symbols.DefaultPackageName(pkg)
	}
	b.log.Debug("code model built", "types", len(b.types))
	return &Graph{
		Config:      cfg,
		Package:     pkg,
		PackageName: name,
		Types:       b.types,
		source:      src,
	}, nil
}

type builder struct {
	cfg   *Config
	pkg   string
	src   *load.Graph
	opts  *custom.Options
	log   *slog.Logger
	types []*Type
	byID  map[int]*Type
	errs  []error
}

// names creates the models and names them and their properties.
func (b *builder) names() {
	for _, ct := range b.src.Sorted() {
		t := &Type{
			cfg:         b.cfg,
			def:         ct,
			pkg:         b.pkg,
			ID:          ct.ID,
			Key:         ct.Key,
			Alias:       ct.Alias,
			Kind:        ct.Kind,
			Description: ct.Description,
			Variations:  ct.Variations,
		}
		t.Name = b.name(ct.Alias, ct.Name, b.opts.Type(ct.Alias).Name)
		t.IsCustomName = t.Name != pascal(ct.Alias)
		if t.Name == "" {
			b.errs = append(b.errs, NewGenerationError("model", "", fmt.Sprintf("content type %q has no valid Go name", ct.Alias), nil))
		}
		for _, pt := range ct.Properties {
			p := &Property{
				def:         pt,
				Owner:       t,
				Alias:       pt.Alias,
				Description: pt.Description,
				Variations:  pt.Variations,
				Type:        pt.Type,
			}
			p.Name = b.name(pt.Alias, pt.Name, b.opts.Property(pt.Alias, ct.Alias, t.Name).Name)
			p.IsCustomName = p.Name != pascal(pt.Alias)
			t.Properties = append(t.Properties, p)
		}
		b.types = append(b.types, t)
		b.byID[ct.ID] = t
	}
	for _, t := range b.types {
		t.Parent = b.byID[t.def.ParentID]
		for _, id := range t.def.MixinIDs {
			t.Mixins = append(t.Mixins, b.byID[id])
		}
	}
}

func (b *builder) name(alias, display, override string) string {
	if override != "" {
		if token.IsIdentifier(override) && token.IsExported(override) {
			return override
		}
		return pascal(override)
	}
	if b.cfg.NameSource == NameFromName && display != "" {
		if name := pascal(display); name != "" {
			return name
		}
	}
	return pascal(alias)
}

// bases decides the type each model embeds and whether its declaration
// and constructor are generated.
func (b *builder) bases() {
	for _, t := range b.types {
		to := b.opts.Type(t.Alias, t.Name)
		t.DeclaredInterfaces = to.Interfaces
		var base load.TypeRef
		switch {
		case to.Base != nil && to.OmitBase:
			t.OmitBase = true
			base = *to.Base
		case to.Base != nil:
			base = *to.Base
		case t.Parent != nil:
			base = load.Named(b.pkg, t.Parent.Name)
		default:
			base = b.cfg.Root
		}
		if !base.IsZero() {
			t.Base = &base
		}
		t.handConstructor = to.HasConstructor
		t.OmitConstructor = t.OmitBase || to.HasConstructor
	}
	// A generated constructor initializes the root or calls the parent
	// constructor, hand-written or not.
	for _, t := range b.types {
		if !t.OmitConstructor && !b.constructible(t) {
			t.OmitConstructor = true
		}
	}
}

func (b *builder) constructible(t *Type) bool {
	switch {
	case t.Base == nil:
		return false
	case t.Base.String() == b.cfg.Root.String():
		return true
	case t.Parent != nil && t.Base.String() == load.Named(b.pkg, t.Parent.Name).String():
		if t.Parent.handConstructor {
			return true
		}
		return !t.Parent.OmitBase && b.constructible(t.Parent)
	}
	return false
}

// ignoreTypes removes ignored types and their descendants, and unplugs
// ignored mixins from the remaining types.
func (b *builder) ignoreTypes() {
	ignored := make(map[*Type]bool)
	for _, t := range b.types {
		for _, a := range append([]*Type{t}, t.Ancestors()...) {
			if b.opts.Type(a.Alias, a.Name).Ignored {
				ignored[t] = true
				b.log.Debug("content type ignored", "alias", t.Alias, "by", a.Alias)
				break
			}
		}
	}
	if len(ignored) == 0 {
		return
	}
	b.types = slices.DeleteFunc(b.types, func(t *Type) bool { return ignored[t] })
	for _, t := range b.types {
		t.Mixins = slices.DeleteFunc(t.Mixins, func(m *Type) bool { return ignored[m] })
	}
	for id, t := range b.byID {
		if ignored[t] {
			delete(b.byID, id)
		}
	}
}

// ignoreProperties removes properties ignored on their type or on one of
// its ancestors.
func (b *builder) ignoreProperties() {
	for _, t := range b.types {
		t.Properties = slices.DeleteFunc(t.Properties, func(p *Property) bool {
			return b.ignored(t, p.Alias)
		})
	}
}

// ignored reports whether the property with the given alias is ignored for
// t.
func (b *builder) ignored(t *Type, alias string) bool {
	keys := []string{t.Alias, t.Name}
	for _, a := range t.Ancestors() {
		keys = append(keys, a.Alias, a.Name)
	}
	return b.opts.Property(alias, keys...).Ignored
}

// tag marks the types used as mixins, with their ancestors, and the types
// used as parents.
func (b *builder) tag() {
	for _, t := range b.types {
		if t.Parent != nil {
			t.Parent.IsParent = true
		}
		for _, m := range t.Mixins {
			m.IsMixin = true
			for _, a := range m.Ancestors() {
				a.IsMixin = true
			}
		}
	}
}

// resolveValues replaces model placeholders in property value types by
// pointers to the generated models. Placeholders of unknown or ignored
// content types become the element interface.
func (b *builder) resolveValues() {
	byAlias := make(map[string]*Type, len(b.types))
	for _, t := range b.types {
		if _, ok := byAlias[t.Alias]; !ok {
			byAlias[t.Alias] = t
		}
	}
	for _, t := range b.types {
		for _, p := range t.Properties {
			p.Type = p.Type.Map(func(r load.TypeRef) load.TypeRef {
				if r.Kind != load.RefModel {
					return r
				}
				if m, ok := byAlias[r.Name]; ok {
					return load.PointerTo(load.Named(b.pkg, m.Name))
				}
				b.log.Debug("unknown model in value type", "type", t.Alias, "property", p.Alias, "model", r.Name)
				return load.Named(RuntimePath, "Element")
			})
		}
	}
}

// check reports name collisions and invalid compositions. Properties
// named like their model, its embedded field or the reserved method get
// errors, or fail the build with StrictNames.
func (b *builder) check() error {
	errs := b.errs
	claims := make(map[string][]string)
	for _, t := range b.types {
		if t.Name != "" {
			claims[t.Name] = append(claims[t.Name], t.Alias)
		}
		if t.Name == "" {
			continue
		}
		claims[t.AliasConst()] = append(claims[t.AliasConst()], t.Alias)
		if !t.OmitConstructor {
			claims[t.ConstructorName()] = append(claims[t.ConstructorName()], t.Alias)
		}
		if t.IsMixin {
			claims[t.InterfaceName()] = append(claims[t.InterfaceName()], t.Alias)
		}
		if b.cfg.MemberStyle == StylePropertyAndStatic || b.cfg.MemberStyle == StyleStatic {
			for _, p := range t.Properties {
				if p.Name != "" && !p.HasErrors() && t.clash(p) == "" {
					claims[p.StaticName()] = append(claims[p.StaticName()], t.Alias+"."+p.Alias)
				}
			}
		}
	}
	errs = append(errs, collisions("", claims)...)
	for _, t := range b.types {
		props := make(map[string][]string)
		for _, p := range t.Properties {
			if p.Name == "" {
				p.Errors = append(p.Errors, fmt.Sprintf("property %q has no valid Go name", p.Alias))
				continue
			}
			props[p.Name] = append(props[p.Name], p.Alias)
			if msg := t.clash(p); msg != "" {
				if b.cfg.StrictNames {
					errs = append(errs, NewNameCollisionError(t.Alias, p.Name, t.Alias, p.Alias))
					continue
				}
				p.Errors = append(p.Errors, msg)
			}
		}
		errs = append(errs, collisions(t.Alias, props)...)
		if !t.IsElement() {
			continue
		}
		if t.Parent != nil && !t.Parent.IsElement() {
			errs = append(errs, NewInvalidCompositionError(t.Alias, t.Parent.Alias, "parent"))
		}
		for _, m := range t.Mixins {
			if !m.IsElement() {
				errs = append(errs, NewInvalidCompositionError(t.Alias, m.Alias, "mixin"))
			}
		}
	}
	return errors.Join(errs...)
}

// clash returns why p cannot be a method of t, or "".
func (t *Type) clash(p *Property) string {
	switch p.Name {
	case t.Name:
		return fmt.Sprintf("property name %s collides with the model name", p.Name)
	case t.BaseField():
		return fmt.Sprintf("property name %s collides with the embedded field", p.Name)
	case Reserved:
		return fmt.Sprintf("property name %s is reserved", p.Name)
	}
	return ""
}

func collisions(typ string, claims map[string][]string) []error {
	var errs []error
	for _, name := range slices.Sorted(maps.Keys(claims)) {
		if aliases := claims[name]; len(aliases) > 1 {
			errs = append(errs, NewNameCollisionError(typ, name, aliases...))
		}
	}
	return errs
}

// compose computes the mixins each model declares and implements. Mixins
// reachable through the parent chain are inherited and neither declared
// nor implemented again.
func (b *builder) compose() {
	for _, t := range b.types {
		inherited := make(map[*Type]bool)
		reach(t.Parent, inherited)
		implemented := make(map[*Type]bool)
		for _, m := range t.Mixins {
			if !inherited[m] && !slices.Contains(t.LocalMixins, m) {
				t.LocalMixins = append(t.LocalMixins, m)
			}
			reach(m, implemented)
		}
		for m := range implemented {
			if !inherited[m] && m != t {
				t.ExpandedMixins = append(t.ExpandedMixins, m)
			}
		}
	}
}

// reach adds t and every type reachable from it through parent and mixin
// edges to seen.
func reach(t *Type, seen map[*Type]bool) {
	if t == nil || seen[t] {
		return
	}
	seen[t] = true
	reach(t.Parent, seen)
	for _, m := range t.Mixins {
		reach(m, seen)
	}
}

// expand computes the properties each model implements.
func (b *builder) expand() error {
	var errs []error
	for _, t := range b.types {
		slices.SortFunc(t.ExpandedMixins, byName)
		props := slices.Clone(t.Properties)
		for _, m := range t.ExpandedMixins {
			for _, p := range m.Properties {
				if slices.Contains(props, p) || b.ignored(t, p.Alias) {
					continue
				}
				props = append(props, p)
				// The embedded field hides an accessor of the same name.
				if f := t.BaseField(); f != "" && p.Name == f && b.cfg.MemberStyle != StyleStatic {
					errs = append(errs, NewNameCollisionError(t.Alias, p.Name, t.Alias, m.Alias+"."+p.Alias))
				}
			}
		}
		names := make(map[string][]string)
		for _, p := range props {
			if p.Name != "" {
				names[p.Name] = append(names[p.Name], p.Alias)
			}
		}
		if errs = append(errs, collisions(t.Alias, names)...); len(errs) > 0 {
			continue
		}
		t.ExpandedProperties = props
	}
	return errors.Join(errs...)
}

// sort orders models by name, and their members by name.
func (b *builder) sort() {
	slices.SortFunc(b.types, byName)
	for _, t := range b.types {
		slices.SortFunc(t.LocalMixins, byName)
		slices.SortFunc(t.Properties, func(a, b *Property) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Alias, b.Alias))
		})
		slices.SortFunc(t.ExpandedProperties, func(a, b *Property) int {
			return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.Alias, b.Alias))
		})
	}
}

func byName(a, b *Type) int {
	return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
}
