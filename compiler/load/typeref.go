package load

import (
	"fmt"
	"go/token"
	"go/types"
	"strings"
)

// RefKind is the shape of a TypeRef.
type RefKind uint8

// TypeRef shapes.
const (
	RefNamed RefKind = iota + 1
	RefPointer
	RefSlice
	RefMap
	// RefModel is a placeholder for the model of the content type whose
	// alias is Name. It is resolved by the code model builder.
	RefModel
)

// TypeRef is the value type of a property. Its text form is a Go type
// expression whose named types are qualified by their full import path:
//
//	string
//	[]time.Time
//	map[string]*github.com/shopspring/decimal.Decimal
//	example.com/pkg.Pair[int, string]
//	[]{productPage}
//
// where {alias} denotes the model of the content type with that alias.
type TypeRef struct {
	Kind RefKind
	// Path is the import path of a named type, empty for builtins and
	// for types declared in the generated package.
	Path string
	// Name is the identifier of a named type, or the alias of a RefModel.
	Name string
	// Args are the element of a pointer or slice, the key and value of a
	// map, or the type arguments of a named type.
	Args []TypeRef
}

// Named returns a reference to a named type.
func Named(path, name string, args ...TypeRef) TypeRef {
	return TypeRef{Kind: RefNamed, Path: path, Name: name, Args: args}
}

// Builtin returns a reference to a predeclared type.
func Builtin(name string) TypeRef {
	return Named("", name)
}

// PointerTo returns a pointer reference.
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: RefPointer, Args: []TypeRef{elem}}
}

// SliceOf returns a slice reference.
func SliceOf(elem TypeRef) TypeRef {
	return TypeRef{Kind: RefSlice, Args: []TypeRef{elem}}
}

// MapOf returns a map reference.
func MapOf(key, value TypeRef) TypeRef {
	return TypeRef{Kind: RefMap, Args: []TypeRef{key, value}}
}

// ModelOf returns a placeholder for the model of a content type.
func ModelOf(alias string) TypeRef {
	return TypeRef{Kind: RefModel, Name: alias}
}

// IsZero reports whether the reference is unset.
func (r TypeRef) IsZero() bool {
	return r.Kind == 0
}

// IsBuiltin reports whether r names a predeclared type.
func (r TypeRef) IsBuiltin() bool {
	if r.Kind != RefNamed || r.Path != "" {
		return false
	}
	_, ok := types.Universe.Lookup(r.Name).(*types.TypeName)
	return ok
}

// Models returns the aliases of all RefModel placeholders in r.
func (r TypeRef) Models() []string {
	var aliases []string
	r.Walk(func(ref TypeRef) {
		if ref.Kind == RefModel {
			aliases = append(aliases, ref.Name)
		}
	})
	return aliases
}

// Walk calls fn for r and every nested reference, depth-first.
func (r TypeRef) Walk(fn func(TypeRef)) {
	fn(r)
	for _, a := range r.Args {
		a.Walk(fn)
	}
}

// Map returns a copy of r with every nested reference replaced by fn,
// applied bottom-up.
func (r TypeRef) Map(fn func(TypeRef) TypeRef) TypeRef {
	if len(r.Args) > 0 {
		args := make([]TypeRef, len(r.Args))
		for i, a := range r.Args {
			args[i] = a.Map(fn)
		}
		r.Args = args
	}
	return fn(r)
}

// String returns the text form of r.
func (r TypeRef) String() string {
	var b strings.Builder
	r.write(&b)
	return b.String()
}

func (r TypeRef) write(b *strings.Builder) {
	switch r.Kind {
	case RefPointer:
		b.WriteString("*")
		r.Args[0].write(b)
	case RefSlice:
		b.WriteString("[]")
		r.Args[0].write(b)
	case RefMap:
		b.WriteString("map[")
		r.Args[0].write(b)
		b.WriteString("]")
		r.Args[1].write(b)
	case RefModel:
		b.WriteString("{" + r.Name + "}")
	case RefNamed:
		if r.Path != "" {
			b.WriteString(r.Path + ".")
		}
		b.WriteString(r.Name)
		if len(r.Args) > 0 {
			b.WriteString("[")
			for i, a := range r.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				a.write(b)
			}
			b.WriteString("]")
		}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r TypeRef) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TypeRef) UnmarshalText(b []byte) error {
	if len(strings.TrimSpace(string(b))) == 0 {
		*r = TypeRef{}
		return nil
	}
	v, err := ParseTypeRef(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseTypeRef parses the text form of a type reference.
func ParseTypeRef(s string) (TypeRef, error) {
	p := &refParser{src: s}
	r, err := p.ref()
	if err != nil {
		return TypeRef{}, err
	}
	p.space()
	if p.pos != len(p.src) {
		return TypeRef{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return r, nil
}

// MustParseTypeRef is like ParseTypeRef but panics on error.
func MustParseTypeRef(s string) TypeRef {
	r, err := ParseTypeRef(s)
	if err != nil {
		panic(err)
	}
	return r
}

type refParser struct {
	src string
	pos int
}

func (p *refParser) errorf(format string, args ...any) error {
	return fmt.Errorf("load: invalid type %q at offset %d: %s", p.src, p.pos, fmt.Sprintf(format, args...))
}

func (p *refParser) space() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func (p *refParser) consume(prefix string) bool {
	p.space()
	if strings.HasPrefix(p.src[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *refParser) ref() (TypeRef, error) {
	switch {
	case p.consume("*"):
		elem, err := p.ref()
		if err != nil {
			return TypeRef{}, err
		}
		return PointerTo(elem), nil
	case p.consume("[]"):
		elem, err := p.ref()
		if err != nil {
			return TypeRef{}, err
		}
		return SliceOf(elem), nil
	case p.consume("map["):
		key, err := p.ref()
		if err != nil {
			return TypeRef{}, err
		}
		if !p.consume("]") {
			return TypeRef{}, p.errorf("expected ]")
		}
		value, err := p.ref()
		if err != nil {
			return TypeRef{}, err
		}
		return MapOf(key, value), nil
	case p.consume("{"):
		end := strings.IndexByte(p.src[p.pos:], '}')
		if end <= 0 {
			return TypeRef{}, p.errorf("unterminated placeholder")
		}
		alias := strings.TrimSpace(p.src[p.pos : p.pos+end])
		p.pos += end + 1
		return ModelOf(alias), nil
	}
	return p.named()
}

func (p *refParser) named() (TypeRef, error) {
	p.space()
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("[],{} \t", rune(p.src[p.pos])) {
		p.pos++
	}
	word := p.src[start:p.pos]
	if word == "" {
		return TypeRef{}, p.errorf("expected type name")
	}
	var path, name string
	if i := strings.LastIndexByte(word, '.'); i >= 0 && i > strings.LastIndexByte(word, '/') {
		path, name = word[:i], word[i+1:]
	} else {
		name = word
	}
	if !token.IsIdentifier(name) || (path == "" && strings.ContainsRune(word, '/')) {
		return TypeRef{}, p.errorf("invalid type name %q", word)
	}
	r := Named(path, name)
	if p.consume("[") {
		for {
			arg, err := p.ref()
			if err != nil {
				return TypeRef{}, err
			}
			r.Args = append(r.Args, arg)
			if p.consume("]") {
				break
			}
			if !p.consume(",") {
				return TypeRef{}, p.errorf("expected , or ]")
			}
		}
	}
	return r, nil
}
