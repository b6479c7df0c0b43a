package symbols

import (
	"log/slog"
	"slices"
	"strconv"
	"sync"
)

// ImportSet collects the imports a generated file needs.
type ImportSet struct {
	list []Import
}

// Add records an import.
func (s *ImportSet) Add(imp Import) {
	if !slices.Contains(s.list, imp) {
		s.list = append(s.list, imp)
	}
}

// List returns the recorded imports, sorted.
func (s *ImportSet) List() []Import {
	l := slices.Clone(s.list)
	SortImports(l)
	return l
}

// Len returns the number of recorded imports.
func (s *ImportSet) Len() int {
	return len(s.list)
}

// Resolver decides how a type declared in another package is spelled in
// the generated package. A name is written bare only when the lookup of the
// short name at file scope finds exactly the intended declaration (through
// a dot import) and the dot-imported package exports no name the package
// declares itself. Otherwise it is qualified with the package's import
// name, and when that name is taken, with a fresh alias. Decisions are
// memoized for the life of the resolver.
type Resolver struct {
	pkg        string
	imports    []Import
	scope      func() Scope
	memo       map[string]resolution
	qualifiers map[string]string
	dots       map[string]bool
}

type resolution struct {
	expr string
	imp  Import
}

// NewResolver returns a resolver for the package at pkgPath whose files
// carry the given imports. The scope is built on first use by build; if
// building fails, a StaticScope over the imports alone is used.
func NewResolver(pkgPath string, imports []Import, build func() (Scope, error), logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	imports = slices.Clone(imports)
	return &Resolver{
		pkg:     pkgPath,
		imports: imports,
		scope: sync.OnceValue(func() Scope {
			s, err := build()
			if err != nil {
				logger.Warn("symbol scope unavailable, using import list only", "package", pkgPath, "error", err)
				return &StaticScope{Package: pkgPath, Imports: imports}
			}
			return s
		}),
		memo:       make(map[string]resolution),
		qualifiers: make(map[string]string),
		dots:       make(map[string]bool),
	}
}

// Package returns the import path of the generated package.
func (r *Resolver) Package() string {
	return r.pkg
}

// Reserve marks names that cannot qualify imported packages, such as the
// parameter names of generated functions.
func (r *Resolver) Reserve(names ...string) {
	for _, name := range names {
		if _, ok := r.qualifiers[name]; !ok {
			r.qualifiers[name] = ""
		}
	}
}

// Qualify returns the expression denoting the type path.name and records
// the import it requires in uses. Names of the generated package and
// predeclared names are returned as is.
func (r *Resolver) Qualify(path, name string, uses *ImportSet) string {
	if path == "" || path == r.pkg {
		return name
	}
	key := path + "." + name
	res, ok := r.memo[key]
	if !ok {
		res = r.resolve(path, name)
		r.memo[key] = res
	}
	if uses != nil {
		uses.Add(res.imp)
	}
	return res.expr
}

func (r *Resolver) resolve(path, name string) resolution {
	s := r.scope()
	if syms := s.Lookup(name); len(syms) == 1 && syms[0].Kind != SymbolPackage && syms[0].Path == path && r.dotUsable(s, path) {
		if i := slices.IndexFunc(r.imports, func(imp Import) bool { return imp.Path == path && imp.IsDot() }); i >= 0 {
			return resolution{expr: name, imp: r.imports[i]}
		}
	}
	pkgName := s.PackageName(path)
	q, imp := pkgName, Import{Path: path}
	for _, ci := range r.imports {
		if ci.Path == path && !ci.IsDot() && ci.Name != "_" && ci.Name != "" {
			q, imp = ci.Name, ci
			break
		}
	}
	if r.usable(s, q, path, name) {
		return resolution{expr: q + "." + name, imp: imp}
	}
	for i := 2; ; i++ {
		alias := pkgName + strconv.Itoa(i)
		if r.usable(s, alias, path, name) {
			return resolution{expr: alias + "." + name, imp: Import{Path: path, Name: alias}}
		}
	}
}

// dotUsable reports whether the package at path can be dot-imported: a
// name it exports that the package also declares would be declared twice
// in every file carrying the import.
func (r *Resolver) dotUsable(s Scope, path string) bool {
	ok, seen := r.dots[path]
	if !seen {
		ok = !slices.ContainsFunc(s.Exports(path), s.Declares)
		r.dots[path] = ok
	}
	return ok
}

// usable reports whether qualifier can denote the package at path in the
// generated files, and claims it if so.
func (r *Resolver) usable(s Scope, qualifier, path, name string) bool {
	if owner, ok := r.qualifiers[qualifier]; ok && owner != path {
		return false
	}
	syms := s.Lookup(qualifier)
	switch {
	case len(syms) == 0:
	case len(syms) == 1 && syms[0].Kind == SymbolPackage && syms[0].Path == path:
		members := s.LookupMember(qualifier, name)
		if len(members) != 1 || members[0].Path != path {
			return false
		}
	default:
		return false
	}
	r.qualifiers[qualifier] = path
	return true
}
