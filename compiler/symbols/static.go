package symbols

import (
	"go/types"
	"slices"
)

// StaticPackage is a package known to a StaticScope.
type StaticPackage struct {
	Name  string
	Types []string
}

// StaticScope is a Scope over a fixed vocabulary. It applies the same
// file-scope rules as the type checker: imports and dot-imported names live
// in file scope, the package's own declarations in package scope, and
// predeclared names are only visible when nothing shadows them.
type StaticScope struct {
	Package  string
	Imports  []Import
	Locals   []string
	Packages map[string]StaticPackage
}

var _ Scope = (*StaticScope)(nil)

// Path implements Scope.
func (s *StaticScope) Path() string {
	return s.Package
}

// Lookup implements Scope.
func (s *StaticScope) Lookup(name string) []Symbol {
	var syms []Symbol
	for _, imp := range s.Imports {
		switch {
		case imp.IsDot():
			if pkg, ok := s.Packages[imp.Path]; ok && slices.Contains(pkg.Types, name) {
				syms = append(syms, Symbol{Kind: SymbolType, Path: imp.Path, Name: name})
			}
		case imp.Name == "_":
		case s.importName(imp) == name:
			syms = append(syms, Symbol{Kind: SymbolPackage, Path: imp.Path, Name: name})
		}
	}
	if slices.Contains(s.Locals, name) {
		syms = append(syms, Symbol{Kind: SymbolType, Path: s.Package, Name: name})
	}
	if len(syms) == 0 {
		if obj := types.Universe.Lookup(name); obj != nil {
			syms = append(syms, symbolOf(obj))
		}
	}
	return syms
}

// LookupMember implements Scope.
func (s *StaticScope) LookupMember(qualifier, name string) []Symbol {
	syms := s.Lookup(qualifier)
	if len(syms) != 1 || syms[0].Kind != SymbolPackage {
		return nil
	}
	pkg, ok := s.Packages[syms[0].Path]
	if !ok {
		return []Symbol{{Kind: SymbolType, Path: syms[0].Path, Name: name}}
	}
	if slices.Contains(pkg.Types, name) {
		return []Symbol{{Kind: SymbolType, Path: syms[0].Path, Name: name}}
	}
	return nil
}

// PackageName implements Scope.
func (s *StaticScope) PackageName(path string) string {
	if pkg, ok := s.Packages[path]; ok && pkg.Name != "" {
		return pkg.Name
	}
	return DefaultPackageName(path)
}

// Exports implements Scope.
func (s *StaticScope) Exports(path string) []string {
	if pkg, ok := s.Packages[path]; ok {
		return pkg.Types
	}
	return nil
}

// Declares implements Scope.
func (s *StaticScope) Declares(name string) bool {
	return slices.Contains(s.Locals, name)
}

func (s *StaticScope) importName(imp Import) string {
	if imp.Name != "" {
		return imp.Name
	}
	return s.PackageName(imp.Path)
}
