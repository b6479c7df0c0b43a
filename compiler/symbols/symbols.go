// Package symbols type-checks Go sources in memory and answers name lookups
// against the resulting scopes. The code writer uses it to decide how a type
// name must be spelled in generated code, the source parser to resolve the
// declarations of hand-written code.
package symbols

import (
	"cmp"
	"go/token"
	"path"
	"slices"
	"strings"
)

// Source is a Go source file held in memory.
type Source struct {
	Name string
	Text []byte
}

// Import is an import declaration of a generated file.
type Import struct {
	Path string
	// Name is the local package name. Empty means the package's own name,
	// "." a dot import.
	Name string
}

// IsDot reports whether the import is a dot import.
func (i Import) IsDot() bool {
	return i.Name == "."
}

// String returns the import as written in an import declaration.
func (i Import) String() string {
	if i.Name == "" {
		return `"` + i.Path + `"`
	}
	return i.Name + ` "` + i.Path + `"`
}

// SortImports orders imports by path, then name.
func SortImports(imports []Import) {
	slices.SortFunc(imports, func(a, b Import) int {
		return cmp.Or(strings.Compare(a.Path, b.Path), strings.Compare(a.Name, b.Name))
	})
}

// SymbolKind classifies a Symbol.
type SymbolKind uint8

// Symbol kinds.
const (
	SymbolType SymbolKind = iota + 1
	SymbolPackage
	SymbolValue
)

// Symbol is a declaration found by a lookup.
type Symbol struct {
	Kind SymbolKind
	// Path is the import path of the declaring package, or of the imported
	// package for SymbolPackage. It is empty for predeclared objects.
	Path string
	Name string
}

// String returns the qualified name of the symbol.
func (s Symbol) String() string {
	if s.Kind == SymbolPackage {
		return "package " + s.Path
	}
	if s.Path == "" {
		return s.Name
	}
	return s.Path + "." + s.Name
}

// Scope answers lookups at file level of a package.
type Scope interface {
	// Path returns the import path of the package.
	Path() string
	// Lookup returns every declaration the short name may denote in a file
	// of the package: file-level declarations (imports and dot-imported
	// objects) and package-level declarations. Predeclared objects are only
	// returned when nothing else matches.
	Lookup(name string) []Symbol
	// LookupMember returns the declarations qualifier.name may denote.
	LookupMember(qualifier, name string) []Symbol
	// PackageName returns the name of the package with the given path.
	PackageName(path string) string
	// Exports returns the exported names of the imported package with the
	// given path, or nil when they are unknown.
	Exports(path string) []string
	// Declares reports whether the package itself declares name.
	Declares(name string) bool
}

// DefaultPackageName guesses the name of a package from its import path.
func DefaultPackageName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.IndexByte(base, '.'); i > 0 {
		base = base[:i]
	}
	base = strings.TrimPrefix(base, "go-")
	var b strings.Builder
	for _, r := range base {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || b.Len() > 0 && r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	name := strings.ToLower(b.String())
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return "pkg"
	}
	return name
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	for _, r := range s[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
