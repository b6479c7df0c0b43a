package symbols

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"

	"golang.org/x/tools/go/packages"
)

// Adapter type-checks packages held in memory. Imports are resolved from
// registered in-memory packages first, then from packages loaded with Load,
// then from source through the fallback importer. Packages that cannot be
// imported are tolerated: they appear as empty packages.
type Adapter struct {
	fset      *token.FileSet
	sources   map[string][]Source
	pkgs      map[string]*types.Package
	importing map[string]bool
	fallback  types.Importer
	bodies    bool
	logger    *slog.Logger
}

// AdapterOption configures an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the logger used for tolerated failures.
func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithFallbackImporter replaces the importer used for packages that are
// neither registered nor loaded. A nil importer disables the fallback.
func WithFallbackImporter(imp types.Importer) AdapterOption {
	return func(a *Adapter) {
		a.fallback = imp
	}
}

// WithFuncBodies makes Compile type-check function bodies.
func WithFuncBodies() AdapterOption {
	return func(a *Adapter) {
		a.bodies = true
	}
}

// NewAdapter returns an Adapter.
func NewAdapter(opts ...AdapterOption) *Adapter {
	a := &Adapter{
		fset:      token.NewFileSet(),
		sources:   make(map[string][]Source),
		pkgs:      make(map[string]*types.Package),
		importing: make(map[string]bool),
		logger:    slog.Default(),
	}
	a.fallback = importer.ForCompiler(a.fset, "source", nil)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FileSet returns the file set of all parsed sources.
func (a *Adapter) FileSet() *token.FileSet {
	return a.fset
}

// Register makes an in-memory package importable under path.
func (a *Adapter) Register(path string, files ...Source) {
	a.sources[path] = append(a.sources[path], files...)
	delete(a.pkgs, path)
}

// Load type-checks the packages matching patterns, relative to dir, and
// makes them and their dependencies importable.
func (a *Adapter) Load(ctx context.Context, dir string, patterns ...string) error {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedTypes | packages.NeedImports | packages.NeedDeps,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("symbols: load %v: %w", patterns, err)
	}
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			a.logger.Debug("package load error", "package", p.PkgPath, "error", e.Msg)
		}
		if p.Types != nil && p.Types.Complete() {
			a.pkgs[p.PkgPath] = p.Types
		}
	})
	return nil
}

// Import implements types.Importer.
func (a *Adapter) Import(path string) (*types.Package, error) {
	if pkg, ok := a.pkgs[path]; ok {
		return pkg, nil
	}
	if files, ok := a.sources[path]; ok {
		if a.importing[path] {
			return nil, fmt.Errorf("symbols: import cycle through %q", path)
		}
		a.importing[path] = true
		defer delete(a.importing, path)
		c, err := a.Compile(path, files)
		if err != nil {
			return nil, err
		}
		a.pkgs[path] = c.Package
		return c.Package, nil
	}
	if path == "unsafe" {
		return types.Unsafe, nil
	}
	if a.fallback == nil {
		return nil, fmt.Errorf("symbols: package %q not found", path)
	}
	pkg, err := a.fallback.Import(path)
	if err != nil {
		return nil, err
	}
	a.pkgs[path] = pkg
	return pkg, nil
}

// Compilation is the result of type-checking one package.
type Compilation struct {
	Fset    *token.FileSet
	Files   []*ast.File
	Names   []string
	Package *types.Package
	Info    *types.Info
	// Errors are the parse and type errors found. They do not prevent
	// the compilation from being used.
	Errors []error
}

// Compile parses and type-checks the files of the package at path. Syntax
// and type errors are collected in the result. An error is returned only if
// no file could be parsed.
func (a *Adapter) Compile(path string, files []Source) (*Compilation, error) {
	c := &Compilation{
		Fset: a.fset,
		Info: &types.Info{
			Types:  make(map[ast.Expr]types.TypeAndValue),
			Defs:   make(map[*ast.Ident]types.Object),
			Uses:   make(map[*ast.Ident]types.Object),
			Scopes: make(map[ast.Node]*types.Scope),
		},
	}
	for _, src := range files {
		f, err := parser.ParseFile(a.fset, src.Name, src.Text, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			c.Errors = append(c.Errors, err)
		}
		if f == nil || f.Name == nil || f.Name.Name == "" || f.Name.Name == "_" {
			continue
		}
		c.Files = append(c.Files, f)
		c.Names = append(c.Names, src.Name)
	}
	if len(c.Files) == 0 {
		return nil, errors.Join(append([]error{fmt.Errorf("symbols: no parsable file in %q", path)}, c.Errors...)...)
	}
	conf := &types.Config{
		Importer:         a,
		FakeImportC:      true,
		IgnoreFuncBodies: !a.bodies,
		Error: func(err error) {
			c.Errors = append(c.Errors, err)
		},
	}
	// Type errors are collected by conf.Error; the package is usable
	// regardless.
	c.Package, _ = conf.Check(path, a.fset, c.Files, c.Info)
	if len(c.Errors) > 0 {
		a.logger.Debug("tolerated compile errors", "package", path, "count", len(c.Errors))
	}
	return c, nil
}

// FileScope returns the Scope seen from the named file.
func (c *Compilation) FileScope(name string) (Scope, error) {
	for i, n := range c.Names {
		if n != name {
			continue
		}
		fs := c.Info.Scopes[c.Files[i]]
		if fs == nil {
			return nil, fmt.Errorf("symbols: no scope for %q", name)
		}
		return &typesScope{file: fs, pkg: c.Package}, nil
	}
	return nil, fmt.Errorf("symbols: no file %q in compilation", name)
}

type typesScope struct {
	file *types.Scope
	pkg  *types.Package
}

func (s *typesScope) Path() string {
	return s.pkg.Path()
}

func (s *typesScope) Lookup(name string) []Symbol {
	var syms []Symbol
	if obj := s.file.Lookup(name); obj != nil {
		syms = append(syms, symbolOf(obj))
	}
	if obj := s.pkg.Scope().Lookup(name); obj != nil {
		syms = append(syms, symbolOf(obj))
	}
	if len(syms) == 0 {
		if obj := types.Universe.Lookup(name); obj != nil {
			syms = append(syms, symbolOf(obj))
		}
	}
	return syms
}

func (s *typesScope) LookupMember(qualifier, name string) []Symbol {
	syms := s.Lookup(qualifier)
	if len(syms) != 1 || syms[0].Kind != SymbolPackage {
		return nil
	}
	pn, _ := s.file.Lookup(qualifier).(*types.PkgName)
	if pn == nil {
		return nil
	}
	imported := pn.Imported()
	if !imported.Complete() {
		// The package could not be imported; its members are unknown.
		return []Symbol{{Kind: SymbolType, Path: imported.Path(), Name: name}}
	}
	if obj := imported.Scope().Lookup(name); obj != nil && obj.Exported() {
		return []Symbol{symbolOf(obj)}
	}
	return nil
}

func (s *typesScope) PackageName(path string) string {
	if path == s.pkg.Path() {
		return s.pkg.Name()
	}
	for _, imp := range s.pkg.Imports() {
		if imp.Path() == path && imp.Name() != "" {
			return imp.Name()
		}
	}
	return DefaultPackageName(path)
}

func (s *typesScope) Exports(path string) []string {
	for _, imp := range s.pkg.Imports() {
		if imp.Path() != path {
			continue
		}
		if !imp.Complete() {
			return nil
		}
		var names []string
		for _, name := range imp.Scope().Names() {
			if token.IsExported(name) {
				names = append(names, name)
			}
		}
		return names
	}
	return nil
}

func (s *typesScope) Declares(name string) bool {
	return s.pkg.Scope().Lookup(name) != nil
}

func symbolOf(obj types.Object) Symbol {
	sym := Symbol{Kind: SymbolValue, Name: obj.Name()}
	switch obj := obj.(type) {
	case *types.PkgName:
		sym.Kind = SymbolPackage
		sym.Path = obj.Imported().Path()
		return sym
	case *types.TypeName:
		sym.Kind = SymbolType
	}
	if obj.Pkg() != nil {
		sym.Path = obj.Pkg().Path()
	}
	return sym
}
