package symbols

import (
	"bytes"
	"fmt"
	"go/token"
)

const (
	importsFile = "modelsbuilder_imports.go"
	declsFile   = "modelsbuilder_decls.go"
)

// Package describes the generated package as seen before generation.
type Package struct {
	Path string
	Name string
	// Imports are the imports every generated file may carry.
	Imports []Import
	// Files are the hand-written files of the package.
	Files []Source
	// Types are the names of the types generation will declare.
	Types []string
}

// BuildScope compiles a synthetic version of the package: its hand-written
// files, one empty file carrying exactly the configured imports, and stub
// declarations for the types to be generated. It returns the scope seen
// from the imports file.
func (a *Adapter) BuildScope(p Package) (Scope, error) {
	if !token.IsIdentifier(p.Name) {
		return nil, fmt.Errorf("symbols: invalid package name %q", p.Name)
	}
	var imports bytes.Buffer
	fmt.Fprintf(&imports, "package %s\n\n", p.Name)
	for _, imp := range p.Imports {
		fmt.Fprintf(&imports, "import %s\n", imp)
	}
	var decls bytes.Buffer
	fmt.Fprintf(&decls, "package %s\n\n", p.Name)
	for _, name := range p.Types {
		if token.IsIdentifier(name) {
			fmt.Fprintf(&decls, "type %s struct{}\n", name)
		}
	}
	files := append([]Source{
		{Name: importsFile, Text: imports.Bytes()},
		{Name: declsFile, Text: decls.Bytes()},
	}, p.Files...)
	c, err := a.Compile(p.Path, files)
	if err != nil {
		return nil, err
	}
	return c.FileScope(importsFile)
}
