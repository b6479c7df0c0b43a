// Package parse recovers customizations from the hand-written files of a
// generated package.
//
// Declarations are interpreted as follows:
//
//   - A struct type declaration takes over the declaration of the generated
//     type of the same name. Its first embedded field is recorded as the
//     base and the generated struct and constructor are omitted.
//   - An assertion "var _ I = (*T)(nil)" records I as an interface T
//     already declares.
//   - A function "func NewT(x X) *T" records a hand-written constructor.
//
// Comment directives of the form "//models:<verb> <args>" are recognized
// in doc comments and free-standing comments:
//
//	//models:content-type <alias>                      on a type: the type models <alias>
//	//models:ignore-type [alias]                       ignore the documented type, or <alias>
//	//models:rename-type <alias> <Name>
//	//models:ignore-property <alias>                   on a type
//	//models:ignore-property <type> <alias>            <type> "*" applies to every type
//	//models:rename-property <alias> <Name>            on a type
//	//models:rename-property <type> <alias> <Name>
//	//models:implements-property <alias>               on a method
//	//models:implements-property <type> <alias>        on a function
//	//models:namespace <import path>
//
// Files carrying the standard generated-code header are compiled for name
// resolution but never inspected. Anything that cannot be understood is
// skipped.
package parse

import (
	"go/ast"
	"go/token"
	"go/types"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/syssam/modelsbuilder/compiler/custom"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// DirectivePrefix starts every comment directive.
const DirectivePrefix = "//models:"

// Parser discovers customizations in Go sources.
type Parser struct {
	pkg     string
	adapter *symbols.Adapter
	logger  *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithAdapter sets the adapter used to type-check the sources.
func WithAdapter(a *symbols.Adapter) Option {
	return func(p *Parser) {
		if a != nil {
			p.adapter = a
		}
	}
}

// WithLogger sets the logger for skipped declarations.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a Parser for the package with the given import path.
func New(pkgPath string, opts ...Option) *Parser {
	p := &Parser{pkg: pkgPath, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	if p.adapter == nil {
		p.adapter = symbols.NewAdapter(symbols.WithLogger(p.logger))
	}
	return p
}

// Parse adds the customizations found in files to b.
func (p *Parser) Parse(files []symbols.Source, b *custom.Builder) {
	b.Add(p.Directives(files)...)
}

// Directives returns the customizations found in files, in file name and
// source order.
func (p *Parser) Directives(files []symbols.Source) []custom.Directive {
	files = slices.DeleteFunc(slices.Clone(files), func(s symbols.Source) bool {
		return strings.HasSuffix(s.Name, "_test.go")
	})
	if len(files) == 0 {
		return nil
	}
	slices.SortFunc(files, func(a, b symbols.Source) int {
		return strings.Compare(a.Name, b.Name)
	})
	c, err := p.adapter.Compile(p.pkg, files)
	if err != nil {
		p.logger.Warn("no customizations discovered", "package", p.pkg, "error", err)
		return nil
	}
	var ds []custom.Directive
	for _, f := range c.Files {
		if ast.IsGenerated(f) {
			continue
		}
		fp := &fileParser{Parser: p, file: f, info: c.Info, fset: c.Fset}
		ds = append(ds, fp.parse()...)
	}
	return ds
}

type fileParser struct {
	*Parser
	file *ast.File
	info *types.Info
	fset *token.FileSet
	out  []custom.Directive
}

// docContext is the declaration a comment group documents.
type docContext struct {
	typeName string // documented type
	recv     string // receiver type of a documented method
}

func (p *fileParser) parse() []custom.Directive {
	docs := make(map[*ast.CommentGroup]docContext)
	for _, decl := range p.file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				p.typeDecl(d, docs)
			case token.VAR:
				p.varDecl(d)
			}
		case *ast.FuncDecl:
			p.funcDecl(d, docs)
		}
	}
	for _, cg := range p.file.Comments {
		doc := docs[cg]
		for _, c := range cg.List {
			if strings.HasPrefix(c.Text, DirectivePrefix) {
				p.directive(doc, c)
			}
		}
	}
	return p.out
}

func (p *fileParser) skip(pos token.Pos, reason string) {
	p.logger.Debug("skipped declaration", "pos", p.fset.Position(pos).String(), "reason", reason)
}

func (p *fileParser) typeDecl(d *ast.GenDecl, docs map[*ast.CommentGroup]docContext) {
	for _, spec := range d.Specs {
		ts, ok := spec.(*ast.TypeSpec)
		if !ok {
			continue
		}
		name := ts.Name.Name
		if ts.Doc != nil {
			docs[ts.Doc] = docContext{typeName: name}
		} else if d.Doc != nil && len(d.Specs) == 1 {
			docs[d.Doc] = docContext{typeName: name}
		}
		st, ok := ts.Type.(*ast.StructType)
		if !ok || ts.Assign.IsValid() || ts.TypeParams != nil {
			continue
		}
		var base load.TypeRef
		for _, field := range st.Fields.List {
			if len(field.Names) > 0 {
				continue
			}
			ref, ok := p.typeRef(field.Type)
			if !ok {
				p.skip(field.Pos(), "unresolvable embedded type")
			}
			base = ref
			break
		}
		p.out = append(p.out, custom.BaseOverride{Type: name, Base: base, Omit: true})
	}
}

func (p *fileParser) varDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		vs, ok := spec.(*ast.ValueSpec)
		if !ok || vs.Type == nil || len(vs.Names) != 1 || vs.Names[0].Name != "_" || len(vs.Values) != 1 {
			continue
		}
		typeName, ok := assertedType(vs.Values[0])
		if !ok {
			continue
		}
		iface, ok := p.typeRef(vs.Type)
		if !ok {
			p.skip(vs.Pos(), "unresolvable interface")
			continue
		}
		p.out = append(p.out, custom.DeclareInterface{Type: typeName, Interface: iface})
	}
}

// assertedType returns T for the expressions (*T)(nil), T{} and &T{}.
func assertedType(e ast.Expr) (string, bool) {
	switch e := e.(type) {
	case *ast.CallExpr:
		paren, ok := e.Fun.(*ast.ParenExpr)
		if !ok || len(e.Args) != 1 {
			return "", false
		}
		star, ok := paren.X.(*ast.StarExpr)
		if !ok {
			return "", false
		}
		id, ok := star.X.(*ast.Ident)
		if !ok {
			return "", false
		}
		if nilIdent, ok := e.Args[0].(*ast.Ident); !ok || nilIdent.Name != "nil" {
			return "", false
		}
		return id.Name, true
	case *ast.UnaryExpr:
		if e.Op != token.AND {
			return "", false
		}
		return assertedType(e.X)
	case *ast.CompositeLit:
		id, ok := e.Type.(*ast.Ident)
		if !ok {
			return "", false
		}
		return id.Name, true
	}
	return "", false
}

func (p *fileParser) funcDecl(d *ast.FuncDecl, docs map[*ast.CommentGroup]docContext) {
	if d.Recv != nil {
		if recv, ok := receiverName(d.Recv); ok && d.Doc != nil {
			docs[d.Doc] = docContext{recv: recv}
		}
		return
	}
	name := d.Name.Name
	if !strings.HasPrefix(name, "New") || len(name) == len("New") || d.Type.TypeParams != nil {
		return
	}
	typeName := name[len("New"):]
	if d.Type.Params.NumFields() != 1 || d.Type.Results.NumFields() != 1 {
		return
	}
	star, ok := d.Type.Results.List[0].Type.(*ast.StarExpr)
	if !ok {
		return
	}
	if id, ok := star.X.(*ast.Ident); ok && id.Name == typeName {
		p.out = append(p.out, custom.HasConstructor{Type: typeName})
	}
}

func receiverName(fl *ast.FieldList) (string, bool) {
	if fl.NumFields() != 1 {
		return "", false
	}
	e := fl.List[0].Type
	if star, ok := e.(*ast.StarExpr); ok {
		e = star.X
	}
	id, ok := e.(*ast.Ident)
	if !ok {
		return "", false
	}
	return id.Name, true
}

func (p *fileParser) directive(doc docContext, c *ast.Comment) {
	fields := strings.Fields(strings.TrimPrefix(c.Text, DirectivePrefix))
	if len(fields) == 0 {
		p.skip(c.Pos(), "empty directive")
		return
	}
	verb, args := fields[0], fields[1:]
	var d custom.Directive
	switch {
	case verb == "content-type" && len(args) == 1 && doc.typeName != "":
		d = custom.RenameType{Type: args[0], Name: doc.typeName}
	case verb == "ignore-type" && len(args) == 0 && doc.typeName != "":
		d = custom.IgnoreType{Type: doc.typeName}
	case verb == "ignore-type" && len(args) == 1:
		d = custom.IgnoreType{Type: args[0]}
	case verb == "rename-type" && len(args) == 2 && token.IsIdentifier(args[1]):
		d = custom.RenameType{Type: args[0], Name: args[1]}
	case verb == "ignore-property" && len(args) == 1 && doc.typeName != "":
		d = custom.IgnoreProperty{Type: doc.typeName, Property: args[0]}
	case verb == "ignore-property" && len(args) == 2:
		d = custom.IgnoreProperty{Type: typeScope(args[0]), Property: args[1]}
	case verb == "rename-property" && len(args) == 2 && doc.typeName != "" && token.IsIdentifier(args[1]):
		d = custom.RenameProperty{Type: doc.typeName, Property: args[0], Name: args[1]}
	case verb == "rename-property" && len(args) == 3 && token.IsIdentifier(args[2]):
		d = custom.RenameProperty{Type: typeScope(args[0]), Property: args[1], Name: args[2]}
	case verb == "implements-property" && len(args) == 1 && doc.recv != "":
		d = custom.IgnoreProperty{Type: doc.recv, Property: args[0]}
	case verb == "implements-property" && len(args) == 2:
		d = custom.IgnoreProperty{Type: args[0], Property: args[1]}
	case verb == "namespace" && len(args) == 1:
		path, err := strconv.Unquote(args[0])
		if err != nil {
			path = args[0]
		}
		d = custom.Namespace{Path: path}
	default:
		p.skip(c.Pos(), "malformed directive "+strconv.Quote(c.Text))
		return
	}
	p.out = append(p.out, d)
}

func typeScope(s string) string {
	if s == "*" {
		return ""
	}
	return s
}

// typeRef resolves a type expression, preferring type-checker results and
// falling back to the file's imports for unresolved names.
func (p *fileParser) typeRef(e ast.Expr) (load.TypeRef, bool) {
	switch e := e.(type) {
	case *ast.ParenExpr:
		return p.typeRef(e.X)
	case *ast.Ident:
		if tn, ok := p.info.Uses[e].(*types.TypeName); ok {
			if tn.Pkg() == nil {
				return load.Builtin(tn.Name()), true
			}
			return load.Named(tn.Pkg().Path(), tn.Name()), true
		}
		if _, ok := types.Universe.Lookup(e.Name).(*types.TypeName); ok {
			return load.Builtin(e.Name), true
		}
		return load.Named(p.pkg, e.Name), true
	case *ast.SelectorExpr:
		x, ok := e.X.(*ast.Ident)
		if !ok {
			return load.TypeRef{}, false
		}
		if pn, ok := p.info.Uses[x].(*types.PkgName); ok {
			return load.Named(pn.Imported().Path(), e.Sel.Name), true
		}
		for _, imp := range p.file.Imports {
			path, err := strconv.Unquote(imp.Path.Value)
			if err != nil {
				continue
			}
			name := symbols.DefaultPackageName(path)
			if imp.Name != nil {
				name = imp.Name.Name
			}
			if name == x.Name {
				return load.Named(path, e.Sel.Name), true
			}
		}
		return load.TypeRef{}, false
	case *ast.StarExpr:
		elem, ok := p.typeRef(e.X)
		return load.PointerTo(elem), ok
	case *ast.ArrayType:
		if e.Len != nil {
			return load.TypeRef{}, false
		}
		elem, ok := p.typeRef(e.Elt)
		return load.SliceOf(elem), ok
	case *ast.MapType:
		key, ok1 := p.typeRef(e.Key)
		value, ok2 := p.typeRef(e.Value)
		return load.MapOf(key, value), ok1 && ok2
	case *ast.IndexExpr:
		return p.generic(e.X, e.Index)
	case *ast.IndexListExpr:
		return p.generic(e.X, e.Indices...)
	}
	return load.TypeRef{}, false
}

func (p *fileParser) generic(x ast.Expr, indices ...ast.Expr) (load.TypeRef, bool) {
	ref, ok := p.typeRef(x)
	if !ok || ref.Kind != load.RefNamed {
		return load.TypeRef{}, false
	}
	for _, idx := range indices {
		arg, ok := p.typeRef(idx)
		if !ok {
			return load.TypeRef{}, false
		}
		ref.Args = append(ref.Args, arg)
	}
	return ref, true
}
