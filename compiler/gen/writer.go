package gen

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/tools/imports"

	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// Unit is a generated file.
type Unit struct {
	Name string
	Text []byte
}

// paramNames are the parameter names of generated functions. Imported
// packages are never qualified with them.
var paramNames = []string{"m", "that", "element", "e", "culture", "segment", "fallback", "defaultValue", "opts"}

// Writer writes the code model as Go source.
// Names of other packages are spelled as seen from the generated package:
// bare through dot imports when unambiguous, qualified otherwise.
type Writer struct {
	graph    *Graph
	adapter  *symbols.Adapter
	files    []symbols.Source
	scope    symbols.Scope
	resolver *symbols.Resolver
	log      *slog.Logger
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithAdapter sets the adapter compiling the generated package to find
// ambiguous names.
func WithAdapter(a *symbols.Adapter) WriterOption {
	return func(w *Writer) {
		w.adapter = a
	}
}

// WithFiles sets the hand-written files of the generated package.
func WithFiles(files ...symbols.Source) WriterOption {
	return func(w *Writer) {
		w.files = files
	}
}

// WithScope sets the scope names are resolved in, instead of compiling
// the package.
func WithScope(s symbols.Scope) WriterOption {
	return func(w *Writer) {
		w.scope = s
	}
}

// NewWriter returns a writer of the code model g.
func NewWriter(g *Graph, opts ...WriterOption) *Writer {
	w := &Writer{graph: g, log: g.logger()}
	for _, opt := range opts {
		opt(w)
	}
	w.resolver = symbols.NewResolver(g.Package, g.Imports, w.buildScope, w.log)
	w.resolver.Reserve(paramNames...)
	return w
}

func (w *Writer) buildScope() (symbols.Scope, error) {
	if w.scope != nil {
		return w.scope, nil
	}
	if w.adapter == nil {
		w.adapter = symbols.NewAdapter(symbols.WithLogger(w.log))
	}
	return w.adapter.BuildScope(symbols.Package{
		Path:    w.graph.Package,
		Name:    w.graph.PackageName,
		Imports: w.graph.Imports,
		Files:   w.files,
		Types:   w.graph.Names(),
	})
}

// WriteAll writes a unit per model, or one unit for all models when
// single is set, followed by the infos unit.
func (w *Writer) WriteAll(single bool) ([]*Unit, error) {
	var units []*Unit
	if single {
		u, err := w.WriteModels(w.graph.Types)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	} else {
		for _, t := range w.graph.Types {
			u, err := w.WriteModel(t)
			if err != nil {
				return nil, err
			}
			units = append(units, u)
		}
	}
	u, err := w.WriteInfosFile()
	if err != nil {
		return nil, err
	}
	return append(units, u), nil
}

// WriteModel writes the unit of one model.
func (w *Writer) WriteModel(t *Type) (*Unit, error) {
	b := w.newBuffer()
	w.model(b, t)
	return w.unit(t.FileName(), b)
}

// WriteModels writes the given models in a single unit.
func (w *Writer) WriteModels(types []*Type) (*Unit, error) {
	b := w.newBuffer()
	for _, t := range types {
		w.model(b, t)
	}
	return w.unit("models"+w.graph.FileSuffix, b)
}

func (w *Writer) unit(name string, b *Buffer) (*Unit, error) {
	var out bytes.Buffer
	out.WriteString(GeneratedHeader)
	out.WriteByte('\n')
	for _, line := range headerLines(w.graph.Header) {
		out.WriteString(line)
		out.WriteByte('\n')
	}
	fmt.Fprintf(&out, "\npackage %s\n\n", w.graph.PackageName)
	if uses := b.uses.List(); len(uses) > 0 {
		out.WriteString("import (\n")
		for _, imp := range uses {
			fmt.Fprintf(&out, "\t%s\n", imp)
		}
		out.WriteString(")\n\n")
	}
	out.Write(b.Bytes())
	src, err := imports.Process(name, out.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		return nil, NewGenerationError("format", name, "", err)
	}
	w.log.Debug("unit written", "file", name, "bytes", len(src))
	return &Unit{Name: name, Text: src}, nil
}

func headerLines(header string) []string {
	if header == "" {
		return nil
	}
	lines := strings.Split(strings.TrimRight(header, "\n"), "\n")
	for i, l := range lines {
		if !strings.HasPrefix(l, "//") {
			lines[i] = strings.TrimRight("// "+l, " ")
		}
	}
	return lines
}

// Buffer accumulates the text of one unit and the imports it uses.
type Buffer struct {
	bytes.Buffer
	w    *Writer
	uses symbols.ImportSet
}

func (w *Writer) newBuffer() *Buffer {
	return &Buffer{w: w}
}

// Line writes a formatted line.
func (b *Buffer) Line(format string, args ...any) {
	fmt.Fprintf(b, format, args...)
	b.WriteByte('\n')
}

// Comment writes text as line comments.
func (b *Buffer) Comment(text string) {
	for l := range strings.SplitSeq(strings.TrimSpace(text), "\n") {
		b.WriteString(strings.TrimRight("// "+strings.TrimSpace(l), " "))
		b.WriteByte('\n')
	}
}

// Qual returns the expression denoting path.name in the unit.
func (b *Buffer) Qual(path, name string) string {
	return b.w.resolver.Qualify(path, name, &b.uses)
}

// Rt returns the expression denoting a name of the runtime package.
func (b *Buffer) Rt(name string) string {
	return b.Qual(RuntimePath, name)
}

// Type returns the expression denoting r in the unit.
func (b *Buffer) Type(r load.TypeRef) string {
	switch r.Kind {
	case load.RefPointer:
		return "*" + b.Type(r.Args[0])
	case load.RefSlice:
		return "[]" + b.Type(r.Args[0])
	case load.RefMap:
		return "map[" + b.Type(r.Args[0]) + "]" + b.Type(r.Args[1])
	case load.RefNamed:
		name := r.Name
		if !r.IsBuiltin() {
			name = b.Qual(r.Path, r.Name)
		}
		if len(r.Args) == 0 {
			return name
		}
		args := make([]string, len(r.Args))
		for i, a := range r.Args {
			args[i] = b.Type(a)
		}
		return name + "[" + strings.Join(args, ", ") + "]"
	}
	return b.Rt("Element")
}

// scratch returns a buffer sharing the resolver whose imports are
// discarded, for code written as comments.
func (b *Buffer) scratch() *Buffer {
	return b.w.newBuffer()
}

// model writes the declarations of one model.
func (w *Writer) model(b *Buffer, t *Type) {
	if t.IsMixin {
		w.iface(b, t)
	}
	if !t.OmitBase {
		b.Line("// %s is the model of the %q content type.", t.Name, t.Alias)
		if t.Description != "" {
			b.Line("//")
			b.Comment(t.Description)
		}
		b.Line("type %s struct {", t.Name)
		if base := t.BaseDeclaration(); base != nil {
			b.Line("\t%s", b.Type(*base))
		}
		b.Line("}")
		b.Line("")
	}
	var asserted []string
	if t.IsMixin && !t.Asserted(t) {
		asserted = append(asserted, t.InterfaceName())
	}
	for _, m := range t.LocalMixins {
		if !t.Asserted(m) {
			asserted = append(asserted, m.InterfaceName())
		}
	}
	if len(asserted) > 0 {
		b.Line("var (")
		for _, name := range asserted {
			b.Line("\t_ %s = (*%s)(nil)", name, t.Name)
		}
		b.Line(")")
		b.Line("")
	}
	if !t.OmitConstructor {
		w.constructor(b, t)
	}
	for _, p := range t.ExpandedProperties {
		w.member(b, t, p)
	}
}

func (w *Writer) iface(b *Buffer, t *Type) {
	b.Line("// %s is implemented by the models composing the %q content type.", t.InterfaceName(), t.Alias)
	b.Line("type %s interface {", t.InterfaceName())
	b.Line("\t%s", b.Rt("Modeled"))
	if t.Parent != nil {
		b.Line("\t%s", t.Parent.InterfaceName())
	}
	for _, m := range t.LocalMixins {
		b.Line("\t%s", m.InterfaceName())
	}
	if w.graph.MemberStyle != StyleStatic {
		for _, p := range t.Properties {
			if p.HasErrors() {
				b.Line("")
				for _, e := range p.Errors {
					b.Line("\t// %s", e)
				}
				s := b.scratch()
				b.Line("\t// %s(%s) %s", p.Name, w.accessorParams(s, s.Type(p.Type)), s.Type(p.Type))
				continue
			}
			value := b.Type(p.Type)
			b.Line("")
			w.doc(b, "\t", p.Name, p)
			b.Line("\t%s(%s) %s", p.Name, w.accessorParams(b, value), value)
		}
	}
	b.Line("}")
	b.Line("")
}

func (w *Writer) constructor(b *Buffer, t *Type) {
	init := fmt.Sprintf("%s(element)", b.Qual(t.Base.Path, "New"+t.Base.Name))
	if t.Parent != nil && t.Base.String() == load.Named(w.graph.Package, t.Parent.Name).String() {
		init = fmt.Sprintf("*%s(element)", t.Parent.ConstructorName())
	}
	b.Line("// %s returns the %s model of element.", t.ConstructorName(), t.Name)
	b.Line("func %s(element %s) *%s {", t.ConstructorName(), b.Rt("Element"), t.Name)
	b.Line("\treturn &%s{%s: %s}", t.Name, t.BaseField(), init)
	b.Line("}")
	b.Line("")
}

// member writes the accessor and package function of a property of t.
// Package functions are written once, with the property owner.
func (w *Writer) member(b *Buffer, t *Type, p *Property) {
	if errs := p.Errors; len(errs) > 0 {
		s := b.scratch()
		w.accessor(s, t, p)
		if p.Owner == t {
			w.static(s, p)
		}
		if s.Len() == 0 {
			return
		}
		b.Line("// %s is not generated:", p.Name)
		for _, e := range errs {
			b.Line("//   - %s", e)
		}
		b.Line("//")
		for l := range strings.SplitSeq(strings.TrimRight(s.String(), "\n"), "\n") {
			b.WriteString(strings.TrimRight("// "+l, " "))
			b.WriteByte('\n')
		}
		b.Line("")
		return
	}
	w.accessor(b, t, p)
	if p.Owner == t {
		w.static(b, p)
	}
}

func (w *Writer) accessor(b *Buffer, t *Type, p *Property) {
	if w.graph.MemberStyle == StyleStatic {
		return
	}
	value := b.Type(p.Type)
	var params callParams
	if w.graph.MemberStyle == StyleMethod {
		params = w.params(b, value)
	}
	w.doc(b, "", p.Name, p)
	b.Line("func (m *%s) %s(%s) %s {", t.Name, p.Name, params.decl, value)
	b.Line("\treturn %s[%s](m, %s%s)", b.Rt("Value"), value, strconv.Quote(p.Alias), params.args)
	b.Line("}")
	b.Line("")
}

func (w *Writer) static(b *Buffer, p *Property) {
	if w.graph.MemberStyle != StylePropertyAndStatic && w.graph.MemberStyle != StyleStatic {
		return
	}
	that := b.Rt("Modeled")
	if p.Owner.IsMixin {
		that = p.Owner.InterfaceName()
	}
	value := b.Type(p.Type)
	params := w.params(b, value)
	decl := "that " + that
	if params.decl != "" {
		decl += ", " + params.decl
	}
	w.doc(b, "", p.StaticName(), p)
	b.Line("func %s(%s) %s {", p.StaticName(), decl, value)
	b.Line("\treturn %s[%s](that, %s%s)", b.Rt("Value"), value, strconv.Quote(p.Alias), params.args)
	b.Line("}")
	b.Line("")
}

func (w *Writer) doc(b *Buffer, indent, name string, p *Property) {
	b.Line("%s// %s returns the value of the %q property.", indent, name, p.Alias)
	if p.Description != "" {
		b.Line("%s//", indent)
		for l := range strings.SplitSeq(strings.TrimSpace(p.Description), "\n") {
			b.Line("%s", strings.TrimRight(indent+"// "+strings.TrimSpace(l), " "))
		}
	}
}

type callParams struct {
	decl string
	args string
}

// params returns the lookup parameters of the fallback style.
func (w *Writer) params(b *Buffer, value string) callParams {
	switch w.graph.FallbackStyle {
	case FallbackClassic:
		return callParams{
			decl: fmt.Sprintf("culture, segment string, fallback %s, defaultValue %s", b.Rt("Fallback"), value),
			args: fmt.Sprintf(", %s(culture), %s(segment), %s(fallback), %s(defaultValue)",
				b.Rt("Culture"), b.Rt("Segment"), b.Rt("WithFallback"), b.Rt("Default")),
		}
	case FallbackModern:
		return callParams{
			decl: "opts ..." + b.Rt("ValueOption"),
			args: ", opts...",
		}
	}
	return callParams{}
}

// accessorParams returns the parameter list of an interface accessor.
func (w *Writer) accessorParams(b *Buffer, value string) string {
	if w.graph.MemberStyle != StyleMethod {
		return ""
	}
	return w.params(b, value).decl
}
