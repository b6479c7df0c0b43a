package gen

import (
	"bytes"
	"strings"

	"github.com/dave/jennifer/jen"
	"github.com/google/uuid"

	"github.com/syssam/modelsbuilder"
)

const uuidPath = "github.com/google/uuid"

// WriteInfosFile writes the models registry: a constant per content type
// alias and an Infos value describing every model.
func (w *Writer) WriteInfosFile() (*Unit, error) {
	g := w.graph
	f := jen.NewFilePathName(g.Package, g.PackageName)
	f.HeaderComment(strings.TrimPrefix(GeneratedHeader, "// "))
	for _, line := range headerLines(g.Header) {
		f.HeaderComment(strings.TrimPrefix(line, "// "))
	}
	w.importAlias(f, RuntimePath, "Infos", "ModelInfo", "Element", "Modeled", "KindContent")
	w.importAlias(f, uuidPath, "MustParse")

	if len(g.Types) > 0 {
		consts := make([]jen.Code, 0, len(g.Types))
		for _, t := range g.Types {
			consts = append(consts, jen.Id(t.AliasConst()).Op("=").Lit(t.Alias))
		}
		f.Comment("Content type aliases.")
		f.Const().Defs(consts...)
	}

	entries := make([]jen.Code, 0, len(g.Types))
	for _, t := range g.Types {
		entries = append(entries, w.info(t))
	}
	f.Commentf("%s describes the generated models.", InfosVar)
	f.Var().Id(InfosVar).Op("=").Qual(RuntimePath, "Infos").Values(
		append(entries, jen.Line())...,
	)

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("infos", g.InfosFile, "", err)
	}
	return &Unit{Name: g.InfosFile, Text: buf.Bytes()}, nil
}

func (w *Writer) info(t *Type) jen.Code {
	d := jen.Dict{
		jen.Id("Alias"): jen.Id(t.AliasConst()),
		jen.Id("Kind"):  jen.Qual(RuntimePath, kindConst(t.Kind)),
		jen.Id("Name"):  jen.Lit(t.Name),
	}
	if t.Key != uuid.Nil {
		d[jen.Id("Key")] = jen.Qual(uuidPath, "MustParse").Call(jen.Lit(t.Key.String()))
	}
	if !t.OmitConstructor || t.handConstructor {
		d[jen.Id("New")] = jen.Func().
			Params(jen.Id("e").Qual(RuntimePath, "Element")).
			Qual(RuntimePath, "Modeled").
			Block(jen.Return(jen.Id(t.ConstructorName()).Call(jen.Id("e"))))
	}
	return jen.Line().Values(d)
}

func kindConst(k modelsbuilder.Kind) string {
	switch k {
	case modelsbuilder.KindMedia:
		return "KindMedia"
	case modelsbuilder.KindMember:
		return "KindMember"
	case modelsbuilder.KindElement:
		return "KindElement"
	}
	return "KindContent"
}

// importAlias makes f spell path the way the resolver does. A package is
// dot-imported only when every name used from it resolves bare.
func (w *Writer) importAlias(f *jen.File, path string, names ...string) {
	alias := "."
	for _, name := range names {
		expr := w.resolver.Qualify(path, name, nil)
		if i := strings.LastIndexByte(expr, '.'); i >= 0 {
			alias = expr[:i]
			break
		}
	}
	f.ImportAlias(path, alias)
}
