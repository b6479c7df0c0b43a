package gen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/modelsbuilder/compiler/custom"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

const decimalPath = "github.com/shopspring/decimal"

// write builds the shop graph and writes it against a static scope. The
// scope holds the generated names plus locals.
func write(t *testing.T, ds []custom.Directive, locals []string, opts ...Option) map[string]string {
	t.Helper()
	g := mustBuild(t, shop(), ds, opts...)
	scope := &symbols.StaticScope{
		Package: g.Package,
		Imports: g.Imports,
		Locals:  append(g.Names(), locals...),
		Packages: map[string]symbols.StaticPackage{
			decimalPath: {Name: "decimal", Types: []string{"Decimal"}},
		},
	}
	units, err := NewWriter(g, WithScope(scope)).WriteAll(false)
	require.NoError(t, err)
	out := make(map[string]string, len(units))
	fset := token.NewFileSet()
	for _, u := range units {
		f, err := parser.ParseFile(fset, u.Name, u.Text, parser.ParseComments)
		require.NoError(t, err, "unit %s:\n%s", u.Name, u.Text)
		assert.True(t, ast.IsGenerated(f), "unit %s", u.Name)
		assert.Equal(t, g.PackageName, f.Name.Name)
		out[u.Name] = string(u.Text)
	}
	return out
}

// checker returns an adapter type-checking function bodies. It knows the
// runtime package, small stand-ins for uuid and decimal, and the extra
// packages given by import path.
func checker(t *testing.T, extra map[string]string) *symbols.Adapter {
	t.Helper()
	paths, err := filepath.Glob(filepath.Join("..", "..", "*.go"))
	require.NoError(t, err)
	var runtime []symbols.Source
	for _, path := range paths {
		if strings.HasSuffix(path, "_test.go") {
			continue
		}
		b, err := os.ReadFile(path)
		require.NoError(t, err)
		runtime = append(runtime, symbols.Source{Name: filepath.Base(path), Text: b})
	}
	require.NotEmpty(t, runtime)

	a := symbols.NewAdapter(symbols.WithFuncBodies())
	a.Register(RuntimePath, runtime...)
	a.Register(uuidPath, symbols.Source{Name: "uuid.go", Text: []byte("package uuid\n\ntype UUID [16]byte\n\nfunc MustParse(s string) UUID { return UUID{} }\n")})
	a.Register(decimalPath, symbols.Source{Name: "decimal.go", Text: []byte("package decimal\n\ntype Decimal struct{}\n")})
	for path, text := range extra {
		a.Register(path, symbols.Source{Name: filepath.Base(path) + ".go", Text: []byte(text)})
	}
	return a
}

// typeCheck compiles the units with the hand-written files as one package
// and fails on any error.
func typeCheck(t *testing.T, a *symbols.Adapter, g *Graph, units []*Unit, files ...symbols.Source) {
	t.Helper()
	srcs := slices.Clone(files)
	for _, u := range units {
		srcs = append(srcs, symbols.Source{Name: u.Name, Text: u.Text})
	}
	c, err := a.Compile(g.Package, srcs)
	require.NoError(t, err)
	if !assert.Empty(t, c.Errors) {
		for _, u := range units {
			t.Logf("%s:\n%s", u.Name, u.Text)
		}
	}
}

func TestWriterShop(t *testing.T) {
	units := write(t, nil, nil)
	require.Len(t, units, 4)

	page := units["page_gen.go"]
	assert.Contains(t, page, GeneratedHeader)
	assert.Contains(t, page, "\npackage models\n")
	assert.Contains(t, page, `"github.com/syssam/modelsbuilder"`)
	assert.Contains(t, page, `// Page is the model of the "page" content type.`)
	assert.Contains(t, page, "type Page struct {\n\tmodelsbuilder.Model\n}")
	assert.Contains(t, page, "func NewPage(element modelsbuilder.Element) *Page {")
	assert.Contains(t, page, "return &Page{Model: modelsbuilder.NewModel(element)}")
	assert.Contains(t, page, `// Title returns the value of the "title" property.`)
	assert.Contains(t, page, "func (m *Page) Title() string {")
	assert.Contains(t, page, `return modelsbuilder.Value[string](m, "title")`)
	assert.NotContains(t, page, "interface")

	product := units["product_gen.go"]
	assert.Contains(t, product, "type Product struct {\n\tPage\n}")
	assert.Contains(t, product, "_ SeoComposition = (*Product)(nil)")
	assert.Contains(t, product, "return &Product{Page: *NewPage(element)}")
	assert.Contains(t, product, `"github.com/shopspring/decimal"`)
	assert.Contains(t, product, "func (m *Product) Price() decimal.Decimal {")
	assert.Contains(t, product, `return modelsbuilder.Value[decimal.Decimal](m, "price")`)
	assert.Contains(t, product, "func (m *Product) Related() []*Product {")
	assert.Contains(t, product, "func (m *Product) MetaDescription() string {")
	assert.Contains(t, product, `return modelsbuilder.Value[string](m, "metaDescription")`)
	assert.NotContains(t, product, "func (m *Product) Title()", "inherited from Page")

	seo := units["seo_gen.go"]
	assert.Contains(t, seo, `// SeoComposition is implemented by the models composing the "seo" content type.`)
	assert.Contains(t, seo, "type SeoComposition interface {\n\tmodelsbuilder.Modeled\n")
	assert.Contains(t, seo, "\tMetaDescription() string\n}")
	assert.Contains(t, seo, "_ SeoComposition = (*Seo)(nil)")
	assert.NotContains(t, seo, "decimal")

	infos := units["infos_gen.go"]
	assert.Contains(t, infos, "package models")
	assert.Contains(t, infos, "// Content type aliases.")
	assert.Regexp(t, regexp.MustCompile(`PageAlias\s+= "page"`), infos)
	assert.Regexp(t, regexp.MustCompile(`SeoAlias\s+= "seo"`), infos)
	assert.Contains(t, infos, "var Infos = modelsbuilder.Infos{")
	assert.Regexp(t, regexp.MustCompile(`Alias:\s+PageAlias,`), infos)
	assert.Regexp(t, regexp.MustCompile(`Key:\s+uuid\.MustParse\("6f1d2d1a-3c4b-4b9e-9d2e-1c1f6a7d0001"\),`), infos)
	assert.Regexp(t, regexp.MustCompile(`Kind:\s+modelsbuilder\.KindElement,`), infos)
	assert.Regexp(t, regexp.MustCompile(`Name:\s+"Product",`), infos)
	assert.Contains(t, infos, "return NewProduct(e)")
}

func TestWriterMemberStyles(t *testing.T) {
	tests := []struct {
		name     string
		member   MemberStyle
		fallback FallbackStyle
		seo      []string
		absent   []string
	}{
		{
			name:     "property",
			member:   StyleProperty,
			fallback: FallbackClassic,
			seo:      []string{"func (m *Seo) MetaDescription() string {", "\tMetaDescription() string\n"},
			absent:   []string{"func GetSeoMetaDescription", "culture"},
		},
		{
			name:     "property and static",
			member:   StylePropertyAndStatic,
			fallback: FallbackClassic,
			seo: []string{
				"func (m *Seo) MetaDescription() string {",
				"func GetSeoMetaDescription(that SeoComposition, culture, segment string, fallback modelsbuilder.Fallback, defaultValue string) string {",
				`return modelsbuilder.Value[string](that, "metaDescription", modelsbuilder.Culture(culture), modelsbuilder.Segment(segment), modelsbuilder.WithFallback(fallback), modelsbuilder.Default(defaultValue))`,
			},
		},
		{
			name:     "method",
			member:   StyleMethod,
			fallback: FallbackModern,
			seo: []string{
				"func (m *Seo) MetaDescription(opts ...modelsbuilder.ValueOption) string {",
				`return modelsbuilder.Value[string](m, "metaDescription", opts...)`,
				"\tMetaDescription(opts ...modelsbuilder.ValueOption) string\n",
			},
			absent: []string{"func GetSeoMetaDescription"},
		},
		{
			name:     "static",
			member:   StyleStatic,
			fallback: FallbackModern,
			seo: []string{
				"type SeoComposition interface {\n\tmodelsbuilder.Modeled\n}",
				"func GetSeoMetaDescription(that SeoComposition, opts ...modelsbuilder.ValueOption) string {",
			},
			absent: []string{"func (m *Seo)"},
		},
		{
			name:     "static without fallback",
			member:   StyleStatic,
			fallback: FallbackNothing,
			seo:      []string{"func GetSeoMetaDescription(that SeoComposition) string {"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units := write(t, nil, nil, WithMemberStyle(tt.member), WithFallbackStyle(tt.fallback))
			for _, s := range tt.seo {
				assert.Contains(t, units["seo_gen.go"], s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, units["seo_gen.go"], s)
			}
			assert.NotContains(t, units["product_gen.go"], "func GetSeoMetaDescription", "statics are written with their owner")
		})
	}

	t.Run("static of a plain model", func(t *testing.T) {
		units := write(t, nil, nil, WithMemberStyle(StylePropertyAndStatic))
		assert.Contains(t, units["page_gen.go"], "func GetPageTitle(that modelsbuilder.Modeled) string {")
		assert.Contains(t, units["product_gen.go"], "func GetProductPrice(that modelsbuilder.Modeled) decimal.Decimal {")
	})
}

func TestWriterErroredProperty(t *testing.T) {
	types := shop()
	types[0].Properties = append(types[0].Properties, prop("page", "github.com/shopspring/decimal.Decimal"))
	g := mustBuild(t, types, nil)
	units, err := NewWriter(g, WithScope(&symbols.StaticScope{Package: g.Package, Locals: g.Names()})).WriteAll(false)
	require.NoError(t, err)

	page := string(units[0].Text)
	require.Equal(t, "page_gen.go", units[0].Name)
	assert.Contains(t, page, "// Page is not generated:\n//   - property name Page collides with the model name\n//\n")
	assert.Contains(t, page, "// func (m *Page) Page() decimal.Decimal {")
	assert.NotContains(t, page, `"github.com/shopspring/decimal"`, "commented code needs no import")
	assert.Contains(t, page, "func (m *Page) Title() string {")
}

func TestWriterDotImports(t *testing.T) {
	dot := WithImports(symbols.Import{Path: decimalPath, Name: "."})

	t.Run("bare when unambiguous", func(t *testing.T) {
		product := write(t, nil, nil, dot)["product_gen.go"]
		assert.Contains(t, product, `. "github.com/shopspring/decimal"`)
		assert.Contains(t, product, "func (m *Product) Price() Decimal {")
	})

	t.Run("qualified when shadowed", func(t *testing.T) {
		product := write(t, nil, []string{"Decimal"}, dot)["product_gen.go"]
		assert.NotContains(t, product, `. "github.com/shopspring/decimal"`)
		assert.Contains(t, product, "func (m *Product) Price() decimal.Decimal {")
	})

	t.Run("aliased when the package name is taken", func(t *testing.T) {
		product := write(t, nil, []string{"decimal"})["product_gen.go"]
		assert.Contains(t, product, `decimal2 "github.com/shopspring/decimal"`)
		assert.Contains(t, product, "func (m *Product) Price() decimal2.Decimal {")
	})
}

func TestWriterCustomizations(t *testing.T) {
	t.Run("hand-written page", func(t *testing.T) {
		units := write(t, []custom.Directive{
			custom.BaseOverride{Type: "page", Omit: true},
			custom.HasConstructor{Type: "page"},
		}, []string{"Page", "NewPage"})
		page := units["page_gen.go"]
		assert.NotContains(t, page, "type Page struct")
		assert.NotContains(t, page, "func NewPage")
		assert.Contains(t, page, "func (m *Page) Title() string {")
		assert.Contains(t, units["product_gen.go"], "return &Product{Page: *NewPage(element)}")
		assert.Contains(t, units["infos_gen.go"], "return NewPage(e)")
	})

	t.Run("custom root", func(t *testing.T) {
		page := write(t, nil, nil, WithRoot("example.com/cms.Published"))["page_gen.go"]
		assert.Contains(t, page, "type Page struct {\n\tcms.Published\n}")
		assert.Contains(t, page, "return &Page{Published: cms.NewPublished(element)}")
	})

	t.Run("declared interface is not asserted again", func(t *testing.T) {
		product := write(t, []custom.Directive{
			custom.DeclareInterface{Type: "product", Interface: load.Named(pkg, "SeoComposition")},
		}, nil)["product_gen.go"]
		assert.NotContains(t, product, "SeoComposition = (*Product)(nil)")
	})

	t.Run("renamed type", func(t *testing.T) {
		units := write(t, []custom.Directive{custom.RenameType{Type: "page", Name: "WebPage"}}, nil)
		require.Contains(t, units, "web_page_gen.go")
		assert.Contains(t, units["product_gen.go"], "return &Product{WebPage: *NewWebPage(element)}")
		assert.Regexp(t, regexp.MustCompile(`WebPageAlias\s+= "page"`), units["infos_gen.go"])
	})

	t.Run("header and descriptions", func(t *testing.T) {
		types := shop()
		types[0].Description = "Landing pages.\nShown in menus."
		types[0].Properties[0].Description = "Browser title."
		g := mustBuild(t, types, nil, WithHeader("Copyright Example Corp."))
		units, err := NewWriter(g, WithScope(&symbols.StaticScope{Package: g.Package, Locals: g.Names()})).WriteAll(true)
		require.NoError(t, err)
		require.Len(t, units, 2)
		assert.Equal(t, "models_gen.go", units[0].Name)
		text := string(units[0].Text)
		assert.Contains(t, text, "// Copyright Example Corp.\n")
		assert.Contains(t, text, "//\n// Landing pages.\n// Shown in menus.\ntype Page struct {")
		assert.Contains(t, text, "property.\n//\n// Browser title.\nfunc (m *Page) Title() string {")
		assert.Contains(t, text, "type Seo struct {")
		assert.Contains(t, string(units[1].Text), "// Copyright Example Corp.")
	})
}

func TestWriterDeterministic(t *testing.T) {
	first := write(t, nil, nil)
	for range 3 {
		assert.Equal(t, first, write(t, nil, nil))
	}
}

func TestWriterCompiles(t *testing.T) {
	for _, member := range slices.Sorted(maps.Keys(memberStyles)) {
		for _, fallback := range slices.Sorted(maps.Keys(fallbackStyles)) {
			t.Run(member+"/"+fallback, func(t *testing.T) {
				g := mustBuild(t, shop(), nil, WithMemberStyle(memberStyles[member]), WithFallbackStyle(fallbackStyles[fallback]))
				for _, single := range []bool{false, true} {
					a := checker(t, nil)
					units, err := NewWriter(g, WithAdapter(a)).WriteAll(single)
					require.NoError(t, err)
					typeCheck(t, a, g, units)
				}
			})
		}
	}

	t.Run("hand-written page", func(t *testing.T) {
		hand := symbols.Source{Name: "page.go", Text: []byte(`package models

import "github.com/syssam/modelsbuilder"

type Page struct {
	modelsbuilder.Model
	visits int
}

func NewPage(element modelsbuilder.Element) *Page {
	return &Page{Model: modelsbuilder.NewModel(element)}
}
`)}
		g := mustBuild(t, shop(), []custom.Directive{
			custom.BaseOverride{Type: "page", Omit: true},
			custom.HasConstructor{Type: "page"},
		})
		a := checker(t, nil)
		units, err := NewWriter(g, WithAdapter(a), WithFiles(hand)).WriteAll(false)
		require.NoError(t, err)
		typeCheck(t, a, g, units, hand)
	})

	t.Run("dot import exporting a generated name", func(t *testing.T) {
		const ns = "example.com/ns"
		a := checker(t, map[string]string{ns: "package ns\n\ntype Page struct{}\n\ntype Tag struct{}\n"})
		g := mustBuild(t, []*load.ContentType{ctype(1, "page", prop("home", ns+".Page"), prop("tag", ns+".Tag"))}, nil,
			WithImports(symbols.Import{Path: ns, Name: "."}))
		units, err := NewWriter(g, WithAdapter(a)).WriteAll(false)
		require.NoError(t, err)

		page := string(units[0].Text)
		assert.NotContains(t, page, `. "example.com/ns"`)
		assert.Contains(t, page, `"example.com/ns"`)
		assert.Contains(t, page, "func (m *Page) Home() ns.Page {")
		assert.Contains(t, page, "func (m *Page) Tag() ns.Tag {")
		typeCheck(t, a, g, units)
	})

	t.Run("package named like a parameter", func(t *testing.T) {
		const fb = "example.com/fallback"
		a := checker(t, map[string]string{fb: "package fallback\n\ntype Mode int\n"})
		g := mustBuild(t, []*load.ContentType{ctype(1, "page", prop("mode", fb+".Mode"))}, nil,
			WithMemberStyle(StylePropertyAndStatic), WithFallbackStyle(FallbackClassic))
		units, err := NewWriter(g, WithAdapter(a)).WriteAll(false)
		require.NoError(t, err)

		page := string(units[0].Text)
		assert.Contains(t, page, `fallback2 "example.com/fallback"`)
		assert.Contains(t, page, "fallback modelsbuilder.Fallback, defaultValue fallback2.Mode) fallback2.Mode {")
		typeCheck(t, a, g, units)
	})

	t.Run("mixin property named like the embedded field", func(t *testing.T) {
		product := ctype(3, "product")
		product.ParentID = 2
		product.MixinIDs = []int{1}
		g := mustBuild(t, []*load.ContentType{ctype(1, "seo", prop("page", "string")), ctype(2, "page"), product}, nil,
			WithMemberStyle(StyleStatic))
		a := checker(t, nil)
		units, err := NewWriter(g, WithAdapter(a)).WriteAll(false)
		require.NoError(t, err)
		typeCheck(t, a, g, units)
	})
}
