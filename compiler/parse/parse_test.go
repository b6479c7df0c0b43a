package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/modelsbuilder/compiler/custom"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

const pkgPath = "example.com/site/models"

func newParser(t *testing.T) *Parser {
	t.Helper()
	a := symbols.NewAdapter(symbols.WithFallbackImporter(nil))
	a.Register("example.com/site/base", symbols.Source{Name: "base.go", Text: []byte("package base\n\ntype Page struct{}\n")})
	return New(pkgPath, WithAdapter(a))
}

const productSource = `package models

import (
	"fmt"

	base "example.com/site/base"
)

// Product is hand-written.
//
//models:content-type productPage
//models:ignore-property legacyCode
type Product struct {
	base.Page
	cache map[string]any
}

var _ fmt.Stringer = (*Product)(nil)

func NewProduct(e any) *Product { return nil }

// Price is computed.
//
//models:implements-property price
func (p *Product) Price() float64 { return 0 }

func (p *Product) String() string { return "" }

//models:implements-property blogPost summary
func BlogPostSummary(that any) string { return "" }

//models:ignore-type legacyPage
//models:rename-property * prop1 Renamed1
//models:namespace example.com/site/models
//models:bogus thing
//models:rename-type home 1Home
`

func TestDirectives(t *testing.T) {
	p := newParser(t)
	ds := p.Directives([]symbols.Source{{Name: "product.go", Text: []byte(productSource)}})

	assert.Equal(t, []custom.Directive{
		custom.BaseOverride{Type: "Product", Base: load.Named("example.com/site/base", "Page"), Omit: true},
		custom.DeclareInterface{Type: "Product", Interface: load.Named("fmt", "Stringer")},
		custom.HasConstructor{Type: "Product"},
		custom.RenameType{Type: "productPage", Name: "Product"},
		custom.IgnoreProperty{Type: "Product", Property: "legacyCode"},
		custom.IgnoreProperty{Type: "Product", Property: "price"},
		custom.IgnoreProperty{Type: "blogPost", Property: "summary"},
		custom.IgnoreType{Type: "legacyPage"},
		custom.RenameProperty{Property: "prop1", Name: "Renamed1"},
		custom.Namespace{Path: "example.com/site/models"},
	}, ds)
}

func TestDirectivesSkipGeneratedAndTests(t *testing.T) {
	p := newParser(t)
	ds := p.Directives([]symbols.Source{
		{Name: "page_gen.go", Text: []byte("// Code generated by modelsbuilder. DO NOT EDIT.\n\npackage models\n\n//models:ignore-type page\ntype Page struct{}\n")},
		{Name: "page_test.go", Text: []byte("package models\n\ntype Fixture struct{}\n")},
	})
	assert.Empty(t, ds)
}

func TestDirectivesStructShapes(t *testing.T) {
	p := newParser(t)
	src := `package models

type (
	// Plain has no base.
	//
	//models:ignore-type
	Plain struct{ n int }

	Ptr struct {
		*Page
	}

	Generic[T any] struct{ v T }

	Alias = Ptr
)

type Page struct{}

var _ = (*Plain)(nil)

func NewPtr(a, b int) *Ptr { return nil }

func NewPlain(e any) Plain { return Plain{} }
`
	ds := p.Directives([]symbols.Source{{Name: "shapes.go", Text: []byte(src)}})
	assert.Equal(t, []custom.Directive{
		custom.BaseOverride{Type: "Plain", Omit: true},
		custom.BaseOverride{Type: "Ptr", Base: load.PointerTo(load.Named(pkgPath, "Page")), Omit: true},
		custom.BaseOverride{Type: "Page", Omit: true},
		custom.IgnoreType{Type: "Plain"},
	}, ds)
}

func TestDirectivesUnresolvedNames(t *testing.T) {
	p := newParser(t)
	src := `package models

import "example.com/site/missing/v2"

type Home struct {
	missing.Base
}

var _ HomeComposition = (*Home)(nil)
`
	ds := p.Directives([]symbols.Source{{Name: "home.go", Text: []byte(src)}})
	require.Len(t, ds, 2)
	assert.Equal(t, custom.BaseOverride{Type: "Home", Base: load.Named("example.com/site/missing/v2", "Base"), Omit: true}, ds[0])
	assert.Equal(t, custom.DeclareInterface{Type: "Home", Interface: load.Named(pkgPath, "HomeComposition")}, ds[1])
}

func TestParseIntoBuilder(t *testing.T) {
	p := newParser(t)
	b := custom.NewBuilder()
	p.Parse([]symbols.Source{{Name: "product.go", Text: []byte(productSource)}}, b)
	opts, err := b.Build()
	require.NoError(t, err)

	typ := opts.Type("productPage", "Product")
	assert.Equal(t, "Product", typ.Name)
	assert.True(t, typ.OmitBase)
	assert.True(t, typ.HasConstructor)
	assert.True(t, opts.Property("price", "productPage", "Product").Ignored)
	assert.Equal(t, "Renamed1", opts.Property("prop1", "any").Name)
}

func TestDirectivesUnparsable(t *testing.T) {
	p := newParser(t)
	assert.Nil(t, p.Directives([]symbols.Source{{Name: "x.go", Text: []byte("garbage")}}))
	assert.Nil(t, p.Directives(nil))
}
