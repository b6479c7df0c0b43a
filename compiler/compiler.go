// Package compiler runs generations: it recovers customizations from the
// hand-written files of the generated package, builds the code model of a
// content type graph and writes it.
package compiler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"slices"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/syssam/modelsbuilder/compiler/custom"
	"github.com/syssam/modelsbuilder/compiler/gen"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/output"
	"github.com/syssam/modelsbuilder/compiler/parse"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// DefaultCacheSize is the number of parsed file sets a Compiler remembers.
const DefaultCacheSize = 64

// Request is the input of a generation.
type Request struct {
	// Graph is the content type graph to generate models for.
	Graph *load.Graph
	// Files are the files of the generated package, hand-written and
	// previously generated.
	Files []symbols.Source
	// Directives are customizations applied along with the ones found in
	// Files.
	Directives []custom.Directive
}

// Compiler runs generations with one configuration. It remembers the
// customizations found in recently seen file sets. A Compiler runs one
// generation at a time.
type Compiler struct {
	cfg     *gen.Config
	adapter *symbols.Adapter
	cache   *lru.Cache[string, []custom.Directive]
	single  bool
	log     *slog.Logger
	mu      sync.Mutex
}

// Option configures a Compiler.
type Option func(*Compiler) error

// WithAdapter sets the adapter type-checking the generated package.
func WithAdapter(a *symbols.Adapter) Option {
	return func(c *Compiler) error {
		if a == nil {
			return gen.NewConfigError("Adapter", nil, "adapter cannot be nil")
		}
		c.adapter = a
		return nil
	}
}

// WithCacheSize sets the number of parsed file sets remembered.
func WithCacheSize(n int) Option {
	return func(c *Compiler) error {
		cache, err := lru.New[string, []custom.Directive](n)
		if err != nil {
			return gen.NewConfigError("CacheSize", n, err.Error())
		}
		c.cache = cache
		return nil
	}
}

// WithSingleFile writes every model in one unit.
func WithSingleFile() Option {
	return func(c *Compiler) error {
		c.single = true
		return nil
	}
}

// New returns a Compiler generating with cfg.
func New(cfg *gen.Config, opts ...Option) (*Compiler, error) {
	if cfg == nil {
		return nil, gen.NewConfigError("Config", nil, "config cannot be nil")
	}
	c := &Compiler{cfg: cfg, log: cfg.Logger}
	if c.log == nil {
		c.log = slog.Default()
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.adapter == nil {
		c.adapter = symbols.NewAdapter(symbols.WithLogger(c.log))
	}
	if c.cache == nil {
		c.cache, _ = lru.New[string, []custom.Directive](DefaultCacheSize)
	}
	return c, nil
}

// Generate runs one generation with the given configuration.
func Generate(ctx context.Context, cfg *gen.Config, req Request, opts ...Option) (*output.Units, error) {
	c, err := New(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return c.Generate(ctx, req)
}

// Generate returns the units of the models of req.Graph. The context is
// checked between phases; a canceled run returns no units.
func (c *Compiler) Generate(ctx context.Context, req Request) (*output.Units, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b := custom.NewBuilder()
	b.Add(req.Directives...)
	b.Add(c.directives(req.Files)...)
	opts, err := b.Build()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g, err := gen.Build(c.cfg, req.Graph, opts)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	hand := slices.DeleteFunc(slices.Clone(req.Files), func(s symbols.Source) bool {
		return output.IsGenerated(s.Text) || strings.HasSuffix(s.Name, "_test.go")
	})
	w := gen.NewWriter(g, gen.WithAdapter(c.adapter), gen.WithFiles(hand...))
	written, err := w.WriteAll(c.single)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	units := output.NewUnits()
	for _, u := range written {
		units.Add(u.Name, u.Text)
	}
	c.log.Info("models generated", "package", g.Package, "types", len(g.Types), "units", units.Len())
	return units, nil
}

// directives returns the customizations found in files.
func (c *Compiler) directives(files []symbols.Source) []custom.Directive {
	key := c.key(files)
	if ds, ok := c.cache.Get(key); ok {
		c.log.Debug("customizations cached", "files", len(files))
		return ds
	}
	p := parse.New(c.cfg.Package, parse.WithAdapter(c.adapter), parse.WithLogger(c.log))
	ds := p.Directives(files)
	c.cache.Add(key, ds)
	c.log.Debug("customizations parsed", "files", len(files), "directives", len(ds))
	return ds
}

// key hashes the package path and the files, in name order.
func (c *Compiler) key(files []symbols.Source) string {
	files = slices.Clone(files)
	slices.SortFunc(files, func(a, b symbols.Source) int {
		return strings.Compare(a.Name, b.Name)
	})
	h := sha256.New()
	h.Write([]byte(c.cfg.Package))
	for _, f := range files {
		h.Write([]byte{0})
		h.Write([]byte(f.Name))
		h.Write([]byte{0})
		h.Write(f.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}
