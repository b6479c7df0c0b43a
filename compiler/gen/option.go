package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"strings"

	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// Option configures code generation.
type Option func(*Config) error

// WithPackage sets the import path of the generated package.
// For example: "github.com/org/site/models".
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		c.Package = pkg
		return nil
	}
}

// WithPackageName sets the package clause of generated files.
func WithPackageName(name string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(name) || name == "_" {
			return NewConfigError("PackageName", name, "not a valid package name")
		}
		c.PackageName = name
		return nil
	}
}

// WithImports adds imports generated files may use.
// Dot imports make the short names of a package available.
func WithImports(imports ...symbols.Import) Option {
	return func(c *Config) error {
		for _, imp := range imports {
			if imp.Path == "" {
				return NewConfigError("Imports", imp, "import path cannot be empty")
			}
			if imp.Name != "" && imp.Name != "." && !token.IsIdentifier(imp.Name) {
				return NewConfigError("Imports", imp, "invalid import name")
			}
		}
		c.Imports = append(c.Imports, imports...)
		return nil
	}
}

// WithNameSource selects whether target names derive from aliases or from
// display names.
func WithNameSource(src NameSource) Option {
	return func(c *Config) error {
		if src != NameFromAlias && src != NameFromName {
			return NewConfigError("NameSource", src, "unsupported name source")
		}
		c.NameSource = src
		return nil
	}
}

// WithRoot sets the type embedded by models without a parent, in the text
// form of a type reference, e.g. "example.com/site/cms.PublishedContent".
func WithRoot(ref string) Option {
	return func(c *Config) error {
		r, err := load.ParseTypeRef(ref)
		if err != nil {
			return NewConfigError("Root", ref, err.Error())
		}
		if r.Kind != load.RefNamed {
			return NewConfigError("Root", ref, "root must be a named type")
		}
		c.Root = r
		return nil
	}
}

// WithInterfaceFormat sets the format of mixin interface names.
// It must contain exactly one %s verb.
func WithInterfaceFormat(format string) Option {
	return func(c *Config) error {
		if strings.Count(format, "%s") != 1 || strings.Count(format, "%") != 1 {
			return NewConfigError("InterfaceFormat", format, "format must contain exactly one %s")
		}
		c.InterfaceFormat = format
		return nil
	}
}

// WithFileSuffix sets the suffix of model file names.
func WithFileSuffix(suffix string) Option {
	return func(c *Config) error {
		if !strings.HasSuffix(suffix, ".go") || strings.HasSuffix(suffix, "_test.go") {
			return NewConfigError("FileSuffix", suffix, "suffix must end in .go and must not name a test file")
		}
		c.FileSuffix = suffix
		return nil
	}
}

// WithInfosFile sets the file name of the models registry.
func WithInfosFile(name string) Option {
	return func(c *Config) error {
		if !strings.HasSuffix(name, ".go") || strings.ContainsAny(name, `/\`) {
			return NewConfigError("InfosFile", name, "must be a .go file name")
		}
		c.InfosFile = name
		return nil
	}
}

// WithMemberStyle sets the shape of generated property members.
func WithMemberStyle(s MemberStyle) Option {
	return func(c *Config) error {
		if s > StyleStatic {
			return NewConfigError("MemberStyle", s, "unsupported member style")
		}
		c.MemberStyle = s
		return nil
	}
}

// WithFallbackStyle sets the lookup parameters of generated members.
func WithFallbackStyle(s FallbackStyle) Option {
	return func(c *Config) error {
		if s > FallbackModern {
			return NewConfigError("FallbackStyle", s, "unsupported fallback style")
		}
		c.FallbackStyle = s
		return nil
	}
}

// WithStrictNames fails the build when a property is named like its model,
// instead of generating the property as an inert comment.
func WithStrictNames() Option {
	return func(c *Config) error {
		c.StrictNames = true
		return nil
	}
}

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithLogger sets the logger of the build and the writer.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
