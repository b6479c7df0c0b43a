package gen

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// RuntimePath is the import path of the package generated models use.
const RuntimePath = "github.com/syssam/modelsbuilder"

// GeneratedHeader is the first line of every generated file.
const GeneratedHeader = "// Code generated by modelsbuilder. DO NOT EDIT."

// NameSource selects what target names are derived from.
type NameSource uint8

// Name sources.
const (
	NameFromAlias NameSource = iota
	NameFromName
)

// MemberStyle selects the shape of generated property members.
type MemberStyle uint8

// Member styles.
const (
	// StyleProperty generates an accessor method per property.
	StyleProperty MemberStyle = iota
	// StylePropertyAndStatic generates an accessor method and a package
	// function taking the model as argument.
	StylePropertyAndStatic
	// StyleMethod generates an accessor method taking lookup parameters.
	StyleMethod
	// StyleStatic generates the package function only.
	StyleStatic
)

var memberStyles = map[string]MemberStyle{
	"property":            StyleProperty,
	"property-and-static": StylePropertyAndStatic,
	"method":              StyleMethod,
	"static":              StyleStatic,
}

// ParseMemberStyle parses a member style name.
func ParseMemberStyle(s string) (MemberStyle, error) {
	if v, ok := memberStyles[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, NewConfigError("MemberStyle", s, "use property, property-and-static, method or static")
}

// FallbackStyle selects the lookup parameters generated members expose.
type FallbackStyle uint8

// Fallback styles.
const (
	// FallbackNothing exposes no parameters.
	FallbackNothing FallbackStyle = iota
	// FallbackClassic exposes culture, segment, fallback and default value
	// parameters.
	FallbackClassic
	// FallbackModern exposes variadic modelsbuilder.ValueOption parameters.
	FallbackModern
)

var fallbackStyles = map[string]FallbackStyle{
	"nothing": FallbackNothing,
	"classic": FallbackClassic,
	"modern":  FallbackModern,
}

// ParseFallbackStyle parses a fallback style name.
func ParseFallbackStyle(s string) (FallbackStyle, error) {
	if v, ok := fallbackStyles[strings.ToLower(s)]; ok {
		return v, nil
	}
	return 0, NewConfigError("FallbackStyle", s, "use nothing, classic or modern")
}

// Config is the configuration of a generation run.
type Config struct {
	// Package is the import path of the generated package.
	Package string
	// PackageName is the package clause of generated files. It defaults to
	// the last element of Package.
	PackageName string
	// Imports are the imports generated files may use. Dot imports make
	// short names available.
	Imports []symbols.Import
	// NameSource selects what target names are derived from.
	NameSource NameSource
	// Root is embedded by models without a parent.
	Root load.TypeRef
	// InterfaceFormat formats the name of a mixin interface from the
	// model name.
	InterfaceFormat string
	// FileSuffix is appended to the snake-cased model name to form the
	// file name of a model.
	FileSuffix string
	// InfosFile is the name of the models registry file.
	InfosFile     string
	MemberStyle   MemberStyle
	FallbackStyle FallbackStyle
	// StrictNames turns property names colliding with their model into
	// build failures instead of per-property errors.
	StrictNames bool
	// Header is added below the generated-code line of each file.
	Header string
	Logger *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		Root:            load.Named(RuntimePath, "Model"),
		InterfaceFormat: "%sComposition",
		FileSuffix:      "_gen.go",
		InfosFile:       "infos_gen.go",
		Logger:          slog.Default(),
	}
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Config) interfaceName(model string) string {
	return fmt.Sprintf(c.InterfaceFormat, model)
}
