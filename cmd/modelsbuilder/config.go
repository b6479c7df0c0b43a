package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/syssam/modelsbuilder/compiler/gen"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/load/gqlsource"
	"github.com/syssam/modelsbuilder/compiler/load/sqlsource"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// envPrefix prefixes the environment variables of settings, e.g.
// MB_SOURCE_DSN for source.dsn.
const envPrefix = "MB"

// flagKeys maps flag names to setting keys.
var flagKeys = map[string]string{
	"source-file":    "source.file",
	"driver":         "source.driver",
	"dsn":            "source.dsn",
	"table-prefix":   "source.prefix",
	"graphql":        "source.graphql",
	"package":        "package",
	"package-name":   "package_name",
	"output":         "output",
	"single-file":    "single_file",
	"root":           "root",
	"member-style":   "member_style",
	"fallback-style": "fallback_style",
	"name-source":    "name_source",
	"strict-names":   "strict_names",
	"import":         "imports",
	"header":         "header",
	"lock-timeout":   "lock_timeout",
	"debounce":       "watch.debounce",
}

type (
	settings struct {
		Source        sourceSettings `mapstructure:"source"`
		Package       string         `mapstructure:"package"`
		PackageName   string         `mapstructure:"package_name"`
		Output        string         `mapstructure:"output"`
		SingleFile    bool           `mapstructure:"single_file"`
		Root          string         `mapstructure:"root"`
		MemberStyle   string         `mapstructure:"member_style"`
		FallbackStyle string         `mapstructure:"fallback_style"`
		NameSource    string         `mapstructure:"name_source"`
		StrictNames   bool           `mapstructure:"strict_names"`
		// Imports are "path" or "name=path" entries; a name of "." is a dot
		// import.
		Imports     []string      `mapstructure:"imports"`
		Header      string        `mapstructure:"header"`
		LockTimeout time.Duration `mapstructure:"lock_timeout"`
		Watch       watchSettings `mapstructure:"watch"`
	}

	// sourceSettings selects the graph source. Exactly one of File, DSN
	// and GraphQL is set.
	sourceSettings struct {
		File    string   `mapstructure:"file"`
		Driver  string   `mapstructure:"driver"`
		DSN     string   `mapstructure:"dsn"`
		Prefix  string   `mapstructure:"prefix"`
		GraphQL []string `mapstructure:"graphql"`
	}

	watchSettings struct {
		Debounce time.Duration `mapstructure:"debounce"`
	}
)

func sourceFlags(fs *pflag.FlagSet) {
	fs.String("source-file", "", "graph snapshot file (.json, .yaml or .msgpack)")
	fs.String("driver", "", "database driver of the content type tables (postgres, pgx, mysql or sqlite)")
	fs.String("dsn", "", "data source name of the content type tables")
	fs.String("table-prefix", sqlsource.DefaultPrefix, "prefix of the content type tables")
	fs.StringSlice("graphql", nil, "GraphQL SDL files describing the content types")
}

func generationFlags(fs *pflag.FlagSet) {
	fs.String("package", "", "import path of the generated package")
	fs.String("package-name", "", "package clause of generated files (default is the last element of the import path)")
	fs.StringP("output", "o", "models", "directory of the generated package")
	fs.Bool("single-file", false, "write every model in one file")
	fs.String("root", "", "type embedded by models without a parent, e.g. example.com/site/cms.Published")
	fs.String("member-style", "property", "generated members: property, property-and-static, method or static")
	fs.String("fallback-style", "nothing", "lookup parameters of generated members: nothing, classic or modern")
	fs.String("name-source", "alias", "derive model names from the content type alias or name")
	fs.Bool("strict-names", false, "fail on property names colliding with their model")
	fs.StringSlice("import", nil, `imports generated files may use, as "path" or "name=path"`)
	fs.String("header", "", "comment added to every generated file")
	fs.Duration("lock-timeout", 30*time.Second, "maximum wait for another run writing the same directory")
}

// bind makes the flags of fs the highest precedence source of their
// settings.
func bind(v *viper.Viper, fs *pflag.FlagSet) error {
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			errs = append(errs, v.BindPFlag(key, f))
		}
	})
	return errors.Join(errs...)
}

// readConfig reads the config file into v. A missing default config file is
// not an error.
func readConfig(v *viper.Viper, file string) error {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("modelsbuilder")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func loadSettings(v *viper.Viper) (*settings, error) {
	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

// config returns the generation configuration of s.
func (s *settings) config(logger *slog.Logger) (*gen.Config, error) {
	opts := []gen.Option{gen.WithPackage(s.Package), gen.WithLogger(logger)}
	if s.PackageName != "" {
		opts = append(opts, gen.WithPackageName(s.PackageName))
	}
	if s.Root != "" {
		opts = append(opts, gen.WithRoot(s.Root))
	}
	if s.MemberStyle != "" {
		style, err := gen.ParseMemberStyle(s.MemberStyle)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gen.WithMemberStyle(style))
	}
	if s.FallbackStyle != "" {
		style, err := gen.ParseFallbackStyle(s.FallbackStyle)
		if err != nil {
			return nil, err
		}
		opts = append(opts, gen.WithFallbackStyle(style))
	}
	switch strings.ToLower(s.NameSource) {
	case "", "alias":
	case "name":
		opts = append(opts, gen.WithNameSource(gen.NameFromName))
	default:
		return nil, gen.NewConfigError("NameSource", s.NameSource, "use alias or name")
	}
	if s.StrictNames {
		opts = append(opts, gen.WithStrictNames())
	}
	if len(s.Imports) > 0 {
		imports := make([]symbols.Import, 0, len(s.Imports))
		for _, spec := range s.Imports {
			var imp symbols.Import
			if name, path, ok := strings.Cut(spec, "="); ok {
				imp = symbols.Import{Name: strings.TrimSpace(name), Path: strings.TrimSpace(path)}
			} else {
				imp = symbols.Import{Path: strings.TrimSpace(spec)}
			}
			imports = append(imports, imp)
		}
		opts = append(opts, gen.WithImports(imports...))
	}
	if s.Header != "" {
		opts = append(opts, gen.WithHeader(s.Header))
	}
	return gen.NewConfig(opts...)
}

// open returns the graph source of s and the function releasing it.
func (s *sourceSettings) open() (load.Source, func() error, error) {
	nop := func() error { return nil }
	set := 0
	for _, ok := range []bool{s.File != "", s.DSN != "", len(s.GraphQL) > 0} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return nil, nil, errors.New("exactly one of --source-file, --dsn and --graphql is required")
	}
	switch {
	case s.File != "":
		return load.FileSource{Path: s.File}, nop, nil
	case len(s.GraphQL) > 0:
		return &gqlsource.Source{Paths: s.GraphQL}, nop, nil
	}
	if s.Driver == "" {
		return nil, nil, errors.New("--dsn requires --driver")
	}
	src, err := sqlsource.Open(s.Driver, s.DSN)
	if err != nil {
		return nil, nil, err
	}
	src.Prefix = s.Prefix
	return src, src.Close, nil
}

// paths returns the files the source reads, if any.
func (s *sourceSettings) paths() []string {
	if s.File != "" {
		return []string{s.File}
	}
	return s.GraphQL
}
