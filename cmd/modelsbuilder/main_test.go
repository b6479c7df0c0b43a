package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/modelsbuilder/compiler/gen"
	"github.com/syssam/modelsbuilder/compiler/load"
	"github.com/syssam/modelsbuilder/compiler/load/gqlsource"
	"github.com/syssam/modelsbuilder/compiler/load/sqlsource"
	"github.com/syssam/modelsbuilder/compiler/output"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

const shopGraph = "../../compiler/load/testdata/graphs/shop.yaml"

func discard() *slog.Logger {
	return slog.New(log.New(io.Discard))
}

func parseSettings(t *testing.T, file string, args ...string) *settings {
	t.Helper()
	v := viper.New()
	require.NoError(t, readConfig(v, file))
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	sourceFlags(fs)
	generationFlags(fs)
	require.NoError(t, fs.Parse(args))
	require.NoError(t, bind(v, fs))
	s, err := loadSettings(v)
	require.NoError(t, err)
	return s
}

func TestSettings(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "modelsbuilder.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
package: example.com/site/models
output: from-file
member_style: method
imports:
  - github.com/shopspring/decimal
  - .=example.com/site/cms
source:
  driver: postgres
  dsn: postgres://localhost/cms
watch:
  debounce: 1s
`), 0o644))

	t.Run("defaults", func(t *testing.T) {
		s := parseSettings(t, "")
		assert.Equal(t, "models", s.Output)
		assert.Equal(t, "property", s.MemberStyle)
		assert.Equal(t, 30*time.Second, s.LockTimeout)
		assert.Equal(t, sqlsource.DefaultPrefix, s.Source.Prefix)
	})

	t.Run("config file", func(t *testing.T) {
		s := parseSettings(t, file)
		assert.Equal(t, "example.com/site/models", s.Package)
		assert.Equal(t, "from-file", s.Output)
		assert.Equal(t, "method", s.MemberStyle)
		assert.Equal(t, []string{"github.com/shopspring/decimal", ".=example.com/site/cms"}, s.Imports)
		assert.Equal(t, "postgres", s.Source.Driver)
		assert.Equal(t, time.Second, s.Watch.Debounce)
	})

	t.Run("environment overrides config file", func(t *testing.T) {
		t.Setenv("MB_OUTPUT", "from-env")
		t.Setenv("MB_SOURCE_DSN", "postgres://db/cms")
		s := parseSettings(t, file)
		assert.Equal(t, "from-env", s.Output)
		assert.Equal(t, "postgres://db/cms", s.Source.DSN)
	})

	t.Run("flags override environment", func(t *testing.T) {
		t.Setenv("MB_OUTPUT", "from-env")
		s := parseSettings(t, file, "-o", "from-flag", "--strict-names", "--lock-timeout", "5s")
		assert.Equal(t, "from-flag", s.Output)
		assert.True(t, s.StrictNames)
		assert.Equal(t, 5*time.Second, s.LockTimeout)
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		err := readConfig(viper.New(), filepath.Join(dir, "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestSettingsConfig(t *testing.T) {
	s := &settings{
		Package:       "example.com/site/models",
		Root:          "example.com/site/cms.Published",
		MemberStyle:   "property-and-static",
		FallbackStyle: "modern",
		NameSource:    "name",
		StrictNames:   true,
		Imports:       []string{"github.com/shopspring/decimal", "d2 = example.com/decimal"},
		Header:        "Models of the site.",
	}
	cfg, err := s.config(discard())
	require.NoError(t, err)
	assert.Equal(t, "example.com/site/models", cfg.Package)
	assert.Equal(t, load.Named("example.com/site/cms", "Published"), cfg.Root)
	assert.Equal(t, gen.StylePropertyAndStatic, cfg.MemberStyle)
	assert.Equal(t, gen.FallbackModern, cfg.FallbackStyle)
	assert.Equal(t, gen.NameFromName, cfg.NameSource)
	assert.True(t, cfg.StrictNames)
	assert.Equal(t, []symbols.Import{
		{Path: "github.com/shopspring/decimal"},
		{Name: "d2", Path: "example.com/decimal"},
	}, cfg.Imports)

	tests := []struct {
		name   string
		modify func(*settings)
	}{
		{"missing package", func(s *settings) { s.Package = "" }},
		{"member style", func(s *settings) { s.MemberStyle = "field" }},
		{"fallback style", func(s *settings) { s.FallbackStyle = "always" }},
		{"name source", func(s *settings) { s.NameSource = "key" }},
		{"root", func(s *settings) { s.Root = "[]string" }},
		{"import", func(s *settings) { s.Imports = []string{"1x=example.com/x"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &settings{Package: "example.com/site/models"}
			tt.modify(s)
			_, err := s.config(discard())
			assert.True(t, gen.IsConfigError(err), "got %v", err)
		})
	}
}

func TestSourceOpen(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		src, release, err := (&sourceSettings{File: "types.yaml"}).open()
		require.NoError(t, err)
		assert.NoError(t, release())
		assert.Equal(t, load.FileSource{Path: "types.yaml"}, src)
	})

	t.Run("graphql", func(t *testing.T) {
		s := &sourceSettings{GraphQL: []string{"a.graphql", "b.graphql"}}
		src, _, err := s.open()
		require.NoError(t, err)
		assert.Equal(t, &gqlsource.Source{Paths: []string{"a.graphql", "b.graphql"}}, src)
		assert.Equal(t, s.GraphQL, s.paths())
	})

	t.Run("database", func(t *testing.T) {
		src, release, err := (&sourceSettings{Driver: "sqlite", DSN: ":memory:", Prefix: "umbraco_"}).open()
		require.NoError(t, err)
		defer release()
		require.IsType(t, &sqlsource.Source{}, src)
		assert.Equal(t, "umbraco_", src.(*sqlsource.Source).Prefix)
	})

	for name, s := range map[string]*sourceSettings{
		"none":               {},
		"several":            {File: "types.yaml", GraphQL: []string{"schema.graphql"}},
		"dsn without driver": {DSN: "postgres://localhost/cms"},
		"unknown driver":     {Driver: "oracle", DSN: "oracle://localhost"},
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := s.open()
			assert.Error(t, err)
		})
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func TestGenerateCommand(t *testing.T) {
	dir := t.TempDir()
	args := []string{"generate", "--source-file", shopGraph, "--package", "example.com/site/models", "-o", dir}

	_, err := run(t, args...)
	require.NoError(t, err)
	for _, name := range []string{"page_gen.go", "product_gen.go", "seo_gen.go", "infos_gen.go"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.True(t, output.IsGenerated(b), name)
	}
	assert.NoFileExists(t, filepath.Join(dir, output.LockFile))

	t.Run("single file removes model files", func(t *testing.T) {
		_, err := run(t, append(args, "--single-file")...)
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, "models_gen.go"))
		assert.NoFileExists(t, filepath.Join(dir, "page_gen.go"))
	})

	t.Run("missing source", func(t *testing.T) {
		_, err := run(t, "generate", "--package", "example.com/site/models", "-o", dir)
		assert.ErrorContains(t, err, "exactly one of")
	})
}

func TestInspectCommand(t *testing.T) {
	t.Run("snapshot", func(t *testing.T) {
		out, err := run(t, "inspect", "--source-file", shopGraph)
		require.NoError(t, err)
		g, err := load.Decode(load.FormatYAML, []byte(out))
		require.NoError(t, err)
		assert.Len(t, g.Types, 3)
	})

	t.Run("snapshot file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "shop.msgpack")
		_, err := run(t, "inspect", "--source-file", shopGraph, "--out", path)
		require.NoError(t, err)
		g, err := load.FileSource{Path: path}.Load(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, g.TypeByAlias("product"))
	})

	t.Run("models", func(t *testing.T) {
		out, err := run(t, "inspect", "--source-file", shopGraph, "--models")
		require.NoError(t, err)
		assert.Contains(t, out, "MODEL")
		assert.Regexp(t, `Product\s+product\s+content\s+Page\s+Seo\s+`, out)
		assert.Contains(t, out, "Related []*example.com/models.Product")
	})

	t.Run("unsupported format", func(t *testing.T) {
		_, err := run(t, "inspect", "--source-file", shopGraph, "--format", "xml")
		assert.Error(t, err)
	})
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	graph := filepath.Join(t.TempDir(), "shop.yaml")
	require.NoError(t, os.WriteFile(graph, []byte("types: []\n"), 0o644))
	generated := filepath.Join(dir, "page_gen.go")
	require.NoError(t, os.WriteFile(generated, []byte(gen.GeneratedHeader+"\n\npackage models\n"), 0o644))

	w, err := newWatcher(dir, []string{graph}, 10*time.Millisecond, discard())
	require.NoError(t, err)
	defer w.Close()

	t.Run("relevant", func(t *testing.T) {
		hand := filepath.Join(dir, "page.go")
		require.NoError(t, os.WriteFile(hand, []byte("package models\n"), 0o644))
		assert.True(t, w.relevant(graph))
		assert.True(t, w.relevant(hand))
		assert.True(t, w.relevant(filepath.Join(dir, "removed.go")))
		assert.False(t, w.relevant(generated))
		assert.False(t, w.relevant(filepath.Join(dir, "page_test.go")))
		assert.False(t, w.relevant(filepath.Join(dir, output.LockFile)))
		assert.False(t, w.relevant(filepath.Join(filepath.Dir(graph), "other.yaml")))
	})

	t.Run("run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := make(chan struct{}, 16)
		done := make(chan error, 1)
		go func() {
			done <- w.Run(ctx, func(context.Context) error {
				calls <- struct{}{}
				return nil
			})
		}()
		require.NoError(t, os.WriteFile(graph, []byte("types: []\n# changed\n"), 0o644))
		select {
		case <-calls:
		case <-time.After(5 * time.Second):
			t.Fatal("no regeneration after a source change")
		}
		cancel()
		require.NoError(t, <-done)
	})
}

func TestNewWatcherDefaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "models")
	w, err := newWatcher(dir, nil, 0, discard())
	require.NoError(t, err)
	defer w.Close()
	assert.Equal(t, defaultDebounce, w.debounce)
	assert.DirExists(t, dir)
}
