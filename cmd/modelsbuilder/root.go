package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/syssam/modelsbuilder/compiler"
	"github.com/syssam/modelsbuilder/compiler/output"
	"github.com/syssam/modelsbuilder/compiler/symbols"
)

// app is the state shared by the commands of one invocation.
type app struct {
	v       *viper.Viper
	stdout  io.Writer
	stderr  io.Writer
	log     *slog.Logger
	cfgFile string
	envFile string
	verbose bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}
	root := &cobra.Command{
		Use:   "modelsbuilder",
		Short: "Generate Go models for CMS content types",
		Long: `modelsbuilder reads the content types of a CMS and writes one Go model
per type, with accessors for its properties and interfaces for its
compositions. Hand-written files of the generated package customize the
output: declarations they contain are not generated again, and
//models: comments ignore or rename types and properties.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.init,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./modelsbuilder.{yaml,toml,json})")
	pf.StringVar(&a.envFile, "env-file", ".env", "environment file loaded before the config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	sourceFlags(pf)

	root.AddCommand(a.generateCmd(), a.watchCmd(), a.inspectCmd())
	return root
}

// init loads the environment file and the config file, binds the flags of
// cmd and installs the logger.
func (a *app) init(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(a.envFile); err != nil {
		if cmd.Flags().Changed("env-file") || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}
	if err := readConfig(a.v, a.cfgFile); err != nil {
		return err
	}
	if err := bind(a.v, cmd.Flags()); err != nil {
		return err
	}
	level := log.InfoLevel
	if a.verbose {
		level = log.DebugLevel
	}
	a.log = slog.New(log.NewWithOptions(a.stderr, log.Options{
		Prefix:          "modelsbuilder",
		Level:           level,
		ReportTimestamp: true,
	}))
	return nil
}

func (a *app) generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the models once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(a.v)
			if err != nil {
				return err
			}
			c, err := a.compiler(cmd.Context(), s)
			if err != nil {
				return err
			}
			return a.generate(cmd.Context(), c, s)
		},
	}
	generationFlags(cmd.Flags())
	return cmd
}

// compiler returns the compiler of s. Packages the generated package
// depends on are loaded from the output directory once it holds Go files.
func (a *app) compiler(ctx context.Context, s *settings) (*compiler.Compiler, error) {
	cfg, err := s.config(a.log)
	if err != nil {
		return nil, err
	}
	adapter := symbols.NewAdapter(symbols.WithLogger(a.log))
	if hasGoFiles(s.Output) {
		if err := adapter.Load(ctx, s.Output, "."); err != nil {
			a.log.Warn("dependencies not loaded", "dir", s.Output, "error", err)
		}
	}
	opts := []compiler.Option{compiler.WithAdapter(adapter)}
	if s.SingleFile {
		opts = append(opts, compiler.WithSingleFile())
	}
	return compiler.New(cfg, opts...)
}

// generate runs one generation and writes its output.
func (a *app) generate(ctx context.Context, c *compiler.Compiler, s *settings) error {
	src, release, err := s.Source.open()
	if err != nil {
		return err
	}
	defer release()
	g, err := src.Load(ctx)
	if err != nil {
		return err
	}
	unlock, err := output.Lock(ctx, s.Output, s.LockTimeout)
	if err != nil {
		return err
	}
	defer unlock()
	files, err := readPackage(s.Output)
	if err != nil {
		return err
	}
	units, err := c.Generate(ctx, compiler.Request{Graph: g, Files: files})
	if err != nil {
		return err
	}
	report, err := output.WriteDir(ctx, s.Output, units)
	if err != nil {
		return err
	}
	a.log.Info("output written",
		"dir", s.Output,
		"written", len(report.Written),
		"unchanged", len(report.Unchanged),
		"removed", len(report.Removed),
	)
	return nil
}

// readPackage returns the Go files of dir. A missing directory holds no
// files.
func readPackage(dir string) ([]symbols.Source, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read package: %w", err)
	}
	var files []symbols.Source
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read package: %w", err)
		}
		files = append(files, symbols.Source{Name: e.Name(), Text: b})
	}
	return files, nil
}

func hasGoFiles(dir string) bool {
	matches, _ := filepath.Glob(filepath.Join(dir, "*.go"))
	return len(matches) > 0
}
