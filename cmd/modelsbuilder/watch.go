package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/syssam/modelsbuilder/compiler/output"
)

const defaultDebounce = 300 * time.Millisecond

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Generate the models and regenerate them on changes",
		Long: `watch generates the models, then regenerates them whenever a source
file or a hand-written file of the generated package changes. Database
sources are read again on every regeneration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := loadSettings(a.v)
			if err != nil {
				return err
			}
			c, err := a.compiler(ctx, s)
			if err != nil {
				return err
			}
			run := func(ctx context.Context) error {
				return a.generate(ctx, c, s)
			}
			if err := run(ctx); err != nil {
				a.log.Error("generation failed", "error", err)
			}
			w, err := newWatcher(s.Output, s.Source.paths(), s.Watch.Debounce, a.log)
			if err != nil {
				return err
			}
			defer w.Close()
			a.log.Info("watching for changes", "dir", s.Output)
			return w.Run(ctx, run)
		},
	}
	generationFlags(cmd.Flags())
	cmd.Flags().Duration("debounce", defaultDebounce, "quiet period after a change before regenerating")
	return cmd
}

// watcher fires a callback when the hand-written files of a package or the
// files of a graph source change. Events within the debounce period
// coalesce into one callback.
type watcher struct {
	fsw      *fsnotify.Watcher
	dir      string
	sources  map[string]bool
	debounce time.Duration
	log      *slog.Logger
}

func newWatcher(dir string, sources []string, debounce time.Duration, logger *slog.Logger) (*watcher, error) {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	w := &watcher{
		fsw:      fsw,
		dir:      filepath.Clean(dir),
		sources:  make(map[string]bool, len(sources)),
		debounce: debounce,
		log:      logger,
	}
	// Directories are watched, not files: editors replace files on save.
	dirs := map[string]bool{w.dir: true}
	for _, path := range sources {
		path = filepath.Clean(path)
		w.sources[path] = true
		dirs[filepath.Dir(path)] = true
	}
	for d := range dirs {
		if err := fsw.Add(d); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", d, err)
		}
	}
	return w, nil
}

// relevant reports whether a change of path calls for a regeneration.
// Generated files and files other than Go sources of the package are
// ignored.
func (w *watcher) relevant(path string) bool {
	path = filepath.Clean(path)
	if w.sources[path] {
		return true
	}
	if filepath.Dir(path) != w.dir || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
		return false
	}
	b, err := os.ReadFile(path)
	if err != nil {
		// Removed. A removed generated file is rewritten by the next run.
		return true
	}
	return !output.IsGenerated(b)
}

// Run calls fn after changes until ctx is done. Errors of fn are logged.
func (w *watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod || !w.relevant(ev.Name) {
				continue
			}
			w.log.Debug("change detected", "file", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-fire:
			fire = nil
			if err := fn(ctx); err != nil {
				w.log.Error("generation failed", "error", err)
			}
		}
	}
}

// Close stops watching.
func (w *watcher) Close() error {
	return w.fsw.Close()
}
