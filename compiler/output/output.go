// Package output collects generated units and writes them to the generated
// package directory.
package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/syssam/modelsbuilder/compiler/gen"
)

// Units is an ordered set of generated files, keyed by file name.
type Units struct {
	names []string
	text  map[string][]byte
}

// NewUnits returns an empty set.
func NewUnits() *Units {
	return &Units{text: make(map[string][]byte)}
}

// Add records a unit. Adding an existing name replaces its text and keeps
// its position.
func (u *Units) Add(name string, text []byte) {
	if _, ok := u.text[name]; !ok {
		u.names = append(u.names, name)
	}
	u.text[name] = text
}

// Get returns the text of the unit with the given name.
func (u *Units) Get(name string) ([]byte, bool) {
	text, ok := u.text[name]
	return text, ok
}

// Names returns the unit names in insertion order.
func (u *Units) Names() []string {
	return slices.Clone(u.names)
}

// Len returns the number of units.
func (u *Units) Len() int {
	return len(u.names)
}

// All iterates over the units in insertion order.
func (u *Units) All() iter.Seq2[string, []byte] {
	return func(yield func(string, []byte) bool) {
		for _, name := range u.names {
			if !yield(name, u.text[name]) {
				return
			}
		}
	}
}

// IsGenerated reports whether text starts with the header of generated
// units.
func IsGenerated(text []byte) bool {
	return bytes.HasPrefix(text, []byte(gen.GeneratedHeader))
}

// Report lists what WriteDir did, by file name.
type Report struct {
	Written   []string
	Unchanged []string
	Removed   []string
}

// WriteDir writes units to dir in parallel. Files whose content is already
// up to date are left untouched. Generated files of dir that are not part
// of units are removed; hand-written files are never touched.
func WriteDir(ctx context.Context, dir string, units *Units) (*Report, error) {
	for _, name := range units.names {
		if filepath.Base(name) != name || !strings.HasSuffix(name, ".go") {
			return nil, fmt.Errorf("output: unit name %q is not a Go file name", name)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: create directory: %w", err)
	}
	var (
		mu     sync.Mutex
		report Report
	)
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for name, text := range units.All() {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, name)
			if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, text) {
				mu.Lock()
				report.Unchanged = append(report.Unchanged, name)
				mu.Unlock()
				return nil
			}
			if err := writeFile(path, text); err != nil {
				return fmt.Errorf("output: write %s: %w", name, err)
			}
			mu.Lock()
			report.Written = append(report.Written, name)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	removed, err := removeStale(dir, units)
	if err != nil {
		return nil, err
	}
	report.Removed = removed
	slices.Sort(report.Written)
	slices.Sort(report.Unchanged)
	return &report, nil
}

// writeFile replaces path atomically.
func writeFile(path string, text []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(text); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func removeStale(dir string, units *Units) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("output: read directory: %w", err)
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") {
			continue
		}
		if _, ok := units.Get(name); ok {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return removed, fmt.Errorf("output: read %s: %w", name, err)
		}
		if !IsGenerated(text) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			return removed, fmt.Errorf("output: remove %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// LockFile is the name of the lock file Lock creates.
const LockFile = ".modelsbuilder.lock"

// ErrLocked indicates that another run holds the lock of a directory.
var ErrLocked = errors.New("output: directory is locked")

// lockPoll is the interval between lock attempts.
var lockPoll = 50 * time.Millisecond

// Lock takes the exclusive generation lock of dir, waiting at most timeout
// for another holder to release it. The returned function releases the
// lock.
func Lock(ctx context.Context, dir string, timeout time.Duration) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("output: create directory: %w", err)
	}
	path := filepath.Join(dir, LockFile)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(lockPoll)
	defer ticker.Stop()
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d\n", os.Getpid())
			if err := f.Close(); err != nil {
				os.Remove(path)
				return nil, fmt.Errorf("output: lock: %w", err)
			}
			return sync.OnceValue(func() error { return os.Remove(path) }), nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("output: lock: %w", err)
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, fmt.Errorf("%w: %s held for more than %s", ErrLocked, path, timeout)
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
