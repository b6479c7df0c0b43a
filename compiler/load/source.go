package load

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"gopkg.in/yaml.v3"
)

// Source supplies the current content-type graph. Every call returns a
// complete snapshot.
type Source interface {
	Load(ctx context.Context) (*Graph, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (*Graph, error)

// Load calls f.
func (f SourceFunc) Load(ctx context.Context) (*Graph, error) {
	return f(ctx)
}

// Format is the encoding of a graph snapshot file.
type Format string

// Snapshot formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatMsgpack Format = "msgpack"
)

// FormatOf returns the snapshot format implied by a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".msgpack", ".mp":
		return FormatMsgpack, nil
	default:
		return "", fmt.Errorf("load: unsupported snapshot extension %q", filepath.Ext(path))
	}
}

// Decode decodes and validates a graph snapshot.
func Decode(format Format, data []byte) (*Graph, error) {
	g := &Graph{}
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, g)
	case FormatYAML:
		err = yaml.Unmarshal(data, g)
	case FormatMsgpack:
		err = msgpack.Unmarshal(data, g)
	default:
		return nil, fmt.Errorf("load: unsupported format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load: decode %s snapshot: %w", format, err)
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Encode encodes a graph snapshot.
func Encode(format Format, g *Graph) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(g, "", "  ")
	case FormatYAML:
		return yaml.Marshal(g)
	case FormatMsgpack:
		return msgpack.Marshal(g)
	default:
		return nil, fmt.Errorf("load: unsupported format %q", format)
	}
}

// FileSource loads a graph snapshot from a file. The format is taken from
// the file extension.
type FileSource struct {
	Path string
}

// Load implements Source.
func (s FileSource) Load(ctx context.Context) (*Graph, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	format, err := FormatOf(s.Path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("load: read snapshot: %w", err)
	}
	return Decode(format, data)
}

// WriteFile writes a graph snapshot. The format is taken from the file
// extension.
func WriteFile(path string, g *Graph) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := Encode(format, g)
	if err != nil {
		return fmt.Errorf("load: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
