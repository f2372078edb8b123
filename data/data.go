// Package data loads the document bound to the root variable of a
// generation run.
//
// The decoder is chosen by file extension. Every format decodes to the same
// shape: map[string]any for objects, []any for arrays, and string, bool,
// int, float64 or nil for scalars.
package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/klauspost/readahead"

	"github.com/ardnew/ribosome/log"
)

// Format names a data file encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	XML  Format = "xml"
)

var extensions = map[string]Format{
	".json": JSON,
	".yaml": YAML,
	".yml":  YAML,
	".xml":  XML,
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, bool) {
	f, ok := extensions[strings.ToLower(filepath.Ext(path))]

	return f, ok
}

// Extensions returns the recognized file extensions, sorted.
func Extensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}

	slices.Sort(exts)

	return exts
}

// Option configures Load.
type Option func(*loader)

type loader struct {
	logger log.Logger
}

// WithLogger sets the logger receiving load events.
func WithLogger(l log.Logger) Option {
	return func(ld *loader) { ld.logger = l }
}

// Load reads and decodes the data file at path.
func Load(ctx context.Context, path string, opts ...Option) (any, error) {
	f, ok := FormatOf(path)
	if !ok {
		return nil, ErrFormat.With(slog.String("path", path))
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, ErrRead.With(slog.String("path", path)).Wrap(err)
	}
	defer fd.Close()

	v, err := Decode(ctx, f, fd, opts...)
	if err != nil {
		return nil, ErrDecode.With(slog.String("path", path)).Wrap(err)
	}

	return v, nil
}

// Decode decodes a document of format f from r.
func Decode(ctx context.Context, f Format, r io.Reader, opts ...Option) (any, error) {
	var ld loader
	for _, opt := range opts {
		opt(&ld)
	}

	ra := readahead.NewReader(r)
	defer ra.Close()

	raw, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrRead.Wrap(err)
	}

	var v any

	switch f {
	case JSON:
		err = json.Unmarshal(raw, &v)
	case YAML:
		err = yaml.Unmarshal(raw, &v)
	case XML:
		v, err = decodeXML(raw)
	default:
		return nil, ErrFormat.With(slog.String("format", string(f)))
	}

	if err != nil {
		return nil, err
	}

	ld.logger.DebugContext(ctx, "loaded data",
		slog.String("format", string(f)),
		slog.Int("bytes", len(raw)),
	)

	return normalize(v), nil
}

// normalize converts decoder-specific shapes to the common one.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}

		return t

	case map[any]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[keyString(k)] = normalize(e)
		}

		return m

	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}

		return t

	case uint64:
		if t <= math.MaxInt {
			return int(t)
		}

		return float64(t)

	case int64:
		return int(t)

	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1<<53 {
			return int(t)
		}

		return t
	}

	return v
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}

	return fmt.Sprint(k)
}
