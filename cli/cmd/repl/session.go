package repl

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ardnew/ribosome/dna"
	"github.com/ardnew/ribosome/lang"
	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/pkg"
	"github.com/ardnew/ribosome/rna"
)

// Session accumulates template lines until their blocks close, then
// translates and runs each complete chunk against one persistent
// interpreter. Globals and functions defined by a chunk remain visible to
// later chunks.
type Session struct {
	tr     *dna.Translator
	interp *rna.Interpreter
	out    bytes.Buffer
	root   any
	dir    string
	logger log.Logger

	lines []string
	depth int
	sep   bool // last line was a separate directive
	chunk int
}

// NewSession returns a Session whose chunks see root and resolve relative
// includes and outputs against dir.
func NewSession(root any, dir string, logger log.Logger) *Session {
	s := &Session{
		tr:     dna.New(dna.WithLogger(logger)),
		root:   root,
		dir:    dir,
		logger: logger,
	}

	s.interp = rna.New(
		rna.WithStdout(&s.out),
		rna.WithDir(dir),
		rna.WithLogger(logger),
		rna.WithRoot(root),
	)

	return s
}

// Pending returns the lines buffered for the chunk being composed.
func (s *Session) Pending() []string { return s.lines }

// Discard drops the buffered lines.
func (s *Session) Discard() {
	s.lines, s.depth, s.sep = nil, 0, false
}

// Feed adds one template line. Once the line closes every open block, the
// buffered chunk runs and done is true; out holds what the chunk wrote to
// standard output, including output flushed before a failure.
func (s *Session) Feed(ctx context.Context, line string) (out string, done bool, err error) {
	s.lines = append(s.lines, line)
	s.track(line)

	if s.depth > 0 || s.sep {
		return "", false, nil
	}

	text := strings.Join(s.lines, "\n") + "\n"
	s.Discard()

	out, err = s.Exec(ctx, text)

	return out, true, err
}

// Exec translates and runs text as one chunk.
func (s *Session) Exec(ctx context.Context, text string) (string, error) {
	s.chunk++
	name := fmt.Sprintf("repl-%d%s", s.chunk, pkg.TemplateExt)

	s.logger.TraceContext(ctx, "repl chunk",
		slog.String("name", name),
		slog.Int("bytes", len(text)),
	)

	prog, err := s.tr.TranslateReader(ctx, name, s.dir, strings.NewReader(text))
	if err != nil {
		return "", err
	}

	err = s.interp.Run(ctx, prog)

	out := s.out.String()
	s.out.Reset()

	return out, err
}

// track updates the block depth with the statement on line. Malformed
// statements do not change it; translation reports them when the chunk
// runs.
func (s *Session) track(line string) {
	s.sep = false

	ln, err := dna.Classify(line)
	if err != nil {
		return
	}

	switch ln := ln.(type) {
	case dna.Directive:
		s.sep = ln.Name == "separate"

	case dna.Host:
		st, err := lang.Parse(ln.Text)
		if err != nil {
			return
		}

		switch {
		case st.Opens():
			s.depth++
		case st.Kind == lang.KindEnd && s.depth > 0:
			s.depth--
		}
	}
}

// Names returns the names visible to expressions.
func (s *Session) Names() []string { return s.interp.Names() }

// Signature returns the parameters of the function called name.
func (s *Session) Signature(name string) ([]string, bool) {
	return s.interp.Signature(name)
}

// Globals returns the global variables and their values, sorted by name.
func (s *Session) Globals() []Global {
	g := s.interp.Globals()
	names := g.Names()

	vars := make([]Global, 0, len(names))

	for _, n := range names {
		v, _ := g.Lookup(n)
		vars = append(vars, Global{Name: n, Value: v})
	}

	return vars
}

// Global is a named global value.
type Global struct {
	Name  string
	Value any
}

// Lookup resolves a dotted path of map keys starting from a global, root or
// a builtin namespace.
func (s *Session) Lookup(path string) (any, bool) {
	segs := strings.Split(path, ".")

	var cur any

	if v, ok := s.interp.Globals().Lookup(segs[0]); ok {
		cur = v
	} else if segs[0] == "root" {
		cur = s.root
	} else if v, ok := lang.Builtins()[segs[0]]; ok {
		cur = v
	} else {
		return nil, false
	}

	for _, seg := range segs[1:] {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}

		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}

	return cur, true
}
