// Package dna translates templates into [rna.Program] values.
//
// Every physical line of a template is classified by [Classify]. Host lines
// are copied verbatim; control lines, which begin with '.', become template
// or directive instructions. The include directive splices another template
// in place and emits nothing itself; the LineMap of the resulting program
// records where every instruction came from.
package dna

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ardnew/ribosome/engine"
	"github.com/ardnew/ribosome/lang"
	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/rna"
)

// Translator converts templates to programs.
type Translator struct {
	logger log.Logger
	cache  *lang.Cache
}

// Option configures a Translator.
type Option func(*Translator)

// WithLogger sets the logger receiving translation events.
func WithLogger(l log.Logger) Option {
	return func(t *Translator) { t.logger = l }
}

// New returns a Translator.
func New(opts ...Option) *Translator {
	t := &Translator{}

	for _, opt := range opts {
		opt(t)
	}

	t.cache = lang.NewCache(lang.WithCacheLogger(t.logger))

	return t
}

// Translate translates the template file at path.
func (t *Translator) Translate(ctx context.Context, path string) (*rna.Program, error) {
	fr, err := openFrame(path)
	if err != nil {
		return nil, &TranslationError{File: path, Err: ErrRead.Wrap(err)}
	}

	return t.run(ctx, rna.ProgramName(path), fr)
}

// TranslateReader translates the template read from r. Diagnostics name the
// template file; relative includes resolve against dir.
func (t *Translator) TranslateReader(
	ctx context.Context,
	file, dir string,
	r io.Reader,
) (*rna.Program, error) {
	return t.run(ctx, rna.ProgramName(file), newFrame(file, dir, r))
}

// translation is the state of one Translate call.
type translation struct {
	*Translator

	ctx   context.Context
	prog  *rna.Program
	stack stack
}

func (t *Translator) run(ctx context.Context, name string, fr *frame) (*rna.Program, error) {
	tr := &translation{
		Translator: t,
		ctx:        ctx,
		prog:       &rna.Program{Name: name, LineMap: &rna.LineMap{}},
	}

	tr.stack.push(fr)
	defer tr.stack.closeAll()

	t.logger.DebugContext(ctx, "translate template",
		slog.String("template", fr.path),
		slog.String("program", name),
	)

	if err := tr.translate(); err != nil {
		return nil, err
	}

	t.logger.DebugContext(ctx, "translated template",
		slog.String("program", name),
		slog.Int("instructions", tr.prog.Len()),
		slog.Int("linemap", tr.prog.LineMap.Len()),
	)

	return tr.prog, nil
}

// fail reports err at the current line of the top frame.
func (tr *translation) fail(err error) error {
	var te *TranslationError
	if errors.As(err, &te) {
		return te
	}

	fr := tr.stack.top()

	return &TranslationError{File: fr.path, Line: fr.line, Err: err}
}

// next returns the next physical line, popping exhausted frames.
func (tr *translation) next() (string, bool, error) {
	for len(tr.stack) > 0 {
		text, ok, err := tr.stack.top().next()
		if err != nil {
			return "", false, tr.fail(ErrRead.Wrap(err))
		}

		if ok {
			return text, true, nil
		}

		if len(tr.stack) == 1 {
			return "", false, nil
		}

		tr.logger.TraceContext(tr.ctx, "end include",
			slog.String("file", tr.stack.top().path))

		if err := tr.stack.pop(); err != nil {
			return "", false, tr.fail(ErrRead.Wrap(err))
		}
	}

	return "", false, nil
}

// emit appends in, attributed to the current line of the top frame.
func (tr *translation) emit(in rna.Instruction) {
	fr := tr.stack.top()
	tr.prog.Instructions = append(tr.prog.Instructions, in)
	tr.prog.LineMap.Add(tr.prog.Len(), fr.path, fr.line)
}

func (tr *translation) translate() error {
	for {
		if err := tr.ctx.Err(); err != nil {
			return err
		}

		raw, ok, err := tr.next()
		if err != nil {
			return err
		}

		if !ok {
			return nil
		}

		ln, err := Classify(raw)
		if err != nil {
			return tr.fail(err)
		}

		switch ln := ln.(type) {
		case Host:
			tr.emit(rna.Instruction{Op: rna.OpHost, Text: ln.Text})

		case Template:
			if _, err := engine.Scan(ln.Text); err != nil {
				return tr.fail(err)
			}

			tr.emit(rna.Instruction{Op: ln.Op, Indent: ln.Indent, Text: ln.Text})

		case Directive:
			if err := tr.directive(ln); err != nil {
				return tr.fail(err)
			}
		}
	}
}

func (tr *translation) directive(d Directive) error {
	switch d.Name {
	case "output", "append", "tabsize":
		if d.Arg == "" {
			return ErrArgument.With(slog.String("directive", d.Name)).
				Wrap(errors.New("missing argument"))
		}

		if _, err := tr.cache.Compile(d.Arg); err != nil {
			return ErrArgument.With(slog.String("directive", d.Name)).Wrap(err)
		}

	case "stdout":
		if d.Arg != "" {
			return ErrArgument.With(slog.String("directive", d.Name)).
				Wrap(errors.New("takes no argument"))
		}

	case "include":
		return tr.include(d)

	case "separate":
		return tr.separate(d)

	default:
		return ErrUnknown.Wrap(errors.New(d.Name))
	}

	tr.emit(rna.Instruction{Op: rna.OpDirective, Indent: d.Indent, Name: d.Name, Text: d.Arg})

	return nil
}

// constant evaluates the argument of a translation-time directive, which
// must yield a string.
func (tr *translation) constant(d Directive) (string, error) {
	v, err := tr.cache.Eval(d.Arg, lang.Builtins())
	if err != nil {
		return "", ErrArgument.With(slog.String("directive", d.Name)).Wrap(err)
	}

	s, ok := v.(string)
	if !ok {
		return "", ErrArgument.With(
			slog.String("directive", d.Name),
			slog.String("want", "string"),
		)
	}

	return s, nil
}

func (tr *translation) include(d Directive) error {
	name, err := tr.constant(d)
	if err != nil {
		return err
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(tr.stack.top().dir, path)
	}

	if tr.stack.contains(path) {
		return ErrIncludeCycle.With(slog.String("path", path))
	}

	fr, err := openFrame(path)
	if err != nil {
		return ErrInclude.With(slog.String("path", path)).Wrap(err)
	}

	tr.logger.TraceContext(tr.ctx, "include",
		slog.String("from", tr.stack.top().path),
		slog.String("file", path),
		slog.Int("depth", len(tr.stack)),
	)

	tr.stack.push(fr)

	return nil
}

// separate emits the separator and the loop line that must follow it in the
// same file.
func (tr *translation) separate(d Directive) error {
	sep, err := tr.constant(d)
	if err != nil {
		return err
	}

	if _, err := engine.Scan(sep); err != nil {
		return err
	}

	fr := tr.stack.top()
	at := fr.line

	raw, ok, err := fr.next()
	if err != nil {
		return ErrRead.Wrap(err)
	}

	if !ok || !isLoop(raw) {
		fr.line = at

		return ErrSeparate
	}

	// The separator belongs to the directive's line, the loop to its own.
	fr.line = at
	tr.emit(rna.Instruction{Op: rna.OpSeparate, Indent: d.Indent, Text: sep})
	fr.line = at + 1
	tr.emit(rna.Instruction{Op: rna.OpHost, Text: raw})

	return nil
}

func isLoop(raw string) bool {
	ln, err := Classify(raw)
	if err != nil {
		return false
	}

	h, ok := ln.(Host)
	if !ok || strings.TrimSpace(h.Text) == "" {
		return false
	}

	st, err := lang.Parse(h.Text)

	return err == nil && st.IsLoop()
}
