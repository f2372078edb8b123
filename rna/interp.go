package rna

import (
	"context"
	"io"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/ardnew/ribosome/engine"
	"github.com/ardnew/ribosome/lang"
	"github.com/ardnew/ribosome/log"
)

// MaxCallDepth bounds the nesting of user function calls.
const MaxCallDepth = 256

type ctrl int

const (
	ctrlNext ctrl = iota
	ctrlBreak
	ctrlContinue
	ctrlReturn
)

// Interpreter runs programs against a composition engine. Global variables
// and functions persist across runs. It is not safe for concurrent use.
type Interpreter struct {
	engine  *engine.Context
	cache   *lang.Cache
	globals *lang.Scope
	scope   *lang.Scope
	base    map[string]any
	logger  log.Logger

	root   any
	args   []string
	eng    []engine.Option
	params map[string][]string
	maps   map[string]*LineMap // line maps of every program run, by name

	ctx    context.Context
	prog   *Program
	frames []Frame
	depth  int
	ret    any
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithStdout sets the writer behind the standard stream sink.
func WithStdout(w io.Writer) Option {
	return func(i *Interpreter) { i.eng = append(i.eng, engine.WithStdout(w)) }
}

// WithDir sets the directory that relative output paths resolve against.
func WithDir(dir string) Option {
	return func(i *Interpreter) { i.eng = append(i.eng, engine.WithDir(dir)) }
}

// WithTabsize sets the initial tab size.
func WithTabsize(n int) Option {
	return func(i *Interpreter) { i.eng = append(i.eng, engine.WithTabsize(n)) }
}

// WithLogger sets the logger of the interpreter and its engine.
func WithLogger(l log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// WithRoot binds the loaded data to root.
func WithRoot(v any) Option {
	return func(i *Interpreter) { i.root = v }
}

// WithArgs binds the forwarded arguments to args.
func WithArgs(args []string) Option {
	return func(i *Interpreter) { i.args = args }
}

// New returns an Interpreter with an empty global scope.
func New(opts ...Option) *Interpreter {
	i := &Interpreter{
		globals: lang.NewScope(nil),
		params:  map[string][]string{},
		maps:    map[string]*LineMap{},
	}

	for _, opt := range opts {
		opt(i)
	}

	if i.args == nil {
		i.args = []string{}
	}

	i.engine = engine.New(append(i.eng, engine.WithLogger(i.logger))...)
	i.cache = lang.NewCache(
		lang.WithHyphenKeys(lang.HyphenKeys(i.root)),
		lang.WithCacheLogger(i.logger),
	)
	i.scope = i.globals

	i.base = lang.Builtins()
	maps.Copy(i.base, i.builtins())
	i.base["root"] = i.root
	i.base["args"] = i.args

	return i
}

// Globals returns the global scope.
func (i *Interpreter) Globals() *lang.Scope { return i.globals }

// Names returns the sorted names visible to expressions.
func (i *Interpreter) Names() []string {
	names := append(slices.Collect(maps.Keys(i.base)), i.globals.Names()...)
	slices.Sort(names)

	return slices.Compact(names)
}

// Signature returns the parameter names of the user function or
// composition builtin called name.
func (i *Interpreter) Signature(name string) ([]string, bool) {
	if p, ok := i.params[name]; ok {
		return p, true
	}

	p, ok := builtinParams[name]

	return p, ok
}

// Run executes p and closes the engine, flushing pending output. If p fails,
// pending output is discarded instead and the failure is returned as a
// *GenerationError with frames in template coordinates. Frames of functions
// defined by an earlier program are mapped through that program's LineMap.
func (i *Interpreter) Run(ctx context.Context, p *Program) (err error) {
	start := time.Now()

	i.logger.DebugContext(ctx, "run program",
		slog.String("program", p.Name),
		slog.Int("instructions", p.Len()),
	)

	if p.LineMap != nil {
		i.maps[p.Name] = p.LineMap
	}

	defer func() {
		if ge, ok := AsGenerationError(err); ok {
			ge.Remap(i.maps)
			err = ge
		}

		i.logger.DebugContext(ctx, "program finished",
			slog.String("program", p.Name),
			slog.Duration("elapsed", time.Since(start)),
			slog.Bool("failed", err != nil),
		)
	}()

	nodes, err := link(p)
	if err != nil {
		return err
	}

	i.ctx, i.prog = ctx, p
	i.frames = []Frame{{Func: "main", File: p.Name}}
	i.scope, i.depth, i.ret = i.globals, 0, nil

	if _, err = i.exec(nodes); err != nil {
		if aerr := i.engine.Abort(); aerr != nil {
			i.logger.WarnContext(ctx, "abort output", slog.Any("error", aerr))
		}

		return err
	}

	if cerr := i.engine.Close(); cerr != nil {
		return i.fail(cerr)
	}

	return nil
}

// fail captures err with the active frames unless it already carries them.
func (i *Interpreter) fail(err error) error {
	if ge, ok := AsGenerationError(err); ok {
		return ge
	}

	return &GenerationError{Err: err, Frames: slices.Clone(i.frames)}
}

// at records generated line g as the position of the innermost frame.
func (i *Interpreter) at(g int) { i.frames[len(i.frames)-1].Line = g }

func (i *Interpreter) eval(src string) (any, error) {
	v, err := i.cache.Eval(src, i.scope.Env(i.base))
	if err != nil {
		return nil, i.fail(err)
	}

	return v, nil
}

func (i *Interpreter) evaluator() engine.Evaluator { return i.eval }

func (i *Interpreter) exec(nodes []node) (ctrl, error) {
	for _, n := range nodes {
		if err := i.ctx.Err(); err != nil {
			return ctrlNext, i.fail(err)
		}

		i.at(n.line())

		c, err := i.step(n)
		if err != nil || c != ctrlNext {
			return c, err
		}
	}

	return ctrlNext, nil
}

func (i *Interpreter) step(n node) (ctrl, error) {
	switch n := n.(type) {
	case *hostNode:
		return i.host(n.stmt)

	case *tmplNode:
		return ctrlNext, i.template(n.in)

	case *condNode:
		for _, a := range n.arms {
			i.at(a.at)

			if a.cond != "" {
				v, err := i.eval(a.cond)
				if err != nil {
					return ctrlNext, err
				}

				if !lang.Truthy(v) {
					continue
				}
			}

			return i.exec(a.body)
		}

		return ctrlNext, nil

	case *loopNode:
		return i.loop(n)

	case *defNode:
		i.globals.Declare(n.stmt.Name, i.function(n))
		i.params[n.stmt.Name] = n.stmt.Params

		return ctrlNext, nil
	}

	return ctrlNext, nil
}

func (i *Interpreter) host(st lang.Stmt) (ctrl, error) {
	switch st.Kind {
	case lang.KindBreak:
		return ctrlBreak, nil

	case lang.KindContinue:
		return ctrlContinue, nil

	case lang.KindReturn:
		i.ret = nil

		if st.Expr != "" {
			v, err := i.eval(st.Expr)
			if err != nil {
				return ctrlNext, err
			}

			i.ret = v
		}

		return ctrlReturn, nil
	}

	src := st.Expr
	if st.Kind == lang.KindAssign && st.Op != "=" {
		src = st.Name + " " + st.Op[:1] + " (" + st.Expr + ")"
	}

	v, err := i.eval(src)
	if err != nil {
		return ctrlNext, err
	}

	switch st.Kind {
	case lang.KindLet:
		i.scope.Declare(st.Name, v)
	case lang.KindAssign:
		i.scope.Assign(st.Name, v)
	}

	return ctrlNext, nil
}

func (i *Interpreter) template(in Instruction) error {
	var err error

	switch in.Op {
	case OpEmit:
		err = i.engine.Emit(in.Text, i.evaluator())
	case OpAdd:
		err = i.engine.Append(in.Text, i.evaluator())
	case OpAlign:
		err = i.engine.Align(in.Text, i.evaluator())
	case OpDirective:
		err = i.directive(in.Name, in.Text)
	}

	if err != nil {
		return i.fail(err)
	}

	return nil
}

func (i *Interpreter) directive(name, arg string) error {
	var args []any

	if arg != "" {
		v, err := i.eval(arg)
		if err != nil {
			return err
		}

		args = []any{v}
	}

	fn, ok := i.directives()[name]
	if !ok {
		return ErrDirective.With(slog.String("name", name))
	}

	_, err := fn(args)

	return err
}

func (i *Interpreter) loop(n *loopNode) (ctrl, error) {
	first := true

	// iterate runs one pass of the body; it reports whether the loop ends.
	iterate := func() (bool, ctrl, error) {
		if !first && n.sep != nil {
			i.at(n.sep.at)

			if err := i.engine.Append(n.sep.in.Text, i.evaluator()); err != nil {
				return true, ctrlNext, i.fail(err)
			}
		}

		first = false

		c, err := i.exec(n.body)

		switch {
		case err != nil:
			return true, c, err
		case c == ctrlBreak:
			return true, ctrlNext, nil
		case c == ctrlReturn:
			return true, c, nil
		}

		i.at(n.at)

		return false, ctrlNext, nil
	}

	if n.stmt.Kind == lang.KindWhile {
		for {
			if err := i.ctx.Err(); err != nil {
				return ctrlNext, i.fail(err)
			}

			v, err := i.eval(n.stmt.Expr)
			if err != nil {
				return ctrlNext, err
			}

			if !lang.Truthy(v) {
				return ctrlNext, nil
			}

			if done, c, err := iterate(); done {
				return c, err
			}
		}
	}

	v, err := i.eval(n.stmt.Expr)
	if err != nil {
		return ctrlNext, err
	}

	seq, keyed, err := lang.Iterate(v)
	if err != nil {
		return ctrlNext, i.fail(err)
	}

	for k, v := range seq {
		switch {
		case n.stmt.Key != "":
			i.scope.Assign(n.stmt.Key, k)
			i.scope.Assign(n.stmt.Name, v)
		case keyed:
			i.scope.Assign(n.stmt.Name, k)
		default:
			i.scope.Assign(n.stmt.Name, v)
		}

		if done, c, err := iterate(); done {
			return c, err
		}
	}

	return ctrlNext, nil
}

// function returns the callable bound to a def statement.
func (i *Interpreter) function(n *defNode) func(...any) (any, error) {
	name, params := n.stmt.Name, n.stmt.Params
	file := i.prog.Name

	return func(args ...any) (any, error) {
		if len(args) != len(params) {
			return nil, i.fail(ErrCall.With(
				slog.String("function", name),
				slog.Int("want", len(params)),
				slog.Int("got", len(args)),
			))
		}

		if i.depth >= MaxCallDepth {
			return nil, i.fail(ErrRecursion.With(
				slog.String("function", name),
				slog.Int("depth", i.depth),
			))
		}

		saved := i.scope
		i.scope = lang.NewScope(i.globals)

		for k, p := range params {
			i.scope.Declare(p, args[k])
		}

		i.frames = append(i.frames, Frame{Func: name, File: file, Line: n.at})
		i.depth++

		defer func() {
			i.scope = saved
			i.frames = i.frames[:len(i.frames)-1]
			i.depth--
		}()

		c, err := i.exec(n.body)
		if err != nil {
			return nil, err
		}

		if c == ctrlReturn {
			v := i.ret
			i.ret = nil

			return v, nil
		}

		return nil, nil
	}
}
