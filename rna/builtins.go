package rna

import (
	"log/slog"
	"slices"

	"github.com/ardnew/ribosome/engine"
	"github.com/ardnew/ribosome/lang"
)

type builtinFunc func(args []any) (any, error)

var builtinParams = map[string][]string{
	"startLine": nil,
	"emit":      {"text"},
	"add":       {"text"},
	"align":     {"text"},
	"flush":     nil,
	"output":    {"path"},
	"append":    {"path"},
	"stdout":    nil,
	"tabsize":   {"n"},
}

// builtins returns the composition functions visible to expressions.
func (i *Interpreter) builtins() map[string]any {
	fns := map[string]builtinFunc{
		"startLine": func(args []any) (any, error) {
			if err := arity("startLine", args, 0); err != nil {
				return nil, err
			}

			i.engine.StartLine()

			return nil, nil
		},
		"emit":  i.line("emit", i.engine.Emit),
		"add":   i.line("add", i.engine.Append),
		"align": i.line("align", i.engine.Align),
		"flush": func(args []any) (any, error) {
			if err := arity("flush", args, 0); err != nil {
				return nil, err
			}

			return nil, i.engine.Flush()
		},
	}

	for name, fn := range i.directives() {
		fns[name] = fn
	}

	env := make(map[string]any, len(fns))
	for name, fn := range fns {
		env[name] = i.builtin(name, fn)
	}

	return env
}

// directives returns the sink and layout operations shared by directives
// and builtin functions.
func (i *Interpreter) directives() map[string]builtinFunc {
	return map[string]builtinFunc{
		"output": i.path("output", i.engine.Output),
		"append": i.path("append", i.engine.AppendTo),
		"stdout": func(args []any) (any, error) {
			if err := arity("stdout", args, 0); err != nil {
				return nil, err
			}

			return nil, i.engine.Stdout()
		},
		"tabsize": func(args []any) (any, error) {
			if err := arity("tabsize", args, 1); err != nil {
				return nil, err
			}

			n, err := lang.ToInt(args[0])
			if err != nil {
				return nil, err
			}

			return nil, i.engine.SetTabsize(n)
		},
	}
}

// builtin adapts fn to an expression callable. A failure not already
// captured is reported with an extra frame naming the builtin.
func (i *Interpreter) builtin(name string, fn builtinFunc) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		v, err := fn(args)
		if err == nil {
			return v, nil
		}

		if ge, ok := AsGenerationError(err); ok {
			return nil, ge
		}

		frames := append(slices.Clone(i.frames), Frame{Func: name, File: BuiltinFile})

		return nil, &GenerationError{Err: err, Frames: frames}
	}
}

func (i *Interpreter) line(name string, op func(string, engine.Evaluator) error) builtinFunc {
	return func(args []any) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}

		return nil, op(engine.Text(args[0]), i.evaluator())
	}
}

func (i *Interpreter) path(name string, op func(string) error) builtinFunc {
	return func(args []any) (any, error) {
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}

		p, ok := args[0].(string)
		if !ok || p == "" {
			return nil, ErrArgument.With(
				slog.String("directive", name),
				slog.String("want", "non-empty path string"),
			)
		}

		return nil, op(p)
	}
}

func arity(name string, args []any, n int) error {
	if len(args) == n {
		return nil
	}

	return ErrArgument.With(
		slog.String("function", name),
		slog.Int("want", n),
		slog.Int("got", len(args)),
	)
}
