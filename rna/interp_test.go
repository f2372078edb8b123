package rna

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ribosome/engine"
	"github.com/ardnew/ribosome/lang"
)

// host and the other helpers build instructions for hand-written programs.
func host(s string) Instruction { return Instruction{Op: OpHost, Text: s} }
func emit(s string) Instruction { return Instruction{Op: OpEmit, Text: s} }
func add(s string) Instruction  { return Instruction{Op: OpAdd, Text: s} }
func sep(s string) Instruction  { return Instruction{Op: OpSeparate, Text: s} }

func directive(name, arg string) Instruction {
	return Instruction{Op: OpDirective, Name: name, Text: arg}
}

// program returns a one-file program whose generated lines map 1:1 onto
// t.dna.
func program(ins ...Instruction) *Program {
	m := &LineMap{}
	for g := range ins {
		m.Add(g+1, "t.dna", g+1)
	}

	return &Program{Name: "t.rna", Instructions: ins, LineMap: m}
}

func run(t *testing.T, p *Program, opts ...Option) (string, error) {
	t.Helper()

	var out bytes.Buffer

	i := New(append([]Option{WithStdout(&out)}, opts...)...)
	err := i.Run(t.Context(), p)

	return out.String(), err
}

func TestRunOutput(t *testing.T) {
	tests := []struct {
		name string
		ins  []Instruction
		opts []Option
		want string
	}{
		{
			name: "hello",
			ins:  []Instruction{emit("Hello, &{root.name}")},
			opts: []Option{WithRoot(map[string]any{"name": "World"})},
			want: "Hello, World\n",
		},
		{
			name: "separate",
			ins: []Instruction{
				sep(", "),
				host(`for x in ["a", "b", "c"]`),
				add("&{x}"),
				host("end"),
			},
			want: "a, b, c\n",
		},
		{
			name: "separate single iteration",
			ins: []Instruction{
				sep(", "),
				host(`for x in ["a"]`),
				add("&{x}"),
				host("end"),
			},
			want: "a\n",
		},
		{
			name: "separate while",
			ins: []Instruction{
				host("let n = 0"),
				sep("+"),
				host("while n < 3"),
				add("&{n}"),
				host("n += 1"),
				host("end"),
			},
			want: "0+1+2\n",
		},
		{
			name: "map iteration",
			ins: []Instruction{
				host("for k, v in root"),
				emit("&{k}=&{v}"),
				host("end"),
				host("for k in root"),
				emit("&{k}"),
				host("end"),
			},
			opts: []Option{WithRoot(map[string]any{"b": 2, "a": 1})},
			want: "a=1\nb=2\na\nb\n",
		},
		{
			name: "conditionals",
			ins: []Instruction{
				host("for n in 4"),
				host("if n == 0"),
				emit("zero"),
				host("elif n % 2 == 1"),
				emit("odd &{n}"),
				host("else"),
				emit("even &{n}"),
				host("end"),
				host("end"),
			},
			want: "zero\nodd 1\neven 2\nodd 3\n",
		},
		{
			name: "break and continue",
			ins: []Instruction{
				host("for n in 10"),
				host("if n == 1"),
				host("continue"),
				host("end"),
				host("if n == 3"),
				host("break"),
				host("end"),
				emit("&{n}"),
				host("end"),
			},
			want: "0\n2\n",
		},
		{
			name: "function composes output",
			ins: []Instruction{
				host("def item(x)"),
				emit("- &{x}"),
				emit("  (&{x * 2})"),
				host("end"),
				emit("list: @{item(3)}"),
			},
			want: "list: - 3\n        (6)\n",
		},
		{
			name: "function returns value",
			ins: []Instruction{
				host("def fib(n)"),
				host("if n < 2"),
				host("return n"),
				host("end"),
				host("return fib(n - 1) + fib(n - 2)"),
				host("end"),
				emit("&{fib(10)}"),
			},
			want: "55\n",
		},
		{
			name: "function scope",
			ins: []Instruction{
				host("let x = 1"),
				host("def f()"),
				host("let x = 5"),
				host("return x"),
				host("end"),
				emit("&{f()} &{x}"),
			},
			want: "5 1\n",
		},
		{
			name: "builtin calls",
			ins: []Instruction{
				host(`emit("a")`),
				host(`add("b")`),
				host(`align("c")`),
				host(`startLine()`),
				add("&{at}{x}"),
			},
			want: "ab\nc\n@{x}\n",
		},
		{
			name: "args",
			ins:  []Instruction{emit("&{len(args)} &{args[1]}")},
			opts: []Option{WithArgs([]string{"x", "y"})},
			want: "2 y\n",
		},
		{
			name: "tabsize directive",
			ins: []Instruction{
				directive("tabsize", "4"),
				emit("        z"),
			},
			want: "\t\tz\n",
		},
		{
			name: "hyphenated data key",
			ins:  []Instruction{emit("&{root.max-size}")},
			opts: []Option{WithRoot(map[string]any{"max-size": 9})},
			want: "9\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, program(tt.ins...), tt.opts...)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunSinks(t *testing.T) {
	dir := t.TempDir()

	p := program(
		emit("before"),
		directive("output", `"x.txt"`),
		emit("inside"),
		directive("stdout", ""),
		emit("after"),
		host(`append("x.txt")`),
		emit("appended"),
	)

	got, err := run(t, p, WithDir(dir))
	if err != nil {
		t.Fatal(err)
	}

	if got != "before\nafter\n" {
		t.Errorf("stdout = %q", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "x.txt"))
	if err != nil {
		t.Fatal(err)
	}

	if string(data) != "inside\nappended\n" {
		t.Errorf("x.txt = %q", data)
	}
}

func TestRunErrorRemap(t *testing.T) {
	// Lines 1-6 came from two includes; the failing line 7 is line 3 of the
	// top-level template.
	ins := []Instruction{
		emit("a1"), emit("a2"), emit("a3"),
		emit("b1"), emit("b2"), emit("b3"),
		emit("&{missing}"),
	}
	p := &Program{Name: "top.rna", Instructions: ins, LineMap: includeMap()}

	out, err := run(t, p)

	ge, ok := AsGenerationError(err)
	if !ok {
		t.Fatalf("Run error = %v, want *GenerationError", err)
	}

	if !errors.Is(err, lang.ErrUndefined) {
		t.Errorf("cause = %v, want ErrUndefined", ge.Err)
	}

	loc, _ := ge.Location()
	if loc.File != "top.dna" || loc.Line != 3 {
		t.Errorf("location = %s:%d, want top.dna:3", loc.File, loc.Line)
	}

	if !strings.HasPrefix(ge.Error(), "top.dna:3: ") {
		t.Errorf("Error() = %q", ge.Error())
	}

	// Nothing was flushed before the failure; pending rows are discarded.
	if out != "" {
		t.Errorf("output = %q", out)
	}
}

func TestRunFailureKeepsFlushed(t *testing.T) {
	dir := t.TempDir()

	p := program(
		emit("a"),
		directive("stdout", ""),
		emit("b"),
		directive("output", `"x.txt"`),
		emit("&{missing}"),
	)

	var out bytes.Buffer

	i := New(WithStdout(&out), WithDir(dir))

	err := i.Run(t.Context(), p)
	if _, ok := AsGenerationError(err); !ok {
		t.Fatalf("Run error = %v, want *GenerationError", err)
	}

	// "a" was flushed by the switch to stdout and "b" by the switch to
	// x.txt. The failing row is never rendered, and x.txt is never created.
	if out.String() != "a\nb\n" {
		t.Errorf("output = %q, want %q", out.String(), "a\nb\n")
	}

	if _, err := os.Stat(filepath.Join(dir, "x.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("stat x.txt = %v, want not exist", err)
	}

	// The next run starts from an empty level on stdout.
	out.Reset()

	if err := i.Run(t.Context(), program(emit("c"))); err != nil || out.String() != "c\n" {
		t.Errorf("Run = %q, %v", out.String(), err)
	}
}

func TestRunErrorFrames(t *testing.T) {
	p := program(
		host("def inner(x)"),
		host("return x.nope.deeper"),
		host("end"),
		host("def outer()"),
		host("return inner(nil)"),
		host("end"),
		emit("&{outer()}"),
	)

	_, err := run(t, p)

	ge, ok := AsGenerationError(err)
	if !ok {
		t.Fatalf("Run error = %v", err)
	}

	want := []Frame{
		{Func: "main", File: "t.dna", Line: 7},
		{Func: "outer", File: "t.dna", Line: 5},
		{Func: "inner", File: "t.dna", Line: 2},
	}

	if diff := cmp.Diff(want, ge.Frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}

	var trace bytes.Buffer
	if err := ge.WriteTrace(&trace); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(trace.String()), "\n")
	if len(lines) != 5 || !strings.Contains(lines[2], "t.dna:2 in inner") {
		t.Errorf("trace = %q", trace.String())
	}
}

func TestRunBuiltinFrame(t *testing.T) {
	_, err := run(t, program(emit("x"), host("output(1)")))

	ge, ok := AsGenerationError(err)
	if !ok {
		t.Fatalf("Run error = %v", err)
	}

	if !errors.Is(err, ErrArgument) {
		t.Errorf("cause = %v, want ErrArgument", err)
	}

	want := []Frame{
		{Func: "main", File: "t.dna", Line: 2},
		{Func: "output", File: BuiltinFile},
	}

	if diff := cmp.Diff(want, ge.Frames); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		ins  []Instruction
		want error
		line int
	}{
		{"missing end", []Instruction{host("for x in 3"), emit("x")}, ErrUnbalanced, 1},
		{"stray end", []Instruction{emit("x"), host("end")}, ErrUnbalanced, 2},
		{"else after else", []Instruction{
			host("if true"), host("else"), host("else"), host("end"),
		}, ErrUnbalanced, 3},
		{"break outside loop", []Instruction{host("break")}, ErrOutside, 1},
		{"return outside def", []Instruction{host("return 1")}, ErrOutside, 1},
		{"separate without loop", []Instruction{sep(","), emit("x")}, ErrSeparate, 1},
		{"syntax", []Instruction{emit("x"), host("def f(")}, lang.ErrSyntax, 2},
		{"negative tabsize", []Instruction{directive("tabsize", "-1")}, engine.ErrTabsize, 1},
		{"unterminated marker", []Instruction{emit("ok"), emit("&{x")}, engine.ErrUnterminated, 2},
		{"not iterable", []Instruction{host("for x in true"), host("end")}, lang.ErrNotIterable, 1},
		{"recursion", []Instruction{
			host("def f(n)"), host("return f(n + 1)"), host("end"), host("f(0)"),
		}, ErrRecursion, 2},
		{"call arity", []Instruction{
			host("def f(a)"), host("end"), host("f(1, 2)"),
		}, ErrCall, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, program(tt.ins...))
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run error = %v, want %v", err, tt.want)
			}

			ge, ok := AsGenerationError(err)
			if !ok {
				t.Fatalf("error %v is not a GenerationError", err)
			}

			if loc, _ := ge.Location(); loc.Line != tt.line {
				t.Errorf("line = %d, want %d (%v)", loc.Line, tt.line, ge)
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	i := New(WithStdout(&bytes.Buffer{}))

	err := i.Run(ctx, program(host("while true"), host("end")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestGlobalsPersist(t *testing.T) {
	var out bytes.Buffer

	i := New(WithStdout(&out))

	if err := i.Run(t.Context(), program(host("let total = 2"), host("def twice(x)"), host("return x * 2"), host("end"))); err != nil {
		t.Fatal(err)
	}

	if err := i.Run(t.Context(), program(emit("&{twice(total)}"))); err != nil {
		t.Fatal(err)
	}

	if out.String() != "4\n" {
		t.Errorf("output = %q", out.String())
	}

	names := i.Names()
	for _, n := range []string{"total", "twice", "root", "emit", "file"} {
		if !slices.Contains(names, n) {
			t.Errorf("Names() lacks %q", n)
		}
	}

	if p, ok := i.Signature("twice"); !ok || !slices.Equal(p, []string{"x"}) {
		t.Errorf("Signature(twice) = %v, %v", p, ok)
	}

	if p, ok := i.Signature("tabsize"); !ok || !slices.Equal(p, []string{"n"}) {
		t.Errorf("Signature(tabsize) = %v, %v", p, ok)
	}

	if _, ok := i.Signature("nope"); ok {
		t.Error("Signature(nope) found")
	}
}
