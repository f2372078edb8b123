package dna

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ardnew/ribosome/engine"
	"github.com/ardnew/ribosome/rna"
)

// write creates the named files under a fresh directory and returns it.
func write(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()

	for name, body := range files {
		path := filepath.Join(dir, name)

		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}

		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return dir
}

func lines(ls ...string) string { return strings.Join(ls, "\n") + "\n" }

func TestClassify(t *testing.T) {
	tests := []struct {
		raw  string
		want Line
	}{
		{"for x in xs", Host{Text: "for x in xs"}},
		{"    end", Host{Text: "    end"}},
		{"", Host{Text: ""}},
		{"\tlet x = 1", Host{Text: "\tlet x = 1"}},
		{".Hello", Template{Op: rna.OpEmit, Text: "Hello"}},
		{"  .  indented  ", Template{Op: rna.OpEmit, Indent: 2, Text: "  indented"}},
		{".keep   $", Template{Op: rna.OpEmit, Text: "keep   "}},
		{".", Template{Op: rna.OpEmit, Text: ""}},
		{"./+more", Template{Op: rna.OpAdd, Text: "more"}},
		{". /= x", Template{Op: rna.OpAlign, Text: " x"}},
		{`./!output("a.txt")`, Directive{Name: "output", Arg: `"a.txt"`}},
		{"    ./!stdout()", Directive{Indent: 4, Name: "stdout"}},
		{"./!tabsize( 4 )", Directive{Name: "tabsize", Arg: "4"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Classify(tt.raw)
			if err != nil {
				t.Fatalf("Classify: %v", err)
			}

			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("line mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := map[string]error{
		".a\tb":         ErrTab,
		"./!":           ErrIdentifier,
		"./! (x)":       ErrIdentifier,
		"./!output":     ErrArgument,
		`./!output "x"`: ErrArgument,
		"./!tabsize(4":  ErrArgument,
	}

	for raw, want := range tests {
		if _, err := Classify(raw); !errors.Is(err, want) {
			t.Errorf("Classify(%q) = %v, want %v", raw, err, want)
		}
	}
}

func TestTranslate(t *testing.T) {
	dir := write(t, map[string]string{
		"t.dna": lines(
			"for x in root",
			`./!separate(", ")`,
			"for y in x",
			"./+&{y}",
			"end",
			"end",
			`./!output("o.txt")`,
			".done",
		),
	})

	p, err := New().Translate(t.Context(), filepath.Join(dir, "t.dna"))
	if err != nil {
		t.Fatal(err)
	}

	want := []rna.Instruction{
		{Op: rna.OpHost, Text: "for x in root"},
		{Op: rna.OpSeparate, Text: ", "},
		{Op: rna.OpHost, Text: "for y in x"},
		{Op: rna.OpAdd, Text: "&{y}"},
		{Op: rna.OpHost, Text: "end"},
		{Op: rna.OpHost, Text: "end"},
		{Op: rna.OpDirective, Name: "output", Text: `"o.txt"`},
		{Op: rna.OpEmit, Text: "done"},
	}

	if diff := cmp.Diff(want, p.Instructions); diff != "" {
		t.Errorf("instructions mismatch (-want +got):\n%s", diff)
	}

	if p.Name != filepath.Join(dir, "t.rna") {
		t.Errorf("name = %q", p.Name)
	}

	if p.LineMap.Len() != 1 {
		t.Errorf("linemap = %v, want a single record", p.LineMap.Records)
	}
}

func TestTranslateIncludes(t *testing.T) {
	dir := write(t, map[string]string{
		"top.dna": lines(
			`./!include("a.dna")`,
			`./!include("sub/b.dna")`,
			".&{missing}",
		),
		"a.dna":     lines(".a1", ".a2", ".a3"),
		"sub/b.dna": lines(".b1", ".b2", ".b3"),
	})

	top := filepath.Join(dir, "top.dna")

	p, err := New().Translate(t.Context(), top)
	if err != nil {
		t.Fatal(err)
	}

	want := []rna.Record{
		{Generated: 1, File: filepath.Join(dir, "a.dna"), Line: 1},
		{Generated: 4, File: filepath.Join(dir, "sub", "b.dna"), Line: 1},
		{Generated: 7, File: top, Line: 3},
	}

	if diff := cmp.Diff(want, p.LineMap.Records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}

	var out bytes.Buffer

	err = rna.New(rna.WithStdout(&out)).Run(t.Context(), p)

	ge, ok := rna.AsGenerationError(err)
	if !ok {
		t.Fatalf("Run error = %v, want *rna.GenerationError", err)
	}

	if loc, _ := ge.Location(); loc.File != top || loc.Line != 3 {
		t.Errorf("failure at %s:%d, want %s:3", loc.File, loc.Line, top)
	}

	// Nothing was flushed before the failing line.
	if out.String() != "" {
		t.Errorf("output = %q", out.String())
	}
}

func TestTranslateNestedInclude(t *testing.T) {
	dir := write(t, map[string]string{
		"top.dna": lines(`./!include("a.dna")`, ".top"),
		"a.dna":   lines(".a1", `./!include("b.dna")`, ".a3"),
		"b.dna":   lines(".b1"),
	})

	p, err := New().Translate(t.Context(), filepath.Join(dir, "top.dna"))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		g    int
		file string
		line int
	}{
		{1, "a.dna", 1},
		{2, "b.dna", 1},
		{3, "a.dna", 3},
		{4, "top.dna", 2},
	}

	for _, tt := range tests {
		file, line, _ := p.LineMap.Lookup(tt.g)
		if file != filepath.Join(dir, tt.file) || line != tt.line {
			t.Errorf("Lookup(%d) = %s:%d, want %s:%d", tt.g, file, line, tt.file, tt.line)
		}
	}
}

func TestTranslateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
		line int
	}{
		{"tab", lines("x = 1", ".a\tb"), ErrTab, 2},
		{"unknown", lines("./!frobnicate(1)"), ErrUnknown, 1},
		{"no identifier", lines("", "./!"), ErrIdentifier, 2},
		{"missing include", lines(`./!include("nope.dna")`), ErrInclude, 1},
		{"include not string", lines(`./!include(3)`), ErrArgument, 1},
		{"separate no loop", lines(`./!separate(",")`, ".x"), ErrSeparate, 1},
		{"separate at end", lines(`./!separate(",")`), ErrSeparate, 1},
		{"unterminated", lines(".a", ".b &{x"), engine.ErrUnterminated, 2},
		{"bad output argument", lines("./!output(1 +)"), ErrArgument, 1},
		{"stdout argument", lines(`./!stdout("x")`), ErrArgument, 1},
		{"self include", lines(`./!include("t.dna")`), ErrIncludeCycle, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := write(t, map[string]string{"t.dna": tt.body})
			path := filepath.Join(dir, "t.dna")

			_, err := New().Translate(t.Context(), path)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Translate error = %v, want %v", err, tt.want)
			}

			var te *TranslationError
			if !errors.As(err, &te) {
				t.Fatalf("error %v is not a TranslationError", err)
			}

			if te.File != path || te.Line != tt.line {
				t.Errorf("location = %s:%d, want %s:%d", te.File, te.Line, path, tt.line)
			}
		})
	}
}

func TestUnknownCommandMessage(t *testing.T) {
	_, err := New().TranslateReader(t.Context(), "x.dna", ".", strings.NewReader("./!nope()\n"))
	if err == nil || err.Error() != "x.dna:1: unknown command: nope" {
		t.Errorf("error = %v", err)
	}
}

func TestTranslateAndRun(t *testing.T) {
	dir := write(t, map[string]string{
		"greet.dna": lines(
			"let names = root.names",
			".Hello, @{root.name}!",
			`./!separate(", ")`,
			"for n in names",
			"./+&{n}",
			"end",
			".",
			"def box(s)",
			".+---+",
			".| &{s} |",
			".+---+",
			"end",
			".  @{box(1)}",
			"./=next",
		),
	})

	p, err := New().Translate(t.Context(), filepath.Join(dir, "greet.dna"))
	if err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer

	root := map[string]any{"name": "World", "names": []any{"a", "b", "c"}}

	if err := rna.New(rna.WithStdout(&out), rna.WithRoot(root)).Run(t.Context(), p); err != nil {
		t.Fatal(err)
	}

	want := lines(
		"Hello, World!a, b, c",
		"",
		"  +---+",
		"  | 1 |",
		"  +---+",
		"  next",
	)

	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
