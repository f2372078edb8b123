package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/ribosome/pkg"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()

	tmpl := writeFile(t, dir, "hello.dna", strings.Join([]string{
		".Hello, &{root.name}!",
		"for a in args",
		".  &{a}",
		"end",
		`./!output("out.txt")`,
		".file &{len(args)}",
	}, "\n")+"\n")

	data := writeFile(t, dir, "d.json", `{"name": "World"}`)
	out := filepath.Join(dir, "out")

	ctx, stdout, _ := kongContext(t, nil)

	r := &Run{Template: tmpl, Args: []string{data, "x", "y"}, OutDir: out}
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	if got, want := stdout.String(), "Hello, World!\n  x\n  y\n"; got != want {
		t.Errorf("stdout = %q, want %q", got, want)
	}

	b, err := os.ReadFile(filepath.Join(out, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}

	if string(b) != "file 2\n" {
		t.Errorf("out.txt = %q", b)
	}

	if _, err := os.Stat(filepath.Join(dir, "hello"+pkg.ProgramExt)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("program artifact not removed: %v", err)
	}
}

func TestRunKeepRNA(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "k.dna", ".kept\n")

	ctx, _, _ := kongContext(t, nil)

	r := &Run{Template: tmpl, KeepRNA: true}
	if err := r.Run(ctx); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "k"+pkg.ProgramExt))
	if err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(string(b), `emit("kept")`) {
		t.Errorf("artifact = %q", b)
	}
}

func TestRunGenerationError(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "bad.dna", ".ok\n./!stdout()\n.lost\n.&{missing}\n")

	ctx, stdout, stderr := kongContext(t, nil)

	err := (&Run{Template: tmpl}).Run(ctx)
	if !errors.Is(err, ErrGenerate) {
		t.Fatalf("Run error = %v, want %v", err, ErrGenerate)
	}

	if stdout.String() != "ok\n" {
		t.Errorf("stdout = %q", stdout.String())
	}

	if !strings.Contains(stderr.String(), tmpl+":4") {
		t.Errorf("trace does not name %s:4:\n%s", tmpl, stderr.String())
	}
}

func TestRunKeepsRNATemplate(t *testing.T) {
	dir := t.TempDir()
	body := ".hello\n"
	tmpl := writeFile(t, dir, "t"+pkg.ProgramExt, body)

	for _, keep := range []bool{false, true} {
		ctx, stdout, _ := kongContext(t, nil)

		err := (&Run{Template: tmpl, KeepRNA: keep}).Run(ctx)
		if !errors.Is(err, ErrArtifactClash) {
			t.Errorf("keep=%t: Run error = %v, want %v", keep, err, ErrArtifactClash)
		}

		if stdout.Len() != 0 {
			t.Errorf("keep=%t: stdout = %q", keep, stdout.String())
		}

		data, err := os.ReadFile(tmpl)
		if err != nil {
			t.Fatalf("keep=%t: template removed: %v", keep, err)
		}

		if string(data) != body {
			t.Errorf("keep=%t: template = %q, want %q", keep, data, body)
		}
	}
}

func TestRunTranslationError(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "bad.dna", ".a\n./!nope()\n")

	ctx, _, _ := kongContext(t, nil)

	err := (&Run{Template: tmpl}).Run(ctx)
	if !errors.Is(err, ErrTranslate) {
		t.Fatalf("Run error = %v, want %v", err, ErrTranslate)
	}

	if _, err := os.Stat(filepath.Join(dir, "bad"+pkg.ProgramExt)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("artifact written for a failed translation: %v", err)
	}
}

func TestRNA(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "p.dna", "let x = 1\n.v &{x}\n")

	tests := map[string]string{
		"text": "let x = 1\nemit(\"v &{x}\")\n",
		"json": `"op": "host"`,
		"yaml": "op: emit",
	}

	for format, want := range tests {
		t.Run(format, func(t *testing.T) {
			ctx, stdout, _ := kongContext(t, nil)

			if err := (&RNA{Template: tmpl, Format: format}).Run(ctx); err != nil {
				t.Fatal(err)
			}

			if !strings.Contains(stdout.String(), want) {
				t.Errorf("listing does not contain %q:\n%s", want, stdout.String())
			}
		})
	}
}
