package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ribosome/data"
	"github.com/ardnew/ribosome/dna"
	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/pkg"
	"github.com/ardnew/ribosome/rna"
)

// ContextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// kongVar returns the kong variable named id, or "" outside a parse.
func kongVar(ctx context.Context, id string) string {
	ktx := kongContextFrom(ctx)
	if ktx == nil {
		return ""
	}

	return ktx.Model.Vars()[id]
}

// streams returns the standard output and error writers of the kong
// application bound to ctx, or those of the process.
func streams(ctx context.Context) (stdout, stderr io.Writer) {
	stdout, stderr = os.Stdout, os.Stderr

	if ktx := kongContextFrom(ctx); ktx != nil {
		if ktx.Stdout != nil {
			stdout = ktx.Stdout
		}

		if ktx.Stderr != nil {
			stderr = ktx.Stderr
		}
	}

	return stdout, stderr
}

// stdinSource is the template argument selecting standard input.
const stdinSource = "-"

// stdinName names a template read from standard input in diagnostics.
const stdinName = "stdin" + pkg.TemplateExt

// translate translates the template at path, or standard input if path is
// [stdinSource].
func translate(ctx context.Context, path string) (*rna.Program, error) {
	tr := dna.New(dna.WithLogger(log.Default()))

	if path != stdinSource {
		return tr.Translate(ctx, path)
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	return tr.TranslateReader(ctx, stdinName, cwd, os.Stdin)
}

// loadData loads the root data file, if any.
func loadData(ctx context.Context, path string) (any, error) {
	if path == "" {
		return nil, nil
	}

	v, err := data.Load(ctx, path, data.WithLogger(log.Default()))
	if err != nil {
		return nil, ErrLoadData.Wrap(err)
	}

	log.DebugContext(ctx, "loaded root data", slog.String("path", path))

	return v, nil
}

// splitData separates a leading data file from the template arguments.
func splitData(args []string) (path string, rest []string) {
	if len(args) > 0 {
		if _, ok := data.FormatOf(args[0]); ok {
			return args[0], args[1:]
		}
	}

	return "", args
}

// writeArtifact writes the listing of p to its Name.
func writeArtifact(p *rna.Program, template string) error {
	if clobbers(p.Name, template) {
		return ErrWriteArtifact.With(
			slog.String("path", p.Name),
			slog.String("template", template),
		).Wrap(ErrArtifactClash)
	}

	if err := os.MkdirAll(filepath.Dir(p.Name), 0o755); err != nil {
		return ErrWriteArtifact.With(slog.String("path", p.Name)).Wrap(err)
	}

	f, err := os.Create(p.Name)
	if err != nil {
		return ErrWriteArtifact.With(slog.String("path", p.Name)).Wrap(err)
	}

	if err := p.Render(f, rna.FormatText, true); err != nil {
		_ = f.Close()

		return ErrWriteArtifact.With(slog.String("path", p.Name)).Wrap(err)
	}

	if err := f.Close(); err != nil {
		return ErrWriteArtifact.With(slog.String("path", p.Name)).Wrap(err)
	}

	return nil
}

// clobbers reports whether writing the artifact at name would replace the
// template itself.
func clobbers(name, template string) bool {
	if filepath.Clean(name) == filepath.Clean(template) {
		return true
	}

	a, err := os.Stat(name)
	if err != nil {
		return false
	}

	b, err := os.Stat(template)
	if err != nil {
		return false
	}

	return os.SameFile(a, b)
}
