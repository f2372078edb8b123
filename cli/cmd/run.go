package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/ardnew/ribosome/dna"
	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/rna"
)

// Run translates a template and executes the resulting program.
type Run struct {
	Template string   `arg:"" help:"Template file or '-' for stdin"`
	Args     []string `arg:"" help:"Arguments bound to args; a leading data file is loaded as root" optional:"" passthrough:""`

	Data    string `help:"Data file bound to root"                                   short:"d" type:"existingfile"`
	OutDir  string `help:"Directory of relative output paths"                        short:"o" type:"path"`
	KeepRNA bool   `help:"Keep the intermediate program next to the template"        short:"k" name:"keep-rna"`
	Tabsize int    `help:"Re-encode leading spaces as tabs of this width (0 disables)" default:"0"`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	stdout, stderr := streams(ctx)

	dataPath, args := r.Data, r.Args
	if dataPath == "" {
		dataPath, args = splitData(args)
	}

	prog, err := translate(ctx, r.Template)
	if err != nil {
		return translationFailure(err)
	}

	if r.Template != stdinSource || r.KeepRNA {
		if err := writeArtifact(prog, r.Template); err != nil {
			return err
		}

		if !r.KeepRNA {
			defer func() {
				if rmErr := os.Remove(prog.Name); rmErr != nil {
					log.WarnContext(ctx, "remove program artifact",
						slog.String("path", prog.Name),
						slog.Any("error", rmErr),
					)
				}
			}()
		}
	}

	root, err := loadData(ctx, dataPath)
	if err != nil {
		return err
	}

	opts := []rna.Option{
		rna.WithStdout(stdout),
		rna.WithTabsize(r.Tabsize),
		rna.WithLogger(log.Default()),
		rna.WithRoot(root),
		rna.WithArgs(args),
	}

	if r.OutDir != "" {
		if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
			return err
		}

		opts = append(opts, rna.WithDir(r.OutDir))
	}

	err = rna.New(opts...).Run(ctx, prog)
	if ge, ok := rna.AsGenerationError(err); ok {
		_ = ge.WriteTrace(stderr)

		loc, _ := ge.Location()

		return ErrGenerate.With(
			slog.String("file", loc.File),
			slog.Int("line", loc.Line),
		)
	}

	return err
}

// translationFailure tags a translation diagnostic with its location.
func translationFailure(err error) error {
	var te *dna.TranslationError
	if errors.As(err, &te) {
		return ErrTranslate.With(
			slog.String("file", te.File),
			slog.Int("line", te.Line),
		).Wrap(te.Err)
	}

	return ErrTranslate.Wrap(err)
}
