package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/ribosome/dna"
	"github.com/ardnew/ribosome/log"
	"github.com/ardnew/ribosome/pkg"
)

const defaultEditor = "vi"

// editChunkCommand implements [tea.ExecCommand]. It opens the user's editor
// on the chunk being composed and runs the result when the editor exits. On
// a translation error the user is offered to re-edit; declining exits the
// session.
type editChunkCommand struct {
	session *Session
	initial string
	ctxFunc func() context.Context
	logger  log.Logger

	output string // what the chunk wrote
	err    error  // generation failure of the chunk
	ran    bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editChunkCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editChunkCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editChunkCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-translate-retry loop.
func (c *editChunkCommand) Run() error {
	ctx := c.ctxFunc()

	f, err := os.CreateTemp(os.TempDir(), pkg.Name+"-repl-*"+pkg.TemplateExt)
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return err
	}

	content := c.initial

	for {
		if err := os.WriteFile(tmpPath, []byte(content), 0o600); err != nil {
			return err
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return err
		}

		b, err := os.ReadFile(tmpPath)
		if err != nil {
			return err
		}

		content = string(b)
		if strings.TrimSpace(content) == "" {
			return nil
		}

		out, runErr := c.session.Exec(ctx, content)

		var te *dna.TranslationError

		translated := !errors.As(runErr, &te)

		c.logger.TraceContext(ctx, "editor chunk",
			slog.Int("content_length", len(content)),
			slog.Bool("translated", translated),
		)

		if translated {
			c.output, c.err, c.ran = out, runErr, true

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", te)
		fmt.Fprint(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR (or vi) on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	args := strings.Fields(editor)

	cmd := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
