// Package engine composes generated text from template lines.
//
// A [Context] owns the state of one generation run: a stack of levels, each
// an ordered list of [block.Block] values being accumulated; the active
// [Sink]; and the tab size used when blocks are rendered. Template lines are
// expanded by [Context.Expand], which evaluates embedded markers through a
// caller-supplied [Evaluator]. An evaluator may call back into the same
// Context; the level pushed around every evaluation captures that output.
package engine

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ardnew/ribosome/block"
	"github.com/ardnew/ribosome/log"
)

// Evaluator evaluates the expression text of a marker.
type Evaluator func(expr string) (any, error)

// Context is the composition state of one generation run.
// It is not safe for concurrent use.
type Context struct {
	levels  [][]*block.Block
	sink    Sink
	stdout  io.Writer
	dir     string
	tabsize int
	logger  log.Logger
}

// Option configures a Context.
type Option func(*Context)

// WithStdout sets the writer behind the standard stream sink.
func WithStdout(w io.Writer) Option {
	return func(c *Context) { c.stdout = w }
}

// WithDir sets the directory that relative output paths resolve against.
func WithDir(dir string) Option {
	return func(c *Context) { c.dir = dir }
}

// WithTabsize sets the initial tab size.
func WithTabsize(n int) Option {
	return func(c *Context) { c.tabsize = max(n, 0) }
}

// WithLogger sets the logger receiving sink and flush events.
func WithLogger(l log.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// New returns a Context with one empty level writing to standard output.
func New(opts ...Option) *Context {
	c := &Context{
		levels: [][]*block.Block{nil},
		stdout: os.Stdout,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.sink = Stream(c.stdout, "stdout")

	return c
}

// Depth returns the number of levels on the stack.
func (c *Context) Depth() int { return len(c.levels) }

// Tabsize returns the tab size used by the next flush.
func (c *Context) Tabsize() int { return c.tabsize }

func (c *Context) top() *[]*block.Block { return &c.levels[len(c.levels)-1] }

// last returns the final block of the current level, starting a line first
// if the level is empty.
func (c *Context) last() *block.Block {
	lvl := c.top()
	if len(*lvl) == 0 {
		c.StartLine()
	}

	return (*lvl)[len(*lvl)-1]
}

// StartLine begins a new row group on the current level.
func (c *Context) StartLine() {
	lvl := c.top()
	*lvl = append(*lvl, block.New(""))
}

// Append expands line and joins the result to the right of the current
// level's last block.
func (c *Context) Append(line string, eval Evaluator) error {
	b, err := c.Expand(line, eval)
	if err != nil {
		return err
	}

	c.last().AddRight(b)

	return nil
}

// Emit starts a new line and appends line to it. Nothing is composed if the
// expansion fails.
func (c *Context) Emit(line string, eval Evaluator) error {
	b, err := c.Expand(line, eval)
	if err != nil {
		return err
	}

	c.StartLine()
	c.last().AddRight(b)

	return nil
}

// Align starts a new line indented to the leading whitespace of the previous
// line's last row, then appends line.
func (c *Context) Align(line string, eval Evaluator) error {
	n := 0
	if lvl := *c.top(); len(lvl) > 0 {
		n = lvl[len(lvl)-1].LastOffset()
	}

	b, err := c.Expand(line, eval)
	if err != nil {
		return err
	}

	c.StartLine()
	c.last().AddRight(block.Spaces(n))
	c.last().AddRight(b)

	return nil
}

// SetTabsize sets the tab size used by later flushes.
func (c *Context) SetTabsize(n int) error {
	if n < 0 {
		return ErrTabsize.With(slog.Int("tabsize", n))
	}

	c.tabsize = n

	return nil
}

// Flush renders every block of the current level to the active sink and
// empties the level.
func (c *Context) Flush() error {
	lvl := c.top()
	if len(*lvl) == 0 {
		return nil
	}

	c.logger.Trace("flush",
		slog.String("sink", c.sink.String()),
		slog.Int("blocks", len(*lvl)),
		slog.Int("tabsize", c.tabsize),
	)

	for _, b := range *lvl {
		if err := b.Render(c.sink, c.tabsize); err != nil {
			return err
		}
	}

	*lvl = nil

	return nil
}

// SwitchSink flushes pending output to the active sink, closes it, and makes
// s the active sink.
func (c *Context) SwitchSink(s Sink) error {
	if err := c.Flush(); err != nil {
		return err
	}

	if err := c.sink.Close(); err != nil {
		return err
	}

	c.logger.Debug("switch sink",
		slog.String("from", c.sink.String()),
		slog.String("to", s.String()),
		slog.Bool("file", s.IsFile()),
	)

	c.sink = s

	return nil
}

// Output switches to a file sink that replaces path.
func (c *Context) Output(path string) error {
	return c.SwitchSink(File(c.resolve(path)))
}

// AppendTo switches to a file sink that appends to path.
func (c *Context) AppendTo(path string) error {
	return c.SwitchSink(AppendFile(c.resolve(path)))
}

// Stdout switches to the standard stream sink.
func (c *Context) Stdout() error {
	return c.SwitchSink(Stream(c.stdout, "stdout"))
}

// Close flushes pending output and closes the active sink. The Context
// reverts to the standard stream sink.
func (c *Context) Close() error {
	if err := c.Flush(); err != nil {
		return err
	}

	err := c.sink.Close()
	c.sink = Stream(c.stdout, "stdout")

	return err
}

// Abort discards every pending level without rendering it and closes the
// active sink. Output flushed earlier is kept. The Context reverts to the
// standard stream sink with one empty level.
func (c *Context) Abort() error {
	c.logger.Debug("abort",
		slog.String("sink", c.sink.String()),
		slog.Int("levels", len(c.levels)),
	)

	c.levels = [][]*block.Block{nil}

	err := c.sink.Close()
	c.sink = Stream(c.stdout, "stdout")

	return err
}

func (c *Context) resolve(path string) string {
	if c.dir == "" || filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(c.dir, path)
}

// push opens a level capturing output produced during an evaluation.
func (c *Context) push() { c.levels = append(c.levels, nil) }

// pop closes the innermost level and returns its blocks.
func (c *Context) pop() ([]*block.Block, error) {
	if len(c.levels) < 2 {
		return nil, ErrNoLevel
	}

	lvl := c.levels[len(c.levels)-1]
	c.levels = c.levels[:len(c.levels)-1]

	return lvl, nil
}
