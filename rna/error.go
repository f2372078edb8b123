package rna

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/ardnew/ribosome/pkg"
)

var (
	ErrFormat     = pkg.NewError("unsupported program format")
	ErrUnbalanced = pkg.NewError("unbalanced block")
	ErrSeparate   = pkg.NewError("separate must precede a loop")
	ErrDirective  = pkg.NewError("unknown directive")
	ErrArgument   = pkg.NewError("invalid directive argument")
	ErrRecursion  = pkg.NewError("maximum call depth exceeded")
	ErrOutside    = pkg.NewError("statement outside its block")
	ErrCall       = pkg.NewError("invalid function call")
)

// BuiltinFile is the file of frames inside builtin functions.
const BuiltinFile = "<builtin>"

// Frame is one entry of a generation trace.
type Frame struct {
	Func string // function name; the program frame is named "main"
	File string
	Line int
}

func (f Frame) String() string {
	if f.Line > 0 {
		return f.File + ":" + strconv.Itoa(f.Line) + " in " + f.Func
	}

	return f.File + " in " + f.Func
}

// GenerationError is a failure raised while a program runs.
type GenerationError struct {
	Err    error
	Frames []Frame // outermost first
}

// Error returns "file:line: message" for the innermost frame with a line.
func (e *GenerationError) Error() string {
	msg := pkg.Describe(e.Err)

	for _, f := range slices.Backward(e.Frames) {
		if f.Line > 0 {
			return f.File + ":" + strconv.Itoa(f.Line) + ": " + msg
		}
	}

	return msg
}

// Unwrap returns the underlying failure.
func (e *GenerationError) Unwrap() error { return e.Err }

// Location returns the innermost frame with a line.
func (e *GenerationError) Location() (Frame, bool) {
	for _, f := range slices.Backward(e.Frames) {
		if f.Line > 0 {
			return f, true
		}
	}

	return Frame{}, false
}

// Remap rewrites every frame of a generated program to template
// coordinates using the LineMap that maps names. Frames of other files are
// left unchanged.
func (e *GenerationError) Remap(maps map[string]*LineMap) {
	for i, f := range e.Frames {
		m := maps[f.File]
		if m == nil {
			continue
		}

		if file, line, ok := m.Lookup(f.Line); ok {
			e.Frames[i].File, e.Frames[i].Line = file, line
		}
	}
}

// WriteTrace writes the message followed by the frames, innermost first.
func (e *GenerationError) WriteTrace(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "error: %s\ntraceback (innermost first):\n", e.Error()); err != nil {
		return err
	}

	for _, f := range slices.Backward(e.Frames) {
		if _, err := fmt.Fprintf(w, "  %s\n", f); err != nil {
			return err
		}
	}

	return nil
}

// AsGenerationError reports whether err wraps a GenerationError.
func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	ok := errors.As(err, &ge)

	return ge, ok
}
