package dna

import (
	"strconv"

	"github.com/ardnew/ribosome/pkg"
)

var (
	ErrTab          = pkg.NewError("tab found in the line, replace it by space")
	ErrIdentifier   = pkg.NewError("/! should be followed by an identifier")
	ErrUnknown      = pkg.NewError("unknown command")
	ErrArgument     = pkg.NewError("malformed directive argument")
	ErrSeparate     = pkg.NewError(`"separate" command must be followed by a loop`)
	ErrInclude      = pkg.NewError("cannot include file")
	ErrIncludeCycle = pkg.NewError("include cycle")
	ErrRead         = pkg.NewError("read template")
)

// TranslationError reports a template defect at File:Line.
type TranslationError struct {
	File string
	Line int
	Err  error
}

func (e *TranslationError) Error() string {
	if e.Line == 0 {
		return e.File + ": " + pkg.Describe(e.Err)
	}

	return e.File + ":" + strconv.Itoa(e.Line) + ": " + pkg.Describe(e.Err)
}

func (e *TranslationError) Unwrap() error { return e.Err }
