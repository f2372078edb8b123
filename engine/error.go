package engine

import "github.com/ardnew/ribosome/pkg"

var (
	// ErrUnterminated reports a marker whose opening brace is never closed.
	ErrUnterminated = pkg.NewError("Unmatched {")
	ErrOpenSink     = pkg.NewError("open output")
	ErrWriteSink    = pkg.NewError("write output")
	ErrCloseSink    = pkg.NewError("close output")
	ErrTabsize      = pkg.NewError("invalid tab size")
	ErrNoLevel      = pkg.NewError("composition stack underflow")
)
