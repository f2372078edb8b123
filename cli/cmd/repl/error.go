package repl

import "github.com/ardnew/ribosome/pkg"

var (
	ErrOutOfBounds  = pkg.NewError("index out of range")
	ErrEditDeclined = pkg.NewError("decline edit")
	ErrNoTerminal   = pkg.NewError("interactive session requires a terminal")
)
