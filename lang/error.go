package lang

import "github.com/ardnew/ribosome/pkg"

var (
	ErrSyntax      = pkg.NewError("syntax error")
	ErrCompile     = pkg.NewError("expression compilation failed")
	ErrEvaluate    = pkg.NewError("expression evaluation failed")
	ErrUndefined   = pkg.NewError("undefined variable")
	ErrNotIterable = pkg.NewError("value is not iterable")
	ErrArgCount    = pkg.NewError("wrong number of arguments")
	ErrArgType     = pkg.NewError("invalid argument type")
)
