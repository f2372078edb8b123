package data

import "github.com/ardnew/ribosome/pkg"

var (
	ErrFormat = pkg.NewError("unsupported data format")
	ErrRead   = pkg.NewError("read data file")
	ErrDecode = pkg.NewError("decode data file")
)
