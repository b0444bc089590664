package repl

import "github.com/ardnew/etpl/pkg"

var (
	ErrOutOfBounds  = pkg.MakeErrorf("index out of range")
	ErrEditDeclined = pkg.MakeErrorf("decline edit")
	ErrEdit         = pkg.MakeErrorf("edit context")
)
