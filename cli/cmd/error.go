package cmd

import "github.com/ardnew/etpl/pkg"

var (
	ErrReadInput   = pkg.ErrReadInput
	ErrWriteOutput = pkg.ErrWriteOutput
	ErrWriteConfig = pkg.MakeErrorf("write configuration file")
	ErrFileExists  = pkg.MakeErrorf("file exists (use --force to overwrite)")
	ErrNoKey       = pkg.MakeErrorf("no secureid key configured")
	ErrCheck       = pkg.MakeErrorf("template check failed")
	ErrInvalidArg  = pkg.ErrInvalidArg
)
