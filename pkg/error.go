package pkg

import (
	"fmt"
	"slices"
	"strings"
)

// Error is a chain of errors, innermost first.
//
// A sentinel built with [MakeErrorf] matches, under errors.Is, every chain
// derived from it with [Error.Wrap] or [Error.Wrapf].
type Error []error

// Errors shared by the command line front end and the host-data packages.
var (
	ErrReadInput     = MakeErrorf("failed to read input")
	ErrWriteOutput   = MakeErrorf("failed to write output")
	ErrInvalidFormat = MakeErrorf("invalid format")
	ErrInvalidArg    = MakeErrorf("invalid argument")
)

// MakeError constructs an Error from the given errors.
// The first argument is the innermost error in the chain.
// Nil is returned if no errors are provided.
func MakeError(errs ...error) Error {
	var e Error

	for _, err := range errs {
		if err != nil {
			e = append(e, UnwrapErrors(err)...)
		}
	}

	return e
}

// MakeErrorf constructs an Error from a formatted error message.
func MakeErrorf(format string, args ...any) Error {
	return MakeError(fmt.Errorf(format, args...))
}

// Error returns all messages in the chain, innermost first, joined by ": ".
func (e Error) Error() string {
	var sb strings.Builder

	for i, err := range e {
		if i > 0 {
			sb.WriteString(": ")
		}

		sb.WriteString(err.Error())
	}

	return sb.String()
}

// Wrap returns a new chain with err appended. The receiver is not modified.
func (e Error) Wrap(err ...error) Error {
	return slices.Concat(e, Error(err))
}

// Wrapf returns a new chain with a formatted error appended.
func (e Error) Wrapf(format string, args ...any) Error {
	return e.Wrap(fmt.Errorf(format, args...))
}

// Unwrap returns the errors contained in the receiver.
func (e Error) Unwrap() []error {
	return e
}

// Is reports whether target is an Error whose innermost error also appears
// in e.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	if !ok || len(t) == 0 {
		return false
	}

	root := t[0]

	for _, err := range e {
		if _, chained := err.(Error); chained {
			continue
		}

		if err == root {
			return true
		}
	}

	return false
}

// UnwrapErrors recursively unwraps an error chain and returns a slice
// containing all errors in the chain, starting from the innermost error.
func UnwrapErrors(err error) Error {
	if err == nil {
		return nil
	}

	chain := Error{}

	if e, ok := err.(interface{ Unwrap() []error }); ok {
		for _, wrapped := range e.Unwrap() {
			chain = append(chain, UnwrapErrors(wrapped)...)
		}
	} else if e, ok := err.(interface{ Unwrap() error }); ok {
		chain = append(chain, UnwrapErrors(e.Unwrap())...)
	}

	return append(chain, err)
}
