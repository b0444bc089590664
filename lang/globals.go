package lang

import (
	"context"
	"log/slog"
	"maps"
	"slices"
)

// Cipher reversibly obfuscates integer identifiers.
type Cipher interface {
	EncryptNumber(n int64) (string, error)
	DecryptNumber(s string) (int64, error)
}

// SnippetSource resolves named static snippets, such as asset tags.
type SnippetSource interface {
	Snippet(name string) (string, error)
}

// Function is a global function callable as name(args) from a template.
type Function func(ctx context.Context, args []Value) (Value, error)

// Globals is the table of global functions. It is safe for concurrent use
// once built; Define must not be called while templates are rendering.
type Globals struct {
	funcs map[string]Function
}

// NewGlobals returns a table holding encrypt_number, decrypt_number and
// snippet. A nil collaborator makes the functions that depend on it fail
// with [ErrUnavailable].
func NewGlobals(cipher Cipher, snippets SnippetSource) *Globals {
	g := &Globals{funcs: map[string]Function{}}

	g.Define("encrypt_number", func(_ context.Context, args []Value) (Value, error) {
		if cipher == nil {
			return Value{}, unavailable("encrypt_number")
		}

		if err := arity("encrypt_number", args, 1); err != nil {
			return Value{}, err
		}

		n, ok := args[0].Int64()
		if !ok {
			return Value{}, mismatch("Integer", args[0], "encrypt_number")
		}

		s, err := cipher.EncryptNumber(n)
		if err != nil {
			return Value{}, WrapError(err)
		}

		return Str(s), nil
	})

	g.Define("decrypt_number", func(_ context.Context, args []Value) (Value, error) {
		if cipher == nil {
			return Value{}, unavailable("decrypt_number")
		}

		if err := arity("decrypt_number", args, 1); err != nil {
			return Value{}, err
		}

		s, ok := args[0].Str()
		if !ok {
			return Value{}, mismatch("String", args[0], "decrypt_number")
		}

		n, err := cipher.DecryptNumber(s)
		if err != nil {
			return Value{}, ErrDecryption.Wrap(err).With(slog.String("reason", err.Error()))
		}

		return Int(n), nil
	})

	g.Define("snippet", func(_ context.Context, args []Value) (Value, error) {
		if snippets == nil {
			return Value{}, unavailable("snippet")
		}

		if err := arity("snippet", args, 1); err != nil {
			return Value{}, err
		}

		name, ok := args[0].Str()
		if !ok {
			return Value{}, mismatch("String", args[0], "snippet")
		}

		s, err := snippets.Snippet(name)
		if err != nil {
			return Value{}, WrapError(err)
		}

		return Str(s), nil
	})

	return g
}

func unavailable(name string) *Error {
	return ErrUnavailable.With(slog.String("name", name))
}

func arity(name string, args []Value, n int) error {
	if len(args) != n {
		return ErrArgumentCount.With(
			slog.String("receiver", "global"),
			slog.String("name", name),
			slog.Int("min", n),
			slog.Int("max", n),
			slog.Int("found", len(args)))
	}

	return nil
}

// Define adds or replaces a global function and returns g.
func (g *Globals) Define(name string, fn Function) *Globals {
	g.funcs[name] = fn

	return g
}

// Names returns the sorted names of all defined functions.
func (g *Globals) Names() []string {
	if g == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(g.funcs))
}

// Call invokes the global function name.
func (g *Globals) Call(ctx context.Context, name string, args []Value) (Value, error) {
	var fn Function
	if g != nil {
		fn = g.funcs[name]
	}

	if fn == nil {
		return Value{}, ErrUndefinedOperation.With(
			slog.String("receiver", "global"),
			slog.String("name", name))
	}

	return fn(ctx, args)
}
