package lang

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/readahead"
	"github.com/zeebo/xxh3"
)

// Inline is the Origin of templates compiled from a string.
const Inline = "inline"

// Template is a compiled template. It is immutable and safe for concurrent
// renders.
type Template struct {
	Origin string
	Source string
	Root   []Node
	Sum    uint64
	opts   options
}

// FromSource compiles template text. The result is never cached.
func FromSource(src string, opts ...Option) (*Template, error) {
	return compile(context.Background(), src, Inline, makeOptions(opts...))
}

// Load reads and compiles the template at path. Relative paths are
// resolved against the working directory.
func Load(ctx context.Context, path string, opts ...Option) (*Template, error) {
	abs, err := canonicalPath(path)
	if err != nil {
		return nil, err
	}

	return load(ctx, abs, makeOptions(opts...))
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrReadSource.Wrap(err).With(slog.String("path", path))
	}

	return filepath.Clean(abs), nil
}

func load(ctx context.Context, path string, o options) (*Template, error) {
	src, err := readSource(path)
	if err != nil {
		return nil, err
	}

	return compile(ctx, src, path, o)
}

func readSource(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ErrReadSource.Wrap(err).With(slog.String("path", path))
	}
	defer f.Close()

	ra := readahead.NewReader(f)
	defer ra.Close()

	var buf strings.Builder

	if _, err := io.Copy(&buf, ra); err != nil {
		return "", ErrReadSource.Wrap(err).With(slog.String("path", path))
	}

	return buf.String(), nil
}

func compile(ctx context.Context, src, origin string, o options) (*Template, error) {
	start := time.Now()

	toks, err := Lex(src)
	if err == nil {
		var root []Node

		root, err = Parse(ctx, toks, src, WithMaxDepth(o.maxDepth), WithLogger(o.logger))
		if err == nil {
			t := &Template{
				Origin: origin,
				Source: src,
				Root:   root,
				Sum:    xxh3.HashString(src),
				opts:   o,
			}

			o.logger.DebugContext(ctx, "template compiled",
				slog.String("origin", origin),
				slog.Int("bytes", len(src)),
				slog.Uint64("sum", t.Sum),
				slog.Duration("elapsed", time.Since(start)))

			return t, nil
		}
	}

	if pe, ok := err.(*ParseError); ok && origin != Inline {
		pe.Origin = origin
	}

	o.logger.DebugContext(ctx, "template rejected",
		slog.String("origin", origin),
		slog.Any("error", err))

	return nil, err
}

// Render evaluates t against vars. Options override those the template was
// compiled with; only [WithGlobals], [WithLogger] and [WithMaxDepth] apply.
// On error no partial output is returned.
func (t *Template) Render(ctx context.Context, vars Context, opts ...Option) (string, error) {
	o := t.opts.with(opts...)

	globals := o.globals
	if globals == nil {
		globals = defaultGlobals
	}

	var out strings.Builder

	out.Grow(len(t.Source))

	ev := &evaluator{
		ctx:      ctx,
		vars:     vars,
		globals:  globals,
		out:      &out,
		maxDepth: o.maxDepth,
	}

	if err := ev.render(t.Root, nil); err != nil {
		o.logger.DebugContext(ctx, "render failed",
			slog.String("origin", t.Origin),
			slog.Any("error", err))

		return "", err
	}

	o.logger.TraceContext(ctx, "rendered",
		slog.String("origin", t.Origin),
		slog.Int("bytes", out.Len()))

	return out.String(), nil
}

// RenderTo renders t and writes the complete output to w. Nothing is
// written when rendering fails.
func (t *Template) RenderTo(ctx context.Context, w io.Writer, vars Context, opts ...Option) error {
	s, err := t.Render(ctx, vars, opts...)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, s)

	return err
}

//nolint:gochecknoglobals
var defaultGlobals = NewGlobals(nil, nil)
