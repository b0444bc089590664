package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/ardnew/etpl/data"
	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/log"
	"github.com/ardnew/etpl/store"
)

// Vars are the flags that assemble a template context.
type Vars struct {
	Data  []string `help:"YAML, TOML or JSON file merged into the context."  short:"d" type:"existingfile"`
	Set   []string `help:"Bind NAME to the value of an expr-lang expression." placeholder:"NAME=EXPR"`
	DB    string   `help:"SQLite database for --query."                       name:"db"  placeholder:"DSN"`
	Query []string `help:"Bind NAME to the rows returned by SQL."             placeholder:"NAME=SQL"`
}

// Render renders one template against a data context.
type Render struct {
	Vars `embed:""`

	Template string `arg:"" default:"-" help:"Template file, or '-' for stdin." name:"template"`
	Output   string `help:"Write output atomically to FILE instead of stdout." short:"o" type:"path"`
	Repeat   int    `default:"1" help:"Render N times through the template cache."`

	stdin  io.Reader
	stdout io.Writer
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	id := uuid.New().String()
	logger := log.With(slog.String("render_id", id))

	s := settingsFrom(ctx)

	opts, err := s.options()
	if err != nil {
		return err
	}

	opts = append(opts, lang.WithLogger(logger))

	vars, err := r.build(ctx)
	if err != nil {
		return err
	}

	cache := lang.NewCache(opts...)

	load := func() (*lang.Template, error) {
		return s.loadTemplate(ctx, cache, r.Template, r.input(), opts...)
	}

	// Stdin can be read only once.
	if r.Template == stdinSource {
		tmpl, err := load()
		if err != nil {
			return err
		}

		load = func() (*lang.Template, error) { return tmpl, nil }
	}

	var out string

	for i := range max(r.Repeat, 1) {
		start := time.Now()

		tmpl, err := load()
		if err != nil {
			return err
		}

		out, err = tmpl.Render(ctx, vars)
		if err != nil {
			return lang.WrapError(err).With(
				slog.String("template", tmpl.Origin),
				slog.String("render_id", id))
		}

		logger.DebugContext(ctx, "render complete",
			slog.Int("pass", i+1),
			slog.String("template", tmpl.Origin),
			slog.Int("bytes", len(out)),
			slog.Duration("elapsed", time.Since(start)))
	}

	stats := cache.Stats()

	logger.DebugContext(ctx, "cache stats",
		slog.Bool("dev", cache.Development()),
		slog.Int64("compiles", stats.Compiles),
		slog.Int64("hits", stats.Hits),
		slog.Int("entries", stats.Entries))

	return r.write(out)
}

// build assembles the template context: data files, then SQL rows, then
// expression bindings, each able to see the names bound before it.
func (r *Vars) build(ctx context.Context) (lang.Context, error) {
	vars, err := data.LoadAll(uniquePaths(r.Data)...)
	if err != nil {
		return lang.Context{}, ErrReadInput.Wrap(err)
	}

	if len(r.Query) > 0 {
		if r.DB == "" {
			return lang.Context{}, ErrInvalidArg.Wrapf("--query requires --db")
		}

		db, err := store.Open(ctx, r.DB)
		if err != nil {
			return lang.Context{}, err
		}
		defer db.Close()

		if vars, err = db.Bind(ctx, vars, r.Query...); err != nil {
			return lang.Context{}, err
		}
	}

	return data.Assign(vars, r.Set...)
}

func (r *Render) input() io.Reader {
	if r.stdin != nil {
		return r.stdin
	}

	return os.Stdin
}

func (r *Render) write(out string) error {
	if r.Output != "" {
		if err := atomic.WriteFile(r.Output, bytes.NewReader([]byte(out))); err != nil {
			return ErrWriteOutput.Wrapf("%s", r.Output).Wrap(err)
		}

		return nil
	}

	w := r.stdout
	if w == nil {
		w = os.Stdout
	}

	if _, err := io.WriteString(w, out); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
