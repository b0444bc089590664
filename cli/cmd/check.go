package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/log"
)

// Check compiles templates and reports every parse error found.
type Check struct {
	Templates []string `arg:"" help:"Template files to check." name:"template"`

	stderr io.Writer
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	opts, err := s.options()
	if err != nil {
		return err
	}

	// Every argument is compiled fresh; the cache only resolves paths.
	cache := lang.NewCache(append(opts, lang.WithDevelopment(true))...)

	w := c.stderr
	if w == nil {
		w = os.Stderr
	}

	names := uniquePaths(c.Templates)
	failed := 0

	for _, name := range names {
		tmpl, err := s.loadTemplate(ctx, cache, name, os.Stdin, opts...)
		if err != nil {
			failed++

			fmt.Fprintln(w, err)

			continue
		}

		log.DebugContext(ctx, "template ok",
			slog.String("template", tmpl.Origin),
			slog.Uint64("sum", tmpl.Sum),
			slog.Int("nodes", len(tmpl.Root)))
	}

	if failed > 0 {
		return ErrCheck.Wrapf("%d of %d templates", failed, len(names))
	}

	return nil
}
