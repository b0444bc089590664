package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/ardnew/etpl/cli/cmd/repl"
	"github.com/ardnew/etpl/log"
	"github.com/ardnew/etpl/pkg"
)

// Repl starts an interactive session for evaluating expressions and inline
// templates against a data context.
type Repl struct {
	Vars `embed:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) error {
	s := settingsFrom(ctx)

	globals, err := s.globals()
	if err != nil {
		return err
	}

	vars, err := r.build(ctx)
	if err != nil {
		return err
	}

	cacheDir := pkg.CacheDir()
	if err := os.MkdirAll(cacheDir, 0o700); err != nil {
		log.Default().WarnContext(ctx, "history disabled", slog.Any("error", err))
	}

	return repl.Run(ctx, repl.Config{
		Vars:     vars,
		Globals:  globals,
		CacheDir: cacheDir,
		Logger:   log.Default(),
	})
}
