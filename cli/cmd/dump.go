package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/etpl/lang"
)

// Dump prints the parsed form of a template.
type Dump struct {
	Text Text `cmd:"" default:"withargs" help:"Print normalized template source (default)."`
	JSON JSON `cmd:""                    help:"Print the syntax tree as JSON."`
	YAML YAML `cmd:""                    help:"Print the syntax tree as YAML."`
}

// Input holds the arguments shared by the dump formats.
type Input struct {
	Indent   int    `default:"2" help:"Indent width." short:"i"`
	Template string `arg:"" default:"-" help:"Template file, or '-' for stdin." name:"template"`

	stdin  io.Reader
	stdout io.Writer
}

func (d *Input) dump(
	ctx context.Context,
	format string,
	fn func(*lang.Template, context.Context, io.Writer, int) error,
) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s := settingsFrom(ctx)

	opts, err := s.options()
	if err != nil {
		return err
	}

	stdin, stdout := d.stdin, d.stdout
	if stdin == nil {
		stdin = os.Stdin
	}

	if stdout == nil {
		stdout = os.Stdout
	}

	tmpl, err := s.loadTemplate(ctx, lang.NewCache(opts...), d.Template, stdin, opts...)
	if err != nil {
		return lang.WrapError(err).With(slog.String("format", format))
	}

	if err := fn(tmpl, ctx, stdout, d.Indent); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}

// Text prints normalized template source. Indent is applied to the code
// of nested block tags.
type Text struct {
	Input `embed:""`
}

// Run executes the text command.
func (t *Text) Run(ctx context.Context) error {
	return t.dump(ctx, "text", (*lang.Template).Format)
}

// JSON prints the syntax tree as JSON.
type JSON struct {
	Input `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.dump(ctx, "json", (*lang.Template).FormatJSON)
}

// YAML prints the syntax tree as YAML. An indent of 0 selects flow style.
type YAML struct {
	Input `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.dump(ctx, "yaml", (*lang.Template).FormatYAML)
}
