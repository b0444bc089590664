package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/etpl/data"
	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/log"
)

const defaultEditor = "vi"

// editContextCommand implements [tea.ExecCommand] for the context
// edit-decode-retry loop. It writes the current context to a temp file as
// YAML, opens the user's editor, and decodes the result. On a decode error
// the user is prompted to re-edit; declining exits the program.
type editContextCommand struct {
	vars    lang.Context
	ctxFunc func() context.Context
	result  *lang.Context
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editContextCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editContextCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editContextCommand) SetStderr(w io.Writer) { c.stderr = w }

// contextYAML encodes vars as a YAML document in name order.
func contextYAML(vars lang.Context) ([]byte, error) {
	doc := make(yaml.MapSlice, 0, vars.Len())

	for _, name := range vars.Names() {
		v, _ := vars.Get(name)
		doc = append(doc, yaml.MapItem{Key: name, Value: v.ToNative()})
	}

	return yaml.Marshal(doc)
}

// Run executes the edit loop. An emptied file cancels the edit and leaves
// result nil. If the user declines to re-edit, it returns [ErrEditDeclined].
func (c *editContextCommand) Run() error {
	ctx := c.ctxFunc()

	content, err := contextYAML(c.vars)
	if err != nil {
		return ErrEdit.Wrap(err)
	}

	f, err := os.CreateTemp(os.TempDir(), "etpl-repl-*.yaml")
	if err != nil {
		return ErrEdit.Wrap(err)
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Close(); err != nil {
		return ErrEdit.Wrap(err)
	}

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return ErrEdit.Wrap(err)
		}

		if err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath); err != nil {
			return ErrEdit.Wrap(err)
		}

		content, err = os.ReadFile(tmpPath)
		if err != nil {
			return ErrEdit.Wrap(err)
		}

		if strings.TrimSpace(string(content)) == "" {
			return nil
		}

		vars, decodeErr := data.Decode(content, data.FormatYAML)

		c.logger.TraceContext(ctx, "editor decode attempt",
			slog.Int("bytes", len(content)),
			slog.Bool("success", decodeErr == nil))

		if decodeErr == nil {
			c.result = &vars

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		switch strings.TrimSpace(strings.ToLower(scanner.Text())) {
		case "n", "no":
			return ErrEditDeclined
		}
	}
}

// runEditor runs $EDITOR, or vi, on path.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	return cmd.Run()
}
