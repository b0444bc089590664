package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
	"github.com/natefinch/atomic"

	"github.com/ardnew/etpl/log"
	"github.com/ardnew/etpl/profile"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.Wrapf("%s", confPath).Wrap(ErrFileExists)
	}

	doc, err := yaml.MarshalWithOptions(i.settings(ctx), yaml.Indent(defaultConfigIndent))
	if err != nil {
		return ErrWriteConfig.Wrapf("%s", confPath).Wrap(err)
	}

	if err := atomic.WriteFile(confPath, bytes.NewReader(doc)); err != nil {
		return ErrWriteConfig.Wrapf("%s", confPath).Wrap(err)
	}

	log.DebugContext(ctx, "initialized configuration file",
		slog.String("path", confPath),
		slog.Int("bytes", len(doc)))

	return nil
}

// settings returns the global flags and their current values in
// declaration order, keyed by flag name.
func (i *Init) settings(ctx context.Context) yaml.MapSlice {
	ktx := kongContextFrom(ctx)

	var out yaml.MapSlice

	prefixIgnore := []string{"help", "version", profile.Tag}

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || slices.ContainsFunc(prefixIgnore, func(s string) bool {
			return strings.HasPrefix(flag.Name, s)
		}) {
			continue
		}

		if val := flagValue(ktx, flag); val != nil {
			out = append(out, yaml.MapItem{Key: flag.Name, Value: val})
		}
	}

	return out
}

// flagValue returns the YAML value for a CLI flag, or nil if it is unset.
// Secrets are never written.
func flagValue(ktx *kong.Context, flag *kong.Flag) any {
	if flag.Name == "key" {
		return nil
	}

	switch v := ktx.FlagValue(flag).(type) {
	case nil:
		return nil

	case string:
		if v == "" {
			return nil
		}

		return v

	case []string:
		if len(v) == 0 {
			return nil
		}

		return v

	case bool, int, int64, float64:
		return v

	case interface{ String() string }:
		return v.String()

	default:
		return v
	}
}
