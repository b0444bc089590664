package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/etpl/cli/cmd"
	"github.com/ardnew/etpl/pkg"
)

// CLI is the top-level command-line interface for etpl.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Dev      bool     `help:"Recompile templates on every load."`
	Key      string   `env:"${keyEnv}"  help:"Hex-encoded AES key for encrypt_number and decrypt_number." placeholder:"HEX"`
	Snippets []string `help:"YAML or TOML snippet file(s)."             type:"existingfile"`
	Path     []string `help:"Directories searched for templates."       type:"existingdir"`

	Render cmd.Render `cmd:"" default:"withargs" help:"Render a template"`
	Check  cmd.Check  `cmd:""                    help:"Check templates for parse errors"`
	Dump   cmd.Dump   `cmd:""                    help:"Print the parsed form of a template"`
	ID     cmd.ID     `cmd:"" name:"id"          help:"Encrypt or decrypt identifiers"`
	Keygen cmd.Keygen `cmd:""                    help:"Generate a secureid key"`
	Repl   cmd.Repl   `cmd:""                    help:"Evaluate expressions interactively"`
	Init   cmd.Init   `cmd:""                    help:"Initialize configuration file"`
}

// settings returns the global flags for the commands, with the search path
// extended by the environment.
func (c *CLI) settings() cmd.Settings {
	return cmd.Settings{
		Dev:      c.Dev,
		Key:      c.Key,
		Snippets: c.Snippets,
		Path:     searchPath(c.Path...),
	}
}

// Run executes the etpl CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  pkg.CacheDir(),
		"keyEnv":             pkg.EnvPrefix() + "_KEY",
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position.
	cli.Log.scan(args)

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve, configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSettings(ctx, cli.settings())

	cli.Log.start(ctx)

	// [pprofConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
