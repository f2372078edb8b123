package cli

import (
	"context"

	"github.com/alecthomas/kong"

	"github.com/ardnew/ribosome/cli/cmd"
	"github.com/ardnew/ribosome/pkg"
)

// CLI is the top-level command-line interface for ribosome.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `help:"Print version and exit" short:"V"`

	Run  cmd.Run  `cmd:"" default:"withargs" help:"Generate text from a template"`
	RNA  cmd.RNA  `cmd:"" help:"Print the program translated from a template" name:"rna"`
	Init cmd.Init `cmd:"" help:"Initialize configuration file"`
	Repl cmd.Repl `cmd:"" help:"Compose templates interactively"`
}

// Run executes the ribosome CLI with the given context and arguments.
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
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.Name + " " + pkg.Version,
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Logger flags apply before parsing so that parse errors are logged
	// as configured, wherever the flags appear.
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

	// Settings that do not go through UnmarshalText (time layout, caller)
	// take effect here.
	cli.Log.start(ctx)

	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}
