// Package app builds the cobra commands of binsort binaries from an options struct
// and a run function.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/binsort-io/binsort/pkg/log"
)

const usageColumns = 100

// RunFunc starts the application after options are loaded and validated.
type RunFunc func() error

// App is a command line application.
type App struct {
	basename    string
	name        string
	description string
	options     CliOptions
	runFunc     RunFunc
	noConfig    bool
	args        cobra.PositionalArgs
	cfgFile     string
	cmd         *cobra.Command
}

// Option configures an App.
type Option func(*App)

func WithOptions(opts CliOptions) Option {
	return func(a *App) { a.options = opts }
}

func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithNoConfig skips the config file and environment; only flags apply.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects positional arguments.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// NewApp creates an application from basename (the binary name) and a short description.
func NewApp(basename, name string, opts ...Option) *App {
	a := &App{basename: basename, name: name}
	for _, o := range opts {
		o(a)
	}
	a.buildCommand()
	return a
}

// Command exposes the underlying cobra command.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the command and exits non-zero on failure.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.basename,
		Short:         a.name,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
	}
	if !a.noConfig {
		addConfigFlag(a.basename, fss.FlagSet("global"), &a.cfgFile)
	}
	fss.FlagSet("global").BoolP("help", "h", false, fmt.Sprintf("Help for %s.", a.basename))

	for _, f := range fss.FlagSets {
		cmd.Flags().AddFlagSet(f)
	}

	if a.runFunc != nil {
		cmd.RunE = a.runCommand
	}

	cliflag.SetUsageAndHelpFunc(cmd, fss, usageColumns)

	a.cmd = cmd
}

func (a *App) runCommand(cmd *cobra.Command, _ []string) error {
	if a.options != nil {
		if err := a.applyOptions(cmd); err != nil {
			return err
		}
	}
	return a.runFunc()
}

func (a *App) applyOptions(cmd *cobra.Command) error {
	if !a.noConfig {
		v, err := loadConfig(a.basename, a.cfgFile, cmd.Flags())
		if err != nil {
			return err
		}
		if err := v.Unmarshal(a.options); err != nil {
			return fmt.Errorf("failed to apply configuration: %w", err)
		}
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if p, ok := a.options.(LogOptionsProvider); ok {
		log.Init(p.LogOptions())
	}
	return nil
}
