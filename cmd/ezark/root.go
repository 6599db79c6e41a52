package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app carries state shared by every subcommand. It is filled in by the root
// command's PersistentPreRunE before any subcommand runs.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool
	logFormat  string

	cfg    config
	logger *slog.Logger
	sync   func() error
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr}
	var showVersion bool

	cmd := &cobra.Command{
		Use:   "ezark",
		Short: "ezark: Easy Archiver",
		Long: `ezark packs files and directories into a single archive file and
extracts them again. An archive holds a tree index and the concatenated
file contents; no compression or file metadata is stored.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Flags())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.sync != nil {
				_ = a.sync()
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				return printVersion(a.stdout)
			}
			return cmd.Help()
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "print each step")
	flags.StringVar(&a.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/ezark/config.ini)")
	flags.StringVar(&a.logFormat, "log-format", "console", "log output format: console or json")
	cmd.Flags().BoolVarP(&showVersion, "version", "V", false, "print the version and exit")

	cmd.AddCommand(
		newMakeCmd(a),
		newExtractCmd(a),
		newInspectCmd(a),
		newInfoCmd(a),
		newVersionCmd(a),
	)
	return cmd
}

// setup loads the config file, applies flag overrides and builds the logger.
func (a *app) setup(flags *pflag.FlagSet) error {
	cfg, err := loadConfig(findConfig(a.configPath))
	if err != nil {
		return err
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if !cfg.Verbose {
		return nil
	}
	logger, sync, err := newLogger(a.stderr, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.logger, a.sync = logger, sync
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return printVersion(a.stdout)
		},
	}
}

func printVersion(w io.Writer) error {
	_, err := fmt.Fprintf(w, "ezark version: %s\n", version)
	return err
}
