package main

import (
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/meigma/ezark"
)

func newInspectCmd(a *app) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:     "inspect ARCHIVE",
		Aliases: []string{"i"},
		Short:   "Print the tree stored in an archive",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("color") {
				mode = a.cfg.Color
			}
			cfg := a.cfg
			cfg.Color = mode
			if err := cfg.validate(); err != nil {
				return err
			}

			af, err := ezark.OpenFile(args[0], ezark.WithReaderLogger(a.logger))
			if err != nil {
				return err
			}
			defer af.Close()

			var opts []ezark.PrintOption
			if useColor(mode, a.stdout) {
				dir := color.New(color.FgBlue, color.Bold)
				dir.EnableColor()
				opts = append(opts, ezark.PrintWithDirStyle(func(s string) string {
					return dir.Sprint(s)
				}))
			}
			return af.PrintTree(a.stdout, opts...)
		},
	}
	cmd.Flags().StringVar(&mode, "color", "auto", "color directory names: auto, always or never")
	return cmd
}

// useColor resolves a color mode against the output stream. In auto mode
// color is used only for terminals and only when NO_COLOR is unset.
func useColor(mode string, w io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
