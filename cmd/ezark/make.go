package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/ezark"
)

func newMakeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "make ARCHIVE [ELEMENT...]",
		Aliases: []string{"m", "create"},
		Short:   "Create an archive from files and directories",
		Long: `Create ARCHIVE from each ELEMENT. Directories are stored recursively;
symbolic links inside them are skipped. ARCHIVE is overwritten if it exists.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest, inputs := args[0], args[1:]
			m, err := ezark.Create(cmd.Context(), dest, inputs, ezark.WithLogger(a.logger))
			if err != nil {
				return err
			}
			if a.logger != nil {
				a.logger.Info("archive created",
					"path", dest,
					"files", len(m.Sources),
					"size", humanize.IBytes(m.Size))
			}
			return nil
		},
	}
}
