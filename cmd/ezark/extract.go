package main

import (
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/ezark"
)

func newExtractCmd(a *app) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:     "extract ARCHIVE [DEST]",
		Aliases: []string{"e", "x"},
		Short:   "Extract an archive",
		Long: `Extract ARCHIVE into DEST (default: the current directory). Existing
directories are reused and existing files are overwritten.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dest := "."
			if len(args) == 2 {
				dest = args[1]
			}
			if !cmd.Flags().Changed("workers") {
				workers = a.cfg.Workers
			}

			af, err := ezark.OpenFile(args[0], ezark.WithReaderLogger(a.logger))
			if err != nil {
				return err
			}
			defer af.Close()

			stats, err := af.Extract(cmd.Context(), dest,
				ezark.ExtractWithWorkers(workers),
				ezark.ExtractWithLogger(a.logger),
			)
			if err != nil {
				return err
			}
			if a.logger != nil {
				a.logger.Info("archive extracted",
					"path", dest,
					"files", stats.Files,
					"dirs", stats.Dirs,
					"size", humanize.IBytes(stats.Bytes))
			}
			return af.Close()
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 1, "number of files written concurrently")
	return cmd
}
