package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/ezark"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info ARCHIVE",
		Short: "Print archive statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			af, err := ezark.OpenFile(args[0], ezark.WithReaderLogger(a.logger))
			if err != nil {
				return err
			}
			defer af.Close()

			s := af.Stats()
			total := uint64(af.Header().BlobOffset + s.BlobSize) //nolint:gosec // sizes of an opened file are non-negative
			_, err = fmt.Fprintf(a.stdout,
				"files:        %d\n"+
					"directories:  %d\n"+
					"index size:   %s\n"+
					"blob size:    %s\n"+
					"archive size: %s\n",
				s.Files,
				s.Dirs,
				humanize.IBytes(uint64(s.IndexSize)), //nolint:gosec // non-negative
				humanize.IBytes(uint64(s.BlobSize)),  //nolint:gosec // non-negative
				humanize.IBytes(total),
			)
			return err
		},
	}
}
