package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/catalogsync"
	"github.com/aurora-audio/feedsmith/internal/export"
)

func newExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the episode catalog as a Parquet snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			blobs, docs, cleanup, err := newStores(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sync := catalogsync.New(docs, assets.NewVerifier(blobs))
			records, err := sync.All(ctx)
			if err != nil {
				return err
			}

			if err := export.WriteSnapshot(output, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(records), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "catalog.parquet", "Output file path")

	return cmd
}
