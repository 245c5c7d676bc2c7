package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/canonical"
	"github.com/aurora-audio/feedsmith/internal/models"
)

func newAllocateCmd() *cobra.Command {
	var format string
	var after string
	var title string

	cmd := &cobra.Command{
		Use:   "allocate CATEGORY",
		Short: "Allocate the next free canonical id for a category",
		Long: `Computes the next free canonical id for a category and format, verified
against the blob store so an existing episode is never overwritten.

The guarantee is optimistic: if a concurrent job takes the slot before your
upload lands, re-run with --after to allocate past the lost id.`,
		Example: `  # Next evergreen physics id
  feedsmith allocate physics

  # Next news slot for today
  feedsmith allocate chemistry --format news

  # Recover after losing ever-phys-000412 to a concurrent upload
  feedsmith allocate physics --after ever-phys-000412`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := models.ParseFormat(format)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			blobs, docs, cleanup, err := newStores(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			allocator := canonical.NewAllocator(blobs, docs)

			var id string
			if after != "" {
				id, err = allocator.Reallocate(ctx, args[0], f, title, after)
			} else {
				id, err = allocator.Allocate(ctx, args[0], f, title)
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "evergreen", "Episode format (evergreen or news)")
	cmd.Flags().StringVar(&after, "after", "", "Reallocate past this id after a lost write")
	cmd.Flags().StringVarP(&title, "title", "t", "", "Working title recorded in the allocation log")

	return cmd
}
