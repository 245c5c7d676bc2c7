package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/catalogsync"
	"github.com/aurora-audio/feedsmith/internal/config"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile the catalog against the published feed",
		Long: `Reads the published feed and makes the catalog match it: flips
submitted_to_feed both directions and synthesizes catalog records for feed
items that have none. Safe to re-run; the second pass is a no-op.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, err := config.Load(flagChannelPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			blobs, docs, cleanup, err := newStores(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			feedXML, err := blobs.Read(ctx, channel.FeedPath)
			if err != nil {
				return fmt.Errorf("read published feed %s: %w", channel.FeedPath, err)
			}

			sync := catalogsync.New(docs, assets.NewVerifier(blobs))
			report, err := sync.Reconcile(ctx, feedXML)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "reconciled %d feed items: +%d marked, -%d unmarked, %d synthesized\n",
				report.FeedItems, len(report.Marked), len(report.Unmarked), len(report.Synthesized))
			return nil
		},
	}
	return cmd
}
