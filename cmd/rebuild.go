package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/catalogsync"
	"github.com/aurora-audio/feedsmith/internal/config"
	"github.com/aurora-audio/feedsmith/internal/feed"
)

func newRebuildCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Rebuild the feed from the catalog and publish it",
		Long: `Assembles the feed from every publishable catalog record whose asset
triad verifies, publishes the rendered XML to the configured feed path, and
reconciles the catalog's submitted_to_feed flags against the result.

The feed is a derived artifact: rebuilding is always safe.`,
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

			verifier := assets.NewVerifier(blobs)
			sync := catalogsync.New(docs, verifier)
			assembler := feed.NewAssembler(blobs, verifier, *channel)

			records, err := sync.Publishable(ctx)
			if err != nil {
				return err
			}

			doc, err := assembler.Build(ctx, records)
			if err != nil {
				return err
			}

			if dryRun {
				data, err := feed.Render(doc)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			data, err := assembler.Publish(ctx, doc)
			if err != nil {
				return err
			}

			report, err := sync.Reconcile(ctx, data)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "feed published: %d items, %d skipped, %d flags updated\n",
				len(doc.Items), len(doc.Skipped), len(report.Marked)+len(report.Unmarked))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the rendered feed instead of publishing")

	return cmd
}
