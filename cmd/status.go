package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/catalogsync"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status ID",
		Short: "Show the three diagnostic booleans for an episode",
		Long: `Answers, for one episode: assigned id? all assets present? currently in
the feed?`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			blobs, docs, cleanup, err := newStores(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			sync := catalogsync.New(docs, assets.NewVerifier(blobs))
			st, err := sync.Status(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id:        %s\n", st.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "assigned:  %t\n", st.Assigned)
			fmt.Fprintf(cmd.OutOrStdout(), "assets:    %t", st.AssetsComplete)
			if len(st.Missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), " (missing: %v)", st.Missing)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "in feed:   %t\n", st.InFeed)
			return nil
		},
	}
	return cmd
}
