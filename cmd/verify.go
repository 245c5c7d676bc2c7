package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurora-audio/feedsmith/internal/assets"
	"github.com/aurora-audio/feedsmith/internal/canonical"
)

func newVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify ID",
		Short: "Check that an episode's audio, description and thumbnail exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			if !canonical.IsCanonical(id) {
				return fmt.Errorf("not a canonical id: %q", id)
			}

			ctx := cmd.Context()
			blobs, _, cleanup, err := newStores(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			verifier := assets.NewVerifier(blobs)
			triad, err := verifier.Gate(ctx, id)

			var incomplete *assets.IncompleteAssetsError
			if errors.As(err, &incomplete) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: INCOMPLETE (missing: %v)\n", id, incomplete.Missing)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (audio %d bytes, thumbnail %s)\n", id, triad.AudioSize, triad.ThumbnailPath)
			return nil
		},
	}
	return cmd
}
