package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagLocal       bool
	flagChannelPath string
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedsmith",
		Short: "Canonical episode ids and podcast feed assembly",
		Long: `Feedsmith assigns permanent, collision-free canonical identifiers to
AI-generated podcast episodes and assembles them into an RSS/iTunes/
Podcasting 2.0 feed that podcast directories accept.

Episode assets live in a blob store (audio/, descriptions/, thumbnails/);
the episode catalog and the numbering ledger live in a document store.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().BoolVar(&flagLocal, "local", false, "Use in-memory stores instead of GCS/Firestore")
	cmd.PersistentFlags().StringVar(&flagChannelPath, "channel", "channel.yaml", "Path to the channel config YAML")

	cmd.AddCommand(newAllocateCmd())
	cmd.AddCommand(newVerifyCmd())
	cmd.AddCommand(newRebuildCmd())
	cmd.AddCommand(newReconcileCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}
