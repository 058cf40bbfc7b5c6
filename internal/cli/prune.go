package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"funding-rate-alerts/internal/app"
)

var pruneOlderThan time.Duration

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete funding records older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		deleted, err := getApp().Prune(cmd.Context(), app.PruneOptions{
			OlderThan: pruneOlderThan,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d records\n", deleted)
		return nil
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "Delete records older than this duration (default: retention.window)")
}
