package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"funding-rate-alerts/internal/app"
)

var (
	showMinRate float64
	showStats   bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the stored funding snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showMinRate < 0 {
			return fmt.Errorf("--min-rate cannot be negative")
		}

		opts := app.ShowOptions{
			MinRate: showMinRate,
			Stats:   showStats,
		}

		return getApp().Show(cmd.Context(), opts)
	},
}

func init() {
	showCmd.Flags().Float64Var(&showMinRate, "min-rate", 0, "Only show tickers with an absolute rate at or above this percent")
	showCmd.Flags().BoolVar(&showStats, "stats", false, "Show storage statistics instead of rates")
}
