package cli

import (
	"github.com/spf13/cobra"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Compose and send alerts from the stored snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Alert(cmd.Context())
	},
}
