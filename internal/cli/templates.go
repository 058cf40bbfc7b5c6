package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage alert message templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all templates with their content",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ListTemplates()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print one template body",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ShowTemplate(args[0])
	},
}

var templatesSetCmd = &cobra.Command{
	Use:   "set <name> <content>",
	Short: "Replace one template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] == "" {
			return fmt.Errorf("template content cannot be empty")
		}
		return getApp().SetTemplate(args[0], args[1])
	},
}

var templatesResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the built-in default templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().ResetTemplates()
	},
}

var templatesPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a sample alert with the current templates",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().PreviewTemplates()
	},
}

func init() {
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesSetCmd)
	templatesCmd.AddCommand(templatesResetCmd)
	templatesCmd.AddCommand(templatesPreviewCmd)
}
