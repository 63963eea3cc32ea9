package cmd

import (
	"github.com/spf13/cobra"
)

// RegisterCommands adds every CLI subcommand to rootCmd, following the
// teacher's cli/cmd/root.go registration list.
func RegisterCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(NewLoginCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewCreateCommand())
	rootCmd.AddCommand(NewUpdateCommand())
	rootCmd.AddCommand(NewTriggerCommand())
	rootCmd.AddCommand(NewHistoryCommand())
	rootCmd.AddCommand(NewFoldersCommand())
	rootCmd.AddCommand(NewImportCommand())
}
