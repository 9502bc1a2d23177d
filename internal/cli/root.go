package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "nudge",
	Short: "Recommendation decision engine for the organizer app",
	Long:  "Nudge generates, times out, and rate-limits AI suggestions for the personal organizer, and resolves the user's swipe decisions against a refreshing quota.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(swipeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(limitsCmd)
	rootCmd.AddCommand(historyCmd)
}
