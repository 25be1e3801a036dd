package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "plated-rewards",
	Short:         "Gamification reward engine for the Plated recipe app",
	Long:          "Serves XP, coins, streaks, the Daily Chaos Ingredient and skill-track progress behind the API gateway.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}
