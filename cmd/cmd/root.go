package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"newswire/cmd/handlers"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "newswire",
	Short: "Newswire aggregates, clusters and verifies news from RSS feeds.",
	Long: `Newswire is a multi-source news backend. It polls a catalog of RSS
feeds, groups articles about the same event into story clusters, tracks how
many independent outlets corroborate each story, and generates neutral
summaries with an LLM.

Run "newswire serve" to start the full pipeline, or use the one-shot
subcommands (poll, sweep, backfill) to drive individual stages.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env variables override)")

	rootCmd.AddCommand(handlers.NewServeCmd(&cfgFile))
	rootCmd.AddCommand(handlers.NewPollCmd(&cfgFile))
	rootCmd.AddCommand(handlers.NewSweepCmd(&cfgFile))
	rootCmd.AddCommand(handlers.NewBackfillCmd(&cfgFile))
	rootCmd.AddCommand(handlers.NewMigrateCmd(&cfgFile))
	rootCmd.AddCommand(handlers.NewCleanupCmd(&cfgFile))
}
