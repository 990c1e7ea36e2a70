// Package commands implements the CLI commands.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	noColor bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "shopscout",
	Short: "ShopScout - shopping assistant from the terminal",
	Long: `ShopScout searches shopping listings, scores them with category-aware
rules and prints a ranked recommendation. It can also analyze listing dumps
offline and inspect the loaded category profiles.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print raw JSON output")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
