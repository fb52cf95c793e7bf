package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "salvo",
	Short: "Fire declarative HTTP request batches.",
	Long: `salvo fires batches of HTTP requests defined in YAML files against an
API, with retries, pacing, expectations and context chaining between
requests. Point it at a batch file and it tells you what passed.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
