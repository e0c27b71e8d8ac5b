package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "callisto",
	Short: "Callisto - resilience core for LLM provider dispatch",
	Long: `Callisto is a resilience and routing core for LLM provider dispatch.

It races ranked provider candidates under circuit breaker and adaptive
timeout protection, returning the first success:
  - Per-provider circuit breakers with adaptively tuned thresholds
  - Adaptive timeout estimation from observed latency
  - Health-ranked first-success-wins fallback racing
  - Kind-aware retry strategies
  - Durable outcome journaling with scheduled retention

For more information, visit: https://github.com/mercator-hq/callisto`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
