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
	Use:   "metrics-proxy",
	Short: "Filtering reverse proxy for Prometheus scrape targets",
	Long: `Metrics-proxy is a reverse proxy that sits between a Prometheus server
and one or more exporters.

On every scrape it fetches the backend's metrics, applies the configured
label filter rules, and answers with the rewritten snapshot. Rules can:
  - Drop series matching a pattern
  - Keep series and stop further processing
  - Reduce the time resolution of series whose values rarely change

Multiple proxies can share a listen address as long as their transport
settings agree; each path maps to its own backend and rule set.`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
