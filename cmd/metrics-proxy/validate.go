package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fspreiss/metrics-proxy/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Check a configuration file without starting the proxy.

The same resolution the run command performs is applied: URLs are parsed,
ports and TLS material are checked, filter patterns are compiled, and
proxies sharing a listen address are checked for conflicting settings.
All problems are reported at once rather than stopping at the first.

Examples:
  # Validate the default config
  metrics-proxy validate

  # Validate a specific file
  metrics-proxy validate --config /etc/metrics-proxy/config.yaml`,
	RunE: validateConfig,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, topology, err := config.LoadTopology(cfgFile)
	if err != nil {
		return fmt.Errorf("configuration %s is invalid: %w", cfgFile, err)
	}

	routes := 0
	for _, listener := range topology.Listeners {
		routes += len(listener.Routes)
	}

	fmt.Printf("configuration %s is valid\n", cfgFile)
	fmt.Printf("  proxies:   %d\n", len(cfg.Proxies))
	fmt.Printf("  listeners: %d\n", len(topology.Listeners))
	fmt.Printf("  routes:    %d\n", routes)

	for _, listener := range topology.Listeners {
		fmt.Printf("  %s (%s)\n", listener.Addr, listener.Transport)
		for path, route := range listener.Routes {
			fmt.Printf("    %s -> %s\n", path, route.Backend.URL)
		}
	}

	return nil
}
