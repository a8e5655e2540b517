package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/fspreiss/metrics-proxy/pkg/config"
	"github.com/fspreiss/metrics-proxy/pkg/server"
	"github.com/fspreiss/metrics-proxy/pkg/telemetry/logging"
	"github.com/fspreiss/metrics-proxy/pkg/telemetry/metrics"
)

var runFlags struct {
	logLevel string
	dryRun   bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the metrics proxy",
	Long: `Start the metrics proxy with the specified configuration.

One HTTP server is started per configured listen address. Each request
fetches the backend's metrics, applies the route's label filter rules,
and answers with the rewritten snapshot.

Examples:
  # Start with default config
  metrics-proxy run

  # Start with custom config
  metrics-proxy run --config /etc/metrics-proxy/config.yaml

  # Validate config without starting the proxy
  metrics-proxy run --dry-run`,
	RunE: runProxy,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the proxy")
}

func runProxy(cmd *cobra.Command, args []string) error {
	cfg, topology, err := config.LoadTopology(cfgFile)
	if err != nil {
		return fmt.Errorf("cannot load configuration from %s: %w", cfgFile, err)
	}

	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.Setup(&cfg.Telemetry.Logging, os.Stdout)
	if err != nil {
		return fmt.Errorf("cannot set up logging: %w", err)
	}

	if runFlags.dryRun {
		fmt.Printf("configuration %s is valid (%d listeners)\n", cfgFile, len(topology.Listeners))
		return nil
	}

	logger.Info("configuration loaded",
		"path", cfgFile,
		"listeners", len(topology.Listeners),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics)

	if cfg.Telemetry.Metrics.Enabled {
		metricsServer := metrics.NewServer(&cfg.Telemetry.Metrics, collector)
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("telemetry server stopped", "error", err)
			}
		}()
	}

	sweeper, err := startStateSweeper(cfg, topology, collector, logger)
	if err != nil {
		return fmt.Errorf("cannot start filter state sweeper: %w", err)
	}
	if sweeper != nil {
		defer sweeper.Stop()
	}

	srv := server.NewServer(topology, collector, logger)
	return srv.Start(ctx)
}

// startStateSweeper schedules the periodic removal of filter state entries
// whose series have disappeared from the backend. Returns nil when no
// schedule is configured.
func startStateSweeper(cfg *config.Config, topology *config.Topology, collector *metrics.Collector, logger *slog.Logger) (*cron.Cron, error) {
	schedule := cfg.Telemetry.Metrics.StateSweepSchedule
	if schedule == "" {
		return nil, nil
	}

	retention := cfg.Telemetry.Metrics.StateRetention
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		now := time.Now()
		removed := 0
		for _, listener := range topology.Listeners {
			for _, route := range listener.Routes {
				removed += route.FilterState.Sweep(retention, now)
				collector.UpdateFilterStateSize(route.Path, route.FilterState.Len())
			}
		}
		collector.RecordSweep(removed)
		logger.Debug("filter state sweep completed",
			"removed", removed,
			"retention", retention.String(),
		)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	logger.Info("filter state sweeper started",
		"schedule", schedule,
		"retention", retention.String(),
	)
	return c, nil
}
