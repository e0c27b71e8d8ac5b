package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/resilience"
	"mercator-hq/callisto/pkg/resilience/breaker"
	"mercator-hq/callisto/pkg/resilience/fallback"
	"mercator-hq/callisto/pkg/resilience/health"
	"mercator-hq/callisto/pkg/resilience/pool"
	"mercator-hq/callisto/pkg/resilience/retry"
	"mercator-hq/callisto/pkg/resilience/timeout"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/journal"
	"mercator-hq/callisto/pkg/telemetry/logging"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
	format        string
	demo          bool
	demoInterval  time.Duration
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Callisto admin server",
	Long: `Start the Callisto admin server with the specified configuration.

The server exposes the state snapshot and Prometheus metrics endpoints
for the breaker pool, health registry, and outcome journal. With --demo,
synthetic provider traffic drives the fallback race engine so breaker
adaptation, health tiers, and metrics can be observed live.

Examples:
  # Start with default config
  callisto run

  # Start with custom config
  callisto run --config /etc/callisto/config.yaml

  # Override listen address
  callisto run --listen 0.0.0.0:9090

  # Drive synthetic demo traffic through the race engine
  callisto run --demo

  # Validate config without starting server
  callisto run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	runCmd.Flags().StringVar(&runFlags.format, "format", "text", "dry-run output format: text, json")
	runCmd.Flags().BoolVar(&runFlags.demo, "demo", false, "drive synthetic demo traffic through the race engine")
	runCmd.Flags().DurationVar(&runFlags.demoInterval, "demo-interval", 2*time.Second, "interval between demo races")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	}); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		if runFlags.format == string(cli.FormatJSON) {
			formatter := cli.NewFormatter(cli.FormatJSON)
			if err := formatter.FormatTo(os.Stdout, cfg); err != nil {
				return cli.NewCommandError("run", err)
			}
		}
		return nil
	}

	printBanner(cfg)

	ctx, cancel := context.WithCancel(cli.SetupSignalHandler())
	defer cancel()

	// Metrics collector
	collector := metrics.NewCollector(cfg.Telemetry.Metrics, prometheus.NewRegistry())

	// Health registry with configured provider enablement
	registry := health.NewRegistry(health.Config{
		WindowSize:      cfg.Health.WindowSize,
		LatencyBaseline: cfg.Health.LatencyBaseline,
	}, health.WithTierChangeFunc(func(provider string, from, to health.Tier) {
		collector.UpdateHealthTier(provider, int(to))
	}))
	for name, providerCfg := range cfg.Providers {
		registry.SetEnabled(name, providerCfg.IsEnabled())
	}

	sinks := resilience.MultiSink{registry, collector}

	// Outcome journal (if enabled)
	var j *journal.Journal
	if cfg.Journal.IsEnabled() {
		j, err = journal.Open(journal.Config{
			Path:        cfg.Journal.SQLitePath,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			return cli.NewCommandError("run", fmt.Errorf("failed to open outcome journal: %w", err))
		}
		defer j.Close()
		sinks = append(sinks, j)

		pruner := journal.NewPruner(j, journal.RetentionConfig{
			RetentionDays: cfg.Journal.RetentionDays,
			Schedule:      cfg.Journal.RetentionSchedule,
		})
		scheduler := journal.NewScheduler(pruner)
		if err := scheduler.Start(ctx); err != nil {
			slog.Warn("failed to start journal retention scheduler", "error", err)
		} else {
			defer scheduler.Stop()
		}

		fmt.Println("✓ Outcome journal opened")
	}

	// Breaker pool
	timeoutStrategy, err := timeout.ParseStrategy(cfg.Resilience.Timeout.Strategy)
	if err != nil {
		return cli.NewConfigError("resilience.timeout.strategy", err.Error())
	}
	p := pool.New(pool.Config{
		Breaker: breaker.Config{
			FailureThreshold:    cfg.Resilience.Breaker.FailureThreshold,
			MinFailureThreshold: cfg.Resilience.Breaker.MinFailureThreshold,
			MaxFailureThreshold: cfg.Resilience.Breaker.MaxFailureThreshold,
			RecoveryTimeout:     cfg.Resilience.Breaker.RecoveryTimeout,
			SuccessThreshold:    cfg.Resilience.Breaker.SuccessThreshold,
			EMAAlpha:            cfg.Resilience.Breaker.EMAAlpha,
		},
		Timeout: timeout.Config{
			Strategy:       timeoutStrategy,
			InitialTimeout: cfg.Resilience.Timeout.InitialTimeout,
			MinTimeout:     cfg.Resilience.Timeout.MinTimeout,
			MaxTimeout:     cfg.Resilience.Timeout.MaxTimeout,
			WindowSize:     cfg.Resilience.Timeout.WindowSize,
			MarginFactor:   cfg.Resilience.Timeout.MarginFactor,
			Quantile:       cfg.Resilience.Timeout.Quantile,
		},
		AdaptationInterval: cfg.Resilience.AdaptationInterval,
	},
		pool.WithSink(sinks),
		pool.WithBreakerOptions(breaker.WithTransitionFunc(func(provider string, from, to breaker.State) {
			collector.RecordBreakerTransition(provider, from.String(), to.String())
		})),
	)
	defer p.Close()

	// Fallback race engine
	strategy, err := retryStrategy(cfg.Resilience.Retry)
	if err != nil {
		return cli.NewConfigError("resilience.retry.strategy", err.Error())
	}
	engine := fallback.New(fallback.Config{
		FanOut:        cfg.Fallback.FanOut,
		GlobalTimeout: cfg.Fallback.GlobalTimeout,
	}, p, registry, fallback.WithRetryStrategy(strategy))

	go refreshGauges(ctx, p, registry, collector, cfg.Resilience.AdaptationInterval)

	fmt.Printf("✓ Components initialized (%d providers configured)\n", len(cfg.Providers))

	// Config hot-reload: enablement changes apply in place, anything else
	// needs a restart.
	if _, statErr := os.Stat(cfgFile); statErr == nil {
		watcher, werr := config.NewWatcher(cfgFile, slog.Default())
		if werr != nil {
			slog.Warn("config hot-reload unavailable", "error", werr)
		} else {
			defer watcher.Stop()
			go func() {
				// Watch blocks until the context is cancelled.
				if werr := watcher.Watch(ctx, func(next *config.Config) {
					for name, providerCfg := range next.Providers {
						registry.SetEnabled(name, providerCfg.IsEnabled())
					}
					slog.Info("provider enablement reloaded", "providers", len(next.Providers))
				}); werr != nil {
					slog.Warn("config watcher stopped", "error", werr)
				}
			}()
		}
	}

	if runFlags.demo {
		go runDemoTraffic(ctx, engine, collector, demoProviders(cfg), runFlags.demoInterval)
		fmt.Println("✓ Demo traffic started")
	}

	// Admin server
	serverOpts := []server.Option{server.WithJournal(j)}
	if cfg.Telemetry.Metrics.IsEnabled() {
		serverOpts = append(serverOpts, server.WithMetrics(cfg.Telemetry.Metrics.Path, collector.Handler()))
	}
	srv := server.NewServer(cfg.Server, p, registry, serverOpts...)

	fmt.Println()
	fmt.Printf("✓ Admin server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ State endpoint: http://%s/state\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.IsEnabled() {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Start blocks until a signal, context cancellation, or listener error.
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Println("✓ Server stopped")
	return nil
}

// loadConfig reads the configured file, falling back to defaults when the
// default config path does not exist.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if cfgFile == "config.yaml" {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("config file not found: %s", cfgFile)
	}
	return config.LoadWithEnvOverrides(cfgFile)
}

// retryStrategy builds the configured retry strategy.
func retryStrategy(cfg config.RetryConfig) (retry.Strategy, error) {
	switch cfg.Strategy {
	case "immediate":
		return retry.NewImmediate(cfg.MaxAttempts), nil
	case "exponential", "":
		return retry.NewExponential(cfg.MaxAttempts, cfg.BaseDelay, cfg.MaxDelay), nil
	case "adaptive":
		return retry.NewAdaptive(), nil
	default:
		return nil, fmt.Errorf("unknown retry strategy %q", cfg.Strategy)
	}
}

// refreshGauges periodically mirrors pool and registry snapshots into the
// Prometheus gauges (breaker state, failure threshold, effective timeout,
// health tier).
func refreshGauges(ctx context.Context, p *pool.Pool, registry *health.Registry, collector *metrics.Collector, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, m := range p.Snapshot() {
			collector.UpdateBreakerState(m.Provider, m.State)
			collector.UpdateFailureThreshold(m.Provider, m.FailureThreshold)
			collector.UpdateEffectiveTimeout(m.Provider, m.CurrentTimeout)
		}
		for _, snap := range registry.Snapshot() {
			collector.UpdateHealthTier(snap.Provider, int(snap.Tier))
		}
	}
}

func printBanner(cfg *config.Config) {
	fmt.Printf("Callisto v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")

	if len(cfg.Providers) > 0 {
		slog.Debug("providers configured", "count", len(cfg.Providers))
	}
	if cfg.Journal.IsEnabled() {
		slog.Debug("journal enabled", "path", cfg.Journal.SQLitePath)
	}
}
