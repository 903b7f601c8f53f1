package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/rhythm/pkg/cli"
	"mercator-hq/rhythm/pkg/config"
	"mercator-hq/rhythm/pkg/prune"
	"mercator-hq/rhythm/pkg/ratelimit"
	"mercator-hq/rhythm/pkg/server"
	"mercator-hq/rhythm/pkg/telemetry"
	"mercator-hq/rhythm/pkg/telemetry/health"
	"mercator-hq/rhythm/pkg/telemetry/tracing"
	"mercator-hq/rhythm/pkg/vipstore"
)

// telemetryShutdownTimeout bounds the final trace flush.
const telemetryShutdownTimeout = 5 * time.Second

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Rhythm server",
	Long: `Start the Rhythm rate limiter server with the specified configuration.

The server builds the limiter from the limiter section, applies VIP overrides
from the config file and the VIP store, prunes idle buckets on schedule and
serves the decision API until SIGINT or SIGTERM. SIGHUP, or a change to the
config file when watch is enabled, reloads VIP overrides and the log level.

Examples:
  # Start with default config
  rhythm run

  # Start with custom config
  rhythm run --config /etc/rhythm/config.yaml

  # Override listen address
  rhythm run --listen 0.0.0.0:8080

  # Validate config without starting server
  rhythm run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
	completeFlagValues(runCmd, "log-level", logLevelValues)
}

func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	if err := config.Initialize(cfgFile); err != nil {
		return cli.WrapConfigError(err)
	}
	cfg := config.GetConfig()

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
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError(err)
	}

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	tracing.Version = Version
	tel, err := telemetry.New(&cfg.Telemetry)
	if err != nil {
		return cli.WrapConfigError(err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(ctx); err != nil {
			tel.Logger().Error("telemetry shutdown failed", "error", err)
		}
	}()

	logger := tel.Logger()
	slog.SetDefault(logger.Slog())

	printBanner(out, cfg)

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	// Build the limiter
	opts := append(cfg.Limiter.Options(),
		ratelimit.WithObserver(tel.Metrics()),
		ratelimit.WithLogger(logger.Slog()),
	)
	limiter, err := ratelimit.New[string](cfg.Limiter.RateLimit(), opts...)
	if err != nil {
		return cli.WrapConfigError(err)
	}
	if err := tel.Metrics().RegisterStats(limiter.Stats); err != nil {
		return cli.NewCommandError("run", err)
	}
	if err := tel.Metrics().RegisterRuntime(); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintf(out, "✓ Limiter initialized (capacity %d, refill %d per %s)\n",
		cfg.Limiter.Capacity, cfg.Limiter.RefillRate, cfg.Limiter.RefillInterval)

	// VIP overrides: the file first, then the store so runtime changes win
	store, err := vipstore.Open(cfg.VIPStore)
	if err != nil {
		return cli.NewCommandError("run", fmt.Errorf("failed to open vip store: %w", err))
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close vip store", "error", err)
			}
		}()
	}

	set, _, err := reconcileVIPs(ctx, limiter, store, nil, cfg.VIPs)
	if err != nil {
		return cli.WrapConfigError(err)
	}
	restored := 0
	if store != nil {
		restored, err = vipstore.Restore(ctx, store, limiter)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
	}
	fmt.Fprintf(out, "✓ VIP overrides applied (%d from config, %d from %s store)\n",
		set, restored, cfg.VIPStore.Backend)

	// Health checks
	tel.Health().RegisterCheck("limiter", health.LimiterCheck(limiter, cfg.Limiter.Eviction.MaxBuckets))
	if store != nil {
		tel.Health().RegisterCheck("vip_store", health.PingCheck(store))
	}

	// Idle bucket pruning
	pruner := prune.NewScheduler(limiter, prune.Config{
		Schedule: cfg.Limiter.Eviction.PruneSchedule,
		IdleTTL:  cfg.Limiter.Eviction.IdleTTL,
	}, logger.Slog())
	if err := pruner.Start(ctx); err != nil {
		return cli.WrapConfigError(err)
	}
	defer pruner.Stop()

	// Reloads from SIGHUP and, if enabled, file changes
	reload := newReloader(cfgFile, limiter, store, logger)
	go func() {
		for range cli.NotifyReload(ctx) {
			logger.Info("received SIGHUP, reloading configuration")
			if err := reload.Reload(ctx); err != nil {
				logger.Error("configuration reload failed", "error", err)
			}
		}
	}()

	if cfg.Watch {
		watcher, err := config.NewWatcher(cfgFile, 0, logger.Slog())
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx, func() error { return reload.Reload(ctx) }); err != nil {
				logger.Error("config watcher failed", "error", err)
			}
		}()
	}

	srv, err := server.New(&cfg.Server, server.Deps{
		Limiter:   limiter,
		Store:     store,
		Logger:    logger,
		Metrics:   tel.Metrics(),
		Tracer:    tel.Tracer(),
		Health:    tel.Health(),
		Telemetry: cfg.Telemetry,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}

	stats := limiter.Stats()
	logger.Info("server stopped",
		"allowed", stats.Allowed,
		"denied", stats.Denied,
		"buckets", stats.Buckets,
	)
	return nil
}

// printBanner prints the startup summary.
func printBanner(w io.Writer, cfg *config.Config) {
	fmt.Fprintf(w, "Rhythm %s\n", Version)
	fmt.Fprintf(w, "  Locking:    %s\n", cfg.Limiter.Locking)
	if cfg.Limiter.Eviction.MaxBuckets > 0 {
		fmt.Fprintf(w, "  Max buckets: %d\n", cfg.Limiter.Eviction.MaxBuckets)
	}
	if cfg.Limiter.Eviction.IdleTTL > 0 {
		fmt.Fprintf(w, "  Idle TTL:   %s (%s)\n", cfg.Limiter.Eviction.IdleTTL, cfg.Limiter.Eviction.PruneSchedule)
	}
	fmt.Fprintf(w, "  VIP store:  %s\n", cfg.VIPStore.Backend)
	fmt.Fprintf(w, "  Metrics:    %t\n", cfg.Telemetry.Metrics.Enabled)
	fmt.Fprintf(w, "  Tracing:    %t\n", cfg.Telemetry.Tracing.Enabled)
	fmt.Fprintf(w, "  Watch:      %t\n", cfg.Watch)
	fmt.Fprintln(w)
}
