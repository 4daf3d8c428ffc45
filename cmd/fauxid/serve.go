// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Fauxid Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/fauxid/fauxid/internal/auth"
	"github.com/fauxid/fauxid/internal/config"
	"github.com/fauxid/fauxid/internal/logging"
	"github.com/fauxid/fauxid/pkg/errutil"
)

// shutdownTimeout bounds how long serve waits for servers to stop.
const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	defaults := config.Default()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the identity engine",
		Long: `Run the identity engine with metrics and health endpoints until
interrupted. Lifecycle events are logged and expired password reset
tokens are purged in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServeWithDeps(cmd.Context(), cmd, nil)
		},
	}

	cmd.Flags().String("log-format", defaults.Log.Format, "log format (json or text)")
	cmd.Flags().String("log-level", defaults.Log.Level, "log level (debug, info, warn, error)")
	cmd.Flags().String("metrics-addr", defaults.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")

	return cmd
}

// runServeWithDeps runs the engine until ctx is cancelled or SIGINT/SIGTERM
// arrives. A nil deps uses the defaults.
func runServeWithDeps(ctx context.Context, cmd *cobra.Command, deps *ServeDeps) error {
	deps = deps.withDefaults()
	if ctx == nil {
		ctx = context.Background()
	}

	path, err := resolveConfigPath(configFile, deps.ConfigFileFinder)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return oops.With("config", path).Wrapf(err, "invalid configuration")
	}

	logger, err := logging.SetDefault(logging.Options{
		Service: "fauxid",
		Version: version,
		Format:  cfg.Log.Format,
		Level:   cfg.Log.Level,
		Writer:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return oops.Wrapf(err, "failed to set up logging")
	}
	logger.Info("starting fauxid", "config", path, "token_format", cfg.Tokens.Format, "hasher", cfg.Passwords.Hasher)

	var ready atomic.Bool
	var obsServer ObservabilityServer
	var metrics *auth.Metrics
	if cfg.Metrics.Addr != "" {
		obsServer = deps.ObservabilityServerFactory(cfg.Metrics.Addr, ready.Load, logger)
		metrics = auth.NewMetrics(obsServer.Registry())
	}

	opts, err := coreOptions(cfg, logger, metrics)
	if err != nil {
		return oops.Wrapf(err, "failed to build identity core")
	}
	core := auth.NewCore(opts...)
	defer core.Close()

	stopObserving := core.Lifecycle().Observe(func(event auth.LifecycleEvent) {
		logger.Info("account lifecycle event",
			"event_id", event.ID,
			"kind", string(event.Kind),
			"account_id", event.AccountID,
			"occurred_at", event.OccurredAt,
		)
	})
	defer stopObserving()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var workers sync.WaitGroup
	workers.Add(1)
	go func() {
		defer workers.Done()
		core.Resets().RunPurger(ctx, cfg.Reset.PurgeInterval.Std())
	}()

	if obsServer != nil {
		obsErrCh, err := obsServer.Start()
		if err != nil {
			cancel()
			workers.Wait()
			return oops.Wrapf(err, "failed to start observability server")
		}
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability", logger)
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	ready.Store(true)
	cmd.Println("fauxid ready")
	logger.Info("fauxid ready", "metrics_addr", cfg.Metrics.Addr)
	if deps.Started != nil {
		deps.Started()
	}

	<-sigCtx.Done()
	logger.Info("shutting down")
	ready.Store(false)
	cancel()
	workers.Wait()

	if obsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := obsServer.Stop(shutdownCtx); err != nil {
			errutil.LogError(logger, "error stopping observability server", err)
		}
	}

	logger.Info("shutdown complete")
	return nil
}

// monitorServerErrors cancels ctx when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, logger *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			logger.Error("server error, triggering shutdown", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
