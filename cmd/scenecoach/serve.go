package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrWong99/scenecoach/internal/app"
	"github.com/MrWong99/scenecoach/internal/config"
	"github.com/MrWong99/scenecoach/internal/health"
	"github.com/MrWong99/scenecoach/internal/observe"
	"github.com/MrWong99/scenecoach/pkg/provider/stt"
)

func newServeCmd(opts *options) *cobra.Command {
	var listenAddr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scene and practice API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.ListenAddr = listenAddr
			}
			return serve(cmd.Context(), opts, cfg)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", config.DefaultListenAddr, "HTTP listen address")
	return cmd
}

// initTelemetry is swapped in tests.
var initTelemetry = observe.InitProvider

func serve(parent context.Context, opts *options, cfg *config.Config) (err error) {
	slog.Info("scenecoach starting",
		"version", version,
		"config", opts.configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := initTelemetry(parent, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	shutdownTelemetry := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return tel.Shutdown(ctx)
	}
	// Until the App owns the telemetry closer, failures here must flush it.
	owned := false
	defer func() {
		if !owned {
			err = errors.Join(err, shutdownTelemetry())
		}
	}()

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)
	fb, err := buildSTT(cfg, reg, tel.Metrics)
	if err != nil && !errors.Is(err, app.ErrNoProvider) {
		return err
	}

	appOpts := []app.Option{
		app.WithMetrics(tel.Metrics),
		app.WithMetricsHandler(tel.MetricsHandler),
		app.WithLevelVar(opts.level),
		app.WithCloser(shutdownTelemetry),
	}
	var provider stt.Provider
	if fb != nil {
		provider = fb
		appOpts = append(appOpts, app.WithChecker(health.CircuitChecker("stt", fb.States)))
	} else {
		slog.Warn("no STT provider configured; /v1/practice will fail")
	}

	application, err := app.New(cfg, provider, appOpts...)
	if err != nil {
		return err
	}
	owned = true

	// ── Config hot reload ─────────────────────────────────────────────────────
	if opts.configPath != "" {
		w, err := config.NewWatcher(opts.configPath, func(_, next *config.Config) {
			application.Reload(next)
		})
		if err != nil {
			slog.Warn("config watcher disabled", "err", err)
		} else {
			defer w.Stop()
		}
	}

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("server ready, press Ctrl+C to shut down")
	runErr := application.Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if runErr != nil {
		slog.Error("server stopped", "err", runErr)
	} else {
		slog.Info("shutdown signal received, stopping")
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("shutdown: %w", err))
	}
	if runErr != nil {
		return runErr
	}
	slog.Info("goodbye")
	return nil
}
