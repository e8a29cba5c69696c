package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cadbridge/bridge"
	"cadbridge/daemon"
	"cadbridge/internal/support/buildinfo"
	"cadbridge/internal/telemetry"
)

// persistCmd is the persistent mode: invoked once by an snmpd
// "pass_persist" directive, it answers the line protocol on stdin/stdout
// until the daemon hangs up.
func persistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Serve the pass_persist protocol on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			healthAddr := cfg.HealthAddr
			if cmd.Flags().Changed("health-addr") {
				healthAddr, _ = cmd.Flags().GetString("health-addr")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tracer, shutdownTracing, err := telemetry.Setup(ctx, "cadbridge", buildinfo.Version)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					slog.Warn("Shutting down tracing failed.", "err", err)
				}
			}()

			engine, cleanup, err := newEngine(cfg, bridge.WithTracer(tracer))
			if err != nil {
				return err
			}
			defer cleanup()

			slog.Info("Serving pass_persist commands.", "url", cfg.CadvisorURL, "cache_ttl", cfg.CacheTTL.Std())
			err = daemon.Run(ctx, engine, os.Stdin, os.Stdout, healthAddr)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().String("health-addr", "", "Serve a /healthz endpoint on this address (e.g. 127.0.0.1:9109)")
	return cmd
}
