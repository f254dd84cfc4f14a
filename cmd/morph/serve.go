package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/vango-dev/morph/internal/config"
	"github.com/vango-dev/morph/internal/demo"
	"github.com/vango-dev/morph/pkg/live"
	"github.com/vango-dev/morph/pkg/metrics"
)

func serveCmd() *cobra.Command {
	var (
		port       int
		host       string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "serve DEMO",
		Short: "Serve a demo component live over WebSocket",
		Long: fmt.Sprintf(`Start a server that renders a demo component and keeps every browser
session live: client events run listeners on the server and the patched
markup is sent back.

Demos: %v

Examples:
  morph serve counter
  morph serve todos --port=8080`, demo.Names()),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			build, err := demo.Lookup(args[0])
			if err != nil {
				return err
			}
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}

			logger := slog.Default().With("component", "serve")
			srv, err := newLiveServer(cmd.Context(), cfg, live.App(build), logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			success(cmd.ErrOrStderr(), "Serving %s on http://%s", args[0], cfg.ServerAddress())
			if cfg.Metrics.Enabled {
				info(cmd.ErrOrStderr(), "Metrics on http://%s/metrics", cfg.ServerAddress())
			}
			return srv.ListenAndServe(ctx, cfg.ServerAddress())
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to run on (default from config)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from config)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file (default: nearest morph.json)")

	return cmd
}

// newLiveServer wires cfg into a live server for app.
func newLiveServer(ctx context.Context, cfg *config.Config, app live.App, logger *slog.Logger) (*live.Server, error) {
	opts, err := runtimeOptions(cfg, logger)
	if err != nil {
		return nil, err
	}
	serverOpts := []live.Option{
		live.WithLogger(logger),
		live.WithPath(cfg.Server.Path),
		live.WithRuntimeOptions(opts...),
	}
	if cfg.Metrics.Enabled {
		serverOpts = append(serverOpts, live.WithMetrics(metrics.New(
			metrics.WithNamespace(cfg.Metrics.Namespace),
			metrics.WithRegistry(prometheus.NewRegistry()),
		)))
	}
	if cfg.Archive.Bucket != "" {
		store, err := archiveStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		serverOpts = append(serverOpts, live.WithArchive(store))
	}
	return live.New(app, serverOpts...), nil
}
