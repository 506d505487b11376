package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/coyote/internal/logger"
	"github.com/marmos91/coyote/internal/session"
	"github.com/marmos91/coyote/pkg/config"
	"github.com/marmos91/coyote/pkg/server"
)

func serveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server and block until SIGINT or SIGTERM.

Configuration is read from --config, or from
$XDG_CONFIG_HOME/coyote/config.yaml when no path is given. COYOTE_*
environment variables override file values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}

func runServe(parent context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logCloser, err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Coyote %s starting", version)

	users, err := config.CreateUserStore(ctx, &cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to create user store: %w", err)
	}

	assets, err := config.CreateAssetStore(ctx, &cfg.Assets)
	if err != nil {
		_ = users.Close()
		return fmt.Errorf("failed to create asset store: %w", err)
	}

	m := config.InitializeMetrics(cfg)

	srv, err := server.New(server.Options{
		Connector: cfg.Connector,
		Sessions: session.Config{
			IdleTimeout:   cfg.Sessions.IdleTimeout,
			SweepInterval: cfg.Sessions.SweepInterval,
		},
		Users:           users,
		Assets:          assets,
		Metrics:         m.ConnectorMetrics,
		MetricsServer:   m.Server,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		_ = users.Close()
		return err
	}

	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
