// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Broadside Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/broadside/broadside/internal/auth"
	"github.com/broadside/broadside/internal/config"
	"github.com/broadside/broadside/internal/logging"
	"github.com/broadside/broadside/internal/observability"
	"github.com/broadside/broadside/internal/session"
	"github.com/broadside/broadside/internal/ws"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	flags := config.Flags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the game server",
		Long: `Start the WebSocket game server. Clients connect to the configured
endpoint with a game id; the server creates game instances on demand and
routes every connection to the instance for its game.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return runServe(cmd.Context(), cfg, cmd)
		},
	}

	cmd.Flags().AddFlagSet(flags)

	return cmd
}

// runServe starts the server and blocks until a shutdown signal arrives.
func runServe(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logging.SetDefault("broadside", version, cfg.LogFormat, level)

	slog.Info("starting server",
		"listen_addr", cfg.ListenAddr,
		"ws_path", cfg.WSPath,
		"auth_enabled", cfg.AuthEnabled,
		"log_format", cfg.LogFormat,
		"log_level", cfg.LogLevel,
	)

	registryOpts := []session.RegistryOption{
		session.WithRegistryPollTimeout(cfg.RecvTimeout),
	}
	if cfg.AuthEnabled {
		validator, err := auth.NewValidatorFromFile(cfg.TokenIssuer, cfg.PublicKeyFile)
		if err != nil {
			return fmt.Errorf("failed to load token validator: %w", err)
		}
		registryOpts = append(registryOpts, session.WithAuthenticator(
			func(gid, token string) (session.Identity, error) {
				identity, err := validator.Validate(gid, token)
				if err != nil {
					return session.Identity{}, err
				}
				return session.Identity{UID: identity.UID, Players: identity.Players}, nil
			}))
		slog.Info("token authentication enabled", "issuer", cfg.TokenIssuer)
	}

	registry := session.NewRegistry(registryOpts...)
	server := ws.NewServer(cfg.ListenAddr, cfg.WSPath, registry)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start observability server if configured
	var obsServer *observability.Server
	if cfg.MetricsAddr != "" {
		obsServer = observability.NewServer(cfg.MetricsAddr, func() bool {
			return server.Addr() != ""
		})
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return fmt.Errorf("failed to start observability server: %w", err)
		}
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
		slog.Info("observability server started", "addr", obsServer.Addr())
	}

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(ctx); err != nil {
			errChan <- err
		}
		close(errChan)
	}()

	cmd.Println("Broadside server started")

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		slog.Info("received shutdown signal", "signal", sig)
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("context cancelled, shutting down")
	}

	// Graceful shutdown
	slog.Info("shutting down...")
	cancel()

	if err := <-errChan; err != nil {
		slog.Warn("error during server shutdown", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if obsServer != nil {
		if err := obsServer.Stop(shutdownCtx); err != nil {
			slog.Warn("error stopping observability server", "error", err)
		}
	}

	slog.Info("shutdown complete")
	return nil
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// This ensures that server failures trigger graceful shutdown of the entire process.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			// Channel closed, server stopped gracefully
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
		// Context cancelled, exit monitoring
	}
}
