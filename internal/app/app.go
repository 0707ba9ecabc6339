// Package app wires configuration, logging, the Tugboat client and the MCP
// server into a running transport.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tugboatqa/tugboat-mcp/internal/api"
	"github.com/tugboatqa/tugboat-mcp/internal/auth"
	"github.com/tugboatqa/tugboat-mcp/internal/config"
	"github.com/tugboatqa/tugboat-mcp/internal/logging"
	"github.com/tugboatqa/tugboat-mcp/internal/mcp/tugboatserver"
	"github.com/tugboatqa/tugboat-mcp/internal/telemetry"
	"github.com/tugboatqa/tugboat-mcp/internal/tugboat"
	"github.com/tugboatqa/tugboat-mcp/internal/version"
)

// Run loads the configuration, builds the server stack and serves the
// configured transport until the context is canceled or a signal arrives.
func Run(ctx context.Context) error {
	cfg := config.NewConfig()
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	logger, closeLog := logging.Setup(cfg.Transport, cfg.LogFile, cfg.Debug)
	defer closeLog()

	manager := auth.NewManager(cfg.APIKey)
	client := tugboat.NewClient(cfg.APIURL, cfg.APIKey,
		tugboat.WithLogger(logger),
		tugboat.WithDebug(cfg.Debug),
	)
	server := tugboatserver.NewServer(client, manager, logger)

	logger.Info("starting tugboat-mcp",
		"version", version.Version,
		"transport", cfg.Transport,
		"api_url", cfg.APIURL,
	)

	switch cfg.Transport {
	case config.TransportStdio:
		return runStdio(ctx, server, logger)
	case config.TransportHTTP:
		return runHTTP(ctx, cfg, client, manager, server, logger)
	default:
		return fmt.Errorf("unsupported transport %q", cfg.Transport)
	}
}

// runStdio serves the MCP protocol over stdin/stdout until the client
// disconnects or a signal arrives.
func runStdio(ctx context.Context, server *mcp.Server, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	logger.Info("mcp server stopped")
	return nil
}

// runHTTP serves the REST surface and the streamable /mcp endpoint, shutting
// down gracefully on SIGINT/SIGTERM.
func runHTTP(ctx context.Context, cfg *config.Config, client *tugboat.Client, manager *auth.Manager, mcpServer *mcp.Server, logger *slog.Logger) error {
	shutdownMetrics, metrics, err := telemetry.InitMetrics(version.Version)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownMetrics(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	server := api.NewServer(cfg, client, manager, mcpServer, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(sctx); err != nil {
		return fmt.Errorf("http server forced to shutdown: %w", err)
	}
	return nil
}
