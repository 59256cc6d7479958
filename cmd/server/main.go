// Package main is the entry point for the hpn-chat-adapter server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-chat-adapter/internal/adapter"
	"github.com/hpn/hpn-chat-adapter/internal/config"
	"github.com/hpn/hpn-chat-adapter/internal/handler"
	"github.com/hpn/hpn-chat-adapter/internal/security"
	"github.com/hpn/hpn-chat-adapter/internal/ui"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: search ., ./configs, /etc/hpn-chat-adapter)")
	quiet := flag.Bool("quiet", false, "disable the colored console output")
	flag.Parse()

	if err := run(*configPath, !*quiet); err != nil {
		fmt.Fprintf(os.Stderr, "hpn-chat-adapter: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, console bool) error {
	// =========================================================================
	// 1. Load configuration (Singleton)
	// =========================================================================
	cfg, err := config.GetConfigWithPath(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// =========================================================================
	// 2. Setup structured logger (redacts the configured credential)
	// =========================================================================
	logger := setupLogger(cfg, os.Stdout)
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("address", cfg.Addr()),
		slog.String("model", cfg.Model.Name),
		slog.Int("tools", len(cfg.Tools)),
	)

	// =========================================================================
	// 3. Build the adapter and the HTTP router
	// =========================================================================
	router, h, err := newRouter(cfg, logger, console)
	if err != nil {
		return err
	}

	// =========================================================================
	// 4. Start HTTP server with graceful shutdown
	// =========================================================================
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	if console {
		ui.PrintBanner()
		ui.PrintStartupInfo(cfg.Addr(), cfg.Model.Name, cfg.Model.Temperature, h.ToolCount())
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	}

	if console {
		ui.PrintShutdown()
	}

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped gracefully")
	if console {
		ui.PrintGoodbye()
	}
	return nil
}

// newRouter constructs the adapter from cfg and mounts it on a gin engine.
// A missing credential fails here, before the server listens.
func newRouter(cfg *config.Configuration, logger *slog.Logger, console bool) (*gin.Engine, *handler.InvokeHandler, error) {
	a, err := adapter.New(cfg.AdapterConfig(), adapter.WithLogger(logger))
	if err != nil {
		if adapter.IsMissingCredential(err) {
			return nil, nil, fmt.Errorf("%w: set %s or model.api_key", err, config.EnvAPIKey)
		}
		return nil, nil, err
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	h := handler.NewInvokeHandler(a,
		handler.WithLogger(logger),
		handler.WithConsole(console),
	)
	return handler.NewRouter(h, logger), h, nil
}

// setupLogger creates a structured logger from the logging section. Output
// passes through the redacting handler with the configured credential as an
// extra secret.
func setupLogger(cfg *config.Configuration, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.Logging.Level),
	}

	var base slog.Handler
	if cfg.Logging.Format == "text" {
		base = slog.NewTextHandler(w, opts)
	} else {
		base = slog.NewJSONHandler(w, opts)
	}

	return slog.New(security.NewRedactedHandler(base, cfg.Model.APIKey))
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
