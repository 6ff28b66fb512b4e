// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/echonotes/internal/accounts"
	"github.com/starford/echonotes/internal/api"
	"github.com/starford/echonotes/internal/cleanup"
	"github.com/starford/echonotes/internal/mcpserver"
	"github.com/starford/echonotes/internal/notestore"
	"github.com/starford/echonotes/internal/sse"
	"github.com/starford/echonotes/internal/storage"
)

var errConfigRequired = errors.New("config is required")

// services are the long-lived components shared by the HTTP and MCP entry points.
type services struct {
	kv      storage.KV
	cleanup *cleanup.Service
	notes   *notestore.Store
}

// close releases the store first so pending cleanups can still persist.
func (s *services) close(logger *slog.Logger) {
	if s.notes != nil {
		s.notes.Close()
	}
	if err := s.kv.Close(); err != nil {
		logger.Error("storage close failed", slog.String("error", err.Error()))
	}
}

func openServices(cfg *Config, logger *slog.Logger, notify notestore.Notifier) (*services, error) {
	kv, err := storage.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	svc := cleanup.NewService(cleanup.Config{
		APIKey:  cfg.Cleanup.APIKey,
		BaseURL: cfg.Cleanup.BaseURL,
		Model:   cfg.Cleanup.Model,
	}, logger)
	if !svc.Configured() {
		logger.Warn("GROQ_API_KEY is missing; cleanup requests will fail until it is set")
	}

	// Notes are cleaned in-process unless a remote cleanup service is configured.
	var noteCleaner cleanup.Cleaner = svc
	if cfg.Notes.CleanupURL != "" {
		noteCleaner = cleanup.NewClient(cfg.Notes.CleanupURL, nil)
		logger.Info("using remote cleanup service", slog.String("url", cfg.Notes.CleanupURL))
	}

	opts := []notestore.Option{notestore.WithLogger(logger)}
	if notify != nil {
		opts = append(opts, notestore.WithNotifier(notify))
	}
	notes, err := notestore.New(kv, noteCleaner, opts...)
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("init note store: %w", err)
	}

	return &services{kv: kv, cleanup: svc, notes: notes}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("storage_driver", cfg.Storage.Driver),
		slog.String("storage_path", cfg.Storage.Path),
		slog.String("cleanup_model", cfg.Cleanup.Model),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// SSE broker.
	broker := sse.NewBroker(cfg.Notes.SSEKeepAlive)
	defer broker.Close()

	svcs, err := openServices(cfg, logger, broker.PublishNoteEvent)
	if err != nil {
		return err
	}
	defer svcs.close(logger)

	streamCtx, cancelStreams := context.WithCancel(ctx)
	defer cancelStreams()

	h := api.NewHandler(api.Deps{
		Notes:         svcs.notes,
		Users:         accounts.NewRegistry(svcs.kv),
		Logger:        logger,
		StreamContext: streamCtx,
	})
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)
	root := api.NewRoot(api.NewCleanupHandler(svcs.cleanup, logger), apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           root,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Long-lived streams never go idle on their own.
		cancelStreams()
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the note tools over stdio until ctx is cancelled, a signal
// arrives or stdin is closed. Logs go to stderr since stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svcs, err := openServices(cfg, logger, nil)
	if err != nil {
		return err
	}
	defer svcs.close(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server starting on stdio", slog.String("version", app.version))
	srv := mcpserver.New(svcs.notes, svcs.cleanup, app.version)
	if err := srv.Serve(ctx, os.Stdin, os.Stdout, logger); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
