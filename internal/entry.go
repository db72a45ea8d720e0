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
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/ansuz/internal/docstore"
	"github.com/starford/ansuz/internal/importer"
	"github.com/starford/ansuz/internal/mcpserver"
	"github.com/starford/ansuz/internal/preview"
	"github.com/starford/ansuz/internal/render"
	"github.com/starford/ansuz/internal/settings"
	"github.com/starford/ansuz/internal/sse"
	"github.com/starford/ansuz/internal/storage"
	"github.com/starford/ansuz/internal/tui"
)

// Run starts the interactive editor with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// The TUI owns stdout, so structured logs go to a file.
	logger, closeLog, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("sqlite_path", cfg.Storage.SQLitePath),
		slog.String("fallback_path", cfg.Storage.FallbackPath),
		slog.Bool("preview_enabled", cfg.Preview.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	st, err := settings.Open(cfg.Storage.SettingsPath)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}

	backend, err := storage.Open(cfg.Storage.SQLitePath, cfg.Storage.FallbackPath, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer backend.Close()

	// SSE broker feeds the browser preview; it is cheap enough to run
	// even when the preview server is disabled.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	store := docstore.New(backend, st, logger,
		docstore.WithDebounce(cfg.App.Debounce()),
		docstore.WithOnChange(broker.PublishDocumentEvent),
	)
	if err := store.Load(); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	defer store.Close()

	program := tui.NewProgram(tui.Params{
		Store:     store,
		Settings:  st,
		Logger:    logger,
		ExportDir: cfg.Export.Dir,
		Degraded:  backend.Degraded(),
	})

	var services []func(context.Context) error
	if cfg.Import.Enabled {
		services = append(services, func(ctx context.Context) error {
			return importer.Watch(ctx, store, cfg.Import.WatchDir, logger)
		})
	}
	if cfg.Preview.Enabled {
		services = append(services, func(ctx context.Context) error {
			return servePreview(ctx, cfg, store, broker, logger)
		})
	}

	err = superviseEditor(ctx, func() error {
		_, err := program.Run()
		return err
	}, program.Quit, services...)
	store.Flush()
	if err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Editor stopped")
	return nil
}

// superviseEditor runs the editor alongside its background services
// under one errgroup. The editor returning cleanly must still cancel
// the derived context, or the services would keep Wait blocked; the
// sentinel cancellation is filtered from the result.
func superviseEditor(ctx context.Context, editor func() error, quit func(), services ...func(context.Context) error) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := editor(); err != nil {
			return err
		}
		return context.Canceled
	})

	// Quit the editor when the surrounding context is cancelled.
	g.Go(func() error {
		<-gCtx.Done()
		quit()
		return nil
	})

	for _, service := range services {
		g.Go(func() error {
			return service(gCtx)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunServe starts the browser preview server without the editor UI.
func RunServe(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	st, err := settings.Open(cfg.Storage.SettingsPath)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}

	backend, err := storage.Open(cfg.Storage.SQLitePath, cfg.Storage.FallbackPath, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer backend.Close()

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	store := docstore.New(backend, st, logger,
		docstore.WithDebounce(cfg.App.Debounce()),
		docstore.WithOnChange(broker.PublishDocumentEvent),
	)
	if err := store.Load(); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	defer store.Close()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return servePreview(gCtx, cfg, store, broker, logger)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	store.Flush()
	logger.Info("Preview server stopped")
	return nil
}

// RunMCP starts the MCP stdio server over the document store.
func RunMCP(opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// stdout carries the MCP protocol; logs go to the log file.
	logger, closeLog, err := newFileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	backend, err := storage.Open(cfg.Storage.SQLitePath, cfg.Storage.FallbackPath, logger)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer backend.Close()

	logger.Info("MCP server starting")
	return mcpserver.New(backend).ServeStdio()
}

// servePreview runs the preview HTTP server until ctx is cancelled.
func servePreview(ctx context.Context, cfg *Config, store *docstore.Store, broker *sse.Broker, logger *slog.Logger) error {
	h := preview.NewHandler(store, render.NewHTML())
	router := preview.NewRouter(h, cfg.Preview.AuthEnabled(), cfg.Preview.Token, broker)

	httpServer := &http.Server{
		Addr:    cfg.Preview.Address(),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Preview server starting", slog.String("address", cfg.Preview.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("preview server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Preview server shutdown error", slog.String("error", err.Error()))
	}
	return nil
}

// newFileLogger opens the configured log file and builds a JSON logger
// on it.
func newFileLogger(cfg *Config) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.App.LogFile), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.App.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	return logger, func() { _ = f.Close() }, nil
}
