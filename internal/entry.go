// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/starford/kiln/internal/api"
	"github.com/starford/kiln/internal/apperr"
	"github.com/starford/kiln/internal/build"
	"github.com/starford/kiln/internal/codegen"
	"github.com/starford/kiln/internal/docservice"
	"github.com/starford/kiln/internal/index"
	"github.com/starford/kiln/internal/logfields"
	"github.com/starford/kiln/internal/mcpserver"
	"github.com/starford/kiln/internal/metrics"
	"github.com/starford/kiln/internal/sse"
	"github.com/starford/kiln/internal/storage"
	"github.com/starford/kiln/internal/watch"
)

var errConfigRequired = errors.New("config is required")

// runtime holds the components shared by every command.
type runtime struct {
	cfg      *Config
	logger   *slog.Logger
	input    *storage.FS
	output   *storage.FS
	db       *index.DB
	builder  *build.Builder
	registry *prom.Registry
}

func setup(cfg *Config, logOut io.Writer) (*runtime, error) {
	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("input", cfg.Content.Input),
		slog.String("output", cfg.Content.Output),
		slog.String("routes", cfg.Content.Routes),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("workers", cfg.Build.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	for _, dir := range []string{cfg.Content.Input, cfg.Content.Output} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	// The output tree may live under the input; never read it back as content.
	input, err := storage.NewFS(cfg.Content.Input,
		storage.WithExtensions(cfg.Content.Extensions...),
		storage.WithExclude(cfg.Content.Output),
		storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init input storage: %w", err)
	}
	output, err := storage.NewFS(cfg.Content.Output, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init output storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	reg := prom.NewRegistry()
	opts := []build.Option{
		build.WithIndex(db),
		build.WithWorkers(cfg.Build.Workers),
		build.WithDrafts(cfg.Content.IncludeDrafts),
		build.WithLogger(logger),
		build.WithRecorder(metrics.NewPrometheusRecorder(reg)),
	}
	if cfg.Content.Routes != "" {
		routes, err := storage.NewFS(cfg.Content.Routes, storage.WithLogger(logger))
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init routes storage: %w", err)
		}
		opts = append(opts, build.WithRoutes(routes))
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		input:    input,
		output:   output,
		db:       db,
		builder:  build.New(input, output, opts...),
		registry: reg,
	}, nil
}

// Build runs a single build and returns its report.
func Build(ctx context.Context, opts ...Option) (*build.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	rt, err := setup(app.config, os.Stdout)
	if err != nil {
		return nil, err
	}
	defer rt.db.Close()

	return rt.builder.Build(ctx)
}

// ServeMCP builds once and serves the MCP tools on stdin/stdout. Logs go to
// stderr.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	rt, err := setup(app.config, os.Stderr)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	if _, err := rt.builder.Build(ctx); err != nil {
		rt.logger.Warn("initial build failed", logfields.Error(err))
	}

	svc := docservice.NewService(rt.input, rt.db,
		docservice.WithBuilder(rt.builder),
		docservice.WithLogger(rt.logger))
	return mcpserver.New(svc, app.version).ServeStdio()
}

// watchOptions watches the input and routes trees, leaving out everything a
// build writes.
func watchOptions(cfg *Config, logger *slog.Logger) watch.Options {
	roots := []string{cfg.Content.Input}
	if cfg.Content.Routes != "" {
		roots = append(roots, cfg.Content.Routes)
	}
	return watch.Options{
		Roots:       roots,
		Ignore:      []string{cfg.Content.Output},
		IgnoreFiles: []string{codegen.RouteParamsFile},
		Debounce:    cfg.Build.WatchDebounce,
		Logger:      logger,
	}
}

// notifyingBuilder publishes build.started before every build.
type notifyingBuilder struct {
	*build.Builder
	broker *sse.Broker
}

func (n notifyingBuilder) Build(ctx context.Context) (*build.Report, error) {
	if !n.Running() {
		n.broker.Publish(sse.Event{Type: sse.EventBuildStarted})
	}
	return n.Builder.Build(ctx)
}

// Run builds once, then serves the HTTP API and rebuilds on content changes
// until ctx is cancelled or a shutdown signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	rt, err := setup(cfg, os.Stdout)
	if err != nil {
		return err
	}
	defer rt.db.Close()
	logger := rt.logger

	// SSE broker.
	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	svc := docservice.NewService(rt.input, rt.db,
		docservice.WithBuilder(notifyingBuilder{Builder: rt.builder, broker: broker}),
		docservice.WithLogger(logger),
		docservice.WithBuildHook(func(rep *build.Report, err error) {
			if err != nil {
				broker.Publish(sse.Event{Type: sse.EventBuildFailed, Data: map[string]string{"error": err.Error()}})
				return
			}
			broker.Publish(sse.Event{Type: sse.EventBuildCompleted, Data: rep})
		}))

	if _, err := svc.Rebuild(ctx); err != nil {
		logger.Warn("initial build failed", logfields.Error(err))
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := rt.db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler(rt.registry))

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on content and route changes.
	g.Go(func() error {
		return watch.Watch(gCtx, watchOptions(cfg, logger), func(changed []string) {
			broker.PublishChange(changed)
			if _, err := svc.Rebuild(gCtx); err != nil {
				if errors.Is(err, apperr.ErrBuildRunning) {
					logger.Info("rebuild skipped, build in progress", logfields.Count(len(changed)))
					return
				}
				logger.Error("rebuild failed", logfields.Error(err))
			}
		})
	})

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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logfields.Error(err))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")
