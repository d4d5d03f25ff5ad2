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
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vos/internal/api"
	"github.com/starford/vos/internal/logfields"
	"github.com/starford/vos/internal/mcpserver"
	"github.com/starford/vos/internal/metrics"
	"github.com/starford/vos/internal/site"
	"github.com/starford/vos/internal/siteservice"
	"github.com/starford/vos/internal/sse"
	"github.com/starford/vos/internal/storage"
	"github.com/starford/vos/internal/watch"
)

// ErrIncompleteBuild is returned by a strict Build when artifacts were excluded.
var ErrIncompleteBuild = errors.New("build excluded one or more artifacts")

// setup applies opts, installs the default logger and opens the source and
// output trees.
func setup(opts []Option) (*application, *slog.Logger, storage.Provider, storage.Provider, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, nil, nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	handlerOpts := &slog.HandlerOptions{Level: cfg.App.LogLevel}
	var handler slog.Handler
	if cfg.App.LogFormat == LogFormatJSON {
		handler = slog.NewJSONHandler(app.logOutput, handlerOpts)
	} else {
		handler = slog.NewTextHandler(app.logOutput, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("root", cfg.Site.Root),
		slog.String("output", cfg.Site.OutputPath()),
		slog.String("variant", cfg.Site.Variant),
		slog.Int("workers", cfg.Site.Workers),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, err := storage.NewFS(cfg.Site.Root, false)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init source storage: %w", err)
	}
	out, err := storage.NewFS(cfg.Site.OutputPath(), true)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("init output storage: %w", err)
	}
	return app, logger, src, out, nil
}

// Build runs one full build and exits.
func Build(ctx context.Context, opts ...Option) error {
	app, logger, src, out, err := setup(opts)
	if err != nil {
		return err
	}
	builder := site.NewBuilder(app.config.SiteBuild(), src, out, nil, logger)
	defer builder.Close()

	report, err := builder.Build(ctx)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}
	logReport(logger, report)
	if app.strict && len(report.Failed) > 0 {
		return fmt.Errorf("%w: %d failed", ErrIncompleteBuild, len(report.Failed))
	}
	return nil
}

// Serve builds the site, serves it with live reload and rebuilds whenever
// the source tree changes.
func Serve(ctx context.Context, opts ...Option) error {
	app, logger, src, out, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	registry := prom.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewPrometheusRecorder(registry)

	builder := site.NewBuilder(cfg.SiteBuild(), src, out, recorder, logger)
	defer builder.Close()
	svc := siteservice.NewService(builder, cfg.Media.Dirs(), cfg.Log.HeaderRows)

	// A failed first build still serves; the watcher retries on the next change.
	if report, err := builder.Build(ctx); err != nil {
		logger.Error("initial build failed", logfields.Error(err))
	} else {
		logReport(logger, report)
	}

	broker := sse.NewBroker(time.Second)
	defer broker.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !svc.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler(registry))
	r.Mount("/api", api.NewRouter(svc, cfg.Preview.Token, broker))
	r.Handle("/*", api.NewStaticHandler(cfg.Site.OutputPath()))

	httpServer := &http.Server{
		Addr:              cfg.Preview.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on source changes and notify preview pages.
	g.Go(func() error {
		wopts := watch.Options{Debounce: cfg.Preview.Debounce, Skip: skipDirs(cfg)}
		return watch.Watch(gCtx, cfg.Site.Root, wopts, logger, func(ctx context.Context, paths []string) {
			logger.Info("source changed, rebuilding", logfields.Count(len(paths)))
			report, err := builder.Build(ctx)
			if err != nil {
				logger.Error("rebuild failed", logfields.Error(err))
				broker.PublishBuild(nil, err)
				return
			}
			logReport(logger, report)
			broker.PublishBuild(buildSummary(report), nil)
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.Preview.Address()))
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logfields.Error(err))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP builds the site and exposes it over MCP on stdio. Logs go to
// stderr so they never interleave with the protocol stream.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, src, out, err := setup(append(opts, WithLogOutput(os.Stderr)))
	if err != nil {
		return err
	}
	cfg := app.config

	builder := site.NewBuilder(cfg.SiteBuild(), src, out, nil, logger)
	defer builder.Close()
	if report, err := builder.Build(ctx); err != nil {
		logger.Error("initial build failed", logfields.Error(err))
	} else {
		logReport(logger, report)
	}

	svc := siteservice.NewService(builder, cfg.Media.Dirs(), cfg.Log.HeaderRows)
	return mcpserver.New(svc, app.version).ServeStdio()
}

func logReport(logger *slog.Logger, report *site.Report) {
	logger.Info("build finished",
		slog.Int("written", len(report.Written)),
		slog.Int("unchanged", len(report.Unchanged)),
		slog.Int("failed", len(report.Failed)),
		logfields.Duration(report.Duration))
}

func buildSummary(report *site.Report) *sse.BuildSummary {
	failed := make([]string, len(report.Failed))
	for i, f := range report.Failed {
		failed[i] = f.Artifact
	}
	return &sse.BuildSummary{
		Written:    report.Written,
		Failed:     failed,
		DurationMS: report.Duration.Milliseconds(),
	}
}

// skipDirs keeps the watcher out of the output tree when it lives under
// the source root.
func skipDirs(cfg *Config) []string {
	rel, err := filepath.Rel(cfg.Site.Root, cfg.Site.OutputPath())
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	return []string{filepath.ToSlash(rel)}
}
