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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/folio/internal/api"
	"github.com/starford/folio/internal/catalog"
	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/logfields"
	"github.com/starford/folio/internal/sse"
	"github.com/starford/folio/internal/watch"
)

// Run starts the HTTP server, the content watcher and the SSE broker.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_dir", cfg.Content.Dir),
		logfields.Mode(cfg.Build.Mode.String()),
		slog.String("join_policy", string(cfg.Content.JoinPolicy)),
		slog.Bool("catalog", cfg.Catalog.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if err := os.MkdirAll(cfg.Content.Dir, 0o755); err != nil {
		return fmt.Errorf("create content dir: %w", err)
	}

	svc, err := NewContentService(cfg, logger)
	if err != nil {
		return err
	}

	db, err := OpenCatalog(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		if _, err := watch.Sync(ctx, svc, db, logger); err != nil {
			logger.Warn("initial sync failed", logfields.Error(err))
		}
	}

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, db, cfg.Build.Mode, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", readyHandler(cfg.Content.Dir, db))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// File watcher feeding the catalogue and SSE clients.
	g.Go(func() error {
		err := watch.Watch(gCtx, svc, db, cfg.Content.Dir, cfg.Events.Debounce, logger, postNotifier(svc, broker))
		if err != nil {
			logger.Error("watcher stopped", logfields.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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

		// SSE handlers only return once their channel is closed.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logfields.Error(err))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", logfields.Error(err))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// postNotifier turns watcher callbacks into SSE post events.
func postNotifier(svc *content.Service, broker *sse.Broker) watch.EventCallback {
	return func(kind, slug string) {
		change := sse.PostChange{Slug: slug}
		if kind != watch.KindDeleted {
			change.Scrolly = svc.IsScrollyPost(slug)
		}
		broker.PublishPostEvent(kind, change)
	}
}

func readyHandler(dir string, db *catalog.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			writeStatus(w, http.StatusServiceUnavailable, "content directory unavailable")
			return
		}
		if db != nil {
			if _, err := db.Count(); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, "catalog unavailable")
				return
			}
		}
		writeStatus(w, http.StatusOK, "ok")
	}
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}
