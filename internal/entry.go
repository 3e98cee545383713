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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/notesync/internal/api"
	"github.com/starford/notesync/internal/index"
	"github.com/starford/notesync/internal/models"
	"github.com/starford/notesync/internal/pipeline"
	"github.com/starford/notesync/internal/watch"
)

// ErrManifestDisabled is returned by RunStatus when no manifest path is configured.
var ErrManifestDisabled = errors.New("manifest is disabled")

func newApplication(opts []Option) (*application, error) {
	app := &application{logOut: os.Stderr, now: time.Now}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the process logger from the app config.
func newLogger(cfg ApplicationConfig, app *application) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatJSON {
		return slog.New(slog.NewJSONHandler(app.logOut, hopts))
	}
	return slog.New(slog.NewTextHandler(app.logOut, hopts))
}

func pipelineConfig(cfg *Config) pipeline.Config {
	return pipeline.Config{
		Sources:           cfg.Sources,
		Attachments:       cfg.Attachments,
		PostsDir:          cfg.PostsDir,
		ImagesDir:         cfg.ImagesDir,
		Workers:           cfg.Sync.Workers,
		PublishField:      cfg.Sync.PublishField,
		DefaultAuthor:     cfg.Sync.DefaultAuthor,
		ImagePrefix:       cfg.Sync.ImagePrefix,
		LinkPrefix:        cfg.Sync.LinkPrefix,
		DescriptionLength: cfg.Sync.DescriptionLength,
	}
}

func openManifest(path string) (*index.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manifest dir: %w", err)
	}
	return index.Open(path)
}

// session is everything a sync or watch run needs, built from the config.
type session struct {
	cfg      *Config
	logger   *slog.Logger
	manifest *index.DB
	runner   *syncRunner
}

func (s *session) close() {
	if s.manifest != nil {
		s.manifest.Close()
	}
}

// newSession resolves the config and wires the pipeline. A manifest that
// cannot be opened is logged and left out; sync output never depends on it.
func newSession(opts []Option) (*session, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config.Resolve()
	logger := newLogger(cfg.App, app)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.Any("sources", cfg.Sources),
		slog.String("attachments", cfg.Attachments),
		slog.String("posts_dir", cfg.PostsDir),
		slog.String("images_dir", cfg.ImagesDir),
		slog.String("manifest", cfg.Manifest.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	s := &session{cfg: cfg, logger: logger}
	syncOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithClock(app.now),
	}
	if cfg.Manifest.Enabled() {
		db, err := openManifest(cfg.Manifest.Path)
		if err != nil {
			logger.Warn("manifest: unavailable, continuing without it",
				slog.String("path", cfg.Manifest.Path),
				slog.String("error", err.Error()))
		} else {
			s.manifest = db
			syncOpts = append(syncOpts, pipeline.WithRecorder(db))
		}
	}
	s.runner = newSyncRunner(pipeline.New(pipelineConfig(cfg), syncOpts...))
	return s, nil
}

// RunSync performs one full sync and returns its summary.
func RunSync(ctx context.Context, opts ...Option) (models.Summary, error) {
	s, err := newSession(opts)
	if err != nil {
		return models.Summary{}, err
	}
	defer s.close()
	return s.runner.Sync(ctx)
}

// RunStatus reads the manifest written by the last sync.
func RunStatus(_ context.Context, opts ...Option) (*index.Report, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	cfg := app.config.Resolve()
	if !cfg.Manifest.Enabled() {
		return nil, ErrManifestDisabled
	}
	if _, err := os.Stat(cfg.Manifest.Path); err != nil {
		return nil, fmt.Errorf("manifest %s: %w (run sync first)", cfg.Manifest.Path, err)
	}
	db, err := index.Open(cfg.Manifest.Path)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return index.BuildReport(db)
}

// RunWatch syncs once, then re-syncs whenever a source or attachment
// changes, until ctx is cancelled or the process receives SIGINT/SIGTERM.
// When watch.http.port is set a status server runs alongside.
func RunWatch(ctx context.Context, opts ...Option) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}
	defer s.close()
	cfg, logger := s.cfg, s.logger

	if _, err := s.runner.Sync(ctx); err != nil {
		return fmt.Errorf("initial sync: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		dirs := append(append([]string{}, cfg.Sources...), cfg.Attachments)
		return watch.Watch(gCtx, dirs, cfg.Watch.Debounce, logger, func() {
			if _, err := s.runner.Sync(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("watcher: sync failed", slog.String("error", err.Error()))
			}
		})
	})

	var httpServer *http.Server
	if cfg.Watch.HTTP.Enabled() {
		httpServer = &http.Server{
			Addr:              cfg.Watch.HTTP.Address(),
			Handler:           newRouter(cfg, s),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			logger.Info("Starting HTTP server", slog.String("address", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})
	}

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
		cancel()

		if httpServer != nil {
			shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
			defer stop()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Watcher stopped successfully")
	return nil
}

func newRouter(cfg *Config, s *session) http.Handler {
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

	// A nil *index.DB must not become a non-nil interface.
	var manifest index.Manifest
	if s.manifest != nil {
		manifest = s.manifest
	}
	r.Mount("/api", api.NewRouter(s.runner, manifest, cfg.Auth.AuthEnabled(), cfg.Auth.Token))
	return r
}
