package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/p-n-ai/pai-tutorial/internal/bridge"
	"github.com/p-n-ai/pai-tutorial/internal/catalog"
	"github.com/p-n-ai/pai-tutorial/internal/platform/cache"
	"github.com/p-n-ai/pai-tutorial/internal/platform/config"
	"github.com/p-n-ai/pai-tutorial/internal/platform/database"
	"github.com/p-n-ai/pai-tutorial/internal/platform/metrics"
	"github.com/p-n-ai/pai-tutorial/internal/progress"
	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
	"github.com/p-n-ai/pai-tutorial/internal/view"
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		slog.Warn("ignoring .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log, os.Stdout))

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "backend", cfg.Store.Backend, "locale", cfg.Locale)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// app is the wired process: engine, storage and HTTP handler.
type app struct {
	engine  *tutorial.Engine
	handler http.Handler
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	cat, err := loadCatalog(cfg.CurriculumPath)
	if err != nil {
		return nil, err
	}

	a := &app{}
	st, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = st.closers

	events := tutorial.MultiEventLogger(st.events)
	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder()
		events = append(events, recorder)
	}

	a.engine, err = tutorial.NewEngine(tutorial.EngineConfig{
		Catalog: cat,
		Store:   progress.NewStore(st.backend),
		Events:  events,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating engine: %w", err)
	}

	bcfg := bridge.Config{
		Engine:  a.engine,
		Printer: view.NewPrinter(cfg.Locale),
		Ready:   st.ready,
	}
	if recorder != nil {
		bcfg.Metrics = recorder.Handler()
		bcfg.Observer = recorder
	}
	srv, err := bridge.New(bcfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating bridge: %w", err)
	}
	a.handler = srv.Handler()
	return a, nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if path == "" {
		cat, err = catalog.Embedded()
	} else {
		cat, err = catalog.LoadDir(path)
	}
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	if cat.Len() == 0 {
		return nil, fmt.Errorf("no modules found in %q", path)
	}
	return cat, nil
}

// storage is the selected progress backend plus whatever it brought along.
type storage struct {
	backend progress.Backend
	events  []tutorial.EventLogger
	checks  []func(context.Context) error
	closers []func()
}

func (s *storage) ready(ctx context.Context) error {
	var errs []error
	for _, check := range s.checks {
		if err := check(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	st := &storage{}

	switch cfg.Store.Backend {
	case config.BackendMemory:
		st.backend = progress.NewMemoryBackend()

	case config.BackendSQLite:
		b, err := progress.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		st.backend = b
		st.checks = append(st.checks, b.HealthCheck)
		st.closers = append(st.closers, func() {
			if err := b.Close(); err != nil {
				slog.Warn("closing sqlite", "error", err)
			}
		})

	case config.BackendRedis:
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return nil, err
		}
		b, err := c.ProgressBackend(cfg.Store.KeyPrefix)
		if err != nil {
			c.Close()
			return nil, err
		}
		st.backend = b
		st.checks = append(st.checks, c.HealthCheck)
		st.closers = append(st.closers, func() { c.Close() })

	case config.BackendPostgres:
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, err
		}
		b, err := progress.NewPostgresBackend(db.Pool, cfg.Store.KeyPrefix)
		if err != nil {
			db.Close()
			return nil, err
		}
		st.backend = b
		st.events = append(st.events, tutorial.NewPostgresEventLogger(db.Pool))
		st.checks = append(st.checks, db.HealthCheck)
		st.closers = append(st.closers, db.Close)

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	slog.Info("progress storage ready", "backend", cfg.Store.Backend)
	return st, nil
}
