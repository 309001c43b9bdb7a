// Package app assembles the wiki into a runnable HTTP service: configuration,
// logging, stores, the request core and the surrounding middleware chain.
package app

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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/scribewiki/scribe/internal/config"
	"github.com/scribewiki/scribe/internal/infrastructure"
	"github.com/scribewiki/scribe/internal/middleware"
	"github.com/scribewiki/scribe/internal/session"
	"github.com/scribewiki/scribe/internal/store/sqlitestore"
	"github.com/scribewiki/scribe/internal/user"
	"github.com/scribewiki/scribe/internal/view"
	"github.com/scribewiki/scribe/internal/web"
)

const Version = "1.0.0"

// BuildTime is set at compile time via -ldflags.
var BuildTime = ""

// Application is the assembled service.
type Application struct {
	Config   *config.Config
	Logger   *slog.Logger
	Router   *chi.Mux
	Server   *http.Server
	Store    *sqlitestore.Store
	Users    user.Store
	Sessions *session.Manager
	Wiki     *web.App
}

// New loads configuration from configPath (empty means defaults plus
// environment) and wires the service.
func New(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging)
	logger.Info("application starting",
		"version", Version,
		"addr", cfg.Server.Addr,
		"data_dir", cfg.Wiki.DataDir,
	)

	store, err := sqlitestore.Open(cfg.Wiki.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening page store: %w", err)
	}

	users := user.NewMemoryStore()
	sessions := session.NewManager(cfg.Session.CookieName, cfg.Session.TTL, cfg.Session.Secure)

	renderer, err := view.NewTemplateRenderer()
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	wikiApp, err := web.New(cfg, logger, store, users, sessions, renderer)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("building request core: %w", err)
	}

	a := &Application{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Users:    users,
		Sessions: sessions,
		Wiki:     wikiApp,
	}
	a.setupRouter()
	a.Server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// setupRouter mounts the middleware chain and the request core. Ordering:
// RequestID -> RealIP -> Tracing -> Metrics -> Logger -> Recoverer ->
// SecurityHeaders; the operational endpoints sit outside the wiki core.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Tracing())
	r.Use(middleware.NewMetrics(registry).Handler)
	r.Use(middleware.StructuredLogger(a.Logger))
	r.Use(middleware.Recoverer(a.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Compress(5))

	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", a.handleHealth)
	r.Get("/version", a.handleVersion)

	// The credential endpoints get a rate limiter in front of the core.
	limiter := middleware.NewRateLimiter(
		a.Config.Security.LoginRPS,
		a.Config.Security.LoginBurst,
		a.Logger,
	)
	r.With(limiter.Handler).Handle("/login", a.Wiki)
	r.With(limiter.Handler).Handle("/signup", a.Wiki)

	r.Handle("/*", a.Wiki)
	r.Handle("/", a.Wiki)

	a.Router = r
}

func (a *Application) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *Application) handleVersion(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"version":    Version,
		"build_time": BuildTime,
	})
}

// Run serves until the process receives an interrupt, then shuts down
// gracefully within the configured timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "listening", "addr", a.Server.Addr)
		if err := a.Server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := a.Sessions.GC(ctx, a.Config.Session.GCInterval); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return a.Store.Close()
	})

	err := g.Wait()
	a.Logger.Info("application stopped")
	return err
}
