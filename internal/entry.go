// Package internal provides the main application initialization and
// runtime logic.
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
	"golang.org/x/sync/errgroup"

	"github.com/gabipgz/haras-project/internal/api"
	"github.com/gabipgz/haras-project/internal/assetservice"
	"github.com/gabipgz/haras-project/internal/contentstore"
	"github.com/gabipgz/haras-project/internal/ledger"
	"github.com/gabipgz/haras-project/internal/mcpserver"
	"github.com/gabipgz/haras-project/internal/mirror"
	"github.com/gabipgz/haras-project/internal/registry"
	"github.com/gabipgz/haras-project/internal/topic"
)

// services holds everything the transports are built on.
type services struct {
	session *ledger.Session
	assets  *assetservice.Service
	media   contentstore.Store
	cache   *registry.DB
	mirror  *mirror.Client
}

func (s *services) close() {
	if s.cache != nil {
		s.cache.Close()
	}
	s.session.Clear()
}

// buildServices wires the ledger session, content stores, registry
// cache and asset service from the configuration.
func buildServices(cfg *Config, logger *slog.Logger) (*services, error) {
	session := ledger.NewSession(cfg.Ledger.Network)
	if cfg.Ledger.OperatorID != "" && cfg.Ledger.PrivateKey != "" {
		if err := session.SetOperator(cfg.Ledger.OperatorID, cfg.Ledger.PrivateKey); err != nil {
			return nil, fmt.Errorf("set operator from config: %w", err)
		}
		logger.Info("operator identity loaded from config",
			slog.String("account", cfg.Ledger.OperatorID))
	}
	client := ledger.NewHedera(session)

	var store contentstore.Store
	switch cfg.Store.Provider {
	case StoreLocal:
		fs, err := contentstore.NewFS(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("init local content store: %w", err)
		}
		store = fs
	default:
		store = contentstore.NewFileService(client)
	}

	var media contentstore.Store
	switch cfg.Media.Provider {
	case MediaPinata:
		media = contentstore.NewPinata(cfg.Media.APIKey, cfg.Media.APISecret)
	default:
		fs, err := contentstore.NewFS(cfg.Media.Path)
		if err != nil {
			return nil, fmt.Errorf("init media store: %w", err)
		}
		media = fs
	}

	cache, err := registry.Open(cfg.Registry.Path)
	if err != nil {
		return nil, fmt.Errorf("init registry cache: %w", err)
	}

	sub := topic.NewSubscriber(client)
	assets := assetservice.New(client, store, sub, assetservice.WithCache(cache))

	return &services{
		session: session,
		assets:  assets,
		media:   media,
		cache:   cache,
		mirror:  mirror.NewClient(cfg.Ledger.Network),
	}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logOut := io.Writer(os.Stdout)
	if app.logWriter != nil {
		logOut = app.logWriter
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("network", cfg.Ledger.Network),
		slog.String("store_provider", cfg.Store.Provider),
		slog.String("media_provider", cfg.Media.Provider),
		slog.String("registry_path", cfg.Registry.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svcs, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svcs.close()

	// Build API handler and router.
	h := api.NewHandler(svcs.assets, svcs.session, svcs.media, svcs.cache, svcs.mirror)
	apiRouter := api.NewRouter(h, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

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
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

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

// RunMCP starts the MCP stdio server. stdout carries the protocol, so
// the logger goes to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logOut := io.Writer(os.Stderr)
	if app.logWriter != nil {
		logOut = app.logWriter
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svcs, err := buildServices(cfg, logger)
	if err != nil {
		return err
	}
	defer svcs.close()

	if !svcs.session.Active() {
		return fmt.Errorf("mcp mode needs operator credentials in the ledger config")
	}

	logger.Info("Starting MCP server on stdio",
		slog.String("network", cfg.Ledger.Network))

	return mcpserver.New(svcs.assets).ServeStdio()
}
