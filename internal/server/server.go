// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: New opens the store, builds the
// services and the GraphQL schema on top of it, and hands them to the
// handlers. Nothing else in the app constructs its own dependencies.
//
//	config.Config → Store (sqlite | postgres)
//	             → AuthService, LinkService, UserService
//	             → graph.Schema → GraphQLHandler
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/hackernews/internal/auth"
	"github.com/sakif/hackernews/internal/config"
	"github.com/sakif/hackernews/internal/graph"
	"github.com/sakif/hackernews/internal/handler"
	"github.com/sakif/hackernews/internal/middleware"
	"github.com/sakif/hackernews/internal/repository"
	"github.com/sakif/hackernews/internal/repository/postgres"
	sqliteRepo "github.com/sakif/hackernews/internal/repository/sqlite"
	"github.com/sakif/hackernews/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. Start closes it on shutdown; callers that only
// use Handler (tests) call Close themselves.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store

	closeOnce sync.Once
	closeErr  error
}

// New wires the whole application for cfg. cfg must already be validated.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close() // Clean up DB if route setup fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite:
		db, err := sqliteRepo.New(ctx, cfg.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	}
	return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// GET       /          → API explorer page (HTML, when enabled)
// GET       /health    → liveness probe
// GET|POST  /graphql   → GraphQL endpoint (identity resolved from Authorization)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. CORS: answers preflights before they reach a handler
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService(s.config.BcryptCost)

	// The store satisfies both repository interfaces; services only see
	// the interface they need.
	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	linkService := service.NewLinkService(s.store, s.store, s.logger)
	userService := service.NewUserService(s.store, s.logger)

	schema, err := graph.New(authService, linkService, userService, s.logger)
	if err != nil {
		return fmt.Errorf("building graphql schema: %w", err)
	}
	graphqlHandler := handler.NewGraphQLHandler(schema, s.logger)

	s.router.Get("/health", handler.HandleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.Identify(tokens, s.logger))
		r.Get("/graphql", graphqlHandler.ServeHTTP)
		r.Post("/graphql", graphqlHandler.ServeHTTP)
	})

	if s.config.Playground {
		playgroundHandler, err := handler.NewPlaygroundHandler("/graphql", s.logger)
		if err != nil {
			return fmt.Errorf("creating playground handler: %w", err)
		}
		s.router.Get("/", playgroundHandler.HandlePlayground)
	}

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.store.Close()
	})
	return s.closeErr
}

// Start serves until ctx is cancelled, SIGINT/SIGTERM arrives, or the
// listener fails.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (flushes the SQLite WAL / drains the pgx pool)
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d/graphql", s.config.Port)),
			slog.String("driver", s.config.DBDriver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	case <-ctx.Done():
		s.logger.Info("shutdown requested", slog.String("reason", context.Cause(ctx).Error()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	s.logger.Info("server stopped gracefully")
	return nil
}
