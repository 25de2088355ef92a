// Package server wires the dependency graph and runs the HTTP server.
//
// New assembles the chain in one place: sqlite.DB → repositories →
// services → GraphQL schema → handler, with the middleware stack
// (logging, CORS, soft authentication, per-request loaders) around the
// single /graphql endpoint.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sakif/snippet-store/internal/auth"
	"github.com/sakif/snippet-store/internal/graph"
	"github.com/sakif/snippet-store/internal/handler"
	"github.com/sakif/snippet-store/internal/loader"
	"github.com/sakif/snippet-store/internal/middleware"
	sqliteRepo "github.com/sakif/snippet-store/internal/repository/sqlite"
	"github.com/sakif/snippet-store/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port       int
	DBPath     string
	JWTSecret  string
	CORSOrigin string // allowed SPA origin, e.g. http://localhost:5173
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency chain assembled.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	userRepo := s.db.Users()
	snippetRepo := s.db.Snippets()

	snippetService := service.NewSnippetService(snippetRepo, s.logger)
	authService := service.NewAuthService(userRepo, tokens, passwords, s.logger)

	resolver := graph.NewResolver(snippetService, authService, s.logger)
	schema, err := graph.NewSchema(resolver)
	if err != nil {
		return fmt.Errorf("building schema: %w", err)
	}
	gqlHandler := handler.NewGraphQLHandler(schema, s.logger)

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Soft authentication: a valid bearer token attaches the user id to
	// the context, anything else stays anonymous. Resolvers enforce
	// identity requirements per operation.
	s.router.Use(auth.Middleware(tokens))

	// A fresh batch-loader set per inbound request.
	s.router.Use(loader.Middleware(userRepo, snippetRepo))

	s.router.Post("/graphql", gqlHandler.HandleQuery)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("endpoint", fmt.Sprintf("http://localhost:%d/graphql", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
