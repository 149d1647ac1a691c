// Package server wires the router, handlers, and middleware together and
// owns the server lifecycle. It is the composition root: every dependency
// chain (store, service, handler) is assembled here, and main.go only loads
// config and calls Start.
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

	"github.com/sakif/snipy/internal/auth"
	"github.com/sakif/snipy/internal/config"
	"github.com/sakif/snipy/internal/executor"
	"github.com/sakif/snipy/internal/handler"
	"github.com/sakif/snipy/internal/middleware"
	sqliteRepo "github.com/sakif/snipy/internal/repository/sqlite"
	"github.com/sakif/snipy/internal/service"
)

// Server holds the router and the resources it must release on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the service and handler
// chain, and mounts the routes. exec may be nil when the snippet runner is
// disabled.
func New(cfg *config.Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
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

	if err := s.setupRoutes(exec); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// noAuth is the middleware pair used when no JWT secret is configured: every
// protected route answers 401 and reads stay anonymous.
func noAuth() (func(http.Handler) http.Handler, func(http.Handler) http.Handler) {
	require := func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
		})
	}
	optional := func(next http.Handler) http.Handler { return next }
	return require, optional
}

func (s *Server) setupRoutes(exec executor.Executor) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// With no secret the server degrades to anonymous reads.
	requireAuth, optionalAuth := noAuth()
	var tokens *auth.TokenService
	if s.config.JWTSecret != "" {
		var err error
		tokens, err = auth.NewTokenService(s.config.JWTSecret)
		if err != nil {
			return fmt.Errorf("creating token service: %w", err)
		}
		requireAuth = auth.RequireAuth(tokens)
		optionalAuth = auth.OptionalAuth(tokens)
	} else {
		s.logger.Warn("no JWT secret configured, mutating endpoints are disabled")
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	passwords := auth.NewPasswordService()
	scoped := s.config.ListsOwnerScoped

	snippetService := service.NewSnippetService(s.db, s.db, s.logger, scoped)
	folderService := service.NewFolderService(s.db, s.db, s.logger, scoped)
	tagService := service.NewTagService(s.db, s.logger, scoped)
	authService := service.NewAuthService(s.db, passwords, s.logger)

	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	folderHandler := handler.NewFolderHandler(folderService, s.logger)
	tagHandler := handler.NewTagHandler(tagService, s.logger)
	runHandler := handler.NewRunHandler(snippetService, exec, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Reads are anonymous-friendly; a logged-in viewer additionally gets
		// their favorite flags.
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGet)
			r.Get("/folders", folderHandler.HandleList)
			r.Get("/tags", tagHandler.HandleList)
		})

		// Every mutation needs a session; the middleware answers 401 before
		// any handler side effect.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Patch("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Patch("/snippets/{id}/public", snippetHandler.HandleSetPublic)
			r.Post("/snippets/{id}/favorite", snippetHandler.HandleAddFavorite)
			r.Delete("/snippets/{id}/favorite", snippetHandler.HandleRemoveFavorite)
			r.Post("/snippets/{id}/tags", snippetHandler.HandleAddTags)
			r.Delete("/snippets/{id}/tags", snippetHandler.HandleRemoveTag)
			r.Post("/snippets/{id}/run", runHandler.HandleRun)

			r.Post("/folders", folderHandler.HandleCreate)
			r.Patch("/folders/{id}", folderHandler.HandleUpdate)
			r.Delete("/folders/{id}", folderHandler.HandleDelete)

			r.Post("/tags", tagHandler.HandleCreate)
			r.Patch("/tags/{id}", tagHandler.HandleUpdate)
			r.Delete("/tags/{id}", tagHandler.HandleDelete)
		})
	})

	if tokens != nil {
		authHandler := handler.NewAuthHandler(authService, tokens, github, s.logger)
		s.router.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(requireAuth).Get("/me", authHandler.HandleMe)
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		})
	}

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests for up
// to 30 seconds, close the database.
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
