// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the "composition root": every dependency is wired here, in one
// place — DB → repositories → services → handlers → routes. Handlers never
// touch the database, services never touch HTTP.
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

	"github.com/sakif/linkpage/internal/auth"
	"github.com/sakif/linkpage/internal/config"
	"github.com/sakif/linkpage/internal/handler"
	"github.com/sakif/linkpage/internal/middleware"
	sqliteRepo "github.com/sakif/linkpage/internal/repository/sqlite"
	"github.com/sakif/linkpage/internal/service"
)

// Server represents the HTTP server and its dependencies. It owns the
// database connection and closes it during graceful shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the service graph, and
// wires the routes. JWT_SECRET is mandatory — a link page without working
// sessions is just a 401 generator.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
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

// setupRoutes configures middleware, builds the dependency chain, and maps
// every route.
//
// ROUTE MAP:
//
//	GET    /                      → landing page
//	GET    /dashboard             → link editor shell
//	GET    /u/{username}          → public profile page
//	GET    /static/*              → static assets
//	GET    /auth/github/login     → GitHub OAuth redirect
//	GET    /auth/github/callback  → GitHub OAuth callback
//	POST   /auth/register         → password signup
//	POST   /auth/login            → password login
//	POST   /auth/logout           → clear session
//	GET    /api/profiles/{username} → public profile JSON
//	GET    /api/me                → current user          (auth)
//	POST   /api/links             → create link           (auth)
//	GET    /api/links             → list links            (auth)
//	PUT    /api/links/reorder     → reorder links         (auth)
//	PUT    /api/links/{id}        → update link           (auth)
//	DELETE /api/links/{id}        → delete link           (auth)
func (s *Server) setupRoutes() error {
	// Global middleware: order matters, these run on every request.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth infrastructure ===
	if s.config.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — only password login available")
	}

	// === Services ===
	// The same *DB satisfies both repository interfaces.
	linkService := service.NewLinkService(s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, passwords, s.logger)
	profileService := service.NewProfileService(s.db, s.db, s.logger)

	// === Handlers ===
	linkHandler := handler.NewLinkHandler(linkService, s.logger)
	authHandler := handler.NewAuthHandler(github, authService, s.logger)
	profileHandler := handler.NewProfileHandler(profileService, s.logger)
	pagesHandler, err := handler.NewPagesHandler(s.config.TemplateDir, profileService, s.logger)
	if err != nil {
		return fmt.Errorf("creating pages handler: %w", err)
	}

	// === Static files ===
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Pages ===
	s.router.Get("/", pagesHandler.HandleHome)
	s.router.Get("/dashboard", pagesHandler.HandleDashboard)
	s.router.Get("/u/{username}", pagesHandler.HandlePublicPage)

	// === Auth routes ===
	s.router.Route("/auth", func(r chi.Router) {
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		// Public read path — the shareable page data.
		r.Get("/profiles/{username}", profileHandler.HandleGet)

		// Everything else requires a session.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Post("/links", linkHandler.HandleCreate)
			r.Get("/links", linkHandler.HandleList)
			// "reorder" must be registered before "{id}" would catch it;
			// chi routes literals ahead of wildcards, but keeping the
			// explicit order makes the intent obvious.
			r.Put("/links/reorder", linkHandler.HandleReorder)
			r.Put("/links/{id}", linkHandler.HandleUpdate)
			r.Delete("/links/{id}", linkHandler.HandleDelete)
		})
	})

	return nil
}

// Start starts the HTTP server and blocks until shutdown.
//
// GRACEFUL SHUTDOWN:
// On SIGINT/SIGTERM: stop accepting connections, give in-flight requests
// 30 seconds to finish, then close the database (flushes the WAL and
// releases the file lock).
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
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
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
