// Package server wires the application together: database, image store,
// services, handlers, middleware, and routes.
//
// This is the composition root — every dependency is constructed here,
// in one place, and each layer receives only what it needs. The handlers
// never touch the database; the services never touch HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/curbside-market/internal/auth"
	"github.com/sakif/curbside-market/internal/config"
	"github.com/sakif/curbside-market/internal/handler"
	"github.com/sakif/curbside-market/internal/middleware"
	sqliteRepo "github.com/sakif/curbside-market/internal/repository/sqlite"
	"github.com/sakif/curbside-market/internal/service"
	"github.com/sakif/curbside-market/internal/storage"
)

// Server owns the router and the resources that need closing on
// shutdown, chiefly the database connection.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New assembles the full dependency chain:
//
//	sqlite.DB → repositories → services → handlers → routes
//
// It fails fast: a bad database path, a short JWT secret, or an
// unwritable upload directory all surface here, before the server ever
// accepts a request.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes builds the middleware chain and mounts every route.
//
// MIDDLEWARE ORDER:
//  1. RequestID — unique id per request, for tracing
//  2. RealIP — client IP from proxy headers
//  3. Logger — one structured line per request
//  4. Recoverer — a panicking handler becomes a 500, not a dead process
//
// Auth is applied per route group, not globally: browsing items and
// reading feedback are public, everything that writes requires a token.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret, s.cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	images, err := storage.NewLocal(s.cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("creating image store: %w", err)
	}

	authSvc := service.NewAuthService(s.db.Users, tokens, auth.NewPasswordService(), s.logger)
	itemSvc := service.NewItemService(s.db.Items, images, s.logger)
	favoriteSvc := service.NewFavoriteService(s.db.Favorites, s.db.Items, s.logger)
	feedbackSvc := service.NewFeedbackService(s.db.Feedback, s.db.Items, s.logger)

	var github *auth.GitHubProvider
	if s.cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(
			s.cfg.GitHubClientID,
			s.cfg.GitHubClientSecret,
			s.cfg.GitHubCallbackURL,
		)
	}

	authHandler := handler.NewAuthHandler(authSvc, github, s.logger)
	itemHandler := handler.NewItemHandler(itemSvc, s.logger)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackSvc, s.logger)

	requireAuth := auth.RequireAuth(tokens)

	// Accounts
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/auth/user", authHandler.HandleMe)
		r.Get("/users/{id}", authHandler.HandleGetUser)
	})

	// Optional GitHub sign-in, only when configured
	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}
	s.router.Post("/auth/logout", authHandler.HandleLogout)

	// Items: reads are public, writes require a token. OptionalAuth still
	// resolves the caller's identity when a token is present, so the
	// request log and any personalized rendering know who is browsing.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.OptionalAuth(tokens))
		r.Get("/items", itemHandler.HandleList)
		r.Get("/items/{id}", itemHandler.HandleGet)
		r.Get("/items/{id}/feedback", feedbackHandler.HandleListForItem)
	})
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/items", itemHandler.HandleCreate)
		r.Put("/items/{id}", itemHandler.HandleUpdate)
		r.Delete("/items/{id}", itemHandler.HandleDelete)
	})

	// Favorites and feedback
	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/favorites", favoriteHandler.HandleAdd)
		r.Post("/favorites/{itemID}", favoriteHandler.HandleAddByID)
		r.Get("/favorites", favoriteHandler.HandleList)
		r.Delete("/favorites/{itemID}", favoriteHandler.HandleRemove)
		r.Post("/feedback", feedbackHandler.HandleSubmit)
		r.Delete("/feedback/{id}", feedbackHandler.HandleDelete)
	})

	// Stored item images, served by filename. No ownership check: the
	// image belongs to a public listing.
	s.router.Get("/uploads/{filename}", func(w http.ResponseWriter, r *http.Request) {
		images.ServeFile(w, r, chi.URLParam(r, "filename"))
	})

	return nil
}

// Handler exposes the router, mainly so tests can drive the full stack
// through httptest without opening a socket.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the server's resources without serving. Start calls it
// itself; tests that only use Handler should defer it.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests for up to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DBPath),
			slog.String("uploads", s.cfg.UploadDir),
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
