// Package server wires the dependency graph and owns the HTTP lifecycle:
// router, middleware stack, route table, graceful shutdown. main.go stays
// minimal; everything is assembled here, in one composition root.
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
	"github.com/go-playground/validator/v10"

	"github.com/sakif/media-catalog/internal/assets"
	"github.com/sakif/media-catalog/internal/auth"
	"github.com/sakif/media-catalog/internal/handler"
	"github.com/sakif/media-catalog/internal/middleware"
	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository/mongodb"
	"github.com/sakif/media-catalog/internal/service"
)

// Config holds everything the server needs from the environment, loaded
// once in main and passed here as a value.
type Config struct {
	Port          int
	MongoURI      string
	DBName        string
	JWTSecret     string
	CloudinaryURL string
}

// Server owns the router and the database connection; the connection is
// closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *mongodb.DB
}

// New connects the store, builds the asset client, and assembles the
// dependency chain from repositories up to the route table.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := mongodb.New(ctx, cfg.MongoURI, cfg.DBName)
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
		_ = db.Close(context.Background())
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	store, err := assets.NewCloudinaryStore(s.config.CloudinaryURL)
	if err != nil {
		return fmt.Errorf("creating asset store: %w", err)
	}

	validate := validator.New()

	authService := service.NewAuthService(s.db, s.db, tokens, passwords, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.db, store, s.logger)
	reviewService := service.NewReviewService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, validate, s.logger)
	genreHandler := handler.NewGenreHandler(catalogService, s.logger)
	searchHandler := handler.NewSearchHandler(catalogService, s.logger)

	requireAuth := auth.RequireAuth(tokens, s.db)

	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	s.router.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", authHandler.HandleProfile)
		r.Get("/profile/{id}", authHandler.HandleProfileByID)
	})

	s.router.Get("/genres", genreHandler.HandleList)
	s.router.Get("/search/{query}", searchHandler.HandleSearch)

	// The movie and show surfaces are the same handler mounted twice;
	// only the discriminant differs.
	mountMedia(s.router, "/movies",
		handler.NewMediaHandler(catalogService, reviewService, model.TypeMovie, validate, s.logger),
		requireAuth)
	mountMedia(s.router, "/tvshows",
		handler.NewMediaHandler(catalogService, reviewService, model.TypeSeries, validate, s.logger),
		requireAuth)

	return nil
}

// mountMedia registers the full media surface under one path prefix.
// Reads are public; every mutation goes through the auth guard.
func mountMedia(router chi.Router, prefix string, h *handler.MediaHandler, requireAuth func(http.Handler) http.Handler) {
	router.Route(prefix, func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Get("/page/{page}", h.HandleList)
		r.Get("/count", h.HandleCount)
		r.Get("/genre/{genreId}", h.HandleByGenre)
		r.Get("/{id}", h.HandleGet)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.HandleCreate)
			r.Put("/{id}", h.HandleUpdate)
			r.Delete("/{id}", h.HandleDelete)
			r.Post("/{id}/reviews", h.HandleAddReview)
			r.Put("/{id}/reviews/{reviewId}", h.HandleUpdateReview)
			r.Delete("/{id}/reviews/{reviewId}", h.HandleDeleteReview)
		})
	})
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, give in-flight requests 30 seconds, close
// the database connection.
func (s *Server) Start() error {
	defer func() {
		if err := s.db.Close(context.Background()); err != nil {
			s.logger.Error("closing database", slog.String("error", err.Error()))
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

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBName),
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
