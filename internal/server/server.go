// Package server wires the router: which paths hit which handlers, what
// middleware runs where, and how the process starts and drains. It is the
// composition root: every dependency is constructed and connected in New.
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

	"github.com/sakif/dishdash-server/internal/auth"
	"github.com/sakif/dishdash-server/internal/handler"
	"github.com/sakif/dishdash-server/internal/middleware"
	"github.com/sakif/dishdash-server/internal/repository/mongodb"
	"github.com/sakif/dishdash-server/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port       int
	MongoURI   string
	DBName     string
	JWTSecret  string
	CORSOrigin string
	PageSize   int

	// Google OAuth is optional; the /auth/google routes are registered only
	// when all three are set.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

// Server owns the router and the store connection. The connection is opened
// once in New and closed during graceful shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *mongodb.DB
}

// New connects the store and assembles the full dependency chain:
// store → repositories → services → handlers → routes.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := mongodb.New(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("connecting to store: %w", err)
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

	// Credentialed CORS restricted to the configured frontend origin.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.config.CORSOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	var google *auth.GoogleProvider
	if s.config.GoogleClientID != "" && s.config.GoogleClientSecret != "" && s.config.GoogleCallbackURL != "" {
		google = auth.NewGoogleProvider(
			s.config.GoogleClientID,
			s.config.GoogleClientSecret,
			s.config.GoogleCallbackURL,
		)
	} else {
		s.logger.Warn("Google OAuth not configured; /auth/google routes disabled")
	}

	accountService := service.NewAccountService(s.db.Users(), s.db.Gallery(), auth.NewPasswordService(), s.logger)
	foodService := service.NewFoodService(s.db.Foods(), s.config.PageSize, s.logger)
	purchaseService := service.NewPurchaseService(s.db.Purchases(), s.db.Foods(), s.logger)

	authHandler := handler.NewAuthHandler(tokens, accountService, google, s.config.CORSOrigin, s.logger)
	collectionHandler := handler.NewCollectionHandler(accountService, s.logger)
	foodHandler := handler.NewFoodHandler(foodService, purchaseService, s.logger)
	purchaseHandler := handler.NewPurchaseHandler(purchaseService, s.logger)

	// Liveness.
	s.router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Server is running..."))
	})

	// Credential issue and clear.
	s.router.Post("/token", authHandler.HandleToken)
	s.router.Get("/logout", authHandler.HandleLogout)
	s.router.Post("/register", authHandler.HandleRegister)
	s.router.Post("/login", authHandler.HandleLogin)

	if google != nil {
		s.router.Get("/auth/google/login", authHandler.HandleGoogleLogin)
		s.router.Get("/auth/google/callback", authHandler.HandleGoogleCallback)
	}

	// Verbatim collections.
	s.router.Get("/users", collectionHandler.HandleListUsers)
	s.router.Post("/users", collectionHandler.HandleCreateUser)
	s.router.Get("/gallery", collectionHandler.HandleListGallery)
	s.router.Post("/gallery", collectionHandler.HandleCreateGallery)

	// Foods.
	s.router.Get("/foods", foodHandler.HandleQuery)
	s.router.Post("/foods", foodHandler.HandleCreate)
	s.router.Get("/search", foodHandler.HandleSearch)
	s.router.Get("/top-food", foodHandler.HandleTop)
	s.router.Get("/filter", foodHandler.HandleFilter)
	s.router.Get("/category", foodHandler.HandleCategories)
	s.router.Put("/update", foodHandler.HandleUpdate)
	s.router.Delete("/delete", foodHandler.HandleDelete)

	// Checkout is open; order history is identity-scoped.
	s.router.Post("/purchase-food", purchaseHandler.HandleCreate)

	// Ownership-scoped routes behind the auth guard.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/me", authHandler.HandleMe)
		r.Get("/myFood/{email}", foodHandler.HandleMyFood)
		r.Get("/purchase-food", purchaseHandler.HandleList)
		r.Get("/purchase-food/{email}", purchaseHandler.HandleList)
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then drains in-flight
// requests and disconnects the store.
func (s *Server) Start() error {
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
			_ = s.db.Close(context.Background())
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			_ = s.db.Close(context.Background())
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	if err := s.db.Close(context.Background()); err != nil {
		return fmt.Errorf("closing store connection: %w", err)
	}
	return nil
}

// Router exposes the assembled handler, used by tests to drive the server
// through httptest without binding a port.
func (s *Server) Router() http.Handler {
	return s.router
}
