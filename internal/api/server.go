package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/echome-smart/focus-device/internal/app"
	"github.com/echome-smart/focus-device/internal/config"
)

// RESTServer represents the REST API server
type RESTServer struct {
	config *config.Config
	core   *app.Core
	router chi.Router
	server *http.Server
}

// NewRESTServer creates a new REST API server
func NewRESTServer(cfg *config.Config, core *app.Core) *RESTServer {
	s := &RESTServer{
		config: cfg,
		core:   core,
		router: chi.NewRouter(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all routes
func (s *RESTServer) setupRoutes() {
	// Middleware
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.router.Get("/", s.HandleRoot)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.HandleHealth)
		r.Get("/status", s.HandleStatus)
		r.Get("/sessions", s.HandleListSessions)
		r.Post("/control", s.HandleControl)
	})
}

// ListenAndServe starts the server
func (s *RESTServer) ListenAndServe(addr string) error {
	s.server.Addr = addr

	log.Info().Str("addr", addr).Msg("Starting REST API server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *RESTServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
