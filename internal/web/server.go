// Package web exposes the listening tracker over a JSON REST API.
package web

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr     string
	Handlers *Handlers
	Log      zerolog.Logger
}

// Server is the HTTP server for the API.
type Server struct {
	router chi.Router
	server *http.Server
	log    zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	router := chi.NewRouter()
	s := &Server{
		router: router,
		log:    cfg.Log,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.Handlers)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the API.
func (s *Server) setupRoutes(h *Handlers) {
	s.router.Route("/history", func(r chi.Router) {
		r.Get("/tracks", h.HistoryTracks)
		r.Get("/tracks/{id}", h.HistoryEntry)
		r.Get("/timeline", h.Timeline)
		r.Get("/stats", h.Stats)
		r.Post("/tracks/{id}/love", h.LoveTrack)
	})

	s.router.Route("/playlists", func(r chi.Router) {
		r.Get("/", h.ListPlaylists)
		r.Post("/generate", h.GeneratePlaylists)
		r.Get("/{id}", h.GetPlaylist)
		r.Delete("/{id}", h.DeletePlaylist)
		r.Get("/{id}/export", h.ExportPlaylist)
	})

	s.router.Route("/tracks", func(r chi.Router) {
		r.Get("/lookup", h.LookupTrack)
		r.Get("/{id}", h.GetTrack)
	})

	s.router.Get("/artists/{id}", h.GetArtist)

	s.router.Post("/sync", h.Sync)
	s.router.Get("/health", h.Health)
}

// Router exposes the configured router. Used in tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("starting server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.log.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.log.Info().Msg("server stopped")
	return nil
}

// requestLogger logs one line per request with method, path, status and
// duration.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
