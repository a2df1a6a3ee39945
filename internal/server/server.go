// Package server exposes the read API over chi. Writes flow exclusively
// through the background workers; the API mutates nothing but user data.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"newswire/internal/config"
	"newswire/internal/logger"
	"newswire/internal/metrics"
	"newswire/internal/persistence"
)

// Server serves the public and authenticated API.
type Server struct {
	store  persistence.Store
	cfg    *config.Config
	router chi.Router
}

func New(store persistence.Store, cfg *config.Config) *Server {
	s := &Server{store: store, cfg: cfg}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/stories", func(r chi.Router) {
			r.Get("/breaking", s.handleBreaking)
			r.Get("/search", s.handleSearch)
			r.Get("/{id}", s.handleStory)
			r.Get("/{id}/sources", s.handleStorySources)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAuth)
				r.Get("/feed", s.handleFeed)
				r.Post("/{id}/interact", s.handleInteract)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Route("/users", func(r chi.Router) {
				r.Get("/profile", s.handleGetProfile)
				r.Put("/profile", s.handlePutProfile)
				r.Put("/preferences", s.handlePutPreferences)
			})
			r.Route("/notifications", func(r chi.Router) {
				r.Post("/register", s.handleRegisterDevice)
				r.Delete("/device-token/{token}", s.handleUnregisterDevice)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth, s.requireAdmin)
			r.Method("GET", "/admin/metrics",
				promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		})
	})
	return r
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until the context is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status})
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, code int, msg, detail string) {
	writeJSON(w, code, map[string]string{"error": msg, "detail": detail})
}
