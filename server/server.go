// Package server wires the HTTP surface: the chat WebSocket endpoint, guest
// token minting, health checks, and metrics.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luminal-ai/agui-gateway/auth"
	"github.com/luminal-ai/agui-gateway/config"
	"github.com/luminal-ai/agui-gateway/gateway"
)

const ReadTimeout = 30 * time.Second

type Server struct {
	cfg    *config.Config
	router *chi.Mux
	server *http.Server
}

func NewServer(cfg *config.Config, manager *auth.Manager, deps gateway.Deps, checks map[string]func(ctx context.Context) error) *Server {
	router := chi.NewRouter()

	router.Use(Recovery)
	router.Use(Logger)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	healthH := NewHealthHandler(checks)
	router.Get("/health", healthH.Readiness)
	router.Get("/health/ready", healthH.Readiness)
	router.Get("/health/live", healthH.Liveness)

	router.Handle("/metrics", promhttp.Handler())

	wsHandler := NewWSHandler(cfg, deps)
	router.Get("/api/v1/ws", wsHandler.ServeHTTP)

	guestH := NewGuestAuthHandler(manager)
	router.Post("/api/v1/auth/guest", guestH.Create)

	return &Server{cfg: cfg, router: router}
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.router,
		ReadTimeout: ReadTimeout,
		// WebSocket sessions are long-lived; no server-wide write timeout.
		WriteTimeout: 0,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
