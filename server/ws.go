package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/luminal-ai/agui-gateway/config"
	"github.com/luminal-ai/agui-gateway/gateway"
)

// WSHandler upgrades chat connections and hands each one to its own session
// loop goroutine (the HTTP handler's own goroutine, one per connection).
type WSHandler struct {
	cfg      *config.Config
	deps     gateway.Deps
	upgrader websocket.Upgrader
}

func NewWSHandler(cfg *config.Config, deps gateway.Deps) *WSHandler {
	h := &WSHandler{cfg: cfg, deps: deps}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	allowedOrigins := h.cfg.Server.AllowedOrigins
	for _, o := range allowedOrigins {
		if o == "*" {
			return true
		}
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return h.cfg.Server.AllowEmptyOrigin
	}
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws: upgrade error", "error", err)
		return
	}
	slog.Info("ws: connection accepted", "remote", r.RemoteAddr)

	loop := gateway.NewSessionLoop(gateway.NewConn(conn), h.deps)
	loop.Run(r.Context())
}
