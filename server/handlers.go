package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/luminal-ai/agui-gateway/auth"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("http: response encode failed", "error", err)
	}
}

// GuestAuthHandler mints anonymous session tokens for clients that have not
// signed in yet.
type GuestAuthHandler struct {
	manager *auth.Manager
}

func NewGuestAuthHandler(manager *auth.Manager) *GuestAuthHandler {
	return &GuestAuthHandler{manager: manager}
}

func (h *GuestAuthHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, err := h.manager.CreateGuestSession(r.Context())
	if err != nil {
		slog.Error("guest session mint failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "failed to create guest session"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":       rec.Token,
		"token_type":  "guest",
		"expires_in":  rec.ExpiresIn,
		"permissions": rec.Permissions,
		"message":     "Guest session created. Sign in for unlimited access.",
		"upgrade_url": "/api/v1/auth/upgrade",
	})
}

// HealthHandler reports liveness and readiness. Readiness pings the backing
// stores through the injected checks; nil checks are skipped.
type HealthHandler struct {
	checks map[string]func(ctx context.Context) error
}

func NewHealthHandler(checks map[string]func(ctx context.Context) error) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check == nil {
			continue
		}
		if err := check(r.Context()); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{"status": state, "checks": results})
}
