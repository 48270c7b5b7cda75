package auth

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// PasswordResult is the outcome of the password gate. "Needs a password" and
// "wrong password" are expected outcomes, not errors.
type PasswordResult int

const (
	PasswordOK PasswordResult = iota
	PasswordRequired
	PasswordIncorrect
)

func (r PasswordResult) String() string {
	switch r {
	case PasswordOK:
		return "ok"
	case PasswordRequired:
		return "required"
	case PasswordIncorrect:
		return "incorrect"
	default:
		return "unknown"
	}
}

// VerifiedCache remembers which sessions already passed the password gate.
type VerifiedCache interface {
	IsVerified(ctx context.Context, key string) (bool, error)
	MarkVerified(ctx context.Context, key string, ttl time.Duration) error
}

// Gate optionally protects the whole gateway behind a shared secret. It is
// consulted exactly once per connection, right after token validation.
type Gate struct {
	enabled  bool
	password string
	ttl      time.Duration
	cache    VerifiedCache
	log      *slog.Logger
}

func NewGate(enabled bool, password string, ttl time.Duration, cache VerifiedCache, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{enabled: enabled, password: password, ttl: ttl, cache: cache, log: log}
}

// Verify checks the session against the gate. attempt is nil when the client
// sent no password field. Cache failures degrade to allowing access rather
// than locking everyone out.
func (g *Gate) Verify(ctx context.Context, token string, attempt *string, userID int64) PasswordResult {
	if !g.enabled {
		return PasswordOK
	}
	if g.password == "" {
		g.log.Warn("password gate enabled but no password configured")
		return PasswordOK
	}

	keys := g.cacheKeys(token, userID)
	for i, key := range keys {
		verified, err := g.cache.IsVerified(ctx, key)
		if err != nil {
			g.log.Error("password cache lookup failed", "error", err)
			return PasswordOK
		}
		if verified {
			// A hit on the user key alone re-primes the token key so
			// the next connection takes the fast path.
			if i > 0 && len(keys) > 0 && keys[0] != key {
				if err := g.cache.MarkVerified(ctx, keys[0], g.ttl); err != nil {
					g.log.Warn("password cache refresh failed", "error", err)
				}
			}
			return PasswordOK
		}
	}

	if attempt == nil {
		return PasswordRequired
	}
	if strings.TrimSpace(*attempt) != g.password {
		g.log.Warn("password verification failed")
		return PasswordIncorrect
	}

	for _, key := range keys {
		if err := g.cache.MarkVerified(ctx, key, g.ttl); err != nil {
			g.log.Warn("password cache store failed", "error", err)
		}
	}
	g.log.Info("session authenticated with password")
	return PasswordOK
}

func (g *Gate) cacheKeys(token string, userID int64) []string {
	var keys []string
	if t := strings.TrimSpace(token); t != "" {
		keys = append(keys, "token:"+t)
	}
	if userID > 0 {
		keys = append(keys, "user:"+strconv.FormatInt(userID, 10))
	}
	return keys
}
