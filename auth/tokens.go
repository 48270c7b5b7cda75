package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/luminal-ai/agui-gateway/id"
)

// GuestTokenPrefix routes a bearer string to guest validation.
const GuestTokenPrefix = id.PrefixGuest + "_"

// GuestPermissions is the fixed permission set granted to anonymous sessions.
var GuestPermissions = []string{"read:public_kb", "chat:ephemeral", "search:public_kb"}

// FullPermissions is the wildcard set granted to signed-in users.
var FullPermissions = []string{"*"}

// GuestRecord is the persisted state of one anonymous session. The message
// counter lives in its own store key so it can be incremented atomically; the
// store fills it in on reads.
type GuestRecord struct {
	Token        string    `msgpack:"token"`
	CreatedAt    time.Time `msgpack:"created_at"`
	Permissions  []string  `msgpack:"permissions"`
	ExpiresIn    int64     `msgpack:"expires_in"`
	MessageCount int       `msgpack:"-"`
}

// GuestStore persists guest session records. GetGuest returns (nil, nil) for
// unknown or expired tokens.
type GuestStore interface {
	CreateGuest(ctx context.Context, rec *GuestRecord, ttl time.Duration) error
	GetGuest(ctx context.Context, token string) (*GuestRecord, error)
}

// Validator resolves a bearer string to a session. A nil session means the
// token is invalid or expired; that is terminal for the connection, the
// gateway does not retry.
type Validator interface {
	Validate(ctx context.Context, token string) (*Session, error)
}

// Manager validates guest tokens against the guest store and full-session
// JWTs against a shared HMAC secret.
type Manager struct {
	guests    GuestStore
	jwtSecret []byte
	guestTTL  time.Duration
	log       *slog.Logger
}

func NewManager(guests GuestStore, jwtSecret []byte, guestTTL time.Duration, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{guests: guests, jwtSecret: jwtSecret, guestTTL: guestTTL, log: log}
}

// CreateGuestSession mints and persists a new anonymous session.
func (m *Manager) CreateGuestSession(ctx context.Context) (*GuestRecord, error) {
	rec := &GuestRecord{
		Token:       id.NewGuestToken(),
		CreatedAt:   time.Now().UTC(),
		Permissions: GuestPermissions,
		ExpiresIn:   int64(m.guestTTL / time.Second),
	}
	if err := m.guests.CreateGuest(ctx, rec, m.guestTTL); err != nil {
		return nil, fmt.Errorf("create guest session: %w", err)
	}
	return rec, nil
}

// Validate resolves the token to a session, or (nil, nil) when it does not
// authenticate.
func (m *Manager) Validate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	if strings.HasPrefix(token, GuestTokenPrefix) {
		return m.validateGuest(ctx, token)
	}
	return m.validateJWT(token)
}

func (m *Manager) validateGuest(ctx context.Context, token string) (*Session, error) {
	rec, err := m.guests.GetGuest(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("validate guest token: %w", err)
	}
	if rec == nil {
		m.log.Debug("guest session not found or expired")
		return nil, nil
	}
	perms := rec.Permissions
	if perms == nil {
		perms = GuestPermissions
	}
	return &Session{
		Kind:              KindGuest,
		Permissions:       perms,
		Token:             token,
		GuestMessageCount: rec.MessageCount,
	}, nil
}

func (m *Manager) validateJWT(token string) (*Session, error) {
	if len(m.jwtSecret) == 0 {
		m.log.Warn("jwt validation requested but no secret configured")
		return nil, nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !parsed.Valid {
		m.log.Debug("jwt validation failed", "error", err)
		return nil, nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, nil
	}
	userID, ok := numericClaim(claims, "user_id")
	if !ok || userID <= 0 {
		m.log.Debug("jwt missing user_id claim")
		return nil, nil
	}

	return &Session{
		UserID:      userID,
		Kind:        KindFull,
		Permissions: FullPermissions,
		Token:       token,
	}, nil
}

func numericClaim(claims jwt.MapClaims, key string) (int64, bool) {
	switch v := claims[key].(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}
