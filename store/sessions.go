package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/luminal-ai/agui-gateway/auth"
)

const (
	guestSessionPrefix = "guest_session:"
	guestCountPrefix   = "guest_count:"
	passwordAuthPrefix = "password_auth:"
)

// incrWithLimitScript increments the guest counter only while it is below
// the limit, so check and increment are a single atomic step. Returns -1
// when the limit is already reached.
var incrWithLimitScript = redis.NewScript(`
local c = tonumber(redis.call('GET', KEYS[1]) or '0')
if c >= tonumber(ARGV[1]) then
  return -1
end
return redis.call('INCR', KEYS[1])
`)

// SessionStore keeps guest session records, their message counters, and
// password-gate markers in Redis. Records are msgpack-encoded; the counter
// lives in a separate plain key so it can be incremented server-side.
type SessionStore struct {
	rdb *redis.Client
}

func NewSessionStore(rdb *redis.Client) *SessionStore {
	return &SessionStore{rdb: rdb}
}

// OpenSessionStore connects to Redis at the given URL and pings it.
func OpenSessionStore(ctx context.Context, url string) (*SessionStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &SessionStore{rdb: rdb}, nil
}

func (s *SessionStore) Close() error {
	return s.rdb.Close()
}

func (s *SessionStore) CreateGuest(ctx context.Context, rec *auth.GuestRecord, ttl time.Duration) error {
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode guest session: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, guestSessionPrefix+rec.Token, data, ttl)
	pipe.Set(ctx, guestCountPrefix+rec.Token, 0, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store guest session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetGuest(ctx context.Context, token string) (*auth.GuestRecord, error) {
	data, err := s.rdb.Get(ctx, guestSessionPrefix+token).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load guest session: %w", err)
	}

	var rec auth.GuestRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode guest session: %w", err)
	}

	count, err := s.rdb.Get(ctx, guestCountPrefix+token).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("load guest counter: %w", err)
	}
	rec.MessageCount = count
	return &rec, nil
}

// IncrementWithLimit atomically consumes one quota slot. allowed is false
// when the counter already sits at or above the limit, in which case it is
// left unchanged.
func (s *SessionStore) IncrementWithLimit(ctx context.Context, token string, limit int) (int, bool, error) {
	n, err := incrWithLimitScript.Run(ctx, s.rdb, []string{guestCountPrefix + token}, limit).Int()
	if err != nil {
		return 0, false, fmt.Errorf("increment guest counter: %w", err)
	}
	if n < 0 {
		return limit, false, nil
	}
	return n, true, nil
}

func (s *SessionStore) IsVerified(ctx context.Context, key string) (bool, error) {
	err := s.rdb.Get(ctx, passwordAuthPrefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("password marker lookup: %w", err)
	}
	return true, nil
}

func (s *SessionStore) MarkVerified(ctx context.Context, key string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, passwordAuthPrefix+key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("password marker store: %w", err)
	}
	return nil
}
