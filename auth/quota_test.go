package auth

import (
	"context"
	"errors"
	"testing"
)

type memCounter struct {
	counts map[string]int
	err    error
}

func (c *memCounter) IncrementWithLimit(ctx context.Context, token string, limit int) (int, bool, error) {
	if c.err != nil {
		return 0, false, c.err
	}
	if c.counts[token] >= limit {
		return c.counts[token], false, nil
	}
	c.counts[token]++
	return c.counts[token], true, nil
}

func TestQuotaFullSessionBypasses(t *testing.T) {
	counter := &memCounter{counts: map[string]int{}}
	q := NewQuotaEnforcer(counter, 2)

	s := &Session{UserID: 7, Kind: KindFull, Token: "tok"}
	allowed, err := q.CheckAndIncrement(context.Background(), s)
	if err != nil || !allowed {
		t.Fatalf("full session should always be allowed, got (%v, %v)", allowed, err)
	}
	if counter.counts["tok"] != 0 {
		t.Error("full sessions must not consume quota")
	}
}

func TestQuotaGuestBelowLimit(t *testing.T) {
	counter := &memCounter{counts: map[string]int{}}
	q := NewQuotaEnforcer(counter, 2)

	s := &Session{Kind: KindGuest, Token: "guest_tok"}
	allowed, err := q.CheckAndIncrement(context.Background(), s)
	if err != nil || !allowed {
		t.Fatalf("got (%v, %v)", allowed, err)
	}
	if counter.counts["guest_tok"] != 1 {
		t.Errorf("count = %d, want 1", counter.counts["guest_tok"])
	}
	if s.GuestMessageCount != 1 {
		t.Errorf("session counter = %d, want 1", s.GuestMessageCount)
	}
}

func TestQuotaGuestAtLimit(t *testing.T) {
	counter := &memCounter{counts: map[string]int{"guest_tok": 2}}
	q := NewQuotaEnforcer(counter, 2)

	s := &Session{Kind: KindGuest, Token: "guest_tok", GuestMessageCount: 2}
	allowed, err := q.CheckAndIncrement(context.Background(), s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatal("guest at the limit must be rejected")
	}
	if counter.counts["guest_tok"] != 2 {
		t.Error("rejection must not increment the counter")
	}
}

func TestQuotaCounterError(t *testing.T) {
	counter := &memCounter{err: errors.New("redis down")}
	q := NewQuotaEnforcer(counter, 2)

	s := &Session{Kind: KindGuest, Token: "guest_tok"}
	if _, err := q.CheckAndIncrement(context.Background(), s); err == nil {
		t.Fatal("expected error")
	}
}
