package auth

import "context"

// QuotaCounter is the atomic compare-and-increment contract offered by the
// session store. It must never increment past the limit; making the
// check-then-increment race-free is the store's job, the gateway only ever
// issues the single combined call.
type QuotaCounter interface {
	IncrementWithLimit(ctx context.Context, token string, limit int) (count int, allowed bool, err error)
}

// QuotaEnforcer bounds how many user messages an anonymous session may send.
// Full sessions are never consulted against the quota.
type QuotaEnforcer struct {
	counter QuotaCounter
	limit   int
}

func NewQuotaEnforcer(counter QuotaCounter, limit int) *QuotaEnforcer {
	return &QuotaEnforcer{counter: counter, limit: limit}
}

func (q *QuotaEnforcer) Limit() int { return q.limit }

// CheckAndIncrement consumes one quota slot for guest sessions. When the
// session is already at the limit it reports false and the counter is left
// untouched.
func (q *QuotaEnforcer) CheckAndIncrement(ctx context.Context, s *Session) (bool, error) {
	if !s.IsGuest() {
		return true, nil
	}
	count, allowed, err := q.counter.IncrementWithLimit(ctx, s.Token, q.limit)
	if err != nil {
		return false, err
	}
	if allowed {
		s.GuestMessageCount = count
	}
	return allowed, nil
}
