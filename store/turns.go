package store

import (
	"context"
	"fmt"
	"time"

	"github.com/luminal-ai/agui-gateway/id"
)

// Turn is one completed agent reply, persisted after TEXT_MESSAGE_END with
// the accumulated full text of the turn.
type Turn struct {
	ID        string
	MessageID string
	ThreadID  string
	UserID    int64
	UserText  string
	AgentText string
	CreatedAt time.Time
}

// TurnRecorder persists completed turns. Implementations may drop turns for
// ephemeral (guest) sessions.
type TurnRecorder interface {
	SaveTurn(ctx context.Context, turn *Turn) error
}

func (s *Store) SaveTurn(ctx context.Context, turn *Turn) error {
	if turn.ID == "" {
		turn.ID = id.NewTurn()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}

	sql := `
		INSERT INTO turns (id, message_id, thread_id, user_id, user_text, agent_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.conn(ctx).Exec(ctx, sql,
		turn.ID, turn.MessageID, nullIfEmpty(turn.ThreadID), turn.UserID,
		turn.UserText, turn.AgentText, turn.CreatedAt)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
