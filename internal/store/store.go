package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Turn is one persisted message in a session's append-only log. Seq is
// gap-free and strictly increasing per session, starting at 0.
type Turn struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Seq       int       `json:"seq"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the conversation log contract. Append assigns the next sequence
// number atomically per session; History returns the most recent limit turns
// in ascending sequence order; Purge removes a session's turns and is
// idempotent.
type Store interface {
	Append(ctx context.Context, sessionID string, role Role, content string) (Turn, error)
	History(ctx context.Context, sessionID string, limit int) ([]Turn, error)
	Purge(ctx context.Context, sessionID string) error
	Close()
}

// Open selects a backend from the URL: postgres:// connects a pgx pool,
// anything else is treated as a SQLite file path.
func Open(ctx context.Context, databaseURL string) (Store, error) {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		return NewPostgres(ctx, databaseURL)
	}
	return NewSQLite(ctx, databaseURL)
}
