package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS turns (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	seq INTEGER NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (session_id, seq)
);
CREATE INDEX IF NOT EXISTS turns_session_seq_idx ON turns (session_id, seq);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}

// Append inserts the next turn for a session. A transaction-scoped advisory
// lock on the session id serializes sequence assignment across concurrent
// appends to the same session, including from other service instances.
func (p *Postgres) Append(ctx context.Context, sessionID string, role Role, content string) (Turn, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return Turn{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return Turn{}, fmt.Errorf("lock session: %w", err)
	}

	turn := Turn{
		ID:        uuid.New(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO turns (id, session_id, role, content, seq, created_at)
		VALUES ($1, $2, $3, $4, (SELECT COALESCE(MAX(seq)+1, 0) FROM turns WHERE session_id = $2), now())
		RETURNING seq, created_at`,
		turn.ID, sessionID, string(role), content,
	).Scan(&turn.Seq, &turn.CreatedAt)
	if err != nil {
		return Turn{}, fmt.Errorf("insert turn: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Turn{}, fmt.Errorf("commit: %w", err)
	}
	return turn, nil
}

// History returns the most recent limit turns in ascending seq order. A
// non-positive limit returns the full session log.
func (p *Postgres) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	query := `
		SELECT id, session_id, role, content, seq, created_at
		FROM turns WHERE session_id = $1 ORDER BY seq DESC`
	args := []any{sessionID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var role string
		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, &t.Seq, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Role = Role(role)
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	reverse(turns)
	return turns, nil
}

func (p *Postgres) Purge(ctx context.Context, sessionID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("purge session: %w", err)
	}
	return nil
}

func reverse(turns []Turn) {
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
}
