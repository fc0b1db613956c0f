package sessionlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGMirror appends an optional, best-effort Postgres copy of the tool
// execution JSON stream. It exists for off-box querying of past sessions;
// it is never read back into a running loop, so its absence (or failure)
// never changes reasoning-loop behavior.
type PGMirror struct {
	pool *pgxpool.Pool
}

// NewPGMirror wraps an already-connected pool. Call Migrate once at
// startup before using it.
func NewPGMirror(pool *pgxpool.Pool) *PGMirror {
	return &PGMirror{pool: pool}
}

// Migrate creates the mirror table if it does not already exist. It is
// intentionally a single idempotent statement rather than a full
// golang-migrate migration set, since this table has no schema history to
// manage — it only ever gains append-only rows.
func (m *PGMirror) Migrate(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tool_execution_log (
			id          BIGSERIAL PRIMARY KEY,
			session_id  TEXT NOT NULL,
			iteration   INT NOT NULL,
			tool_name   TEXT NOT NULL,
			method_used TEXT NOT NULL,
			success     BOOLEAN NOT NULL,
			payload     JSONB NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// MirrorToolExecution inserts one row. Failures are logged, not returned —
// mirroring is a diagnostic convenience, not part of the reasoning loop's
// contract.
func (m *PGMirror) MirrorToolExecution(ctx context.Context, sessionID string, iteration int, toolName, methodUsed string, success bool, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		slog.Warn("sessionlog: pg mirror marshal failed", "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err = m.pool.Exec(ctx, `
		INSERT INTO tool_execution_log (session_id, iteration, tool_name, method_used, success, payload)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sessionID, iteration, toolName, methodUsed, success, body)
	if err != nil {
		slog.Warn("sessionlog: pg mirror insert failed", "session", sessionID, "error", err)
	}
}
