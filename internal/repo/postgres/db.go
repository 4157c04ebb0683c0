package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const lockTimeoutOption = "-c lock_timeout=10s"

// withLockTimeout carries the lock timeout in the DSN so every pooled
// connection gets it. A session-scoped SET would only reach the one
// connection it happens to run on; timers and the message handler use
// different pool connections concurrently.
func withLockTimeout(dsn string) string {
	if strings.Contains(dsn, "lock_timeout") {
		return dsn
	}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		u, err := url.Parse(dsn)
		if err != nil {
			return dsn
		}
		query := u.Query()
		query.Set("options", lockTimeoutOption)
		u.RawQuery = query.Encode()
		return u.String()
	}

	return dsn + " options='" + lockTimeoutOption + "'"
}

// Open connects to the moderation database. The lock timeout travels in
// the DSN so concurrent access from unmute timers and the message
// handler fails fast instead of deadlocking silently, on every
// connection the pool ever opens.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("database url is required")
	}

	db, err := sql.Open("postgres", withLockTimeout(dsn))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates the moderation tables if they do not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS moderation_events (
			id BIGSERIAL PRIMARY KEY,
			event_date TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL CHECK (event_type IN ('mute', 'unmute', 'kick')),
			moderator TEXT NOT NULL,
			player TEXT NOT NULL,
			reason TEXT NOT NULL,
			mute_end TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS moderation_events_player_idx
			ON moderation_events (player, event_type, event_date);
		CREATE TABLE IF NOT EXISTS moderators (
			jid TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS jid_nick_whitelist (
			jid TEXT PRIMARY KEY
		);
		CREATE TABLE IF NOT EXISTS profanity_terms (
			term TEXT NOT NULL,
			language TEXT NOT NULL,
			PRIMARY KEY (term, language)
		);
		CREATE TABLE IF NOT EXISTS profanity_incidents (
			id BIGSERIAL PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			player TEXT NOT NULL,
			room TEXT NOT NULL,
			offending_content TEXT NOT NULL,
			matched_terms TEXT[] NOT NULL,
			detected_languages TEXT[] NOT NULL
		);
		CREATE INDEX IF NOT EXISTS profanity_incidents_player_idx
			ON profanity_incidents (player, timestamp);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
