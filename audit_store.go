package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// auditStore keeps a durable log of moderation actions taken through the
// bot. A nil store is valid and drops every call; the bot runs fine without
// the database.
type auditStore struct {
	db *sql.DB
}

type auditEntry struct {
	Action     string
	PlayerName string
	UniqueID   string
	ActorID    string
	CreatedAt  time.Time
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS moderation_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	action TEXT NOT NULL,
	player_name TEXT NOT NULL,
	unique_id TEXT NOT NULL,
	actor_id TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_moderation_log_created
	ON moderation_log(created_at DESC);
`

func openAuditStore(dataDir string) (*auditStore, error) {
	if dataDir == "" {
		dataDir = defaultDataDir
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dataDir, "moderation.db")
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init audit schema: %w", err)
	}
	return &auditStore{db: db}, nil
}

// Record appends one moderation action. Failures are logged, never
// propagated; the action already happened on the game server.
func (s *auditStore) Record(ctx context.Context, action, playerName, uniqueID, actorID string) {
	if s == nil || s.db == nil {
		return
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO moderation_log (action, player_name, unique_id, actor_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		action, playerName, uniqueID, actorID, time.Now().Unix())
	if err != nil {
		logger.Warn("record moderation action failed", "action", action, "error", err)
	}
}

// Recent returns up to limit entries, newest first.
func (s *auditStore) Recent(ctx context.Context, limit int) ([]auditEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT action, player_name, unique_id, actor_id, created_at
		 FROM moderation_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query moderation log: %w", err)
	}
	defer rows.Close()
	var entries []auditEntry
	for rows.Next() {
		var e auditEntry
		var ts int64
		if err := rows.Scan(&e.Action, &e.PlayerName, &e.UniqueID, &e.ActorID, &ts); err != nil {
			return nil, fmt.Errorf("scan moderation log: %w", err)
		}
		e.CreatedAt = time.Unix(ts, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read moderation log: %w", err)
	}
	return entries, nil
}

func (s *auditStore) Close() {
	if s == nil || s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		logger.Warn("close audit db failed", "error", err)
	}
}
