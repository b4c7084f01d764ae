package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/saiprasannasurisetty/azure-openai-chatbot/internal/model"
)

// Store persists conversation sessions, messages, API key hashes, and
// process settings, backed by SQLite.
type Store struct {
	db *sqlx.DB
}

// New creates a store rooted at dataDir. Pass empty string for in-memory.
func New(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == "" {
		dsn = ":memory:?_journal_mode=WAL"
	} else {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = filepath.Join(dataDir, "chatbot.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ---------------------------------------------------------------------------
// Sessions and messages
// ---------------------------------------------------------------------------

// EnsureSession creates the session row if it does not exist yet. Creating an
// existing session is a no-op.
func (s *Store) EnsureSession(ctx context.Context, sessionID string, userID *string) error {
	const q = `INSERT OR IGNORE INTO sessions (session_id, user_id, created_at)
		VALUES (?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sessionID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

// AppendMessage records one message for a session. Messages are append-only.
func (s *Store) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	const q = `INSERT INTO messages (session_id, role, content, timestamp)
		VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sessionID, role, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// History returns up to limit messages for a session, oldest first.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	const q = `SELECT * FROM messages WHERE session_id = ?
		ORDER BY timestamp ASC, id ASC LIMIT ?`
	if err := s.db.SelectContext(ctx, &msgs, q, sessionID, limit); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return msgs, nil
}

// ---------------------------------------------------------------------------
// API keys
// ---------------------------------------------------------------------------

// CreateAPIKey inserts a new API key record. KeyHash must already be the
// salted hash (the store never sees raw keys). ID and CreatedAt are populated
// after a successful insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = time.Now().UTC()

	const q = `INSERT INTO users (api_key, key_prefix, active, created_at)
		VALUES (:api_key, :key_prefix, :active, :created_at)`

	result, err := s.db.NamedExecContext(ctx, q, key)
	if err != nil {
		return fmt.Errorf("insert api key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get api key id: %w", err)
	}
	key.ID = id
	return nil
}

// GetActiveKeyByHash looks up an active API key by its salted hash. Inactive
// keys are not returned; validation treats them the same as unknown keys.
func (s *Store) GetActiveKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	const q = `SELECT * FROM users WHERE api_key = ? AND active = 1`
	if err := s.db.GetContext(ctx, &key, q, hash); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key by hash: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns all API key records, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, "SELECT * FROM users ORDER BY created_at DESC, id DESC"); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// DeactivateAPIKey marks a key inactive by ID. Callers holding the key may
// still pass validation until the local cache entry expires.
func (s *Store) DeactivateAPIKey(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET active = 0 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateAPIKeyByPrefix marks an active key inactive by its prefix.
func (s *Store) DeactivateAPIKeyByPrefix(ctx context.Context, prefix string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE users SET active = 0 WHERE key_prefix = ? AND active = 1", prefix)
	if err != nil {
		return fmt.Errorf("deactivate api key by prefix: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate api key rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Settings
// ---------------------------------------------------------------------------

// GetSetting returns the value for a settings key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	if err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key); err != nil {
		if err == sql.ErrNoRows {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get setting: %w", err)
	}
	return value, nil
}

// SetSetting inserts or replaces a settings key.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	const q = `INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := s.db.ExecContext(ctx, q, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Counters (telemetry)
// ---------------------------------------------------------------------------

// Counts returns the number of sessions, messages, and API keys.
func (s *Store) Counts(ctx context.Context) (sessions, messages, keys int, err error) {
	if err = s.db.GetContext(ctx, &sessions, "SELECT COUNT(*) FROM sessions"); err != nil {
		return 0, 0, 0, fmt.Errorf("count sessions: %w", err)
	}
	if err = s.db.GetContext(ctx, &messages, "SELECT COUNT(*) FROM messages"); err != nil {
		return 0, 0, 0, fmt.Errorf("count messages: %w", err)
	}
	if err = s.db.GetContext(ctx, &keys, "SELECT COUNT(*) FROM users"); err != nil {
		return 0, 0, 0, fmt.Errorf("count users: %w", err)
	}
	return sessions, messages, keys, nil
}
