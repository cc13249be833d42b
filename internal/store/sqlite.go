// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides session mapping and exchange persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS session_mappings (
			conversation_id TEXT PRIMARY KEY,
			session_id      TEXT NOT NULL,
			created_at      DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS exchanges (
			id              TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			session_id      TEXT NOT NULL,
			run_id          TEXT,
			prompt          TEXT NOT NULL,
			reply           TEXT NOT NULL,
			created_at      DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_exchanges_conversation
			ON exchanges(conversation_id, created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// LookupSession resolves the assistant session for a conversation.
// Storage failures are logged and reported as LookupFailed rather than
// returned as errors; the caller chooses the degradation policy.
func (s *SQLiteStore) LookupSession(ctx context.Context, conversationID string) LookupResult {
	var sessionID string
	err := s.db.QueryRowContext(ctx,
		"SELECT session_id FROM session_mappings WHERE conversation_id = ?",
		conversationID,
	).Scan(&sessionID)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return LookupResult{State: LookupAbsent}
	case err != nil:
		s.logger.Error("session lookup failed", "conversation_id", conversationID, "error", err)
		return LookupResult{State: LookupFailed, Err: err}
	default:
		return LookupResult{State: LookupFound, SessionID: sessionID}
	}
}

// SaveSessionMapping upserts the conversation -> session mapping.
func (s *SQLiteStore) SaveSessionMapping(ctx context.Context, conversationID, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_mappings (conversation_id, session_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(conversation_id) DO UPDATE SET session_id = excluded.session_id
	`, conversationID, sessionID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving session mapping: %w", err)
	}
	return nil
}

// ListSessionMappings returns mappings ordered newest-first.
func (s *SQLiteStore) ListSessionMappings(ctx context.Context, limit int) ([]*SessionMapping, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT conversation_id, session_id, created_at
		FROM session_mappings
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing session mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*SessionMapping
	for rows.Next() {
		var m SessionMapping
		if err := rows.Scan(&m.ConversationID, &m.SessionID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning session mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

// RecordExchange appends an audit record for one bridge round-trip.
func (s *SQLiteStore) RecordExchange(ctx context.Context, ex *Exchange) error {
	if ex.CreatedAt.IsZero() {
		ex.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO exchanges (id, conversation_id, session_id, run_id, prompt, reply, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ex.ID, ex.ConversationID, ex.SessionID, ex.RunID, ex.Prompt, ex.Reply, ex.CreatedAt)
	if err != nil {
		return fmt.Errorf("recording exchange: %w", err)
	}
	return nil
}

// ListExchanges returns a conversation's exchanges ordered oldest-first.
func (s *SQLiteStore) ListExchanges(ctx context.Context, conversationID string, limit int) ([]*Exchange, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, session_id, run_id, prompt, reply, created_at
		FROM exchanges
		WHERE conversation_id = ?
		ORDER BY created_at ASC
		LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*Exchange
	for rows.Next() {
		var ex Exchange
		var runID sql.NullString
		if err := rows.Scan(&ex.ID, &ex.ConversationID, &ex.SessionID, &runID, &ex.Prompt, &ex.Reply, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		ex.RunID = runID.String
		exchanges = append(exchanges, &ex)
	}
	return exchanges, rows.Err()
}

// Close closes the underlying database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
