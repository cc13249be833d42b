// ABOUTME: Store interface and data types for seance persistence
// ABOUTME: Defines SessionMapping, Exchange structs and the Store interface for database operations

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// SessionMapping links a chat conversation to its assistant session.
// Once written, a mapping is never deleted; re-saving the same
// conversation overwrites the session id (last writer wins).
type SessionMapping struct {
	ConversationID string
	SessionID      string
	CreatedAt      time.Time
}

// LookupState describes the outcome of a session lookup.
type LookupState int

const (
	// LookupAbsent means no mapping exists for the conversation.
	LookupAbsent LookupState = iota
	// LookupFound means a mapping exists for the conversation.
	LookupFound
	// LookupFailed means the underlying storage read failed. Callers
	// decide whether to degrade to "absent" or abort.
	LookupFailed
)

// LookupResult carries the session id for LookupFound, and the storage
// error for LookupFailed.
type LookupResult struct {
	State     LookupState
	SessionID string
	Err       error
}

// Exchange records one completed bridge round-trip for audit purposes.
type Exchange struct {
	ID             string
	ConversationID string
	SessionID      string
	RunID          string
	Prompt         string
	Reply          string
	CreatedAt      time.Time
}

// Store defines the interface for mapping and exchange persistence
type Store interface {
	// LookupSession resolves the assistant session for a conversation.
	// It never returns a Go error; storage failures are reported as
	// LookupFailed in the result.
	LookupSession(ctx context.Context, conversationID string) LookupResult

	// SaveSessionMapping upserts the conversation -> session mapping.
	// Idempotent: saving an identical pair is a no-op.
	SaveSessionMapping(ctx context.Context, conversationID, sessionID string) error

	// ListSessionMappings returns mappings ordered newest-first.
	ListSessionMappings(ctx context.Context, limit int) ([]*SessionMapping, error)

	// RecordExchange appends an audit record for one bridge round-trip.
	RecordExchange(ctx context.Context, ex *Exchange) error

	// ListExchanges returns a conversation's exchanges ordered oldest-first.
	ListExchanges(ctx context.Context, conversationID string, limit int) ([]*Exchange, error)

	// Close releases any resources held by the store
	Close() error
}
