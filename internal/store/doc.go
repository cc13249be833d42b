// Package store provides persistent storage for the bridge using SQLite.
//
// # Data Models
//
//   - SessionMapping: links a chat conversation to its assistant session.
//     Written once per conversation and never deleted; every inbound event
//     performs one lookup against it.
//   - Exchange: an append-only audit record of one bridge round-trip
//     (prompt in, assembled reply out).
//
// # Lookup Semantics
//
// LookupSession never returns a Go error. Its LookupResult distinguishes
// Found, Absent, and Failed so callers can choose the degradation policy:
// the bridge treats Failed as Absent (fail-open), which at worst re-creates
// a session for a conversation whose mapping could not be read.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// Use NewSQLiteStore(":memory:") or a t.TempDir() path for tests.
package store
