// ABOUTME: In-memory fakes for store, backend, and chat collaborators
// ABOUTME: Shared by the bridge pipeline tests

package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/2389/seance/internal/backend"
	"github.com/2389/seance/internal/store"
)

// fakeStore is an in-memory store.Store.
type fakeStore struct {
	mu         sync.Mutex
	mappings   map[string]string
	exchanges  []*store.Exchange
	failLookup bool
	failSave   bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{mappings: make(map[string]string)}
}

func (s *fakeStore) LookupSession(ctx context.Context, conversationID string) store.LookupResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failLookup {
		return store.LookupResult{State: store.LookupFailed, Err: errors.New("boom")}
	}
	if sessionID, ok := s.mappings[conversationID]; ok {
		return store.LookupResult{State: store.LookupFound, SessionID: sessionID}
	}
	return store.LookupResult{State: store.LookupAbsent}
}

func (s *fakeStore) SaveSessionMapping(ctx context.Context, conversationID, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSave {
		return errors.New("boom")
	}
	s.mappings[conversationID] = sessionID
	return nil
}

func (s *fakeStore) ListSessionMappings(ctx context.Context, limit int) ([]*store.SessionMapping, error) {
	return nil, nil
}

func (s *fakeStore) RecordExchange(ctx context.Context, ex *store.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exchanges = append(s.exchanges, ex)
	return nil
}

func (s *fakeStore) ListExchanges(ctx context.Context, conversationID string, limit int) ([]*store.Exchange, error) {
	return nil, nil
}

func (s *fakeStore) Close() error { return nil }

// fakeBackend is an in-memory backend.Client. Run status reads are
// served from the configured sequence, sticking on the last entry.
type fakeBackend struct {
	mu             sync.Mutex
	sessionCounter int
	submitted      map[string][]string // session id -> appended contents, oldest first
	runStatuses    []backend.RunStatus
	runReads       int
	reply          *backend.Message // newest message in every session
	files          map[string]string

	createSessionErr error
	addMessageErr    error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		submitted:   make(map[string][]string),
		runStatuses: []backend.RunStatus{backend.RunStatusCompleted},
		files:       make(map[string]string),
	}
}

func (f *fakeBackend) CreateSession(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createSessionErr != nil {
		return "", f.createSessionErr
	}
	f.sessionCounter++
	id := fmt.Sprintf("sess-%d", f.sessionCounter)
	f.submitted[id] = nil
	return id, nil
}

func (f *fakeBackend) AddMessage(ctx context.Context, sessionID, role, content string) (*backend.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addMessageErr != nil {
		return nil, f.addMessageErr
	}
	f.submitted[sessionID] = append(f.submitted[sessionID], content)
	return &backend.Message{ID: fmt.Sprintf("msg-%d", len(f.submitted[sessionID])), Role: role, Text: content}, nil
}

func (f *fakeBackend) CreateRun(ctx context.Context, sessionID string, params backend.RunParams) (*backend.Run, error) {
	return &backend.Run{ID: "run-1", Status: backend.RunStatusQueued}, nil
}

func (f *fakeBackend) GetRun(ctx context.Context, sessionID, runID string) (*backend.Run, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.runReads
	if idx >= len(f.runStatuses) {
		idx = len(f.runStatuses) - 1
	}
	f.runReads++
	return &backend.Run{ID: runID, Status: f.runStatuses[idx]}, nil
}

func (f *fakeBackend) ListMessages(ctx context.Context, sessionID string) ([]*backend.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var messages []*backend.Message
	if f.reply != nil {
		messages = append(messages, f.reply)
	}
	// Submitted messages follow, newest first
	contents := f.submitted[sessionID]
	for i := len(contents) - 1; i >= 0; i-- {
		messages = append(messages, &backend.Message{Role: "user", Text: contents[i]})
	}
	return messages, nil
}

func (f *fakeBackend) GetFile(ctx context.Context, fileID string) (*backend.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	filename, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("file %s not found", fileID)
	}
	return &backend.File{ID: fileID, Filename: filename}, nil
}

// fakeChat is an in-memory platform.Chat recording replies.
type fakeChat struct {
	mu             sync.Mutex
	starter        string
	threadMessages []string // newest first, as the platform returns them
	replies        []string
	unarchived     []string
	replyErr       error
}

func newFakeChat() *fakeChat {
	return &fakeChat{}
}

func (c *fakeChat) Unarchive(ctx context.Context, conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unarchived = append(c.unarchived, conversationID)
	return nil
}

func (c *fakeChat) ThreadStarter(ctx context.Context, conversationID string) (string, error) {
	return c.starter, nil
}

func (c *fakeChat) ThreadMessages(ctx context.Context, conversationID string) ([]string, error) {
	return c.threadMessages, nil
}

func (c *fakeChat) Reply(ctx context.Context, conversationID, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.replyErr != nil {
		return c.replyErr
	}
	c.replies = append(c.replies, text)
	return nil
}
