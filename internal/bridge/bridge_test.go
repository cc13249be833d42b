// ABOUTME: Pipeline tests for the bridge core
// ABOUTME: Covers event filtering, unarchiving, and the end-to-end happy path

package bridge

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/seance/internal/backend"
	"github.com/2389/seance/internal/platform"
)

// testBridge builds a bridge over the fakes with near-zero delays.
func testBridge(t *testing.T, st *fakeStore, be *fakeBackend, chat *fakeChat) *Bridge {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, be, chat, Options{
		AssistantID:  "asst-test",
		PollInterval: time.Millisecond,
		ChunkDelay:   time.Millisecond,
	}, logger)
}

func inboundMention(content string) platform.Inbound {
	return platform.Inbound{
		ConversationID: "conv-1",
		Content:        content,
		MentionsMe:     true,
	}
}

func TestHandleInbound_EndToEnd(t *testing.T) {
	st := newFakeStore()
	be := newFakeBackend()
	chat := newFakeChat()
	be.reply = &backend.Message{Role: "assistant", Text: "hi there"}

	b := testBridge(t, st, be, chat)
	err := b.HandleInbound(context.Background(), inboundMention("hello"))
	require.NoError(t, err)

	// Session created and mapping persisted
	assert.Equal(t, "sess-1", st.mappings["conv-1"])

	// Message submitted once
	assert.Equal(t, []string{"hello"}, be.submitted["sess-1"])

	// Single chunk delivered unchanged apart from the citation separator
	require.Len(t, chat.replies, 1)
	assert.Equal(t, "hi there\n", chat.replies[0])

	// Round-trip audited
	require.Len(t, st.exchanges, 1)
	assert.Equal(t, "hello", st.exchanges[0].Prompt)
	assert.Equal(t, "run-1", st.exchanges[0].RunID)
}

func TestHandleInbound_ReusesExistingSession(t *testing.T) {
	st := newFakeStore()
	st.mappings["conv-1"] = "sess-known"
	be := newFakeBackend()
	be.submitted["sess-known"] = nil
	be.reply = &backend.Message{Role: "assistant", Text: "ok"}
	chat := newFakeChat()

	b := testBridge(t, st, be, chat)
	require.NoError(t, b.HandleInbound(context.Background(), inboundMention("again")))

	assert.Zero(t, be.sessionCounter, "no new session should be created")
	assert.Equal(t, []string{"again"}, be.submitted["sess-known"])
}

func TestHandleInbound_Filters(t *testing.T) {
	tests := []struct {
		name string
		msg  platform.Inbound
	}{
		{"bot author", platform.Inbound{ConversationID: "c", Content: "x", AuthorIsBot: true, MentionsMe: true}},
		{"no mention", platform.Inbound{ConversationID: "c", Content: "x"}},
		{"empty content", platform.Inbound{ConversationID: "c", MentionsMe: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newFakeStore()
			be := newFakeBackend()
			chat := newFakeChat()
			b := testBridge(t, st, be, chat)

			require.NoError(t, b.HandleInbound(context.Background(), tt.msg))
			assert.Zero(t, be.sessionCounter)
			assert.Empty(t, chat.replies)
		})
	}
}

func TestHandleInbound_UnarchivesArchivedThread(t *testing.T) {
	st := newFakeStore()
	st.mappings["conv-1"] = "sess-1"
	be := newFakeBackend()
	be.submitted["sess-1"] = nil
	be.reply = &backend.Message{Role: "assistant", Text: "ok"}
	chat := newFakeChat()

	b := testBridge(t, st, be, chat)
	msg := inboundMention("wake up")
	msg.IsThread = true
	msg.IsArchived = true

	require.NoError(t, b.HandleInbound(context.Background(), msg))
	assert.Equal(t, []string{"conv-1"}, chat.unarchived)
}

func TestHandleInbound_BackendFailurePropagates(t *testing.T) {
	st := newFakeStore()
	be := newFakeBackend()
	be.addMessageErr = backend.ErrSessionNotFound
	chat := newFakeChat()

	b := testBridge(t, st, be, chat)
	err := b.HandleInbound(context.Background(), inboundMention("hello"))
	require.ErrorIs(t, err, backend.ErrSessionNotFound)

	// Silent failure policy: no reply on an aborted pipeline
	assert.Empty(t, chat.replies)
}

func TestHandler_IsolatesFailures(t *testing.T) {
	st := newFakeStore()
	be := newFakeBackend()
	be.createSessionErr = assert.AnError
	chat := newFakeChat()

	b := testBridge(t, st, be, chat)

	// Must not panic or propagate
	b.Handler()(context.Background(), inboundMention("hello"))
	assert.Empty(t, chat.replies)
}
