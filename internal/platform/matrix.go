// ABOUTME: Matrix implementation of the chat platform using mautrix
// ABOUTME: Handles sync loop, thread detection, history fetches, and formatted replies

package platform

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/yuin/goldmark"
	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// threadFetchLimit bounds how much thread history is pulled for backfill.
const threadFetchLimit = 100

// typingTimeout is the duration the typing indicator shows (30 seconds).
const typingTimeout = 30 * time.Second

// networkTimeout is the timeout for Matrix API calls.
const networkTimeout = 10 * time.Second

// MatrixOptions configures the Matrix platform connection.
type MatrixOptions struct {
	Homeserver      string
	UserID          string
	AccessToken     string
	AllowedRooms    []string
	TypingIndicator bool
}

// Matrix connects a Matrix account to the bridge. It implements Chat
// and delivers inbound message events to a Handler.
type Matrix struct {
	opts    MatrixOptions
	client  *mautrix.Client
	handler Handler
	logger  *slog.Logger

	// Track conversations we're actively processing to avoid duplicate handling
	processing sync.Map
}

// NewMatrix creates a Matrix platform connection.
func NewMatrix(opts MatrixOptions, logger *slog.Logger) (*Matrix, error) {
	client, err := mautrix.NewClient(opts.Homeserver, id.UserID(opts.UserID), opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("creating matrix client: %w", err)
	}

	return &Matrix{
		opts:   opts,
		client: client,
		logger: logger.With("component", "matrix"),
	}, nil
}

// OnInbound registers the handler invoked for each accepted message event.
// Must be called before Run.
func (m *Matrix) OnInbound(handler Handler) {
	m.handler = handler
}

// Run starts the sync loop and blocks until the context is cancelled
// or syncing fails.
func (m *Matrix) Run(ctx context.Context) error {
	m.logger.Info("starting matrix sync",
		"homeserver", m.opts.Homeserver,
		"user_id", m.opts.UserID,
	)

	syncer, ok := m.client.Syncer.(*mautrix.DefaultSyncer)
	if !ok {
		return fmt.Errorf("unexpected syncer type: %T", m.client.Syncer)
	}
	syncer.OnEventType(event.EventMessage, func(evtCtx context.Context, evt *event.Event) {
		m.handleMessageEvent(ctx, evt)
	})

	syncErr := make(chan error, 1)
	go func() {
		syncErr <- m.client.SyncWithContext(ctx)
	}()

	select {
	case <-ctx.Done():
		m.logger.Info("stopping matrix sync")
		return nil
	case err := <-syncErr:
		return fmt.Errorf("matrix sync failed: %w", err)
	}
}

// handleMessageEvent converts a Matrix message event into an Inbound and
// hands it to the registered handler on its own goroutine.
func (m *Matrix) handleMessageEvent(ctx context.Context, evt *event.Event) {
	content, ok := evt.Content.Parsed.(*event.MessageEventContent)
	if !ok || content.MsgType != event.MsgText {
		return
	}

	roomID := evt.RoomID.String()
	if !m.isRoomAllowed(roomID) {
		m.logger.Debug("ignoring message from non-allowed room", "room", roomID)
		return
	}

	conversationID := roomID
	isThread := false
	if rel := content.RelatesTo; rel != nil && rel.Type == event.RelThread && rel.EventID != "" {
		conversationID = joinConversationID(roomID, rel.EventID.String())
		isThread = true
	}

	msg := Inbound{
		ConversationID: conversationID,
		Content:        content.Body,
		AuthorIsBot:    evt.Sender == id.UserID(m.opts.UserID),
		MentionsMe:     m.mentionsMe(content),
		IsThread:       isThread,
		// Matrix conversations have no archived state
		IsArchived: false,
	}

	if m.handler == nil {
		return
	}

	// One event at a time per conversation; overlapping events on the
	// same conversation are dropped rather than racing the pipeline.
	if _, loaded := m.processing.LoadOrStore(conversationID, true); loaded {
		m.logger.Debug("already processing message in conversation, dropping", "conversation", conversationID)
		return
	}

	go func() {
		defer m.processing.Delete(conversationID)

		if m.opts.TypingIndicator {
			m.setTyping(evt.RoomID, true)
			defer m.setTyping(evt.RoomID, false)
		}

		m.handler(ctx, msg)
	}()
}

// mentionsMe reports whether the message mentions our user, via the
// structured m.mentions block or a plain-text user id reference.
func (m *Matrix) mentionsMe(content *event.MessageEventContent) bool {
	if content.Mentions != nil {
		for _, uid := range content.Mentions.UserIDs {
			if uid == id.UserID(m.opts.UserID) {
				return true
			}
		}
	}
	return strings.Contains(content.Body, m.opts.UserID)
}

// isRoomAllowed checks if the room is in the allowed list.
func (m *Matrix) isRoomAllowed(roomID string) bool {
	if len(m.opts.AllowedRooms) == 0 {
		return true // Allow all if no filter
	}

	for _, allowed := range m.opts.AllowedRooms {
		if allowed == roomID {
			return true
		}
	}
	return false
}

// Unarchive is a no-op on Matrix; rooms and threads have no archived bit.
func (m *Matrix) Unarchive(ctx context.Context, conversationID string) error {
	m.logger.Debug("unarchive requested, nothing to do on matrix", "conversation", conversationID)
	return nil
}

// ThreadStarter fetches the root event of a thread conversation.
func (m *Matrix) ThreadStarter(ctx context.Context, conversationID string) (string, error) {
	roomID, rootID, ok := splitConversationID(conversationID)
	if !ok {
		return "", fmt.Errorf("conversation %s is not a thread", conversationID)
	}

	evt, err := m.client.GetEvent(ctx, id.RoomID(roomID), id.EventID(rootID))
	if err != nil {
		return "", fmt.Errorf("fetching thread starter: %w", err)
	}
	if err := evt.Content.ParseRaw(event.EventMessage); err != nil {
		return "", fmt.Errorf("parsing thread starter: %w", err)
	}
	return evt.Content.AsMessage().Body, nil
}

// ThreadMessages fetches the thread's messages newest-first, excluding
// the starter. The caller reverses the order for backfill.
func (m *Matrix) ThreadMessages(ctx context.Context, conversationID string) ([]string, error) {
	roomID, rootID, ok := splitConversationID(conversationID)
	if !ok {
		return nil, fmt.Errorf("conversation %s is not a thread", conversationID)
	}

	resp, err := m.client.Messages(ctx, id.RoomID(roomID), "", "", mautrix.DirectionBackward, nil, threadFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("fetching thread messages: %w", err)
	}

	var bodies []string
	for _, evt := range resp.Chunk {
		if evt.Type != event.EventMessage {
			continue
		}
		if err := evt.Content.ParseRaw(event.EventMessage); err != nil {
			continue
		}
		content := evt.Content.AsMessage()
		rel := content.RelatesTo
		if rel == nil || rel.Type != event.RelThread || rel.EventID != id.EventID(rootID) {
			continue
		}
		bodies = append(bodies, content.Body)
	}
	return bodies, nil
}

// Reply sends a message into the conversation, threading it back into
// the originating Matrix thread when applicable. The body is also
// rendered to HTML so clients show formatted output.
func (m *Matrix) Reply(ctx context.Context, conversationID, text string) error {
	roomID := conversationID
	content := &event.MessageEventContent{
		MsgType: event.MsgText,
		Body:    text,
	}

	if room, rootID, ok := splitConversationID(conversationID); ok {
		roomID = room
		content.RelatesTo = &event.RelatesTo{
			Type:    event.RelThread,
			EventID: id.EventID(rootID),
		}
	}

	if html, err := renderMarkdown(text); err == nil && html != text {
		content.Format = event.FormatHTML
		content.FormattedBody = html
	}

	if _, err := m.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, content); err != nil {
		return fmt.Errorf("sending reply: %w", err)
	}
	return nil
}

// setTyping sends typing indicator to room.
func (m *Matrix) setTyping(roomID id.RoomID, typing bool) {
	var timeout time.Duration
	if typing {
		timeout = typingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), networkTimeout)
	defer cancel()
	if _, err := m.client.UserTyping(ctx, roomID, typing, timeout); err != nil {
		m.logger.Debug("failed to set typing indicator", "room", roomID.String(), "error", err)
	}
}

// renderMarkdown converts markdown text to HTML for formatted replies.
func renderMarkdown(text string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

// joinConversationID builds the conversation id for a thread within a room.
func joinConversationID(roomID, rootEventID string) string {
	return roomID + "/" + rootEventID
}

// splitConversationID splits a thread conversation id back into room and
// root event ids. Returns ok=false for room-level conversations.
func splitConversationID(conversationID string) (roomID, rootEventID string, ok bool) {
	idx := strings.Index(conversationID, "/")
	if idx < 0 {
		return conversationID, "", false
	}
	return conversationID[:idx], conversationID[idx+1:], true
}
