// ABOUTME: Session bootstrap resolving or creating the assistant session for a conversation
// ABOUTME: Replays thread history into newly created sessions, oldest message first

package bridge

import (
	"context"
	"fmt"

	"github.com/2389/seance/internal/platform"
	"github.com/2389/seance/internal/store"
)

// ensureSession returns the session id for the conversation, creating
// one if none is mapped. The returned backfilled flag is true when the
// thread's history, the current inbound message included, was replayed
// into a fresh session; the caller must not submit the message again.
//
// The whole lookup-or-create sequence holds the conversation's lock, so
// concurrent events on one conversation resolve to a single session.
func (b *Bridge) ensureSession(ctx context.Context, msg platform.Inbound) (sessionID string, backfilled bool, err error) {
	unlock := b.locks.Lock(msg.ConversationID)
	defer unlock()

	res := b.store.LookupSession(ctx, msg.ConversationID)
	switch res.State {
	case store.LookupFound:
		return res.SessionID, false, nil
	case store.LookupFailed:
		// Fail-open: proceed as if no mapping existed. Worst case a
		// fresh session replaces one we could not read.
		b.logger.Warn("session lookup failed, treating as absent",
			"conversation", msg.ConversationID,
			"error", res.Err,
		)
	}

	sessionID, err = b.backend.CreateSession(ctx)
	if err != nil {
		return "", false, fmt.Errorf("creating session: %w", err)
	}
	b.logger.Info("created session", "conversation", msg.ConversationID, "session", sessionID)

	if err := b.store.SaveSessionMapping(ctx, msg.ConversationID, sessionID); err != nil {
		// Fail-open as well: the session works for this event, the next
		// event will re-create one.
		b.logger.Error("failed to save session mapping",
			"conversation", msg.ConversationID,
			"session", sessionID,
			"error", err,
		)
	}

	if !msg.IsThread {
		return sessionID, false, nil
	}

	if err := b.backfillThread(ctx, msg.ConversationID, sessionID); err != nil {
		return "", false, err
	}
	return sessionID, true, nil
}

// backfillThread replays the thread's visible history into the session:
// starter first, then the remaining messages oldest-first, blanks
// dropped. The platform returns history newest-first, so it is reversed
// here.
func (b *Bridge) backfillThread(ctx context.Context, conversationID, sessionID string) error {
	starter, err := b.chat.ThreadStarter(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("fetching thread starter: %w", err)
	}

	others, err := b.chat.ThreadMessages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("fetching thread messages: %w", err)
	}

	history := make([]string, 0, len(others)+1)
	history = append(history, starter)
	for i := len(others) - 1; i >= 0; i-- {
		history = append(history, others[i])
	}

	submitted := 0
	for _, content := range history {
		if blank(content) {
			continue
		}
		if _, err := b.backend.AddMessage(ctx, sessionID, "user", content); err != nil {
			return fmt.Errorf("backfilling message: %w", err)
		}
		submitted++
	}

	b.logger.Info("backfilled thread history",
		"conversation", conversationID,
		"session", sessionID,
		"messages", submitted,
	)
	return nil
}
