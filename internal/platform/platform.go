// ABOUTME: Chat platform interface and inbound event type consumed by the bridge
// ABOUTME: Keeps the pipeline independent of the concrete chat client

package platform

import "context"

// Inbound is one message event delivered by the chat platform.
type Inbound struct {
	// ConversationID identifies the channel or thread the message
	// arrived in. Stable across events for the same conversation.
	ConversationID string
	Content        string
	AuthorIsBot    bool
	MentionsMe     bool
	IsThread       bool
	IsArchived     bool
}

// Handler processes one inbound event. Implementations must isolate
// failures per event; a handler error never propagates to the platform
// sync loop.
type Handler func(ctx context.Context, msg Inbound)

// Chat is the platform surface the bridge calls back into.
type Chat interface {
	// Unarchive restores an archived conversation so replies can be sent.
	Unarchive(ctx context.Context, conversationID string) error

	// ThreadStarter fetches the message that opened a thread conversation.
	ThreadStarter(ctx context.Context, conversationID string) (string, error)

	// ThreadMessages fetches a thread's messages in platform order,
	// newest first.
	ThreadMessages(ctx context.Context, conversationID string) ([]string, error)

	// Reply sends one message into the conversation.
	Reply(ctx context.Context, conversationID, text string) error
}
