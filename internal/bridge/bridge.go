// ABOUTME: Bridge core orchestrating the per-event pipeline
// ABOUTME: Filters inbound events and drives session, run, assembly, and delivery stages

package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/2389/seance/internal/backend"
	"github.com/2389/seance/internal/platform"
	"github.com/2389/seance/internal/store"
)

// Options holds the tunable knobs of the pipeline.
type Options struct {
	// AssistantID selects the backend assistant runs execute as.
	AssistantID string

	// VectorStoreIDs are searched by the assistant's file_search tool.
	VectorStoreIDs []string

	// MaxCompletionTokens caps each run's reply. Defaults to 1000.
	MaxCompletionTokens int

	// PollInterval is the wait between run status reads. Defaults to 1s.
	PollInterval time.Duration

	// MaxPollAttempts bounds the number of non-terminal status reads.
	// 0 polls without bound.
	MaxPollAttempts int

	// ChunkSize is the maximum reply chunk length in bytes. Defaults
	// to 1999, one below the 2000-character platform limit.
	ChunkSize int

	// ChunkDelay is the pause after each chunk send. Defaults to 2s.
	ChunkDelay time.Duration
}

// withDefaults fills in zero-valued options.
func (o Options) withDefaults() Options {
	if o.MaxCompletionTokens == 0 {
		o.MaxCompletionTokens = 1000
	}
	if o.PollInterval == 0 {
		o.PollInterval = time.Second
	}
	if o.ChunkSize == 0 {
		o.ChunkSize = 1999
	}
	if o.ChunkDelay == 0 {
		o.ChunkDelay = 2 * time.Second
	}
	return o
}

// Bridge wires a chat platform to the assistant backend. All
// collaborators are injected; the bridge holds no global state beyond
// its per-conversation locks.
type Bridge struct {
	store   store.Store
	backend backend.Client
	chat    platform.Chat
	opts    Options
	logger  *slog.Logger

	// locks serializes lookup-or-create per conversation so two
	// near-simultaneous events cannot fork a conversation across two
	// sessions.
	locks *keyedMutex
}

// New creates a Bridge with the given collaborators.
func New(st store.Store, be backend.Client, chat platform.Chat, opts Options, logger *slog.Logger) *Bridge {
	return &Bridge{
		store:   st,
		backend: be,
		chat:    chat,
		opts:    opts.withDefaults(),
		logger:  logger.With("component", "bridge"),
		locks:   newKeyedMutex(),
	}
}

// Handler adapts the bridge for the platform's event loop. Errors are
// logged and swallowed here so one conversation's failure never reaches
// the sync loop or other conversations' pipelines.
func (b *Bridge) Handler() platform.Handler {
	return func(ctx context.Context, msg platform.Inbound) {
		if err := b.HandleInbound(ctx, msg); err != nil {
			b.logger.Error("pipeline failed",
				"conversation", msg.ConversationID,
				"error", err,
			)
		}
	}
}

// HandleInbound runs the full pipeline for one inbound event: session
// bootstrap, message submission, run polling, response assembly, and
// chunked delivery.
func (b *Bridge) HandleInbound(ctx context.Context, msg platform.Inbound) error {
	if msg.AuthorIsBot || !msg.MentionsMe || msg.Content == "" {
		return nil
	}

	b.logger.Info("received message", "conversation", msg.ConversationID, "thread", msg.IsThread)

	if msg.IsThread && msg.IsArchived {
		if err := b.chat.Unarchive(ctx, msg.ConversationID); err != nil {
			return fmt.Errorf("unarchiving conversation: %w", err)
		}
		b.logger.Info("unarchived conversation", "conversation", msg.ConversationID)
	}

	sessionID, backfilled, err := b.ensureSession(ctx, msg)
	if err != nil {
		return fmt.Errorf("ensuring session: %w", err)
	}

	// Backfill already replayed the thread history, current message
	// included; submitting it again would double it up.
	if !backfilled {
		if _, err := b.backend.AddMessage(ctx, sessionID, "user", msg.Content); err != nil {
			return fmt.Errorf("submitting message: %w", err)
		}
		b.logger.Debug("submitted message", "session", sessionID)
	}

	run, err := b.backend.CreateRun(ctx, sessionID, backend.RunParams{
		AssistantID:         b.opts.AssistantID,
		MaxCompletionTokens: b.opts.MaxCompletionTokens,
		VectorStoreIDs:      b.opts.VectorStoreIDs,
	})
	if err != nil {
		return fmt.Errorf("creating run: %w", err)
	}

	status, err := b.pollRun(ctx, sessionID, run.ID)
	if err != nil {
		return fmt.Errorf("polling run %s: %w", run.ID, err)
	}
	if status != backend.RunStatusCompleted {
		b.logger.Warn("run ended without completing", "run", run.ID, "status", status)
	}

	response, err := b.assembleResponse(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("assembling response: %w", err)
	}

	if err := b.deliver(ctx, msg.ConversationID, response); err != nil {
		return fmt.Errorf("delivering response: %w", err)
	}

	b.recordExchange(ctx, msg, sessionID, run.ID, response)
	return nil
}

// recordExchange appends the audit record for a completed round-trip.
// Audit failures are logged, never fatal.
func (b *Bridge) recordExchange(ctx context.Context, msg platform.Inbound, sessionID, runID, reply string) {
	ex := &store.Exchange{
		ID:             uuid.NewString(),
		ConversationID: msg.ConversationID,
		SessionID:      sessionID,
		RunID:          runID,
		Prompt:         msg.Content,
		Reply:          truncate(reply, 2000),
	}
	if err := b.store.RecordExchange(ctx, ex); err != nil {
		b.logger.Error("failed to record exchange", "conversation", msg.ConversationID, "error", err)
	}
}

// truncate shortens a string to the given max rune count, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// sleepCtx waits for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// blank reports whether a backfill entry should be dropped.
func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
