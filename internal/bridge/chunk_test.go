// ABOUTME: Tests for reply chunking and ordered delivery
// ABOUTME: Validates the split properties and sequential sends with spacing

package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks_Properties(t *testing.T) {
	tests := []struct {
		name  string
		input string
		size  int
		want  int
	}{
		{"empty", "", 1999, 0},
		{"under limit", "short", 1999, 1},
		{"exact limit", strings.Repeat("a", 10), 10, 1},
		{"one over", strings.Repeat("a", 11), 10, 2},
		{"several", strings.Repeat("a", 4500), 1999, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := splitChunks(tt.input, tt.size)
			assert.Len(t, chunks, tt.want)

			// Concatenation reproduces the input exactly
			assert.Equal(t, tt.input, strings.Join(chunks, ""))

			// Every chunk respects the limit
			for _, chunk := range chunks {
				assert.LessOrEqual(t, len(chunk), tt.size)
			}
		})
	}
}

func TestDeliver_OrderedChunks(t *testing.T) {
	st := newFakeStore()
	be := newFakeBackend()
	chat := newFakeChat()

	b := testBridge(t, st, be, chat)
	b.opts.ChunkSize = 4

	require.NoError(t, b.deliver(context.Background(), "conv-1", "abcdefghij"))

	assert.Equal(t, []string{"abcd", "efgh", "ij"}, chat.replies)
}

func TestDeliver_EmptyResponseSendsNothing(t *testing.T) {
	chat := newFakeChat()
	b := testBridge(t, newFakeStore(), newFakeBackend(), chat)

	require.NoError(t, b.deliver(context.Background(), "conv-1", ""))
	assert.Empty(t, chat.replies)
}

func TestDeliver_StopsOnSendFailure(t *testing.T) {
	chat := newFakeChat()
	chat.replyErr = assert.AnError

	b := testBridge(t, newFakeStore(), newFakeBackend(), chat)
	b.opts.ChunkSize = 2

	err := b.deliver(context.Background(), "conv-1", "abcdef")
	assert.Error(t, err)
	assert.Empty(t, chat.replies)
}
